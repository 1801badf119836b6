package algorithms

import (
	"math"
	"testing"
)

func TestJaccardIndex_IdenticalTexts(t *testing.T) {
	jaccard := NewJaccardIndexPlain()

	result := jaccard.Similarity("optus data breach", "optus data breach")
	if result != 1.0 {
		t.Errorf("Expected 1.0 for identical texts, got %f", result)
	}
}

func TestJaccardIndex_NoOverlap(t *testing.T) {
	jaccard := NewJaccardIndexPlain()

	result := jaccard.Similarity("optus outage", "medibank leak")
	if result != 0.0 {
		t.Errorf("Expected 0.0 for disjoint texts, got %f", result)
	}
}

func TestJaccardIndex_PartialOverlap(t *testing.T) {
	jaccard := NewJaccardIndexPlain()

	// Пересечение {data, breach} = 2, объединение {optus, data, breach, medibank} = 4
	result := jaccard.Similarity("optus data breach", "medibank data breach")
	if math.Abs(result-0.5) > 1e-9 {
		t.Errorf("Expected 0.5, got %f", result)
	}
}

func TestJaccardIndex_BothEmpty(t *testing.T) {
	jaccard := NewJaccardIndexPlain()

	if result := jaccard.Similarity("", ""); result != 1.0 {
		t.Errorf("Expected 1.0 for two empty texts, got %f", result)
	}
}

func TestJaccardIndex_OneEmpty(t *testing.T) {
	jaccard := NewJaccardIndexPlain()

	if result := jaccard.Similarity("optus", ""); result != 0.0 {
		t.Errorf("Expected 0.0 when one text is empty, got %f", result)
	}
}

func TestJaccardIndex_StemmedFormsMatch(t *testing.T) {
	jaccard := NewJaccardIndex()

	// Со стеммингом "attacks" и "attack" дают один токен
	result := jaccard.Similarity("ransomware attacks", "ransomware attack")
	if result != 1.0 {
		t.Errorf("Expected 1.0 for stemmed word forms, got %f", result)
	}
}

func TestJaccardIndex_SimilaritySets(t *testing.T) {
	jaccard := NewJaccardIndexPlain()

	set1 := map[string]bool{"optus": true, "singtel": true}
	set2 := map[string]bool{"optus": true}

	result := jaccard.SimilaritySets(set1, set2)
	if math.Abs(result-0.5) > 1e-9 {
		t.Errorf("Expected 0.5, got %f", result)
	}
}

func TestJaccardIndex_CommonTokens(t *testing.T) {
	jaccard := NewJaccardIndexPlain()

	common := jaccard.CommonTokens("optus data breach", "optus network outage")
	if len(common) != 1 || common[0] != "optus" {
		t.Errorf("Expected common tokens [optus], got %v", common)
	}
}
