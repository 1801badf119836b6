package dedup

import (
	"reflect"
	"strings"
	"testing"
)

func TestSyntheticGenerator_Deterministic(t *testing.T) {
	first := NewSyntheticGenerator(42).GenerateCorpus(50, 0.3)
	second := NewSyntheticGenerator(42).GenerateCorpus(50, 0.3)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical corpora for the same seed")
	}
}

func TestSyntheticGenerator_CorpusSize(t *testing.T) {
	events := NewSyntheticGenerator(1).GenerateCorpus(100, 0.3)
	if len(events) != 100 {
		t.Errorf("Expected 100 events, got %d", len(events))
	}
}

func TestSyntheticGenerator_UniqueIDs(t *testing.T) {
	events := NewSyntheticGenerator(3).GenerateCorpus(200, 0.5)

	seen := make(map[string]bool, len(events))
	for _, event := range events {
		if seen[event.ID] {
			t.Fatalf("Duplicate id %q in corpus", event.ID)
		}
		seen[event.ID] = true
	}
}

func TestSyntheticGenerator_ContainsDuplicates(t *testing.T) {
	events := NewSyntheticGenerator(5).GenerateCorpus(100, 0.5)

	duplicates := 0
	for _, event := range events {
		if strings.HasSuffix(event.ID, "_dup") {
			duplicates++
		}
	}
	if duplicates == 0 {
		t.Error("Expected rephrased duplicates in the corpus")
	}
}

func TestSyntheticGenerator_ZeroRatio(t *testing.T) {
	events := NewSyntheticGenerator(9).GenerateCorpus(50, 0.0)

	for _, event := range events {
		if strings.HasSuffix(event.ID, "_dup") {
			t.Fatalf("Unexpected duplicate %q with zero ratio", event.ID)
		}
	}
}

func TestSyntheticGenerator_FieldsPopulated(t *testing.T) {
	events := NewSyntheticGenerator(13).GenerateCorpus(20, 0.0)

	for _, event := range events {
		if event.Title == "" {
			t.Errorf("Event %s has empty title", event.ID)
		}
		if !event.HasDate() {
			t.Errorf("Event %s has no date", event.ID)
		}
		if event.VictimOrgName == "" {
			t.Errorf("Event %s has no victim org", event.ID)
		}
	}
}
