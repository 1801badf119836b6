package dedup

import (
	"math"
	"strings"
	"testing"
	"time"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestSimilarityWeights_SumToOne(t *testing.T) {
	weights := DefaultSimilarityWeights()
	sum := weights.Title + weights.Entity + weights.Content + weights.Temporal
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("Expected weights to sum to 1.0, got %f", sum)
	}
}

func TestSimilarityCalculator_IdenticalEvents(t *testing.T) {
	calc := NewSimilarityCalculator()

	event := CandidateEvent{
		ID:        "evt_1",
		Title:     "Optus Data Breach Exposes Customers",
		Summary:   "Personal data of millions of customers was exposed in the attack.",
		EventDate: datePtr(2022, time.September, 22),
	}

	score := calc.Score(event, event)

	if score.Title != 1.0 {
		t.Errorf("Expected title similarity 1.0, got %f", score.Title)
	}
	if score.Entity != 1.0 {
		t.Errorf("Expected entity similarity 1.0, got %f", score.Entity)
	}
	if score.Content != 1.0 {
		t.Errorf("Expected content similarity 1.0, got %f", score.Content)
	}
	if score.Temporal != 1.0 {
		t.Errorf("Expected temporal similarity 1.0, got %f", score.Temporal)
	}
	if math.Abs(score.Overall-1.0) > 1e-9 {
		t.Errorf("Expected overall 1.0, got %f", score.Overall)
	}
	if math.Abs(score.Confidence-1.0) > 1e-9 {
		t.Errorf("Expected full component agreement, got %f", score.Confidence)
	}
}

func TestSimilarityCalculator_DecoratedTitleMatch(t *testing.T) {
	calc := NewSimilarityCalculator()

	a := CandidateEvent{ID: "a", Title: "Optus hit by cyber attack"}
	b := CandidateEvent{ID: "b", Title: "Optus hit by cyber attack - Reuters"}

	score := calc.Score(a, b)
	if math.Abs(score.Title-0.95) > 1e-9 {
		t.Errorf("Expected decorated title score 0.95, got %f", score.Title)
	}
}

func TestSimilarityCalculator_SubstringTitle(t *testing.T) {
	calc := NewSimilarityCalculator()

	a := CandidateEvent{ID: "a", Title: "Optus data breach"}
	b := CandidateEvent{ID: "b", Title: "Optus data breach exposes millions of customers"}

	score := calc.Score(a, b)
	if score.Title < 0.8 {
		t.Errorf("Expected substring title score >= 0.8, got %f", score.Title)
	}
}

func TestSimilarityCalculator_EmptyTitles(t *testing.T) {
	calc := NewSimilarityCalculator()

	score := calc.Score(CandidateEvent{ID: "a"}, CandidateEvent{ID: "b", Title: "Optus breach"})
	if score.Title != 0.0 {
		t.Errorf("Expected 0.0 title similarity for empty title, got %f", score.Title)
	}
	if score.Entity != 0.0 {
		t.Errorf("Expected 0.0 entity similarity for empty title, got %f", score.Entity)
	}
}

func TestSimilarityCalculator_TemporalSteps(t *testing.T) {
	calc := NewSimilarityCalculator()

	base := CandidateEvent{ID: "a", Title: "x", EventDate: datePtr(2022, time.September, 22)}

	tests := []struct {
		name     string
		date     *time.Time
		expected float64
	}{
		{"same date", datePtr(2022, time.September, 22), 1.0},
		{"within a week", datePtr(2022, time.September, 27), 0.8},
		{"within a month", datePtr(2022, time.October, 15), 0.6},
		{"within a quarter", datePtr(2022, time.November, 25), 0.4},
		{"within a year", datePtr(2023, time.March, 1), 0.2},
		{"over a year", datePtr(2024, time.January, 1), 0.0},
		{"missing date", nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := CandidateEvent{ID: "b", Title: "x", EventDate: tt.date}
			score := calc.Score(base, other)
			if math.Abs(score.Temporal-tt.expected) > 1e-9 {
				t.Errorf("Expected temporal %f, got %f", tt.expected, score.Temporal)
			}
		})
	}
}

func TestSimilarityCalculator_ConfidenceDropsOnDisagreement(t *testing.T) {
	calc := NewSimilarityCalculator()

	// Заголовки совпадают, но даты далеко: компоненты расходятся
	a := CandidateEvent{ID: "a", Title: "Optus network outage", EventDate: datePtr(2022, time.January, 1)}
	b := CandidateEvent{ID: "b", Title: "Optus network outage", EventDate: datePtr(2024, time.June, 1)}

	score := calc.Score(a, b)
	if score.Confidence >= 0.5 {
		t.Errorf("Expected low confidence for disagreeing components, got %f", score.Confidence)
	}
}

func TestSimilarityCalculator_Reasoning(t *testing.T) {
	calc := NewSimilarityCalculator()

	a := CandidateEvent{ID: "a", Title: "Optus suffers outage", EventDate: datePtr(2022, time.September, 22)}
	b := CandidateEvent{ID: "b", Title: "Optus suffers outage", EventDate: datePtr(2022, time.September, 23)}

	score := calc.Score(a, b)
	if !strings.Contains(score.Reasoning, "same organization") {
		t.Errorf("Expected reasoning to mention same organization, got %q", score.Reasoning)
	}
	if !strings.Contains(score.Reasoning, "close in time") {
		t.Errorf("Expected reasoning to mention temporal closeness, got %q", score.Reasoning)
	}
}

func TestSimilarityCalculator_NormalizeTitle(t *testing.T) {
	calc := NewSimilarityCalculator()

	if result := calc.NormalizeTitle("  Optus: Data Breach!  "); result != "optus data breach" {
		t.Errorf("Expected 'optus data breach', got %q", result)
	}
}

func TestSimilarityCalculator_ScoreBounds(t *testing.T) {
	calc := NewSimilarityCalculator()

	a := CandidateEvent{ID: "a", Title: "Medibank confirms data theft", Summary: "Hackers accessed customer records.", EventDate: datePtr(2022, time.October, 13)}
	b := CandidateEvent{ID: "b", Title: "Medibank customer data stolen", Summary: "Customer records were accessed by hackers.", EventDate: datePtr(2022, time.October, 15)}

	score := calc.Score(a, b)
	for name, value := range map[string]float64{
		"title":      score.Title,
		"entity":     score.Entity,
		"content":    score.Content,
		"temporal":   score.Temporal,
		"overall":    score.Overall,
		"confidence": score.Confidence,
	} {
		if value < 0.0 || value > 1.0 {
			t.Errorf("Component %s out of [0, 1]: %f", name, value)
		}
	}
}
