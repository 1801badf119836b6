package dedup

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestMergeResolver_Singleton(t *testing.T) {
	resolver := NewMergeResolver(NewAliasResolver(DefaultAliasConfig()))

	event := CandidateEvent{ID: "a", Title: "Optus breach", EventDate: datePtr(2022, time.September, 22)}
	group := EventGroup{Members: []CandidateEvent{event}, Matches: map[string]MatchInfo{}}

	canonical, merge := resolver.Resolve(group)
	if canonical.ID != "a" {
		t.Errorf("Expected singleton to pass through, got %q", canonical.ID)
	}
	if !merge.IsSingleton() {
		t.Error("Expected singleton merge group")
	}
	if merge.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0 for singleton, got %f", merge.Confidence)
	}
	if merge.Reason != "Single event" {
		t.Errorf("Expected reason 'Single event', got %q", merge.Reason)
	}
}

func TestMergeResolver_SelectsCompleteMaster(t *testing.T) {
	resolver := NewMergeResolver(NewAliasResolver(DefaultAliasConfig()))

	sparse := CandidateEvent{
		ID:        "sparse",
		Title:     "Optus breach",
		EventDate: datePtr(2022, time.September, 22),
	}
	rich := CandidateEvent{
		ID:              "rich",
		Title:           "Optus cyber attack exposes customer data",
		Summary:         strings.Repeat("Details about the incident and affected customers. ", 3),
		EventDate:       datePtr(2022, time.September, 23),
		EventType:       "data_breach",
		Severity:        "critical",
		RecordsAffected: int64Ptr(9_800_000),
	}

	group := EventGroup{
		Members: []CandidateEvent{sparse, rich},
		Matches: map[string]MatchInfo{"rich": {Rule: RuleSameEntityDate, Score: SimilarityScore{Overall: 0.9}}},
	}

	canonical, merge := resolver.Resolve(group)
	if merge.Master.ID == "sparse" {
		t.Error("Expected the more complete event to be selected as master")
	}
	if canonical.Severity != "critical" || canonical.EventType != "data_breach" {
		t.Errorf("Expected master fields preserved, got severity=%q type=%q", canonical.Severity, canonical.EventType)
	}
}

func TestMergeResolver_ConsolidatesFields(t *testing.T) {
	resolver := NewMergeResolver(NewAliasResolver(DefaultAliasConfig()))

	first := CandidateEvent{
		ID:              "first",
		Title:           "Optus cyber attack",
		Summary:         strings.Repeat("Long detailed summary of the Optus incident. ", 3),
		EventDate:       datePtr(2022, time.September, 24),
		EventType:       "data_breach",
		Severity:        "high",
		RecordsAffected: int64Ptr(2_100_000),
		VictimOrgName:   "Singtel Optus",
		DataSources:     []string{"reuters.com"},
		URLs:            []string{"https://example.com/a"},
	}
	second := CandidateEvent{
		ID:              "second",
		Title:           "Optus data breach update",
		Summary:         "Short note.",
		EventDate:       datePtr(2022, time.September, 22),
		RecordsAffected: int64Ptr(9_800_000),
		DataSources:     []string{"abc.net.au", "reuters.com"},
		URLs:            []string{"https://example.com/b"},
	}

	group := EventGroup{
		Members: []CandidateEvent{first, second},
		Matches: map[string]MatchInfo{"second": {Rule: RuleSameEntitySimilarText, Score: SimilarityScore{Overall: 0.85}}},
	}

	canonical, merge := resolver.Resolve(group)

	// Дата - самая ранняя в группе
	if !canonical.EventDate.Equal(time.Date(2022, time.September, 22, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected earliest date 2022-09-22, got %v", canonical.EventDate)
	}

	// Описание - самое длинное
	if canonical.Summary == "Short note." {
		t.Error("Expected the longest summary to win")
	}

	// Число записей - максимум правдоподобных значений
	if canonical.RecordsAffected == nil || *canonical.RecordsAffected != 9_800_000 {
		t.Errorf("Expected max records 9800000, got %v", canonical.RecordsAffected)
	}

	// Организация канонизируется через таблицу псевдонимов
	if canonical.VictimOrgName != "Optus" {
		t.Errorf("Expected canonical org 'Optus', got %q", canonical.VictimOrgName)
	}

	// Источники - отсортированное объединение множеств
	expectedSources := []string{"abc.net.au", "reuters.com"}
	if !reflect.DeepEqual(canonical.DataSources, expectedSources) {
		t.Errorf("Expected sources %v, got %v", expectedSources, canonical.DataSources)
	}
	if len(canonical.URLs) != 2 {
		t.Errorf("Expected 2 urls, got %v", canonical.URLs)
	}

	if math.Abs(merge.Confidence-0.85) > 1e-9 {
		t.Errorf("Expected group confidence 0.85, got %f", merge.Confidence)
	}
	if !strings.Contains(merge.Reason, "Merged 1 duplicates") {
		t.Errorf("Unexpected merge reason %q", merge.Reason)
	}
}

func TestMergeResolver_ImplausibleRecordsDropped(t *testing.T) {
	resolver := NewMergeResolver(NewAliasResolver(DefaultAliasConfig()))

	group := EventGroup{
		Members: []CandidateEvent{
			{ID: "a", Title: "Optus data breach", RecordsAffected: int64Ptr(60_000_000)},
			{ID: "b", Title: "Optus data breach grows", RecordsAffected: int64Ptr(9_800_000)},
		},
		Matches: map[string]MatchInfo{"b": {Rule: RuleSameEntityDate, Score: SimilarityScore{Overall: 0.9}}},
	}

	// 60 млн превышает предел для контекста "optus" и отбрасывается
	canonical, _ := resolver.Resolve(group)
	if canonical.RecordsAffected == nil || *canonical.RecordsAffected != 9_800_000 {
		t.Errorf("Expected implausible value dropped, got %v", canonical.RecordsAffected)
	}
}

func TestMergeResolver_GlobalRecordsCap(t *testing.T) {
	resolver := NewMergeResolver(NewAliasResolver(DefaultAliasConfig()))

	group := EventGroup{
		Members: []CandidateEvent{
			{ID: "a", Title: "massive global leak", RecordsAffected: int64Ptr(12_000_000_000)},
			{ID: "b", Title: "massive global leak confirmed"},
		},
		Matches: map[string]MatchInfo{"b": {Rule: RuleExactDuplicate, Score: SimilarityScore{Overall: 0.8}}},
	}

	canonical, _ := resolver.Resolve(group)
	if canonical.RecordsAffected != nil {
		t.Errorf("Expected no plausible records value, got %v", canonical.RecordsAffected)
	}
}

func TestMergeResolver_EmptyGroup(t *testing.T) {
	resolver := NewMergeResolver(NewAliasResolver(DefaultAliasConfig()))

	_, merge := resolver.Resolve(EventGroup{})
	if merge.Reason != "Empty group" {
		t.Errorf("Expected 'Empty group' reason, got %q", merge.Reason)
	}
}

func TestMergeResolver_MissingDates(t *testing.T) {
	resolver := NewMergeResolver(NewAliasResolver(DefaultAliasConfig()))

	group := EventGroup{
		Members: []CandidateEvent{
			{ID: "a", Title: "incident without date"},
			{ID: "b", Title: "incident without date repeated"},
		},
		Matches: map[string]MatchInfo{"b": {Rule: RuleDescriptionFallback, Score: SimilarityScore{Overall: 0.8}}},
	}

	canonical, _ := resolver.Resolve(group)
	if canonical.EventDate != nil {
		t.Errorf("Expected nil date when no member has one, got %v", canonical.EventDate)
	}
}
