package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentdedup/dedup"
)

func newTestDB(t *testing.T) *DedupDB {
	t.Helper()
	db, err := NewDedupDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testResult() *dedup.DeduplicationResult {
	masterDate := time.Date(2022, time.September, 22, 0, 0, 0, 0, time.UTC)
	otherDate := time.Date(2022, time.October, 13, 0, 0, 0, 0, time.UTC)
	records := int64(9_800_000)

	master := dedup.CandidateEvent{
		ID:              "evt_1",
		Title:           "Optus cyber attack exposes customer data",
		Summary:         "Personal data of millions of Optus customers was exposed.",
		EventDate:       &masterDate,
		EventType:       "data_breach",
		Severity:        "critical",
		RecordsAffected: &records,
		VictimOrgName:   "Optus",
		DataSources:     []string{"reuters.com"},
		URLs:            []string{"https://example.com/optus"},
		Confidence:      0.9,
	}
	standalone := dedup.CandidateEvent{
		ID:            "evt_3",
		Title:         "Medibank confirms data theft",
		EventDate:     &otherDate,
		VictimOrgName: "Medibank",
		Confidence:    0.8,
	}
	absorbed := dedup.CandidateEvent{ID: "evt_2", Title: "Optus hack update"}

	return &dedup.DeduplicationResult{
		CanonicalEvents: []dedup.CandidateEvent{master, standalone},
		Groups: []dedup.MergeGroup{
			{
				Master:   master,
				Absorbed: []dedup.CandidateEvent{absorbed},
				Similarity: map[string]dedup.SimilarityScore{
					"evt_2": {Overall: 0.87},
				},
				Reason:     "Merged 1 duplicates: same entity and date (1)",
				Confidence: 0.87,
				CreatedAt:  time.Now().UTC(),
			},
		},
		Stats: dedup.Statistics{InputCount: 3, OutputCount: 2, GroupCount: 1, TotalMerges: 1},
	}
}

func TestStoreResult_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	storage, err := db.StoreResult(testResult())
	require.NoError(t, err)

	assert.Equal(t, 2, storage.CanonicalCount)
	assert.Equal(t, 1, storage.ClusterCount)
	assert.Equal(t, 2, storage.LineageCount)
	assert.Empty(t, storage.IntegrityFindings)

	events, err := db.GetCanonicalEvents(100, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Сортировка по дате события, свежие первыми
	assert.Equal(t, "evt_3", events[0].SourceEventID)
	assert.Equal(t, "evt_1", events[1].SourceEventID)

	stored := events[1]
	assert.Equal(t, "Optus cyber attack exposes customer data", stored.Title)
	assert.Equal(t, "active", stored.Status)
	assert.Equal(t, 1, stored.MergeCount)
	require.NotNil(t, stored.RecordsAffected)
	assert.Equal(t, int64(9_800_000), *stored.RecordsAffected)
	require.NotNil(t, stored.EventDate)
	assert.Equal(t, 2022, stored.EventDate.Year())
	assert.Equal(t, []string{"reuters.com"}, stored.DataSources)
}

func TestStoreResult_Lineage(t *testing.T) {
	db := newTestDB(t)

	_, err := db.StoreResult(testResult())
	require.NoError(t, err)

	clusters, err := db.GetClusters()
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 2, clusters[0].Size)
	assert.InDelta(t, 0.87, clusters[0].AvgSimilarity, 1e-9)

	lineage, err := db.GetLineage(clusters[0].CanonicalID)
	require.NoError(t, err)
	require.Len(t, lineage, 2)

	// primary сортируется перед merged
	assert.Equal(t, "primary", lineage[0].Contribution)
	assert.Equal(t, "evt_1", lineage[0].RawEventID)
	assert.InDelta(t, 1.0, lineage[0].Similarity, 1e-9)

	assert.Equal(t, "merged", lineage[1].Contribution)
	assert.Equal(t, "evt_2", lineage[1].RawEventID)
	assert.InDelta(t, 0.87, lineage[1].Similarity, 1e-9)
}

func TestStoreResult_Statistics(t *testing.T) {
	db := newTestDB(t)

	_, err := db.StoreResult(testResult())
	require.NoError(t, err)

	stats, err := db.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CanonicalEvents)
	assert.Equal(t, 1, stats.MergeClusters)
	assert.Equal(t, 2, stats.LineageRows)
	assert.InDelta(t, 0.87, stats.AvgSimilarity, 1e-9)
}

func TestClearAll(t *testing.T) {
	db := newTestDB(t)

	_, err := db.StoreResult(testResult())
	require.NoError(t, err)

	require.NoError(t, db.ClearAll())

	stats, err := db.Statistics()
	require.NoError(t, err)
	assert.Zero(t, stats.CanonicalEvents)
	assert.Zero(t, stats.MergeClusters)
	assert.Zero(t, stats.LineageRows)

	// Повторная очистка идемпотентна
	require.NoError(t, db.ClearAll())
}

func TestMarkAllSuperseded(t *testing.T) {
	db := newTestDB(t)

	_, err := db.StoreResult(testResult())
	require.NoError(t, err)

	require.NoError(t, db.MarkAllSuperseded())

	events, err := db.GetCanonicalEvents(100, 0)
	require.NoError(t, err)
	for _, event := range events {
		assert.Equal(t, "superseded_by_reprocess", event.Status)
	}
}

func TestVerifyIntegrity_CleanStore(t *testing.T) {
	db := newTestDB(t)

	_, err := db.StoreResult(testResult())
	require.NoError(t, err)

	findings, err := db.VerifyIntegrity()
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestGetCanonicalEvents_Pagination(t *testing.T) {
	db := newTestDB(t)

	_, err := db.StoreResult(testResult())
	require.NoError(t, err)

	page, err := db.GetCanonicalEvents(1, 0)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	rest, err := db.GetCanonicalEvents(1, 1)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.NotEqual(t, page[0].ID, rest[0].ID)
}

func TestGetLineage_Unknown(t *testing.T) {
	db := newTestDB(t)

	lineage, err := db.GetLineage("missing")
	require.NoError(t, err)
	assert.Empty(t, lineage)
}
