package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"incidentdedup/database"
	"incidentdedup/dedup"
)

func main() {
	dbPath := flag.String("db", "dedup.db", "Path to the deduplication database (dedup.db by default)")
	outputPath := flag.String("output", "dedup_export.xlsx", "Output file (.json, .csv or .xlsx)")
	limit := flag.Int("limit", 10_000, "Maximum number of canonical events to export")
	flag.Parse()

	db, err := database.NewDedupDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open deduplication database: %v", err)
	}
	defer db.Close()

	result, err := buildResult(db, *limit)
	if err != nil {
		log.Fatalf("failed to read stored results: %v", err)
	}

	exporter := dedup.NewResultExporter()
	if err := exporter.Export(result, formatByExtension(*outputPath), *outputPath); err != nil {
		log.Fatalf("failed to export: %v", err)
	}

	fmt.Println("\n--- Deduplication Results Export ---")
	fmt.Printf("Canonical Events: %d\n", len(result.CanonicalEvents))
	fmt.Printf("Merge Groups: %d\n", len(result.Groups))
	fmt.Printf("Output: %s\n", *outputPath)
}

// buildResult восстанавливает результат прогона из хранилища: канонические
// строки, кластеры слияния и их карты происхождения
func buildResult(db *database.DedupDB, limit int) (*dedup.DeduplicationResult, error) {
	rows, err := db.GetCanonicalEvents(limit, 0)
	if err != nil {
		return nil, err
	}

	byCanonicalID := make(map[string]dedup.CandidateEvent, len(rows))
	events := make([]dedup.CandidateEvent, 0, len(rows))
	for _, row := range rows {
		event := rowToEvent(row)
		byCanonicalID[row.ID] = event
		events = append(events, event)
	}

	clusters, err := db.GetClusters()
	if err != nil {
		return nil, err
	}

	groups := make([]dedup.MergeGroup, 0, len(clusters))
	for _, cluster := range clusters {
		master, ok := byCanonicalID[cluster.CanonicalID]
		if !ok {
			continue
		}
		group := dedup.MergeGroup{
			Master:     master,
			Reason:     cluster.Reason,
			Confidence: cluster.AvgSimilarity,
		}

		lineage, err := db.GetLineage(cluster.CanonicalID)
		if err != nil {
			return nil, err
		}
		for _, entry := range lineage {
			if entry.Contribution == "merged" {
				group.Absorbed = append(group.Absorbed, dedup.CandidateEvent{ID: entry.RawEventID})
			}
		}
		groups = append(groups, group)
	}

	stats := dedup.Statistics{
		OutputCount: len(events),
		GroupCount:  len(groups),
	}
	for _, group := range groups {
		stats.TotalMerges += len(group.Absorbed)
	}

	return &dedup.DeduplicationResult{
		CanonicalEvents: events,
		Groups:          groups,
		Stats:           stats,
	}, nil
}

// rowToEvent преобразует сохраненную каноническую строку обратно в событие
func rowToEvent(row database.CanonicalEventRow) dedup.CandidateEvent {
	return dedup.CandidateEvent{
		ID:                row.SourceEventID,
		Title:             row.Title,
		Summary:           row.Summary,
		EventDate:         row.EventDate,
		EventType:         row.EventType,
		Severity:          row.Severity,
		RecordsAffected:   row.RecordsAffected,
		VictimOrgName:     row.VictimOrgName,
		VictimOrgIndustry: row.VictimOrgIndustry,
		DataSources:       row.DataSources,
		URLs:              row.URLs,
		Confidence:        row.Confidence,
	}
}

// formatByExtension определяет формат экспорта по расширению файла
func formatByExtension(path string) dedup.ExportFormat {
	switch {
	case strings.HasSuffix(path, ".xlsx"):
		return dedup.FormatExcel
	case strings.HasSuffix(path, ".csv"):
		return dedup.FormatCSV
	default:
		return dedup.FormatJSON
	}
}
