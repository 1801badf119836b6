package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"incidentdedup/database"
	"incidentdedup/dedup"
)

func main() {
	inputPath := flag.String("input", "", "Path to a JSON file with candidate events (array of objects)")
	dbPath := flag.String("db", "dedup.db", "Path to the deduplication database (dedup.db by default)")
	threshold := flag.Float64("threshold", dedup.DefaultSimilarityThreshold, "Weighted similarity threshold for merging")
	workers := flag.Int("workers", 0, "Number of scoring workers (0 = NumCPU)")
	dryRun := flag.Bool("dry-run", false, "Run the pipeline without writing to the database")
	exportPath := flag.String("export", "", "Optional path to export the result (format by extension: .json, .csv, .xlsx)")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("flag -input is required")
	}

	events, err := loadEvents(*inputPath)
	if err != nil {
		log.Fatalf("failed to load events: %v", err)
	}

	orchestrator := dedup.NewDefaultOrchestrator(dedup.NewNoopOracle(), dedup.GroupingConfig{
		SimilarityThreshold: *threshold,
		Workers:             *workers,
	})

	result := orchestrator.Run(context.Background(), events)

	fmt.Println("\n--- Incident Event Deduplication ---")
	fmt.Printf("Input Events: %d\n", result.Stats.InputCount)
	fmt.Printf("Canonical Events: %d\n", result.Stats.OutputCount)
	fmt.Printf("Merge Groups: %d\n", result.Stats.GroupCount)
	fmt.Printf("Absorbed Events: %d\n", result.Stats.TotalMerges)
	fmt.Printf("Avg Group Confidence: %.2f\n", result.Stats.AvgConfidence)
	fmt.Printf("Duration: %.2fs\n", result.Stats.DurationSeconds)

	if len(result.Errors) > 0 {
		fmt.Printf("Validation Findings: %d\n", len(result.Errors))
		for _, verr := range result.Errors {
			fmt.Printf(" - %v\n", verr)
		}
	}

	fatal := false
	for _, verr := range result.Errors {
		if verr.IsFatal() {
			fatal = true
			break
		}
	}
	if fatal {
		log.Fatal("input validation failed, nothing was written")
	}

	if *dryRun {
		fmt.Println("Applied Writes: 0 (dry run)")
	} else {
		db, err := database.NewDedupDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open deduplication database: %v", err)
		}
		defer db.Close()

		if err := db.ClearAll(); err != nil {
			log.Fatalf("failed to clear previous results: %v", err)
		}
		storage, err := db.StoreResult(&result)
		if err != nil {
			log.Fatalf("failed to store result: %v", err)
		}

		fmt.Printf("Stored Canonical Rows: %d\n", storage.CanonicalCount)
		fmt.Printf("Stored Clusters: %d\n", storage.ClusterCount)
		fmt.Printf("Stored Lineage Rows: %d\n", storage.LineageCount)
		fmt.Printf("Store Duration: %s\n", storage.Duration.Round(time.Millisecond))
		for _, finding := range storage.IntegrityFindings {
			fmt.Printf("Integrity: %s\n", finding)
		}
	}

	if *exportPath != "" {
		exporter := dedup.NewResultExporter()
		if err := exporter.Export(&result, formatByExtension(*exportPath), *exportPath); err != nil {
			log.Fatalf("failed to export result: %v", err)
		}
		fmt.Printf("Exported: %s\n", *exportPath)
	}
}

// loadEvents читает массив событий-кандидатов из JSON-файла
func loadEvents(path string) ([]dedup.CandidateEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var events []dedup.CandidateEvent
	if err := json.NewDecoder(file).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
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
