package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"incidentdedup/dedup"
)

// Генератор тестовых корпусов событий-кандидатов для нагрузочных
// тестов и бенчмарков конвейера дедупликации.
//
// Запуск: go run scripts/generate_test_events.go -out tests/data

func main() {
	outDir := flag.String("out", filepath.Join("tests", "data"), "Output directory for generated corpora")
	seed := flag.Uint64("seed", 42, "Random seed for deterministic generation")
	duplicateRatio := flag.Float64("dup-ratio", 0.3, "Fraction of rephrased duplicate events")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	sizes := []struct {
		name string
		size int
	}{
		{"100", 100},
		{"1K", 1000},
		{"10K", 10000},
	}

	generator := dedup.NewSyntheticGenerator(*seed)

	for _, size := range sizes {
		events := generator.GenerateCorpus(size.size, *duplicateRatio)

		filename := filepath.Join(*outDir, fmt.Sprintf("events_%s.json", size.name))
		if err := writeEvents(filename, events); err != nil {
			log.Fatalf("Failed to write %s: %v", filename, err)
		}

		fmt.Printf("Generated %d events -> %s\n", len(events), filename)
	}
}

// writeEvents сохраняет корпус событий в JSON-файл
func writeEvents(filename string, events []dedup.CandidateEvent) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(events)
}
