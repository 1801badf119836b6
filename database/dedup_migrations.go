package database

import (
	"fmt"
	"log"
	"strings"
)

// Migrate создает таблицы движка дедупликации.
// canonical_events - канонические записи инцидентов;
// merge_clusters - кластеры слияния (по одному на группу с реальными слияниями);
// event_lineage - карта происхождения исходных записей.
func (db *DedupDB) Migrate() error {
	log.Println("Running migration: creating dedup tables...")

	tables := []string{
		`CREATE TABLE IF NOT EXISTS canonical_events (
			id TEXT PRIMARY KEY,
			source_event_id TEXT NOT NULL,
			title TEXT NOT NULL,
			summary TEXT,
			event_date DATE,
			event_type TEXT,
			severity TEXT,
			records_affected INTEGER,
			victim_org_name TEXT,
			victim_org_industry TEXT,
			data_sources TEXT,
			urls TEXT,
			confidence REAL DEFAULT 0.5,
			merge_count INTEGER DEFAULT 0,
			status TEXT CHECK(status IN ('active', 'superseded_by_reprocess')) DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS merge_clusters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			canonical_id TEXT NOT NULL,
			size INTEGER NOT NULL,
			avg_similarity REAL,
			reason TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(canonical_id) REFERENCES canonical_events(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS event_lineage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			canonical_id TEXT NOT NULL,
			raw_event_id TEXT NOT NULL,
			similarity REAL,
			contribution TEXT CHECK(contribution IN ('primary', 'merged')) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(canonical_id) REFERENCES canonical_events(id) ON DELETE CASCADE
		)`,
	}

	for _, createSQL := range tables {
		if _, err := db.conn.Exec(createSQL); err != nil {
			errStr := strings.ToLower(err.Error())
			if !strings.Contains(errStr, "already exists") {
				return fmt.Errorf("failed to create dedup table: %w", err)
			}
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_canonical_events_event_date ON canonical_events(event_date)`,
		`CREATE INDEX IF NOT EXISTS idx_canonical_events_victim_org ON canonical_events(victim_org_name)`,
		`CREATE INDEX IF NOT EXISTS idx_canonical_events_status ON canonical_events(status)`,
		`CREATE INDEX IF NOT EXISTS idx_merge_clusters_canonical_id ON merge_clusters(canonical_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_lineage_canonical_id ON event_lineage(canonical_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_lineage_raw_event_id ON event_lineage(raw_event_id)`,
	}

	successCount := 0
	for _, indexSQL := range indexes {
		if _, err := db.conn.Exec(indexSQL); err != nil {
			errStr := strings.ToLower(err.Error())
			if !strings.Contains(errStr, "duplicate index") && !strings.Contains(errStr, "already exists") {
				return fmt.Errorf("failed to create index: %w - %s", err, indexSQL)
			}
		} else {
			successCount++
		}
	}

	log.Printf("Dedup migration completed: 3 tables and %d indexes ready", successCount)
	return nil
}
