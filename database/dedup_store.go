package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"incidentdedup/dedup"
)

// CanonicalEventRow сохраненная каноническая запись инцидента
type CanonicalEventRow struct {
	ID                string     `json:"id"`
	SourceEventID     string     `json:"source_event_id"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary,omitempty"`
	EventDate         *time.Time `json:"event_date,omitempty"`
	EventType         string     `json:"event_type,omitempty"`
	Severity          string     `json:"severity,omitempty"`
	RecordsAffected   *int64     `json:"records_affected,omitempty"`
	VictimOrgName     string     `json:"victim_org_name,omitempty"`
	VictimOrgIndustry string     `json:"victim_org_industry,omitempty"`
	DataSources       []string   `json:"data_sources,omitempty"`
	URLs              []string   `json:"urls,omitempty"`
	Confidence        float64    `json:"confidence"`
	MergeCount        int        `json:"merge_count"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
}

// LineageRow строка карты происхождения: вклад одной исходной записи
// в каноническую запись
type LineageRow struct {
	CanonicalID  string  `json:"canonical_id"`
	RawEventID   string  `json:"raw_event_id"`
	Similarity   float64 `json:"similarity"`
	Contribution string  `json:"contribution"` // 'primary' или 'merged'
}

// ClusterRow строка кластера слияния
type ClusterRow struct {
	ID            int64   `json:"id"`
	CanonicalID   string  `json:"canonical_id"`
	Size          int     `json:"size"`
	AvgSimilarity float64 `json:"avg_similarity"`
	Reason        string  `json:"reason"`
}

// StorageResult итог сохранения результата прогона
type StorageResult struct {
	CanonicalCount    int           `json:"canonical_count"`
	ClusterCount      int           `json:"cluster_count"`
	LineageCount      int           `json:"lineage_count"`
	IntegrityFindings []string      `json:"integrity_findings,omitempty"`
	Duration          time.Duration `json:"-"`
}

// StorageStats сводная статистика хранилища
type StorageStats struct {
	CanonicalEvents int     `json:"canonical_events"`
	MergeClusters   int     `json:"merge_clusters"`
	LineageRows     int     `json:"lineage_rows"`
	AvgSimilarity   float64 `json:"avg_similarity"`
}

// StoreResult сохраняет результат прогона дедупликации в одной транзакции:
// одна каноническая строка на выходное событие, по одному кластеру и N строк
// происхождения на каждую группу с реальными слияниями. Любая ошибка до
// фиксации откатывает транзакцию целиком. После фиксации выполняется
// проверка целостности; ее находки информационные и не откатывают запись.
func (db *DedupDB) StoreResult(result *dedup.DeduplicationResult) (*StorageResult, error) {
	started := time.Now()

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Идентификатор канонической записи по ID мастер-события группы
	canonicalByMaster := make(map[string]string, len(result.CanonicalEvents))

	insertEvent, err := tx.Prepare(`
		INSERT INTO canonical_events (
			id, source_event_id, title, summary, event_date, event_type,
			severity, records_affected, victim_org_name, victim_org_industry,
			data_sources, urls, confidence, merge_count, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'active')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare canonical insert: %w", err)
	}
	defer insertEvent.Close()

	mergeCounts := make(map[string]int, len(result.Groups))
	for _, group := range result.Groups {
		mergeCounts[group.Master.ID] = len(group.Absorbed)
	}

	storage := &StorageResult{}

	for _, event := range result.CanonicalEvents {
		canonicalID := uuid.New().String()
		canonicalByMaster[event.ID] = canonicalID

		var eventDate interface{}
		if event.HasDate() {
			eventDate = event.EventDate.Format("2006-01-02")
		}
		var records interface{}
		if event.RecordsAffected != nil {
			records = *event.RecordsAffected
		}

		if _, err := insertEvent.Exec(
			canonicalID, event.ID, event.Title, event.Summary, eventDate,
			event.EventType, event.Severity, records,
			event.VictimOrgName, event.VictimOrgIndustry,
			marshalStrings(event.DataSources), marshalStrings(event.URLs),
			event.Confidence, mergeCounts[event.ID],
		); err != nil {
			return nil, fmt.Errorf("failed to insert canonical event %s: %w", event.ID, err)
		}
		storage.CanonicalCount++
	}

	insertCluster, err := tx.Prepare(`
		INSERT INTO merge_clusters (canonical_id, size, avg_similarity, reason)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare cluster insert: %w", err)
	}
	defer insertCluster.Close()

	insertLineage, err := tx.Prepare(`
		INSERT INTO event_lineage (canonical_id, raw_event_id, similarity, contribution)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lineage insert: %w", err)
	}
	defer insertLineage.Close()

	for _, group := range result.Groups {
		canonicalID, ok := canonicalByMaster[group.Master.ID]
		if !ok {
			return nil, fmt.Errorf("merge group master %s has no canonical event", group.Master.ID)
		}

		avgSimilarity := group.Confidence
		if _, err := insertCluster.Exec(canonicalID, len(group.Absorbed)+1, avgSimilarity, group.Reason); err != nil {
			return nil, fmt.Errorf("failed to insert merge cluster for %s: %w", canonicalID, err)
		}
		storage.ClusterCount++

		// Мастер-запись входит в происхождение как первичный вклад
		if _, err := insertLineage.Exec(canonicalID, group.Master.ID, 1.0, "primary"); err != nil {
			return nil, fmt.Errorf("failed to insert primary lineage for %s: %w", canonicalID, err)
		}
		storage.LineageCount++

		for _, absorbed := range group.Absorbed {
			similarity := group.Similarity[absorbed.ID].Overall
			if _, err := insertLineage.Exec(canonicalID, absorbed.ID, similarity, "merged"); err != nil {
				return nil, fmt.Errorf("failed to insert lineage for %s: %w", absorbed.ID, err)
			}
			storage.LineageCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dedup result: %w", err)
	}

	// Пост-фиксационная проверка целостности: запись уже состоялась,
	// находки только репортуются
	findings, err := db.VerifyIntegrity()
	if err != nil {
		log.Printf("integrity verification failed after commit: %v", err)
	} else {
		storage.IntegrityFindings = findings
	}

	storage.Duration = time.Since(started)
	return storage, nil
}

// ClearAll идемпотентно очищает все таблицы дедупликации в порядке
// зависимостей: происхождение -> кластеры -> канонические записи.
// Обязательный шаг перед полным перерасчетом по тому же корпусу.
func (db *DedupDB) ClearAll() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"event_lineage", "merge_clusters", "canonical_events"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

// MarkAllSuperseded помечает все активные канонические записи как
// вытесненные перерасчетом. Для потоков, сохраняющих историю вместо
// полной очистки.
func (db *DedupDB) MarkAllSuperseded() error {
	_, err := db.conn.Exec(`
		UPDATE canonical_events
		SET status = 'superseded_by_reprocess', updated_at = CURRENT_TIMESTAMP
		WHERE status = 'active'
	`)
	if err != nil {
		return fmt.Errorf("failed to mark canonical events superseded: %w", err)
	}
	return nil
}

// VerifyIntegrity сканирует хранилище на нарушения ссылочной целостности
// и дубли. Возвращает список текстовых находок; пустой список - нарушений нет.
func (db *DedupDB) VerifyIntegrity() ([]string, error) {
	findings := make([]string, 0)

	checks := []struct {
		query   string
		message string
	}{
		{
			`SELECT COUNT(*) FROM (SELECT id FROM canonical_events GROUP BY id HAVING COUNT(*) > 1)`,
			"duplicate canonical ids: %d",
		},
		{
			`SELECT COUNT(*) FROM (
				SELECT LOWER(title), event_date FROM canonical_events
				WHERE status = 'active'
				GROUP BY LOWER(title), event_date HAVING COUNT(*) > 1
			)`,
			"duplicate title+date pairs: %d",
		},
		{
			`SELECT COUNT(*) FROM event_lineage l
			 LEFT JOIN canonical_events c ON c.id = l.canonical_id
			 WHERE c.id IS NULL`,
			"lineage rows referencing missing canonical events: %d",
		},
		{
			`SELECT COUNT(*) FROM merge_clusters m
			 LEFT JOIN canonical_events c ON c.id = m.canonical_id
			 WHERE c.id IS NULL`,
			"cluster rows referencing missing canonical events: %d",
		},
	}

	for _, check := range checks {
		var count int
		if err := db.conn.QueryRow(check.query).Scan(&count); err != nil {
			return nil, fmt.Errorf("integrity check failed: %w", err)
		}
		if count > 0 {
			findings = append(findings, fmt.Sprintf(check.message, count))
		}
	}

	return findings, nil
}

// Statistics возвращает сводную статистику хранилища
func (db *DedupDB) Statistics() (*StorageStats, error) {
	stats := &StorageStats{}

	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM canonical_events`).Scan(&stats.CanonicalEvents); err != nil {
		return nil, fmt.Errorf("failed to count canonical events: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM merge_clusters`).Scan(&stats.MergeClusters); err != nil {
		return nil, fmt.Errorf("failed to count merge clusters: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM event_lineage`).Scan(&stats.LineageRows); err != nil {
		return nil, fmt.Errorf("failed to count lineage rows: %w", err)
	}

	var avg sql.NullFloat64
	if err := db.conn.QueryRow(`SELECT AVG(avg_similarity) FROM merge_clusters`).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to compute average similarity: %w", err)
	}
	if avg.Valid {
		stats.AvgSimilarity = avg.Float64
	}

	return stats, nil
}

// GetLineage возвращает происхождение одной канонической записи
func (db *DedupDB) GetLineage(canonicalID string) ([]LineageRow, error) {
	rows, err := db.conn.Query(`
		SELECT canonical_id, raw_event_id, similarity, contribution
		FROM event_lineage
		WHERE canonical_id = ?
		ORDER BY contribution DESC, raw_event_id
	`, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lineage for %s: %w", canonicalID, err)
	}
	defer rows.Close()

	lineage := make([]LineageRow, 0)
	for rows.Next() {
		var row LineageRow
		var similarity sql.NullFloat64
		if err := rows.Scan(&row.CanonicalID, &row.RawEventID, &similarity, &row.Contribution); err != nil {
			return nil, fmt.Errorf("failed to scan lineage row: %w", err)
		}
		if similarity.Valid {
			row.Similarity = similarity.Float64
		}
		lineage = append(lineage, row)
	}

	return lineage, rows.Err()
}

// GetCanonicalEvents возвращает сохраненные канонические записи,
// отсортированные по дате события (свежие первыми)
func (db *DedupDB) GetCanonicalEvents(limit, offset int) ([]CanonicalEventRow, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, source_event_id, title, summary, event_date, event_type,
		       severity, records_affected, victim_org_name, victim_org_industry,
		       data_sources, urls, confidence, merge_count, status, created_at
		FROM canonical_events
		ORDER BY event_date DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query canonical events: %w", err)
	}
	defer rows.Close()

	events := make([]CanonicalEventRow, 0)
	for rows.Next() {
		row, err := scanCanonicalEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, row)
	}

	return events, rows.Err()
}

// GetClusters возвращает все кластеры слияния
func (db *DedupDB) GetClusters() ([]ClusterRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, canonical_id, size, avg_similarity, reason
		FROM merge_clusters
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merge clusters: %w", err)
	}
	defer rows.Close()

	clusters := make([]ClusterRow, 0)
	for rows.Next() {
		var cluster ClusterRow
		var avg sql.NullFloat64
		var reason sql.NullString
		if err := rows.Scan(&cluster.ID, &cluster.CanonicalID, &cluster.Size, &avg, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan cluster row: %w", err)
		}
		if avg.Valid {
			cluster.AvgSimilarity = avg.Float64
		}
		cluster.Reason = reason.String
		clusters = append(clusters, cluster)
	}

	return clusters, rows.Err()
}

// scanCanonicalEvent читает одну строку canonical_events
func scanCanonicalEvent(rows *sql.Rows) (CanonicalEventRow, error) {
	var row CanonicalEventRow
	var summary, eventType, severity sql.NullString
	var victimOrg, victimIndustry, dataSources, urls sql.NullString
	var records sql.NullInt64
	// Драйвер go-sqlite3 возвращает колонки DATE/TIMESTAMP как time.Time
	var eventDate, createdAt sql.NullTime

	if err := rows.Scan(
		&row.ID, &row.SourceEventID, &row.Title, &summary, &eventDate,
		&eventType, &severity, &records, &victimOrg, &victimIndustry,
		&dataSources, &urls, &row.Confidence, &row.MergeCount, &row.Status,
		&createdAt,
	); err != nil {
		return row, fmt.Errorf("failed to scan canonical event: %w", err)
	}

	row.Summary = summary.String
	row.EventType = eventType.String
	row.Severity = severity.String
	row.VictimOrgName = victimOrg.String
	row.VictimOrgIndustry = victimIndustry.String

	if eventDate.Valid {
		d := eventDate.Time
		row.EventDate = &d
	}
	if records.Valid {
		r := records.Int64
		row.RecordsAffected = &r
	}
	row.DataSources = unmarshalStrings(dataSources.String)
	row.URLs = unmarshalStrings(urls.String)
	if createdAt.Valid {
		row.CreatedAt = createdAt.Time
	}

	return row, nil
}

// marshalStrings сериализует множество строк в JSON для хранения
func marshalStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// unmarshalStrings восстанавливает множество строк из JSON
func unmarshalStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
