package dedup

import (
	"time"
)

// CandidateEvent кандидат-запись об инциденте безопасности.
// Записи поступают из внешнего конвейера обогащения (новости, отчеты
// регуляторов, дашборды) и не изменяются движком на месте.
type CandidateEvent struct {
	ID                string     `json:"id"`
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
}

// Clone возвращает глубокую копию события
func (e CandidateEvent) Clone() CandidateEvent {
	clone := e
	if e.EventDate != nil {
		d := *e.EventDate
		clone.EventDate = &d
	}
	if e.RecordsAffected != nil {
		r := *e.RecordsAffected
		clone.RecordsAffected = &r
	}
	clone.DataSources = append([]string(nil), e.DataSources...)
	clone.URLs = append([]string(nil), e.URLs...)
	return clone
}

// HasDate сообщает, установлена ли у события дата
func (e CandidateEvent) HasDate() bool {
	return e.EventDate != nil && !e.EventDate.IsZero()
}

// DayDifference возвращает модуль разницы дат двух событий в днях.
// Второе возвращаемое значение false, если хотя бы одна дата отсутствует.
func DayDifference(a, b CandidateEvent) (int, bool) {
	if !a.HasDate() || !b.HasDate() {
		return 0, false
	}
	diff := a.EventDate.Sub(*b.EventDate)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24), true
}

// SameDate сообщает, совпадают ли календарные даты двух событий
func SameDate(a, b CandidateEvent) bool {
	if !a.HasDate() || !b.HasDate() {
		return false
	}
	y1, m1, d1 := a.EventDate.Date()
	y2, m2, d2 := b.EventDate.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// SimilarityScore многокомпонентная оценка схожести пары событий.
// Чистая функция пары событий, не имеет сохраняемой идентичности.
type SimilarityScore struct {
	Title      float64 `json:"title"`
	Entity     float64 `json:"entity"`
	Content    float64 `json:"content"`
	Temporal   float64 `json:"temporal"`
	Overall    float64 `json:"overall"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// MatchRule правило, по которому пара событий была объединена
type MatchRule string

const (
	// RuleSameEntityDate - одна организация и одна дата
	RuleSameEntityDate MatchRule = "same_entity_same_date"
	// RuleExactDuplicate - совпадающие нормализованные заголовки и даты
	RuleExactDuplicate MatchRule = "exact_duplicate"
	// RuleSameEntitySimilarText - одна организация и схожее описание (даты могут отличаться)
	RuleSameEntitySimilarText MatchRule = "same_entity_similar_description"
	// RuleDescriptionFallback - сущность не распознана, но описания явно об одном инциденте
	RuleDescriptionFallback MatchRule = "description_fallback"
	// RuleWeightedScore - полная взвешенная оценка против порога
	RuleWeightedScore MatchRule = "weighted_score"
)

// MatchInfo результат сопоставления поглощенного события с якорем группы
type MatchInfo struct {
	Rule  MatchRule       `json:"rule"`
	Score SimilarityScore `json:"score"`
}

// EventGroup группа событий, признанных одним инцидентом.
// Первый элемент Members - якорь группы (кандидат в мастер-записи).
type EventGroup struct {
	Members []CandidateEvent
	Matches map[string]MatchInfo // ключ - ID поглощенного события
}

// MergeGroup результат консолидации одной группы
type MergeGroup struct {
	Master     CandidateEvent             `json:"master"`
	Absorbed   []CandidateEvent           `json:"absorbed"`
	Similarity map[string]SimilarityScore `json:"similarity"` // ключ - ID поглощенного события
	Reason     string                     `json:"reason"`
	Confidence float64                    `json:"confidence"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// IsSingleton сообщает, что группа не содержит поглощенных событий
func (g MergeGroup) IsSingleton() bool {
	return len(g.Absorbed) == 0
}
