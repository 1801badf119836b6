package dedup

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// SyntheticGenerator генератор синтетических корпусов событий для
// нагрузочных тестов и бенчмарков. Детерминирован при фиксированном seed.
type SyntheticGenerator struct {
	faker *gofakeit.Faker
}

// NewSyntheticGenerator создает новый генератор с заданным seed
func NewSyntheticGenerator(seed uint64) *SyntheticGenerator {
	return &SyntheticGenerator{
		faker: gofakeit.New(int64(seed)),
	}
}

var syntheticEventTypes = []string{
	"data_breach", "ransomware", "phishing", "ddos", "insider_threat", "supply_chain",
}

var syntheticSeverities = []string{"low", "medium", "high", "critical"}

var syntheticIncidentSuffixes = []string{
	"Data Breach", "Security Incident", "Ransomware Attack", "Cyber Attack", "Network Outage",
}

// GenerateCorpus генерирует корпус из n событий, из которых доля
// duplicateRatio - переформулированные дубли предыдущих событий
func (g *SyntheticGenerator) GenerateCorpus(n int, duplicateRatio float64) []CandidateEvent {
	events := make([]CandidateEvent, 0, n)

	for i := 0; i < n; i++ {
		if i > 0 && g.faker.Float64Range(0, 1) < duplicateRatio {
			// Дубль случайного существующего события с другой формулировкой
			source := events[g.faker.IntRange(0, len(events)-1)]
			events = append(events, g.rephrase(source, i))
			continue
		}
		events = append(events, g.generateEvent(i))
	}

	return events
}

// generateEvent генерирует одно новое событие
func (g *SyntheticGenerator) generateEvent(index int) CandidateEvent {
	company := g.faker.Company()
	suffix := syntheticIncidentSuffixes[g.faker.IntRange(0, len(syntheticIncidentSuffixes)-1)]
	date := g.randomPastDate()
	records := int64(g.faker.IntRange(1_000, 10_000_000))

	return CandidateEvent{
		ID:              fmt.Sprintf("synthetic_%d", index),
		Title:           fmt.Sprintf("%s %s", company, suffix),
		Summary:         g.faker.Paragraph(1, 3, 12, " "),
		EventDate:       &date,
		EventType:       syntheticEventTypes[g.faker.IntRange(0, len(syntheticEventTypes)-1)],
		Severity:        syntheticSeverities[g.faker.IntRange(0, len(syntheticSeverities)-1)],
		RecordsAffected: &records,
		VictimOrgName:   company,
		DataSources:     []string{g.faker.DomainName()},
		URLs:            []string{g.faker.URL()},
		Confidence:      g.faker.Float64Range(0.5, 1.0),
	}
}

// rephrase создает переформулированный дубль события: тот же инцидент,
// другой заголовок и дата публикации в пределах недели
func (g *SyntheticGenerator) rephrase(source CandidateEvent, index int) CandidateEvent {
	dup := source.Clone()
	dup.ID = fmt.Sprintf("synthetic_%d_dup", index)
	dup.Title = fmt.Sprintf("%s %s", source.VictimOrgName,
		syntheticIncidentSuffixes[g.faker.IntRange(0, len(syntheticIncidentSuffixes)-1)])

	if source.HasDate() {
		shifted := source.EventDate.AddDate(0, 0, g.faker.IntRange(0, 6))
		dup.EventDate = &shifted
	}

	dup.DataSources = append(dup.DataSources, g.faker.DomainName())
	return dup
}

// randomPastDate возвращает случайную дату за последние два года
func (g *SyntheticGenerator) randomPastDate() time.Time {
	daysAgo := g.faker.IntRange(8, 730)
	return time.Now().UTC().AddDate(0, 0, -daysAgo).Truncate(24 * time.Hour)
}
