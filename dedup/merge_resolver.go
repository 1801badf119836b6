package dedup

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Критерии выбора мастер-записи группы
const (
	masterSummaryBonus   = 2.0 // содержательное описание (длиннее 50 символов)
	masterRecordsBonus   = 1.0 // известно число затронутых записей
	masterSeverityBonus  = 1.0 // заполнена серьезность
	masterEventTypeBonus = 1.0 // заполнен тип инцидента
	masterSummaryMinLen  = 50
	masterRecencyWindow  = 365 // дней; бонус свежести линейно затухает до нуля
)

// Пределы правдоподобия для числа затронутых записей.
// Значения, превышающие планетарный предел или предел по контексту
// заголовка, отбрасываются: ошибка извлечения не должна попадать
// в каноническую запись.
const recordsGlobalCap = int64(8_000_000_000)

// recordsContextCaps пределы по ключевым словам контекста.
// Для национальных инцидентов предел - утроенное население страны
// (учетные записи, а не люди).
var recordsContextCaps = map[string]int64{
	"australia":   80_000_000,
	"australian":  80_000_000,
	"new zealand": 16_000_000,
	"singapore":   18_000_000,
	"optus":       40_000_000,
	"medibank":    15_000_000,
	"telstra":     40_000_000,
}

// MergeResolver консолидирует группу дублей в одну каноническую запись
type MergeResolver struct {
	aliases *AliasResolver
}

// NewMergeResolver создает новый резолвер слияния
func NewMergeResolver(aliases *AliasResolver) *MergeResolver {
	return &MergeResolver{aliases: aliases}
}

// Resolve выбирает мастер-запись группы и консолидирует поля всех
// участников в каноническое событие. Группа из одного события проходит
// без изменений.
func (mr *MergeResolver) Resolve(group EventGroup) (CandidateEvent, MergeGroup) {
	if len(group.Members) == 0 {
		return CandidateEvent{}, MergeGroup{
			Reason:    "Empty group",
			CreatedAt: time.Now().UTC(),
		}
	}

	if len(group.Members) == 1 {
		single := group.Members[0].Clone()
		return single, MergeGroup{
			Master:     single,
			Absorbed:   nil,
			Similarity: map[string]SimilarityScore{},
			Reason:     "Single event",
			Confidence: 1.0,
			CreatedAt:  time.Now().UTC(),
		}
	}

	master := mr.selectMaster(group.Members)
	canonical := mr.consolidate(master, group.Members)

	absorbed := make([]CandidateEvent, 0, len(group.Members)-1)
	similarity := make(map[string]SimilarityScore, len(group.Members)-1)
	for _, member := range group.Members {
		if member.ID == master.ID {
			continue
		}
		absorbed = append(absorbed, member)
		if info, ok := group.Matches[member.ID]; ok {
			similarity[member.ID] = info.Score
		}
	}

	return canonical, MergeGroup{
		Master:     canonical,
		Absorbed:   absorbed,
		Similarity: similarity,
		Reason:     mergeReason(group),
		Confidence: groupConfidence(similarity),
		CreatedAt:  time.Now().UTC(),
	}
}

// selectMaster выбирает мастер-запись группы: побеждает наибольшая
// оценка полноты, при равенстве - более раннее событие во входном порядке
func (mr *MergeResolver) selectMaster(members []CandidateEvent) CandidateEvent {
	best := members[0]
	bestScore := mr.masterScore(members[0])

	for _, member := range members[1:] {
		if score := mr.masterScore(member); score > bestScore {
			best = member
			bestScore = score
		}
	}

	return best
}

// masterScore оценивает полноту записи как кандидата в мастер-записи
func (mr *MergeResolver) masterScore(e CandidateEvent) float64 {
	score := 0.0

	if len(e.Summary) > masterSummaryMinLen {
		score += masterSummaryBonus
	}
	if e.RecordsAffected != nil && *e.RecordsAffected > 0 {
		score += masterRecordsBonus
	}
	if e.Severity != "" {
		score += masterSeverityBonus
	}
	if e.EventType != "" {
		score += masterEventTypeBonus
	}

	// Бонус свежести: линейно затухает до нуля за год
	if e.HasDate() {
		ageDays := time.Since(*e.EventDate).Hours() / 24
		if ageDays >= 0 && ageDays < masterRecencyWindow {
			score += 1.0 - ageDays/masterRecencyWindow
		}
	}

	return score
}

// consolidate собирает каноническое событие из полей всех участников группы
func (mr *MergeResolver) consolidate(master CandidateEvent, members []CandidateEvent) CandidateEvent {
	canonical := master.Clone()

	// Дата - самая ранняя в группе: статьи датируются публикацией,
	// а не самим инцидентом, поэтому минимум ближе всего к дате инцидента
	canonical.EventDate = earliestDate(members)

	// Описание - самое длинное в группе
	for _, member := range members {
		if len(member.Summary) > len(canonical.Summary) {
			canonical.Summary = member.Summary
		}
	}

	// Число затронутых записей - максимум из правдоподобных значений
	canonical.RecordsAffected = maxPlausibleRecords(members)

	// Организация и отрасль - первое непустое значение через резолвер псевдонимов
	if name := firstNonEmpty(members, func(e CandidateEvent) string { return e.VictimOrgName }); name != "" {
		canonical.VictimOrgName = mr.aliases.Canonicalize(name)
	}
	if industry := firstNonEmpty(members, func(e CandidateEvent) string { return e.VictimOrgIndustry }); industry != "" {
		canonical.VictimOrgIndustry = industry
	}

	// Источники и ссылки - объединение множеств
	canonical.DataSources = unionStrings(members, func(e CandidateEvent) []string { return e.DataSources })
	canonical.URLs = unionStrings(members, func(e CandidateEvent) []string { return e.URLs })

	return canonical
}

// earliestDate возвращает самую раннюю дату группы или nil
func earliestDate(members []CandidateEvent) *time.Time {
	var earliest *time.Time
	for _, member := range members {
		if !member.HasDate() {
			continue
		}
		if earliest == nil || member.EventDate.Before(*earliest) {
			d := *member.EventDate
			earliest = &d
		}
	}
	return earliest
}

// maxPlausibleRecords возвращает максимум правдоподобных значений числа
// затронутых записей или nil, если правдоподобных значений нет
func maxPlausibleRecords(members []CandidateEvent) *int64 {
	var best *int64
	for _, member := range members {
		if member.RecordsAffected == nil {
			continue
		}
		value := *member.RecordsAffected
		if !plausibleRecords(value, member.Title) {
			continue
		}
		if best == nil || value > *best {
			v := value
			best = &v
		}
	}
	return best
}

// plausibleRecords проверяет правдоподобие числа затронутых записей
// относительно контекста заголовка
func plausibleRecords(value int64, title string) bool {
	if value < 0 {
		return false
	}
	if value > recordsGlobalCap {
		return false
	}

	lower := strings.ToLower(title)
	for keyword, limit := range recordsContextCaps {
		if strings.Contains(lower, keyword) && value > limit {
			return false
		}
	}
	return true
}

// firstNonEmpty возвращает первое непустое значение поля по группе
func firstNonEmpty(members []CandidateEvent, field func(CandidateEvent) string) string {
	for _, member := range members {
		if value := strings.TrimSpace(field(member)); value != "" {
			return value
		}
	}
	return ""
}

// unionStrings возвращает отсортированное объединение строковых множеств группы
func unionStrings(members []CandidateEvent, field func(CandidateEvent) []string) []string {
	seen := make(map[string]bool)
	for _, member := range members {
		for _, value := range field(member) {
			value = strings.TrimSpace(value)
			if value != "" {
				seen[value] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	result := make([]string, 0, len(seen))
	for value := range seen {
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}

// mergeReason строит текстовое обоснование слияния по сработавшим правилам
func mergeReason(group EventGroup) string {
	counts := make(map[MatchRule]int)
	for _, info := range group.Matches {
		counts[info.Rule]++
	}

	order := []MatchRule{
		RuleSameEntityDate,
		RuleExactDuplicate,
		RuleSameEntitySimilarText,
		RuleDescriptionFallback,
		RuleWeightedScore,
	}
	labels := map[MatchRule]string{
		RuleSameEntityDate:        "same entity and date",
		RuleExactDuplicate:        "exact duplicate",
		RuleSameEntitySimilarText: "same entity, similar description",
		RuleDescriptionFallback:   "matching descriptions",
		RuleWeightedScore:         "weighted similarity score",
	}

	parts := make([]string, 0, len(counts))
	for _, rule := range order {
		if count := counts[rule]; count > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d)", labels[rule], count))
		}
	}

	return fmt.Sprintf("Merged %d duplicates: %s", len(group.Members)-1, strings.Join(parts, ", "))
}

// groupConfidence вычисляет агрегированную уверенность группы как
// среднюю итоговую оценку схожести поглощенных событий
func groupConfidence(similarity map[string]SimilarityScore) float64 {
	if len(similarity) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, score := range similarity {
		sum += score.Overall
	}
	return sum / float64(len(similarity))
}
