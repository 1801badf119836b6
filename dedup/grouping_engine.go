package dedup

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Пороги правил группировки. Значения подобраны эмпирически на реальном
// корпусе новостей об инцидентах; изменение любого из них - решение по
// настройке качества, а не исправление ошибки.
const (
	// DefaultSimilarityThreshold порог итоговой оценки для слияния пары
	DefaultSimilarityThreshold = 0.75

	// минимальный индекс Жаккара заголовков для правила "одна организация, схожий текст"
	sameEntityTitleJaccardMin = 0.15
	// минимальный индекс Жаккара описаний для правила "одна организация, схожий текст"
	sameEntityDescriptionJaccardMin = 0.20
	// минимальный индекс Жаккара описаний для правила восстановления без сущности
	fallbackDescriptionJaccardMin = 0.35
	// максимальная разница дат в днях для правила восстановления без сущности
	fallbackMaxDayGap = 90

	// предфильтр: разные организации и разница дат больше года - пара пропускается
	prefilterMaxDayGap = 365
	// предфильтр: минимальный индекс Жаккара заголовков для полной оценки
	prefilterTitleJaccardMin = 0.3

	// неуверенная полоса итоговой оценки, в которой опрашивается арбитр
	uncertainBandLow  = 0.3
	uncertainBandHigh = 0.7

	// эффективная оценка после вердикта арбитра
	arbiterSimilarScore   = 0.8
	arbiterDifferentScore = 0.3
)

// GroupingConfig конфигурация движка группировки
type GroupingConfig struct {
	// SimilarityThreshold порог итоговой оценки для слияния
	SimilarityThreshold float64
	// Workers число горутин параллельного вычисления полных оценок.
	// 0 - по числу доступных процессоров.
	Workers int
}

// DefaultGroupingConfig возвращает конфигурацию по умолчанию
func DefaultGroupingConfig() GroupingConfig {
	return GroupingConfig{
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// GroupingEngine разбивает входной набор событий на непересекающиеся
// группы дублей. Жадный однопроходный алгоритм: события обрабатываются
// во входном порядке, назначенное в группу событие повторно не
// рассматривается. Повторный запуск на идентичном входе дает идентичное
// разбиение.
type GroupingEngine struct {
	calculator *SimilarityCalculator
	aliases    *AliasResolver
	oracle     ArbiterOracle
	config     GroupingConfig
}

// NewGroupingEngine создает новый движок группировки.
// oracle может быть nil - тогда используется заглушка NoopOracle
// и пары из неуверенной полосы оцениваются только алгоритмически.
func NewGroupingEngine(calculator *SimilarityCalculator, aliases *AliasResolver, oracle ArbiterOracle, config GroupingConfig) *GroupingEngine {
	if config.SimilarityThreshold <= 0 || config.SimilarityThreshold > 1 {
		config.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if oracle == nil {
		oracle = NewNoopOracle()
	}
	return &GroupingEngine{
		calculator: calculator,
		aliases:    aliases,
		oracle:     oracle,
		config:     config,
	}
}

// Group разбивает события на группы дублей.
// Первый элемент Members каждой группы - якорное событие.
func (ge *GroupingEngine) Group(ctx context.Context, events []CandidateEvent) []EventGroup {
	groups := make([]EventGroup, 0, len(events))
	assigned := make([]bool, len(events))

	for i := range events {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		group := EventGroup{
			Members: []CandidateEvent{events[i]},
			Matches: make(map[string]MatchInfo),
		}

		ge.scanCandidates(ctx, events, i, assigned, &group)
		groups = append(groups, group)
	}

	return groups
}

// Partition возвращает разбиение как списки событий без метаданных сопоставления
func (ge *GroupingEngine) Partition(ctx context.Context, events []CandidateEvent) [][]CandidateEvent {
	groups := ge.Group(ctx, events)
	partition := make([][]CandidateEvent, 0, len(groups))
	for _, group := range groups {
		partition = append(partition, group.Members)
	}
	return partition
}

// pairOutcome предварительный результат сопоставления пары
type pairOutcome struct {
	index      int
	rule       MatchRule
	needsScore bool // пара прошла предфильтр и требует полной оценки
	skipped    bool // пара отсечена предфильтром
}

// scanCandidates сканирует все последующие неназначенные события и
// добавляет совпавшие в группу якоря anchor.
//
// Трехфазная схема сохраняет детерминизм при параллельной оценке:
// дешевые правила применяются последовательно, дорогие полные оценки
// считаются параллельно, а само назначение в группу выполняется строго
// во входном порядке одним редьюсером.
func (ge *GroupingEngine) scanCandidates(ctx context.Context, events []CandidateEvent, anchor int, assigned []bool, group *EventGroup) {
	anchorEvent := events[anchor]

	// Фаза 1: дешевые правила 1-4 и предфильтр
	outcomes := make([]pairOutcome, 0)
	for j := anchor + 1; j < len(events); j++ {
		if assigned[j] {
			continue
		}
		outcome := ge.evaluateCheapRules(anchorEvent, events[j])
		outcome.index = j
		outcomes = append(outcomes, outcome)
	}

	// Фаза 2: параллельное вычисление полных оценок.
	// Оценка нужна и совпавшим парам (для аудита), и парам правила 5.
	scores := ge.scorePairs(anchorEvent, events, outcomes)

	// Фаза 3: последовательное назначение во входном порядке
	for _, outcome := range outcomes {
		if outcome.skipped {
			continue
		}

		score := scores[outcome.index]
		rule := outcome.rule

		if outcome.needsScore {
			effective := ge.resolveUncertain(ctx, anchorEvent, events[outcome.index], score.Overall)
			if effective < ge.config.SimilarityThreshold {
				continue
			}
			rule = RuleWeightedScore
		}

		assigned[outcome.index] = true
		group.Members = append(group.Members, events[outcome.index])
		group.Matches[events[outcome.index].ID] = MatchInfo{Rule: rule, Score: score}
	}
}

// evaluateCheapRules применяет правила 1-4 и предфильтр к паре событий.
// Первое совпавшее правило побеждает.
func (ge *GroupingEngine) evaluateCheapRules(a, b CandidateEvent) pairOutcome {
	sameEntity := ge.sameEntity(a, b)

	// Правило 1: одна организация и одна дата - слияние независимо от заголовков
	if sameEntity && SameDate(a, b) {
		return pairOutcome{rule: RuleSameEntityDate}
	}

	// Правило 2: точный дубль - совпадающие нормализованные заголовки и даты
	if SameDate(a, b) &&
		ge.calculator.NormalizeTitle(a.Title) == ge.calculator.NormalizeTitle(b.Title) {
		return pairOutcome{rule: RuleExactDuplicate}
	}

	titleJaccard := ge.calculator.jaccard.Similarity(a.Title, b.Title)

	// Правило 3: одна организация и схожий текст - даты могут отличаться,
	// статьи об одном инциденте публикуются в разные дни
	if sameEntity {
		if titleJaccard >= sameEntityTitleJaccardMin ||
			ge.descriptionJaccard(a, b) >= sameEntityDescriptionJaccardMin {
			return pairOutcome{rule: RuleSameEntitySimilarText}
		}
	}

	// Правило 4: сущность не распознана или различается, но описания
	// явно об одном инциденте и даты близки
	if !sameEntity {
		if days, ok := DayDifference(a, b); ok && days <= fallbackMaxDayGap &&
			ge.descriptionJaccard(a, b) >= fallbackDescriptionJaccardMin {
			return pairOutcome{rule: RuleDescriptionFallback}
		}
	}

	// Предфильтр перед дорогой полной оценкой
	if !sameEntity {
		if days, ok := DayDifference(a, b); ok && days > prefilterMaxDayGap {
			return pairOutcome{skipped: true}
		}
	}
	if titleJaccard < prefilterTitleJaccardMin {
		return pairOutcome{skipped: true}
	}

	return pairOutcome{needsScore: true}
}

// scorePairs вычисляет полные оценки для всех неотсеченных пар.
// Вычисление каждой пары независимо и свободно от побочных эффектов,
// поэтому распределяется по пулу воркеров.
func (ge *GroupingEngine) scorePairs(anchor CandidateEvent, events []CandidateEvent, outcomes []pairOutcome) map[int]SimilarityScore {
	indices := make([]int, 0, len(outcomes))
	for _, outcome := range outcomes {
		if !outcome.skipped {
			indices = append(indices, outcome.index)
		}
	}

	scores := make(map[int]SimilarityScore, len(indices))
	if len(indices) == 0 {
		return scores
	}

	workers := ge.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(indices) {
		workers = len(indices)
	}

	if workers <= 1 {
		for _, idx := range indices {
			scores[idx] = ge.calculator.Score(anchor, events[idx])
		}
		return scores
	}

	jobs := make(chan int, len(indices))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				score := ge.calculator.Score(anchor, events[idx])
				mu.Lock()
				scores[idx] = score
				mu.Unlock()
			}
		}()
	}

	for _, idx := range indices {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return scores
}

// resolveUncertain возвращает эффективную оценку пары с учетом арбитра.
// Арбитр опрашивается только в неуверенной полосе; его ошибка или
// недоступность деградируют к исходной алгоритмической оценке.
func (ge *GroupingEngine) resolveUncertain(ctx context.Context, a, b CandidateEvent, raw float64) float64 {
	if raw < uncertainBandLow || raw > uncertainBandHigh {
		return raw
	}

	decision, err := ge.oracle.Decide(ctx, a, b, raw)
	if err != nil {
		if err != ErrArbiterUnavailable {
			log.Printf("arbiter failed for pair (%s, %s), keeping algorithmic score %.2f: %v", a.ID, b.ID, raw, err)
		}
		return raw
	}

	if decision.IsSimilar {
		if raw < arbiterSimilarScore {
			return arbiterSimilarScore
		}
		return raw
	}
	if raw > arbiterDifferentScore {
		return arbiterDifferentScore
	}
	return raw
}

// sameEntity сообщает, относятся ли события к одной организации
func (ge *GroupingEngine) sameEntity(a, b CandidateEvent) bool {
	name1 := ge.entityName(a)
	name2 := ge.entityName(b)
	if name1 == "" || name2 == "" {
		return false
	}
	return ge.aliases.SameOrganization(name1, name2)
}

// entityName возвращает название организации события: явное поле записи,
// иначе первая сущность, извлеченная из заголовка
func (ge *GroupingEngine) entityName(e CandidateEvent) string {
	if e.VictimOrgName != "" {
		return e.VictimOrgName
	}
	return ge.calculator.extractor.PrimaryEntity(e.Title)
}

// descriptionJaccard вычисляет индекс Жаккара описаний пары.
// Пустые описания дают 0, а не 1: отсутствие текста не является совпадением.
func (ge *GroupingEngine) descriptionJaccard(a, b CandidateEvent) float64 {
	if a.Summary == "" || b.Summary == "" {
		return 0.0
	}
	return ge.calculator.jaccard.Similarity(a.Summary, b.Summary)
}
