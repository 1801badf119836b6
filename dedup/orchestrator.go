package dedup

import (
	"context"
	"log"
	"time"

	"incidentdedup/quality"
)

// Statistics сводная статистика одного прогона дедупликации
type Statistics struct {
	InputCount      int     `json:"input_count"`
	OutputCount     int     `json:"output_count"`
	GroupCount      int     `json:"group_count"`
	TotalMerges     int     `json:"total_merges"`
	AvgConfidence   float64 `json:"avg_confidence"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// DeduplicationResult неизменяемый результат одного прогона.
// Groups содержит только группы с реальными слияниями; события-одиночки
// присутствуют в CanonicalEvents, но не порождают групп.
type DeduplicationResult struct {
	CanonicalEvents []CandidateEvent          `json:"canonical_events"`
	Groups          []MergeGroup              `json:"groups"`
	Stats           Statistics                `json:"stats"`
	Errors          []quality.ValidationError `json:"errors"`
}

// DeduplicationOrchestrator управляет полным конвейером дедупликации:
// валидация входа -> группировка -> консолидация -> валидация выхода ->
// статистика. Никогда не возвращает error: все сбои оформляются как
// записи в списке ошибок результата.
type DeduplicationOrchestrator struct {
	engine    *GroupingEngine
	resolver  *MergeResolver
	validator *Validator
}

// NewDeduplicationOrchestrator создает новый оркестратор
func NewDeduplicationOrchestrator(engine *GroupingEngine, resolver *MergeResolver, validator *Validator) *DeduplicationOrchestrator {
	return &DeduplicationOrchestrator{
		engine:    engine,
		resolver:  resolver,
		validator: validator,
	}
}

// NewDefaultOrchestrator собирает оркестратор с компонентами по умолчанию.
// oracle может быть nil.
func NewDefaultOrchestrator(oracle ArbiterOracle, config GroupingConfig) *DeduplicationOrchestrator {
	calculator := NewSimilarityCalculator()
	aliases := NewAliasResolver(DefaultAliasConfig())
	return &DeduplicationOrchestrator{
		engine:    NewGroupingEngine(calculator, aliases, oracle, config),
		resolver:  NewMergeResolver(aliases),
		validator: NewValidator(calculator),
	}
}

// Run выполняет полный прогон дедупликации над входным набором событий
func (o *DeduplicationOrchestrator) Run(ctx context.Context, events []CandidateEvent) DeduplicationResult {
	started := time.Now()

	// Валидация входа: любая ошибка фатальна, результат пуст
	if inputErrs := o.validator.ValidateInputs(events); len(inputErrs) > 0 {
		log.Printf("input validation failed with %d errors, aborting run", len(inputErrs))
		return DeduplicationResult{
			CanonicalEvents: []CandidateEvent{},
			Groups:          []MergeGroup{},
			Errors:          inputErrs,
			Stats: Statistics{
				InputCount:      len(events),
				AvgConfidence:   1.0,
				DurationSeconds: time.Since(started).Seconds(),
			},
		}
	}

	// Группировка и консолидация
	groups := o.engine.Group(ctx, events)

	canonical := make([]CandidateEvent, 0, len(groups))
	merged := make([]MergeGroup, 0)
	totalMerges := 0

	for _, group := range groups {
		event, mergeGroup := o.resolver.Resolve(group)
		canonical = append(canonical, event)
		if !mergeGroup.IsSingleton() {
			merged = append(merged, mergeGroup)
			totalMerges += len(mergeGroup.Absorbed)
		}
	}

	// Валидация выхода: ошибки фиксируются, но не блокируют результат
	errs := make([]quality.ValidationError, 0)
	errs = append(errs, o.validator.ValidateNoDuplicates(canonical)...)
	errs = append(errs, o.validator.ValidateMergeGroups(merged)...)
	errs = append(errs, o.validator.ValidateDataIntegrity(canonical)...)

	for _, e := range errs {
		log.Printf("output validation: %v", e)
	}

	stats := Statistics{
		InputCount:      len(events),
		OutputCount:     len(canonical),
		GroupCount:      len(merged),
		TotalMerges:     totalMerges,
		AvgConfidence:   averageConfidence(merged),
		DurationSeconds: time.Since(started).Seconds(),
	}

	return DeduplicationResult{
		CanonicalEvents: canonical,
		Groups:          merged,
		Stats:           stats,
		Errors:          errs,
	}
}

// averageConfidence средняя уверенность групп слияния, 1.0 если слияний не было
func averageConfidence(groups []MergeGroup) float64 {
	if len(groups) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, group := range groups {
		sum += group.Confidence
	}
	return sum / float64(len(groups))
}
