package dedup

import (
	"fmt"
	"strings"

	"incidentdedup/dedup/algorithms"
)

// SimilarityWeights веса компонентов итоговой оценки схожести
type SimilarityWeights struct {
	Title    float64 `json:"title"`
	Entity   float64 `json:"entity"`
	Content  float64 `json:"content"`
	Temporal float64 `json:"temporal"`
}

// DefaultSimilarityWeights возвращает веса по умолчанию
func DefaultSimilarityWeights() SimilarityWeights {
	return SimilarityWeights{
		Title:    0.4,
		Entity:   0.3,
		Content:  0.2,
		Temporal: 0.1,
	}
}

// Пороги компонентов для построения пояснения оценки.
// Используются только для аудита, не для управления группировкой.
const (
	reasoningTitleThreshold    = 0.8
	reasoningEntityHigh        = 0.7
	reasoningEntityLow         = 0.3
	reasoningTemporalThreshold = 0.6
)

// Схожесть заголовков, совпавших после удаления декоративных разделителей
const decoratedTitleMatchScore = 0.95

// Схожесть заголовков, один из которых является подстрокой другого
const substringTitleScore = 0.8

// SimilarityCalculator вычисляет многокомпонентную оценку схожести
// пары событий. Чистая функция: не изменяет события и никогда не
// завершается ошибкой, отсутствующие поля дают компоненту оценку 0.
type SimilarityCalculator struct {
	weights    SimilarityWeights
	normalizer *algorithms.TitleNormalizer
	jaccard    *algorithms.JaccardIndex
	sequence   *algorithms.SequenceMatcher
	extractor  *algorithms.EntityExtractor
}

// NewSimilarityCalculator создает новый вычислитель с весами по умолчанию
func NewSimilarityCalculator() *SimilarityCalculator {
	return NewSimilarityCalculatorWithWeights(DefaultSimilarityWeights())
}

// NewSimilarityCalculatorWithWeights создает новый вычислитель с заданными весами
func NewSimilarityCalculatorWithWeights(weights SimilarityWeights) *SimilarityCalculator {
	return &SimilarityCalculator{
		weights:    weights,
		normalizer: algorithms.NewTitleNormalizer(),
		jaccard:    algorithms.NewJaccardIndex(),
		sequence:   algorithms.NewSequenceMatcher(),
		extractor:  algorithms.NewEntityExtractor(),
	}
}

// Score вычисляет оценку схожести пары событий
func (sc *SimilarityCalculator) Score(a, b CandidateEvent) SimilarityScore {
	score := SimilarityScore{
		Title:    sc.titleSimilarity(a.Title, b.Title),
		Entity:   sc.entitySimilarity(a.Title, b.Title),
		Content:  sc.contentSimilarity(a.Summary, b.Summary),
		Temporal: sc.temporalSimilarity(a, b),
	}

	score.Overall = sc.weights.Title*score.Title +
		sc.weights.Entity*score.Entity +
		sc.weights.Content*score.Content +
		sc.weights.Temporal*score.Temporal

	score.Confidence = componentAgreement(score)
	score.Reasoning = sc.buildReasoning(score)

	return score
}

// NormalizeTitle возвращает нормализованный заголовок.
// Та же нормализация используется правилом точных дублей и проверкой
// уникальности канонических записей.
func (sc *SimilarityCalculator) NormalizeTitle(title string) string {
	return sc.normalizer.Normalize(title)
}

// titleSimilarity вычисляет схожесть заголовков
func (sc *SimilarityCalculator) titleSimilarity(title1, title2 string) float64 {
	if title1 == "" || title2 == "" {
		return 0.0
	}

	norm1 := sc.normalizer.Normalize(title1)
	norm2 := sc.normalizer.Normalize(title2)

	if norm1 == norm2 {
		return 1.0
	}

	// Совпадение после отрезания декоративных хвостов (" - Reuters" и т.п.)
	stripped1 := sc.normalizer.Normalize(sc.normalizer.StripDecorations(title1))
	stripped2 := sc.normalizer.Normalize(sc.normalizer.StripDecorations(title2))
	if stripped1 != "" && stripped1 == stripped2 {
		return decoratedTitleMatchScore
	}

	best := sc.sequence.Ratio(norm1, norm2)

	if strings.Contains(norm1, norm2) || strings.Contains(norm2, norm1) {
		if substringTitleScore > best {
			best = substringTitleScore
		}
	}

	if jaccard := sc.jaccard.Similarity(norm1, norm2); jaccard > best {
		best = jaccard
	}

	return best
}

// entitySimilarity вычисляет схожесть множеств сущностей заголовков
func (sc *SimilarityCalculator) entitySimilarity(title1, title2 string) float64 {
	set1 := sc.extractor.TokenSet(title1)
	set2 := sc.extractor.TokenSet(title2)

	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	return sc.jaccard.SimilaritySets(set1, set2)
}

// contentSimilarity вычисляет посимвольную схожесть описаний
func (sc *SimilarityCalculator) contentSimilarity(summary1, summary2 string) float64 {
	if summary1 == "" || summary2 == "" {
		return 0.0
	}

	norm1 := sc.normalizer.Normalize(summary1)
	norm2 := sc.normalizer.Normalize(summary2)

	return sc.sequence.Ratio(norm1, norm2)
}

// temporalSimilarity вычисляет временную близость событий.
// Ступенчатая функция модуля разницы дат в днях.
func (sc *SimilarityCalculator) temporalSimilarity(a, b CandidateEvent) float64 {
	if SameDate(a, b) {
		return 1.0
	}

	days, ok := DayDifference(a, b)
	if !ok {
		return 0.0
	}

	switch {
	case days <= 7:
		return 0.8
	case days <= 30:
		return 0.6
	case days <= 90:
		return 0.4
	case days <= 365:
		return 0.2
	default:
		return 0.0
	}
}

// componentAgreement вычисляет согласованность компонентов:
// 1 - (max - min), выше когда сигналы согласуются между собой
func componentAgreement(score SimilarityScore) float64 {
	components := []float64{score.Title, score.Entity, score.Content, score.Temporal}

	minVal, maxVal := components[0], components[0]
	for _, c := range components[1:] {
		if c < minVal {
			minVal = c
		}
		if c > maxVal {
			maxVal = c
		}
	}

	return 1.0 - (maxVal - minVal)
}

// buildReasoning строит короткое текстовое пояснение оценки для аудита
func (sc *SimilarityCalculator) buildReasoning(score SimilarityScore) string {
	parts := make([]string, 0, 4)

	if score.Title > reasoningTitleThreshold {
		parts = append(parts, fmt.Sprintf("very similar titles (%.2f)", score.Title))
	}

	switch {
	case score.Entity > reasoningEntityHigh:
		parts = append(parts, "same organization")
	case score.Entity > reasoningEntityLow:
		parts = append(parts, "related organizations")
	}

	if score.Temporal > reasoningTemporalThreshold {
		parts = append(parts, "close in time")
	}

	if len(parts) == 0 {
		return fmt.Sprintf("weak signals, overall %.2f", score.Overall)
	}

	return strings.Join(parts, "; ")
}
