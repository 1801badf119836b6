package algorithms

// JaccardIndex вычисляет индекс Жаккара для сравнения множеств слов
// Индекс Жаккара = |A ∩ B| / |A ∪ B|
// Значение от 0.0 (нет общих элементов) до 1.0 (полное совпадение)
type JaccardIndex struct {
	tokenizer *WordTokenizer
}

// NewJaccardIndex создает новый вычислитель индекса Жаккара
// со стеммингом токенов (Snowball, английский)
func NewJaccardIndex() *JaccardIndex {
	return &JaccardIndex{
		tokenizer: NewWordTokenizer(),
	}
}

// NewJaccardIndexPlain создает вычислитель без стемминга токенов
func NewJaccardIndexPlain() *JaccardIndex {
	return &JaccardIndex{
		tokenizer: NewWordTokenizerWithStemmer(nil),
	}
}

// Similarity вычисляет индекс Жаккара для двух текстов
func (j *JaccardIndex) Similarity(text1, text2 string) float64 {
	if text1 == "" && text2 == "" {
		return 1.0
	}
	if text1 == "" || text2 == "" {
		return 0.0
	}

	set1 := j.tokenizer.TokenSet(text1)
	set2 := j.tokenizer.TokenSet(text2)

	return j.SimilaritySets(set1, set2)
}

// SimilaritySets вычисляет индекс Жаккара для двух множеств напрямую
func (j *JaccardIndex) SimilaritySets(set1, set2 map[string]bool) float64 {
	if len(set1) == 0 && len(set2) == 0 {
		return 1.0
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	// Вычисляем пересечение
	intersection := 0
	for elem := range set1 {
		if set2[elem] {
			intersection++
		}
	}

	// Вычисляем объединение
	union := len(set1)
	for elem := range set2 {
		if !set1[elem] {
			union++
		}
	}

	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// CommonTokens возвращает общие токены двух текстов
func (j *JaccardIndex) CommonTokens(text1, text2 string) []string {
	set1 := j.tokenizer.TokenSet(text1)
	set2 := j.tokenizer.TokenSet(text2)

	common := make([]string, 0)
	for elem := range set1 {
		if set2[elem] {
			common = append(common, elem)
		}
	}
	return common
}
