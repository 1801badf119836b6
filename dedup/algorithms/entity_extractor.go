package algorithms

import (
	"strings"
	"unicode"
)

// EntityExtractor извлекает названия организаций из заголовков инцидентов.
// Заголовок вида "Optus Data Breach Exposes Customer Records" содержит
// название жертвы как последовательность слов с заглавной буквы; типовые
// "инцидентные" существительные (Breach, Attack, Ransomware и т.д.)
// отфильтровываются стоп-списком.
type EntityExtractor struct {
	stopWords map[string]bool
}

// defaultEntityStopWords возвращает стоп-список типовых инцидентных слов
func defaultEntityStopWords() map[string]bool {
	words := []string{
		"Data", "Breach", "Incident", "Security", "Attack", "Cyber",
		"Ransomware", "Malware", "Hack", "Outage", "Leak", "Network",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}

// NewEntityExtractor создает новый экстрактор сущностей со стоп-списком по умолчанию
func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{
		stopWords: defaultEntityStopWords(),
	}
}

// ExtractPhrases извлекает фразы-кандидаты из заголовка.
// Фраза - последовательность подряд идущих слов с заглавной буквы;
// из фразы удаляются слова стоп-списка, пустые фразы отбрасываются.
func (ee *EntityExtractor) ExtractPhrases(title string) []string {
	phrases := make([]string, 0)
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		kept := make([]string, 0, len(current))
		for _, word := range current {
			if !ee.stopWords[strings.ToLower(word)] {
				kept = append(kept, word)
			}
		}
		if len(kept) > 0 {
			phrases = append(phrases, strings.Join(kept, " "))
		}
		current = nil
	}

	for _, word := range strings.Fields(title) {
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if cleaned != "" && isCapitalized(cleaned) {
			current = append(current, cleaned)
		} else {
			flush()
		}
	}
	flush()

	return phrases
}

// TokenSet возвращает множество токенов сущностей заголовка (в нижнем регистре)
func (ee *EntityExtractor) TokenSet(title string) map[string]bool {
	set := make(map[string]bool)
	for _, phrase := range ee.ExtractPhrases(title) {
		for _, word := range strings.Fields(phrase) {
			set[strings.ToLower(word)] = true
		}
	}
	return set
}

// PrimaryEntity возвращает первую извлеченную фразу-сущность
// или пустую строку, если сущность не найдена
func (ee *EntityExtractor) PrimaryEntity(title string) string {
	phrases := ee.ExtractPhrases(title)
	if len(phrases) == 0 {
		return ""
	}
	return phrases[0]
}

// isCapitalized проверяет, начинается ли слово с заглавной буквы
func isCapitalized(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}
