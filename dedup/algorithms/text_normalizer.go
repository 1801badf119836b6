package algorithms

import (
	"strings"
	"unicode"
)

// TitleNormalizer нормализует заголовки инцидентов для сравнения
type TitleNormalizer struct {
	stripPunctuation bool
}

// NewTitleNormalizer создает новый нормализатор заголовков
func NewTitleNormalizer() *TitleNormalizer {
	return &TitleNormalizer{
		stripPunctuation: true,
	}
}

// Normalize выполняет полную нормализацию заголовка
func (tn *TitleNormalizer) Normalize(text string) string {
	// 1. Приведение к нижнему регистру
	text = strings.ToLower(text)

	// 2. Нормализация кавычек и дефисов
	text = normalizeQuotes(text)
	text = normalizeHyphens(text)

	// 3. Удаление знаков препинания
	if tn.stripPunctuation {
		text = stripPunctuation(text)
	}

	// 4. Схлопывание пробелов
	text = strings.Join(strings.Fields(text), " ")

	return strings.TrimSpace(text)
}

// StripDecorations удаляет декоративные разделители из заголовка.
// Новостные заголовки часто содержат хвосты вида " - Reuters" или " | ABC News",
// которые мешают точному сравнению.
func (tn *TitleNormalizer) StripDecorations(text string) string {
	for _, sep := range []string{" - ", " — ", " | ", " :: "} {
		if idx := strings.Index(text, sep); idx > 0 {
			text = text[:idx]
		}
	}
	text = strings.TrimSuffix(text, "...")
	text = strings.TrimSuffix(text, "…")
	return strings.TrimSpace(text)
}

// normalizeQuotes нормализует различные типы кавычек
func normalizeQuotes(text string) string {
	replacements := map[rune]rune{
		'“': '"',  // Left double quotation mark
		'”': '"',  // Right double quotation mark
		'‘': '\'', // Left single quotation mark
		'’': '\'', // Right single quotation mark
		'«':      '"',
		'»':      '"',
		'„':      '"',
		'‚':      '\'',
	}

	var builder strings.Builder
	for _, r := range text {
		if replacement, ok := replacements[r]; ok {
			builder.WriteRune(replacement)
		} else {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// normalizeHyphens нормализует различные типы дефисов
func normalizeHyphens(text string) string {
	text = strings.ReplaceAll(text, "—", "-")
	text = strings.ReplaceAll(text, "–", "-")
	text = strings.ReplaceAll(text, "−", "-")
	return text
}

// stripPunctuation заменяет знаки препинания пробелами.
// Апострофы внутри слов сохраняются ("O'Brien" остается одним токеном).
func stripPunctuation(text string) string {
	var builder strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ':
			builder.WriteRune(r)
		case r == '\'' && i > 0 && i < len(runes)-1 &&
			unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1]):
			builder.WriteRune(r)
		default:
			builder.WriteRune(' ')
		}
	}
	return builder.String()
}
