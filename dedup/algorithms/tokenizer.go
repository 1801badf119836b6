package algorithms

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// Stemmer interface defines methods for stemming words
type Stemmer interface {
	// Stem returns the stemmed version of a word
	Stem(word string) string

	// StemTokens returns stemmed versions of multiple words
	StemTokens(tokens []string) []string
}

// EnglishStemmer implements stemming for English language using Snowball algorithm
type EnglishStemmer struct {
	language string
	cache    map[string]string
	mu       sync.RWMutex
	useCache bool
}

// NewEnglishStemmer creates a new English language stemmer with caching
func NewEnglishStemmer() *EnglishStemmer {
	return &EnglishStemmer{
		language: "english",
		cache:    make(map[string]string),
		useCache: true,
	}
}

// Stem returns the stemmed version of a word using Snowball algorithm
// Example: "breaches" -> "breach", "experienced" -> "experienc"
func (s *EnglishStemmer) Stem(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return ""
	}

	if s.useCache {
		s.mu.RLock()
		cached, ok := s.cache[normalized]
		s.mu.RUnlock()
		if ok {
			return cached
		}
	}

	stemmed, err := snowball.Stem(normalized, s.language, true)
	if err != nil {
		// If stemming fails, fall back to the normalized word
		stemmed = normalized
	}

	if s.useCache {
		s.mu.Lock()
		s.cache[normalized] = stemmed
		s.mu.Unlock()
	}

	return stemmed
}

// StemTokens returns stemmed versions of multiple words
func (s *EnglishStemmer) StemTokens(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if stemmed := s.Stem(token); stemmed != "" {
			result = append(result, stemmed)
		}
	}
	return result
}

// WordTokenizer splits free text into a set of stemmed word tokens.
// Used by the word-level Jaccard signals of the grouping rules.
type WordTokenizer struct {
	stemmer Stemmer
}

// NewWordTokenizer creates a tokenizer backed by the English Snowball stemmer
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{stemmer: NewEnglishStemmer()}
}

// NewWordTokenizerWithStemmer creates a tokenizer with a custom stemmer
func NewWordTokenizerWithStemmer(stemmer Stemmer) *WordTokenizer {
	return &WordTokenizer{stemmer: stemmer}
}

// TokenSet returns the set of stemmed tokens of a text
func (wt *WordTokenizer) TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:()[]{}\"'")
		if word == "" {
			continue
		}
		if wt.stemmer != nil {
			word = wt.stemmer.Stem(word)
		}
		if word != "" {
			set[word] = true
		}
	}
	return set
}
