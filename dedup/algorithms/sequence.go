package algorithms

// SequenceMatcher вычисляет посимвольную схожесть строк
// по алгоритму Ратклиффа-Обершелпа: рекурсивный поиск самой длинной
// общей подстроки и подсчет совпавших символов слева и справа от нее.
// Возвращает 2*M / (len1+len2), где M - общее число совпавших символов.
type SequenceMatcher struct{}

// NewSequenceMatcher создает новый вычислитель посимвольной схожести
func NewSequenceMatcher() *SequenceMatcher {
	return &SequenceMatcher{}
}

// Ratio вычисляет коэффициент схожести двух строк в диапазоне [0, 1]
func (sm *SequenceMatcher) Ratio(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)

	total := len(r1) + len(r2)
	if total == 0 {
		return 1.0
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	matches := sm.matchingRunes(r1, r2)
	return 2.0 * float64(matches) / float64(total)
}

// matchingRunes рекурсивно считает число совпавших символов
func (sm *SequenceMatcher) matchingRunes(r1, r2 []rune) int {
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	start1, start2, length := longestCommonSubstring(r1, r2)
	if length == 0 {
		return 0
	}

	matches := length
	matches += sm.matchingRunes(r1[:start1], r2[:start2])
	matches += sm.matchingRunes(r1[start1+length:], r2[start2+length:])
	return matches
}

// longestCommonSubstring находит самую длинную общую подстроку.
// Возвращает начальные позиции в обеих строках и длину.
// При равной длине выбирается подстрока с минимальными позициями,
// чтобы результат был детерминированным.
func longestCommonSubstring(r1, r2 []rune) (start1, start2, length int) {
	// Динамика по одной строке: current[j] - длина общего суффикса r1[:i+1] и r2[:j+1]
	current := make([]int, len(r2)+1)
	previous := make([]int, len(r2)+1)

	for i := 0; i < len(r1); i++ {
		for j := 0; j < len(r2); j++ {
			if r1[i] == r2[j] {
				current[j+1] = previous[j] + 1
				if current[j+1] > length {
					length = current[j+1]
					start1 = i - length + 1
					start2 = j - length + 1
				}
			} else {
				current[j+1] = 0
			}
		}
		previous, current = current, previous
	}

	return start1, start2, length
}
