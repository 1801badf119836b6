package dedup

import (
	"strings"
)

// AliasConfig статическая таблица псевдонимов организаций.
// Aliases отображает дочерние компании и бренды на каноническое название
// материнской организации. RelatedGroups перечисляет наборы юридически
// связанных компаний, которые при группировке считаются одной организацией.
// Конфигурация неизменяема после создания резолвера.
type AliasConfig struct {
	Aliases       map[string]string `json:"aliases"`
	RelatedGroups [][]string        `json:"related_groups"`
}

// DefaultAliasConfig возвращает таблицу псевдонимов по умолчанию
func DefaultAliasConfig() AliasConfig {
	return AliasConfig{
		Aliases: map[string]string{
			"singtel optus":          "Optus",
			"optus mobile":           "Optus",
			"medibank private":       "Medibank",
			"ahm":                    "Medibank",
			"latitude financial":     "Latitude Financial Services",
			"latitude finance":       "Latitude Financial Services",
			"mylicence":              "Service NSW",
			"woolworths group":       "Woolworths",
			"mydeal":                 "Woolworths",
			"telstra corporation":    "Telstra",
			"australian red cross":   "Red Cross",
			"western sydney university": "WSU",
		},
		RelatedGroups: [][]string{
			{"Optus", "Singtel"},
			{"Medibank", "ahm"},
			{"Woolworths", "MyDeal"},
		},
	}
}

// AliasResolver приводит названия организаций-жертв к каноническому виду.
// Детерминирован и не имеет побочных эффектов.
type AliasResolver struct {
	aliases map[string]string // нормализованный псевдоним -> каноническое название
	related map[string]int    // нормализованное название -> номер группы связанных компаний
}

// NewAliasResolver создает новый резолвер из конфигурации
func NewAliasResolver(config AliasConfig) *AliasResolver {
	resolver := &AliasResolver{
		aliases: make(map[string]string, len(config.Aliases)),
		related: make(map[string]int),
	}

	for alias, canonical := range config.Aliases {
		resolver.aliases[normalizeOrgName(alias)] = canonical
	}

	for groupID, group := range config.RelatedGroups {
		for _, name := range group {
			resolver.related[normalizeOrgName(name)] = groupID + 1
		}
	}

	return resolver
}

// Canonicalize возвращает каноническое название организации.
// Сначала точное совпадение (без учета регистра), затем поиск по вхождению
// подстроки; если запись не найдена, имя возвращается без изменений.
func (ar *AliasResolver) Canonicalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return name
	}

	normalized := normalizeOrgName(trimmed)

	if canonical, ok := ar.aliases[normalized]; ok {
		return canonical
	}

	// Поиск по вхождению: "Optus Mobile Pty Ltd" содержит псевдоним "optus mobile"
	for alias, canonical := range ar.aliases {
		if strings.Contains(normalized, alias) || strings.Contains(alias, normalized) {
			return canonical
		}
	}

	return trimmed
}

// SameOrganization сообщает, относятся ли два названия к одной организации.
// Проверяет равенство канонических форм, взаимное вхождение (для названий
// от 5 символов) и принадлежность к одной группе связанных компаний.
func (ar *AliasResolver) SameOrganization(name1, name2 string) bool {
	if strings.TrimSpace(name1) == "" || strings.TrimSpace(name2) == "" {
		return false
	}

	canon1 := normalizeOrgName(ar.Canonicalize(name1))
	canon2 := normalizeOrgName(ar.Canonicalize(name2))

	if canon1 == canon2 {
		return true
	}

	// Вхождение: "Optus" и "Singtel Optus" - одна организация.
	// Минимальная длина отсекает ложные срабатывания на коротких аббревиатурах.
	if len(canon1) >= 5 && len(canon2) >= 5 &&
		(strings.Contains(canon1, canon2) || strings.Contains(canon2, canon1)) {
		return true
	}

	group1, ok1 := ar.related[canon1]
	group2, ok2 := ar.related[canon2]
	return ok1 && ok2 && group1 == group2
}

// normalizeOrgName нормализует название организации для сравнения
func normalizeOrgName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}
