package dedup

import (
	"fmt"
	"time"

	"incidentdedup/quality"
)

// Validator структурные проверки входных и выходных данных движка.
// Все методы - чистые функции, возвращающие список типизированных
// ошибок вместо error: одна запись может нарушать несколько инвариантов.
type Validator struct {
	calculator *SimilarityCalculator
}

// NewValidator создает новый валидатор
func NewValidator(calculator *SimilarityCalculator) *Validator {
	return &Validator{calculator: calculator}
}

// ValidateInputs проверяет входной набор событий.
// Любая найденная ошибка фатальна: оркестратор прерывает обработку.
func (v *Validator) ValidateInputs(events []CandidateEvent) []quality.ValidationError {
	errs := make([]quality.ValidationError, 0)

	if len(events) == 0 {
		errs = append(errs, quality.NewError(quality.ErrEmptyInput, "input event list is empty"))
		return errs
	}

	seen := make(map[string]bool, len(events))
	for _, event := range events {
		if seen[event.ID] {
			errs = append(errs, quality.NewEventError(quality.ErrDuplicateEventIDs,
				"duplicate event id in input", event.ID))
		}
		seen[event.ID] = true

		if event.Title == "" {
			errs = append(errs, quality.NewEventError(quality.ErrMissingTitle,
				"event has empty title", event.ID))
		}
	}

	return errs
}

// ValidateNoDuplicates проверяет, что среди канонических записей нет пары
// с совпадающими нормализованным заголовком и датой
func (v *Validator) ValidateNoDuplicates(events []CandidateEvent) []quality.ValidationError {
	errs := make([]quality.ValidationError, 0)

	seen := make(map[string]string, len(events))
	for _, event := range events {
		key := v.calculator.NormalizeTitle(event.Title)
		if event.HasDate() {
			key += "|" + event.EventDate.Format("2006-01-02")
		}

		if firstID, ok := seen[key]; ok {
			errs = append(errs, quality.NewEventError(quality.ErrDuplicateEvent,
				fmt.Sprintf("canonical events %s and %s share normalized title and date", firstID, event.ID),
				event.ID))
			continue
		}
		seen[key] = event.ID
	}

	return errs
}

// ValidateMergeGroups проверяет структурную целостность групп слияния
func (v *Validator) ValidateMergeGroups(groups []MergeGroup) []quality.ValidationError {
	errs := make([]quality.ValidationError, 0)

	for i, group := range groups {
		if group.Master.ID == "" {
			errs = append(errs, quality.NewError(quality.ErrMissingMasterEvent,
				fmt.Sprintf("merge group %d has no master event", i)))
		}
	}

	return errs
}

// ValidateDataIntegrity проверяет содержательные инварианты записей:
// дата не в будущем, число затронутых записей неотрицательно
func (v *Validator) ValidateDataIntegrity(events []CandidateEvent) []quality.ValidationError {
	errs := make([]quality.ValidationError, 0)
	now := time.Now()

	for _, event := range events {
		if event.HasDate() && event.EventDate.After(now) {
			errs = append(errs, quality.NewEventError(quality.ErrFutureDate,
				fmt.Sprintf("event date %s is in the future", event.EventDate.Format("2006-01-02")),
				event.ID))
		}
		if event.RecordsAffected != nil && *event.RecordsAffected < 0 {
			errs = append(errs, quality.NewEventError(quality.ErrNegativeRecords,
				fmt.Sprintf("records affected is negative: %d", *event.RecordsAffected),
				event.ID))
		}
	}

	return errs
}
