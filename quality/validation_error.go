package quality

import "fmt"

// ErrorCode код ошибки валидации
type ErrorCode string

const (
	// Фатальные ошибки входных данных: обработка прерывается до группировки
	ErrEmptyInput        ErrorCode = "EMPTY_INPUT"
	ErrDuplicateEventIDs ErrorCode = "DUPLICATE_EVENT_IDS"
	ErrMissingTitle      ErrorCode = "MISSING_TITLE"

	// Структурные ошибки результата: фиксируются, но не блокируют выдачу
	ErrDuplicateEvent     ErrorCode = "DUPLICATE_EVENT"
	ErrMissingMasterEvent ErrorCode = "MISSING_MASTER_EVENT"
	ErrFutureDate         ErrorCode = "FUTURE_DATE"
	ErrNegativeRecords    ErrorCode = "NEGATIVE_RECORDS"
)

// ValidationError типизированная ошибка валидации данных.
// Валидаторы возвращают список таких ошибок вместо паники или error:
// одна запись может нарушать несколько инвариантов одновременно.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	EventID string    `json:"event_id,omitempty"`
}

// Error реализует интерфейс error
func (e ValidationError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("[%s] %s (event %s)", e.Code, e.Message, e.EventID)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsFatal сообщает, относится ли код к фатальным ошибкам входных данных
func (e ValidationError) IsFatal() bool {
	switch e.Code {
	case ErrEmptyInput, ErrDuplicateEventIDs, ErrMissingTitle:
		return true
	}
	return false
}

// NewError создает новую ошибку валидации
func NewError(code ErrorCode, message string) ValidationError {
	return ValidationError{Code: code, Message: message}
}

// NewEventError создает новую ошибку валидации, привязанную к событию
func NewEventError(code ErrorCode, message, eventID string) ValidationError {
	return ValidationError{Code: code, Message: message, EventID: eventID}
}

// HasFatal сообщает, содержит ли список хотя бы одну фатальную ошибку
func HasFatal(errs []ValidationError) bool {
	for _, e := range errs {
		if e.IsFatal() {
			return true
		}
	}
	return false
}
