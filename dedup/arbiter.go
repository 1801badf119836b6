package dedup

import (
	"context"
	"errors"
)

// ErrArbiterUnavailable сигнализирует, что арбитр не дал вердикта.
// Движок в этом случае использует исходную алгоритмическую оценку.
var ErrArbiterUnavailable = errors.New("arbiter unavailable")

// ArbiterDecision вердикт внешнего арбитра по паре событий
type ArbiterDecision struct {
	IsSimilar  bool    `json:"is_similar"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ArbiterOracle внешний сервис-арбитр для пар с неуверенной оценкой.
// Движок обращается к арбитру только когда алгоритмическая оценка попала
// в неуверенную полосу; ошибка или таймаут арбитра не распространяются -
// движок возвращается к исходной алгоритмической оценке.
type ArbiterOracle interface {
	Decide(ctx context.Context, a, b CandidateEvent, algoScore float64) (ArbiterDecision, error)
}

// NoopOracle заглушка арбитра: никогда не дает вердикта, поэтому движок
// всегда использует алгоритмическую оценку. Подключается когда внешний
// арбитр не сконфигурирован.
type NoopOracle struct{}

// NewNoopOracle создает новую заглушку арбитра
func NewNoopOracle() *NoopOracle {
	return &NoopOracle{}
}

// Decide всегда возвращает ErrArbiterUnavailable
func (o *NoopOracle) Decide(_ context.Context, _, _ CandidateEvent, _ float64) (ArbiterDecision, error) {
	return ArbiterDecision{}, ErrArbiterUnavailable
}
