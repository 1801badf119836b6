package arbiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"incidentdedup/dedup"
)

// HTTPOracle арбитр на внешнем сервисе-классификаторе (LLM).
// Вызывается движком только для пар из неуверенной полосы оценок;
// каждый вызов ограничен таймаутом и частотным лимитом, при любой
// ошибке движок деградирует к алгоритмической оценке.
type HTTPOracle struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retryConfig RetryConfig
	logger      *slog.Logger
}

// RetryConfig конфигурация повторных попыток
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig возвращает конфигурацию повторных попыток по умолчанию
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialDelay:      300 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// OracleConfig конфигурация HTTP-арбитра
type OracleConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	RateLimit rate.Limit
	Retry     RetryConfig
}

// NewHTTPOracle создает новый HTTP-арбитр
func NewHTTPOracle(config OracleConfig) *HTTPOracle {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = rate.Every(time.Second) // 1 запрос в секунду
	}
	if config.Retry.MaxRetries == 0 {
		config.Retry = DefaultRetryConfig()
	}

	return &HTTPOracle{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:     rate.NewLimiter(config.RateLimit, 1),
		retryConfig: config.Retry,
		logger:      slog.Default().With("component", "arbiter_oracle"),
	}
}

// decideRequest тело запроса к сервису-арбитру
type decideRequest struct {
	Model     string       `json:"model,omitempty"`
	EventA    eventPayload `json:"event_a"`
	EventB    eventPayload `json:"event_b"`
	AlgoScore float64      `json:"algo_score"`
}

// eventPayload компактное представление события для арбитра
type eventPayload struct {
	Title         string `json:"title"`
	Summary       string `json:"summary,omitempty"`
	EventDate     string `json:"event_date,omitempty"`
	VictimOrgName string `json:"victim_org_name,omitempty"`
}

// decideResponse тело ответа сервиса-арбитра
type decideResponse struct {
	IsSimilar  bool    `json:"is_similar"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Decide запрашивает вердикт арбитра по паре событий.
// Реализует интерфейс dedup.ArbiterOracle.
func (o *HTTPOracle) Decide(ctx context.Context, a, b dedup.CandidateEvent, algoScore float64) (dedup.ArbiterDecision, error) {
	if o.baseURL == "" {
		return dedup.ArbiterDecision{}, dedup.ErrArbiterUnavailable
	}

	// Частотный лимит с учетом контекста вызова
	if err := o.limiter.Wait(ctx); err != nil {
		return dedup.ArbiterDecision{}, fmt.Errorf("rate limit wait: %w", err)
	}

	payload := decideRequest{
		Model:     o.model,
		EventA:    toPayload(a),
		EventB:    toPayload(b),
		AlgoScore: algoScore,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return dedup.ArbiterDecision{}, fmt.Errorf("failed to marshal arbiter request: %w", err)
	}

	var lastErr error
	delay := o.retryConfig.InitialDelay

	for attempt := 0; attempt <= o.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return dedup.ArbiterDecision{}, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * o.retryConfig.BackoffMultiplier)
		}

		decision, err := o.doRequest(ctx, body)
		if err == nil {
			return decision, nil
		}
		lastErr = err
		o.logger.Warn("arbiter request failed",
			"attempt", attempt+1,
			"error", err)
	}

	return dedup.ArbiterDecision{}, fmt.Errorf("arbiter exhausted retries: %w", lastErr)
}

// doRequest выполняет один HTTP-запрос к арбитру
func (o *HTTPOracle) doRequest(ctx context.Context, body []byte) (dedup.ArbiterDecision, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/decide", bytes.NewReader(body))
	if err != nil {
		return dedup.ArbiterDecision{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return dedup.ArbiterDecision{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dedup.ArbiterDecision{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var decoded decideResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return dedup.ArbiterDecision{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return dedup.ArbiterDecision{
		IsSimilar:  decoded.IsSimilar,
		Confidence: decoded.Confidence,
		Reasoning:  decoded.Reasoning,
	}, nil
}

// toPayload преобразует событие в компактное представление для арбитра
func toPayload(e dedup.CandidateEvent) eventPayload {
	payload := eventPayload{
		Title:         e.Title,
		Summary:       e.Summary,
		VictimOrgName: e.VictimOrgName,
	}
	if e.HasDate() {
		payload.EventDate = e.EventDate.Format("2006-01-02")
	}
	return payload
}
