package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"incidentdedup/database"
	"incidentdedup/dedup"
	apperrors "incidentdedup/server/errors"
)

// DedupHandler обработчики HTTP API дедупликации
type DedupHandler struct {
	db           *database.DedupDB
	orchestrator *dedup.DeduplicationOrchestrator
	logger       *slog.Logger
}

// NewDedupHandler создает новый обработчик
func NewDedupHandler(db *database.DedupDB, orchestrator *dedup.DeduplicationOrchestrator, logger *slog.Logger) *DedupHandler {
	return &DedupHandler{
		db:           db,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// ErrorResponse структура ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONError отправляет JSON ошибку с указанным статусом
func SendJSONError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// RunRequest тело запроса на прогон дедупликации
type RunRequest struct {
	Events []dedup.CandidateEvent `json:"events"`
	// Persist управляет сохранением результата: при false прогон
	// выполняется вхолостую, база не затрагивается
	Persist bool `json:"persist"`
}

// RunResponse тело ответа прогона дедупликации
type RunResponse struct {
	Result  dedup.DeduplicationResult `json:"result"`
	Storage *database.StorageResult   `json:"storage,omitempty"`
}

// HandleRunDeduplication принимает пакет событий-кандидатов, выполняет
// полный прогон и при persist=true заменяет содержимое хранилища
func (h *DedupHandler) HandleRunDeduplication(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("invalid request body", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	result := h.orchestrator.Run(c.Request.Context(), req.Events)

	// Фатальные ошибки входа: прогон не состоялся
	if len(result.CanonicalEvents) == 0 && len(result.Errors) > 0 {
		appErr := apperrors.NewUnprocessableError("input failed validation", result.Errors[0])
		h.logger.Warn("deduplication input rejected", "error", appErr.Error())
		c.JSON(appErr.StatusCode(), RunResponse{Result: result})
		return
	}

	response := RunResponse{Result: result}

	if req.Persist {
		if err := h.db.ClearAll(); err != nil {
			h.logger.Error("failed to clear storage before persist", "error", err)
			appErr := apperrors.NewInternalError("failed to clear storage", err)
			SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
			return
		}
		storage, err := h.db.StoreResult(&result)
		if err != nil {
			h.logger.Error("failed to persist deduplication result", "error", err)
			appErr := apperrors.NewInternalError("failed to persist result", err)
			SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
			return
		}
		response.Storage = storage
	}

	h.logger.Info("deduplication run completed",
		"input", result.Stats.InputCount,
		"output", result.Stats.OutputCount,
		"merges", result.Stats.TotalMerges,
		"persisted", req.Persist)

	c.JSON(http.StatusOK, response)
}

// HandleGetCanonicalEvents возвращает страницу канонических событий
func (h *DedupHandler) HandleGetCanonicalEvents(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)

	if limit <= 0 || limit > 1000 {
		SendJSONError(c, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}
	if offset < 0 {
		SendJSONError(c, http.StatusBadRequest, "offset must be non-negative")
		return
	}

	events, err := h.db.GetCanonicalEvents(limit, offset)
	if err != nil {
		h.logger.Error("failed to load canonical events", "error", err)
		appErr := apperrors.NewInternalError("failed to load events", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
		"limit":  limit,
		"offset": offset,
	})
}

// HandleGetLineage возвращает карту происхождения канонической записи
func (h *DedupHandler) HandleGetLineage(c *gin.Context) {
	canonicalID := c.Param("id")
	if canonicalID == "" {
		SendJSONError(c, http.StatusBadRequest, "canonical event id is required")
		return
	}

	lineage, err := h.db.GetLineage(canonicalID)
	if err != nil {
		h.logger.Error("failed to load lineage", "canonical_id", canonicalID, "error", err)
		appErr := apperrors.NewInternalError("failed to load lineage", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	if len(lineage) == 0 {
		appErr := apperrors.NewNotFoundError("canonical event not found", nil)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"canonical_id": canonicalID,
		"lineage":      lineage,
	})
}

// HandleGetClusters возвращает все кластеры слияния
func (h *DedupHandler) HandleGetClusters(c *gin.Context) {
	clusters, err := h.db.GetClusters()
	if err != nil {
		h.logger.Error("failed to load clusters", "error", err)
		appErr := apperrors.NewInternalError("failed to load clusters", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clusters": clusters,
		"count":    len(clusters),
	})
}

// HandleGetStats возвращает сводную статистику хранилища
func (h *DedupHandler) HandleGetStats(c *gin.Context) {
	stats, err := h.db.Statistics()
	if err != nil {
		h.logger.Error("failed to load storage statistics", "error", err)
		appErr := apperrors.NewInternalError("failed to load statistics", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HandleHealth проверка живости сервера и доступности базы
func (h *DedupHandler) HandleHealth(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	if err := h.db.Conn().Ping(); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// parseIntQuery читает целочисленный query-параметр с значением по умолчанию
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
