package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/clock"
	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/pause"
	"github.com/freedom_case_2/opsync/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type AvailabilityService interface {
	IsAvailable(ctx context.Context, personID int64, scheduleType models.ScheduleType, at time.Time) bool
	AvailableOperators(ctx context.Context, ids []int64, scheduleType models.ScheduleType, at time.Time) []int64
	ScheduleEndTime(ctx context.Context, personID int64, scheduleType models.ScheduleType, day int) (string, bool)
}

type LedgerService interface {
	HistoryForTicket(ctx context.Context, ticketID string) ([]models.ReassignmentRecord, error)
	RecentGlobal(ctx context.Context, limit int) ([]models.ReassignmentRecord, error)
	HistoryForOperator(ctx context.Context, operatorID int64, limit int) ([]models.ReassignmentRecord, error)
}

type SyncService interface {
	SyncOpenTickets(ctx context.Context) (service.SyncResult, error)
	MigrateAssignedTo(ctx context.Context) (service.MigrateResult, error)
}

type AssignmentService interface {
	Reassign(ctx context.Context, in service.ReassignInput) (*models.ReassignmentRecord, error)
	AutoAssign(ctx context.Context) (service.AutoAssignResult, error)
}

type PauseService interface {
	Pause(ctx context.Context, reason, by string) (pause.State, error)
	Resume(ctx context.Context, by string) (pause.State, error)
	Status(ctx context.Context) pause.Status
}

type RunReader interface {
	GetLatestRun(ctx context.Context, kind string) (models.SyncRun, error)
}

type Handler struct {
	Health       Pinger
	Availability AvailabilityService
	Ledger       LedgerService
	Sync         SyncService
	Assignment   AssignmentService
	Pause        PauseService
	Runs         RunReader
	Clock        clock.Clock
	Validator    *validator.Validate
	Logger       zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Health.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// bindJSON decodes and validates the body; an empty body is accepted as the
// zero value.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(dst); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return false
		}
	}
	if err := h.Validator.Struct(dst); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "id must be a positive integer", c.Param("id"))
		return 0, false
	}
	return id, true
}

func scheduleTypeQuery(c *gin.Context) (models.ScheduleType, bool) {
	st := models.ScheduleType(strings.ToLower(strings.TrimSpace(c.Query("type"))))
	if !st.Valid() {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "type must be one of work, assignment, alert", c.Query("type"))
		return "", false
	}
	return st, true
}

// atQuery parses the optional RFC3339 "at" parameter, defaulting to now.
func (h *Handler) atQuery(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("at"))
	if raw == "" {
		return h.Clock.Now(), true
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "at must be RFC3339", raw)
		return time.Time{}, false
	}
	return at.In(h.Clock.Location()), true
}

func limitQuery(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be an integer", raw)
		return 0, false
	}
	return limit, true
}
