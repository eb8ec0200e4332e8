package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/service"
)

type ReassignRequest struct {
	ToOperatorID *int64 `json:"to_operator_id" validate:"omitempty,gt=0"`
	Reason       string `json:"reason" validate:"max=500"`
	CreatedBy    string `json:"created_by" validate:"max=100"`
}

// @Summary Sync open tickets
// @Description Reconciles every open ticket against the external ticket system
// @Tags tickets
// @Produce json
// @Success 200 {object} service.SyncResult
// @Failure 409 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /api/tickets/sync [post]
func (h *Handler) SyncTickets(c *gin.Context) {
	result, err := h.Sync.SyncOpenTickets(c.Request.Context())
	if err != nil {
		h.runError(c, err, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Migrate assigned_to
// @Tags tickets
// @Produce json
// @Success 200 {object} service.MigrateResult
// @Router /api/tickets/migrate-assigned [post]
func (h *Handler) MigrateAssigned(c *gin.Context) {
	result, err := h.Sync.MigrateAssignedTo(c.Request.Context())
	if err != nil {
		h.runError(c, err, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Reassign ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket id"
// @Param body body ReassignRequest true "Target operator; null unassigns"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/tickets/{id}/reassign [post]
func (h *Handler) Reassign(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var req ReassignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rec, err := h.Assignment.Reassign(c.Request.Context(), service.ReassignInput{
		TicketID:     id,
		ToOperatorID: req.ToOperatorID,
		Reason:       req.Reason,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		case errors.Is(err, service.ErrAssignmentConflict):
			writeError(c, http.StatusConflict, "ASSIGNMENT_CONFLICT", "Ticket was reassigned concurrently, reload and retry", nil)
		case isInvalidInput(err):
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request", err.Error())
		default:
			h.Logger.Error().Err(err).Str("ticket_id", id).Msg("reassign failed")
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reassign", err.Error())
		}
		return
	}

	resp := gin.H{"status": "ok", "ticket_id": id, "assigned_to": req.ToOperatorID, "history": nil}
	if rec != nil {
		views := toViews([]models.ReassignmentRecord{*rec})
		resp["history"] = views[0]
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Auto-assign unassigned tickets
// @Tags tickets
// @Produce json
// @Success 200 {object} service.AutoAssignResult
// @Failure 409 {object} map[string]any
// @Router /api/tickets/auto-assign [post]
func (h *Handler) AutoAssign(c *gin.Context) {
	result, err := h.Assignment.AutoAssign(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrSystemPaused) {
			writeError(c, http.StatusConflict, "SYSTEM_PAUSED", "System is paused", nil)
			return
		}
		h.runError(c, err, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) runError(c *gin.Context, err error, partial any) {
	if errors.Is(err, service.ErrRunInProgress) {
		writeError(c, http.StatusConflict, "RUN_IN_PROGRESS", "A reconciliation run is already in progress", nil)
		return
	}
	h.Logger.Error().Err(err).Msg("batch run failed")
	writeError(c, http.StatusInternalServerError, "SYNC_FAILED", err.Error(), partial)
}

func isInvalidInput(err error) bool {
	return errors.Is(err, service.ErrInvalidInput)
}
