package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freedom_case_2/opsync/internal/db"
	"github.com/freedom_case_2/opsync/internal/models"
)

type PauseRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	By     string `json:"by" validate:"max=100"`
}

type ResumeRequest struct {
	By string `json:"by" validate:"max=100"`
}

// @Summary System pause status
// @Tags system
// @Produce json
// @Success 200 {object} pause.Status
// @Router /api/system/status [get]
func (h *Handler) SystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Pause.Status(c.Request.Context()))
}

// @Summary Pause automated processing
// @Tags system
// @Accept json
// @Produce json
// @Param body body PauseRequest false "Pause request"
// @Success 200 {object} pause.State
// @Router /api/system/pause [post]
func (h *Handler) PauseSystem(c *gin.Context) {
	var req PauseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	state, err := h.Pause.Pause(c.Request.Context(), req.Reason, req.By)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "PAUSE_STATE_ERROR", "Failed to persist pause state", err.Error())
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary Resume automated processing
// @Tags system
// @Accept json
// @Produce json
// @Param body body ResumeRequest false "Resume request"
// @Success 200 {object} pause.State
// @Router /api/system/resume [post]
func (h *Handler) ResumeSystem(c *gin.Context) {
	var req ResumeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	state, err := h.Pause.Resume(c.Request.Context(), req.By)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "PAUSE_STATE_ERROR", "Failed to persist pause state", err.Error())
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary Latest reconciliation run
// @Tags runs
// @Produce json
// @Param kind query string false "sync or migrate_assigned"
// @Success 200 {object} models.SyncRun
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	kind := strings.TrimSpace(c.Query("kind"))
	if kind != "" && kind != models.RunKindSync && kind != models.RunKindMigrateAssigned {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "kind must be sync or migrate_assigned", kind)
		return
	}
	run, err := h.Runs.GetLatestRun(c.Request.Context(), kind)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}
