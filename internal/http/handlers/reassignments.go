package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/service"
)

type ReassignmentView struct {
	models.ReassignmentRecord
	FromOperatorLabel string `json:"from_operator_label"`
	ToOperatorLabel   string `json:"to_operator_label"`
}

func toViews(records []models.ReassignmentRecord) []ReassignmentView {
	out := make([]ReassignmentView, 0, len(records))
	for _, r := range records {
		out = append(out, ReassignmentView{
			ReassignmentRecord: r,
			FromOperatorLabel:  service.DisplayName(r.FromOperatorName),
			ToOperatorLabel:    service.DisplayName(r.ToOperatorName),
		})
	}
	return out
}

// @Summary Ticket reassignment history
// @Tags reassignments
// @Produce json
// @Param id path string true "Ticket id"
// @Success 200 {object} map[string]any
// @Router /api/tickets/{id}/reassignments [get]
func (h *Handler) TicketReassignments(c *gin.Context) {
	ticketID := strings.TrimSpace(c.Param("id"))
	records, err := h.Ledger.HistoryForTicket(c.Request.Context(), ticketID)
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": ticketID, "items": toViews(records)})
}

// @Summary Recent reassignments
// @Tags reassignments
// @Produce json
// @Param limit query int false "1..500, default 100"
// @Success 200 {object} map[string]any
// @Router /api/reassignments [get]
func (h *Handler) RecentReassignments(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	records, err := h.Ledger.RecentGlobal(c.Request.Context(), limit)
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toViews(records), "limit": service.ClampLimit(limit, service.DefaultRecentLimit)})
}

func (h *Handler) OperatorReassignments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	records, err := h.Ledger.HistoryForOperator(c.Request.Context(), id, limit)
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operator_id": id,
		"items":       toViews(records),
		"limit":       service.ClampLimit(limit, service.DefaultOperatorLimit),
	})
}

func (h *Handler) historyError(c *gin.Context, err error) {
	if isInvalidInput(err) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request", err.Error())
		return
	}
	h.Logger.Error().Err(err).Msg("failed to read reassignment history")
	writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to read reassignment history", err.Error())
}
