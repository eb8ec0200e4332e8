package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freedom_case_2/opsync/internal/clock"
)

// @Summary Available operators
// @Description Filters the given operator ids to those inside a window of the given type
// @Tags operators
// @Produce json
// @Param ids query string true "Comma separated operator ids"
// @Param type query string true "work, assignment or alert"
// @Param at query string false "RFC3339 instant, defaults to now"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/operators/available [get]
func (h *Handler) AvailableOperators(c *gin.Context) {
	st, ok := scheduleTypeQuery(c)
	if !ok {
		return
	}
	at, ok := h.atQuery(c)
	if !ok {
		return
	}

	var ids []int64
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "ids must be integers", raw)
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "ids is required", nil)
		return
	}

	available := h.Availability.AvailableOperators(c.Request.Context(), ids, st, at)
	c.JSON(http.StatusOK, gin.H{
		"schedule_type": st,
		"at":            at,
		"operators":     available,
	})
}

// @Summary Operator availability
// @Tags operators
// @Produce json
// @Param id path int true "Operator id"
// @Param type query string true "work, assignment or alert"
// @Param at query string false "RFC3339 instant, defaults to now"
// @Success 200 {object} map[string]any
// @Router /api/operators/{id}/availability [get]
func (h *Handler) OperatorAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	st, ok := scheduleTypeQuery(c)
	if !ok {
		return
	}
	at, ok := h.atQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operator_id":   id,
		"schedule_type": st,
		"at":            at,
		"available":     h.Availability.IsAvailable(c.Request.Context(), id, st, at),
	})
}

// @Summary Operator schedule end
// @Tags operators
// @Produce json
// @Param id path int true "Operator id"
// @Param type query string true "work, assignment or alert"
// @Param day query int false "Day of week, 0 = Monday; defaults to today"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/operators/{id}/schedule-end [get]
func (h *Handler) ScheduleEnd(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	st, ok := scheduleTypeQuery(c)
	if !ok {
		return
	}

	day := clock.Weekday(h.Clock.Now())
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 || d > 6 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "day must be between 0 and 6", raw)
			return
		}
		day = d
	}

	end, found := h.Availability.ScheduleEndTime(c.Request.Context(), id, st, day)
	if !found {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No schedule for that day", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operator_id":   id,
		"schedule_type": st,
		"day_of_week":   day,
		"end_time":      end,
	})
}
