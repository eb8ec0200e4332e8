package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/clock"
	"github.com/freedom_case_2/opsync/internal/models"
)

const minutesPerDay = 24 * 60

type ScheduleReader interface {
	ListSchedules(ctx context.Context, personID int64, scheduleType models.ScheduleType, dayOfWeek int) ([]models.OperatorSchedule, error)
	ListScheduledOperators(ctx context.Context, scheduleType models.ScheduleType) ([]int64, error)
}

// Availability answers whether an operator is on duty for a given purpose
// at a given instant, using the weekly windows in operator_schedule.
type Availability struct {
	Schedules ScheduleReader
	Clock     clock.Clock
	Logger    zerolog.Logger
}

// IsAvailable reports whether personID has an active window of scheduleType
// containing at. A zero at means now. Windows are half-open [start, end) and
// an end of 00:00 means midnight at the end of the day.
func (a *Availability) IsAvailable(ctx context.Context, personID int64, scheduleType models.ScheduleType, at time.Time) bool {
	at = a.localTime(at)
	day := clock.Weekday(at)
	now := clock.MinutesSinceMidnight(at)

	windows, err := a.Schedules.ListSchedules(ctx, personID, scheduleType, day)
	if err != nil {
		a.Logger.Error().Err(err).
			Int64("person_id", personID).
			Str("schedule_type", string(scheduleType)).
			Msg("schedule lookup failed, treating operator as unavailable")
		return false
	}

	for _, w := range windows {
		start, end, err := windowBounds(w)
		if err != nil {
			a.Logger.Warn().Err(err).
				Int64("schedule_id", w.ID).
				Int64("person_id", personID).
				Msg("skipping malformed schedule window")
			continue
		}
		if start <= now && now < end {
			return true
		}
	}
	return false
}

// AvailableOperators keeps the ids that are available at at, in input order.
func (a *Availability) AvailableOperators(ctx context.Context, ids []int64, scheduleType models.ScheduleType, at time.Time) []int64 {
	at = a.localTime(at)
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if a.IsAvailable(ctx, id, scheduleType, at) {
			out = append(out, id)
		}
	}
	return out
}

// ScheduleEndTime returns the greatest end_time string among the operator's
// windows for day. The comparison is lexicographic on "HH:MM".
func (a *Availability) ScheduleEndTime(ctx context.Context, personID int64, scheduleType models.ScheduleType, day int) (string, bool) {
	windows, err := a.Schedules.ListSchedules(ctx, personID, scheduleType, day)
	if err != nil {
		a.Logger.Error().Err(err).Int64("person_id", personID).Msg("schedule lookup failed")
		return "", false
	}
	latest := ""
	for _, w := range windows {
		if w.EndTime > latest {
			latest = w.EndTime
		}
	}
	return latest, latest != ""
}

func (a *Availability) OperatorsWithSchedules(ctx context.Context, scheduleType models.ScheduleType) ([]int64, error) {
	ids, err := a.Schedules.ListScheduledOperators(ctx, scheduleType)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled operators: %w", err)
	}
	return ids, nil
}

func (a *Availability) localTime(at time.Time) time.Time {
	if at.IsZero() {
		at = a.Clock.Now()
	}
	return at.In(a.Clock.Location())
}

func windowBounds(w models.OperatorSchedule) (int, int, error) {
	start, err := parseClockMinutes(w.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("start_time: %w", err)
	}
	end, err := parseClockMinutes(w.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("end_time: %w", err)
	}
	if end == 0 {
		end = minutesPerDay
	}
	return start, end, nil
}

// parseClockMinutes accepts "HH:MM" and "HH:MM:SS"; seconds are ignored.
func parseClockMinutes(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour*60 + minute, nil
}

// ValidateWindow reports whether start and end parse as schedule clock times.
func ValidateWindow(start, end string) error {
	_, _, err := windowBounds(models.OperatorSchedule{StartTime: start, EndTime: end})
	return err
}
