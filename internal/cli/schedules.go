package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/freedom_case_2/opsync/internal/app"
	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/service"
)

var dayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ScheduleFile is the YAML layout accepted by `schedules replace`. The
// optional operators list refreshes the display names used in the
// reassignment history.
//
//	operators:
//	  - id: 10
//	    name: Ana
//	schedules:
//	  - person_id: 10
//	    type: assignment
//	    days: [0, 1, 2, 3, 4]
//	    start: "08:00"
//	    end: "16:00"
type ScheduleFile struct {
	Operators []OperatorEntry `yaml:"operators"`
	Schedules []ScheduleEntry `yaml:"schedules"`
}

type OperatorEntry struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Inactive bool   `yaml:"inactive"`
}

type ScheduleEntry struct {
	PersonID int64  `yaml:"person_id"`
	Type     string `yaml:"type"`
	Days     []int  `yaml:"days"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Inactive bool   `yaml:"inactive"`
}

// ScheduleCmd returns the schedules command
func ScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Manage operator schedule windows",
	}
	cmd.AddCommand(scheduleReplaceCmd())
	cmd.AddCommand(scheduleShowCmd())
	return cmd
}

func scheduleReplaceCmd() *cobra.Command {
	var (
		file  string
		types []string
	)

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace every window of the given types with the contents of a YAML file",
		Long: `Delete all schedule rows of the selected types and insert the rows from
--file in a single transaction. Without --type, the types present in the
file are replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read schedule file: %w", err)
			}
			rows, fileTypes, err := ParseScheduleFile(data)
			if err != nil {
				return err
			}
			operators, err := ParseOperators(data)
			if err != nil {
				return err
			}
			replace, err := selectTypes(types, fileTypes)
			if err != nil {
				return err
			}
			rows = filterRows(rows, replace)

			return withApp(func(ctx context.Context, a *app.App) error {
				if len(operators) > 0 {
					if err := a.Store.UpsertOperators(ctx, operators); err != nil {
						return fmt.Errorf("failed to save operators: %w", err)
					}
				}
				n, err := a.Store.ReplaceSchedules(ctx, replace, rows)
				if err != nil {
					return fmt.Errorf("failed to replace schedules: %w", err)
				}
				fmt.Printf("%s replaced %v with %d windows\n", color.New(color.FgGreen).Sprint("✓"), replace, n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML schedule file")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Schedule types to replace (work, assignment, alert)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func scheduleShowCmd() *cobra.Command {
	var (
		operator int64
		typ      string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print an operator's weekly windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.ScheduleType(strings.ToLower(typ))
			if !st.Valid() {
				return fmt.Errorf("invalid --type %q", typ)
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				rows, err := a.Store.ListOperatorSchedules(ctx, operator, st)
				if err != nil {
					return fmt.Errorf("failed to list schedules: %w", err)
				}
				if len(rows) == 0 {
					fmt.Printf("Operator %d has no %s windows\n", operator, st)
					return nil
				}
				now := a.Clock.Now()
				fmt.Printf("Operator %d, %s windows (%s):\n", operator, st, a.Clock.Location())
				for _, r := range rows {
					marker := " "
					if !r.IsActive {
						marker = color.New(color.FgYellow).Sprint("-")
					}
					fmt.Printf(" %s %s  %s-%s\n", marker, dayNames[r.DayOfWeek], r.StartTime, r.EndTime)
				}
				state := color.New(color.FgRed).Sprint("unavailable")
				if a.Availability.IsAvailable(ctx, operator, st, now) {
					state = color.New(color.FgGreen).Sprint("available")
				}
				fmt.Printf("Now (%s): %s\n", now.Format("Mon 15:04"), state)
				return nil
			})
		},
	}
	cmd.Flags().Int64VarP(&operator, "operator", "o", 0, "Operator id")
	cmd.Flags().StringVarP(&typ, "type", "t", string(models.ScheduleWork), "Schedule type")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

// ParseScheduleFile expands a YAML schedule file into one row per day and
// returns the schedule types it mentions.
func ParseScheduleFile(data []byte) ([]models.OperatorSchedule, []models.ScheduleType, error) {
	var f ScheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("invalid schedule file: %w", err)
	}

	var (
		rows  []models.OperatorSchedule
		seen  = map[models.ScheduleType]bool{}
		types []models.ScheduleType
	)
	for i, e := range f.Schedules {
		st := models.ScheduleType(strings.ToLower(strings.TrimSpace(e.Type)))
		if !st.Valid() {
			return nil, nil, fmt.Errorf("entry %d: invalid type %q", i, e.Type)
		}
		if e.PersonID <= 0 {
			return nil, nil, fmt.Errorf("entry %d: person_id is required", i)
		}
		if len(e.Days) == 0 {
			return nil, nil, fmt.Errorf("entry %d: days is required", i)
		}
		start, err := normalizeClock(e.Start)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: start: %w", i, err)
		}
		end, err := normalizeClock(e.End)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: end: %w", i, err)
		}
		if err := service.ValidateWindow(start, end); err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", i, err)
		}

		for _, d := range e.Days {
			if d < 0 || d > 6 {
				return nil, nil, fmt.Errorf("entry %d: day %d out of range 0..6 (0 = Monday)", i, d)
			}
			rows = append(rows, models.OperatorSchedule{
				PersonID:     e.PersonID,
				DayOfWeek:    d,
				StartTime:    start,
				EndTime:      end,
				ScheduleType: st,
				IsActive:     !e.Inactive,
			})
		}
		if !seen[st] {
			seen[st] = true
			types = append(types, st)
		}
	}
	return rows, types, nil
}

// ParseOperators returns the operators section of a schedule file.
func ParseOperators(data []byte) ([]models.Operator, error) {
	var f ScheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid schedule file: %w", err)
	}
	out := make([]models.Operator, 0, len(f.Operators))
	for i, o := range f.Operators {
		name := strings.TrimSpace(o.Name)
		if o.ID <= 0 || name == "" {
			return nil, fmt.Errorf("operator %d: id and name are required", i)
		}
		out = append(out, models.Operator{ID: o.ID, Name: name, IsActive: !o.Inactive})
	}
	return out, nil
}

// normalizeClock turns "8:00" into "08:00".
func normalizeClock(value string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Format("15:04"), nil
}

func selectTypes(flags []string, fileTypes []models.ScheduleType) ([]models.ScheduleType, error) {
	if len(flags) == 0 {
		if len(fileTypes) == 0 {
			return nil, fmt.Errorf("schedule file is empty; pass --type to clear a type explicitly")
		}
		return fileTypes, nil
	}
	var out []models.ScheduleType
	for _, raw := range flags {
		st := models.ScheduleType(strings.ToLower(strings.TrimSpace(raw)))
		if !st.Valid() {
			return nil, fmt.Errorf("invalid --type %q", raw)
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func filterRows(rows []models.OperatorSchedule, types []models.ScheduleType) []models.OperatorSchedule {
	keep := map[models.ScheduleType]bool{}
	for _, t := range types {
		keep[t] = true
	}
	out := rows[:0]
	for _, r := range rows {
		if keep[r.ScheduleType] {
			out = append(out, r)
		}
	}
	return out
}
