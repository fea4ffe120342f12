package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/llabusch93/reclaim-sdk/internal/config"
	"github.com/llabusch93/reclaim-sdk/pkg/reclaim"
	"github.com/llabusch93/reclaim-sdk/pkg/utils"
)

// TaskView ist die Ausgabeform eines Tasks.
type TaskView struct {
	ID             int64       `yaml:"id"`
	Title          string      `yaml:"title"`
	Status         string      `yaml:"status"`
	Priority       string      `yaml:"priority,omitempty"`
	Category       string      `yaml:"category"`
	Hours          float64     `yaml:"hours"`
	MinChunkHours  float64     `yaml:"min_chunk_hours,omitempty"`
	MaxChunkHours  float64     `yaml:"max_chunk_hours,omitempty"`
	UpNext         bool        `yaml:"up_next,omitempty"`
	Private        bool        `yaml:"private,omitempty"`
	Due            string      `yaml:"due,omitempty"`
	StartAfter     string      `yaml:"start_after,omitempty"`
	ScheduledStart string      `yaml:"scheduled_start,omitempty"`
	ScheduledEnd   string      `yaml:"scheduled_end,omitempty"`
	Notes          string      `yaml:"notes,omitempty"`
	Events         []EventView `yaml:"events,omitempty"`
}

// EventView ist die Ausgabeform eines Task Events.
type EventView struct {
	ID     string `yaml:"id"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	Pinned bool   `yaml:"pinned,omitempty"`
}

// TimeSchemeView ist die Ausgabeform eines Zeitplans.
type TimeSchemeView struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Category string   `yaml:"category,omitempty"`
	Status   string   `yaml:"status,omitempty"`
	Features []string `yaml:"features,omitempty"`
}

type Mapper struct {
	config *config.Config
}

func NewMapper(cfg *config.Config) *Mapper {
	return &Mapper{config: cfg}
}

// TaskToView konvertiert einen Task in die Ausgabeform
func (m *Mapper) TaskToView(task *reclaim.Task) TaskView {
	view := TaskView{
		ID:       task.ID,
		Title:    task.Title,
		Status:   string(task.Status),
		Priority: string(task.Priority),
		Category: string(task.EventCategory),
		UpNext:   task.UpNext(),
		Private:  task.IsPrivate(),
		Notes:    task.Description(),
	}

	// Dauer in Stunden, nicht gesetzt bleibt 0
	view.Hours, _ = task.Duration()
	view.MinChunkHours, _ = task.MinWorkDuration()
	view.MaxChunkHours, _ = task.MaxWorkDuration()

	view.Due = utils.FormatTime(task.DueDate())
	view.StartAfter = utils.FormatTime(task.StartDate())
	if start, ok := task.ScheduledStartDate(); ok {
		view.ScheduledStart = utils.FormatTime(start)
	}
	if end, ok := task.ScheduledEndDate(); ok {
		view.ScheduledEnd = utils.FormatTime(end)
	}

	for _, ev := range task.Events() {
		view.Events = append(view.Events, EventView{
			ID:     ev.EventID,
			Start:  utils.FormatTime(ev.StartTime()),
			End:    utils.FormatTime(ev.EndTime()),
			Pinned: ev.Pinned,
		})
	}

	return view
}

// TimeSchemeToView konvertiert einen Zeitplan in die Ausgabeform
func (m *Mapper) TimeSchemeToView(scheme *reclaim.TimeScheme) TimeSchemeView {
	return TimeSchemeView{
		ID:       scheme.ID,
		Title:    scheme.Title,
		Category: string(scheme.TaskCategory),
		Status:   scheme.Status,
		Features: scheme.Features,
	}
}

// RenderTasks gibt Tasks im konfigurierten Format aus
func (m *Mapper) RenderTasks(tasks []*reclaim.Task) (string, error) {
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, m.TaskToView(task))
	}

	if m.markdown() {
		return m.tasksTable(views), nil
	}
	return renderYAML(views)
}

// RenderTask gibt einen einzelnen Task aus, als Markdown mit Detailtabelle
func (m *Mapper) RenderTask(task *reclaim.Task) (string, error) {
	view := m.TaskToView(task)
	if !m.markdown() {
		return renderYAML(view)
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("### #%d - %s\n\n", view.ID, utils.EscapeTableCell(view.Title)))

	rows := [][]string{
		{"Status", view.Status},
		{"Kategorie", view.Category},
		{"Dauer", formatHours(view.Hours)},
	}
	if view.Priority != "" {
		rows = append(rows, []string{"Priorität", view.Priority})
	}
	if due := task.DueDate(); !due.IsZero() {
		rows = append(rows, []string{"Fällig", utils.FormatDateForDisplay(due)})
	}
	if start, ok := task.ScheduledStartDate(); ok {
		rows = append(rows, []string{"Geplant ab", utils.FormatDateForDisplay(start)})
	}
	if end, ok := task.ScheduledEndDate(); ok {
		rows = append(rows, []string{"Geplant bis", utils.FormatDateForDisplay(end)})
	}
	content.WriteString(utils.FormatTable([]string{"Feld", "Wert"}, rows))

	if len(view.Events) > 0 {
		content.WriteString("\n")
		eventRows := make([][]string, 0, len(view.Events))
		for _, ev := range task.Events() {
			eventRows = append(eventRows, []string{
				ev.EventID,
				utils.FormatDateForDisplay(ev.StartTime()),
				utils.FormatDateForDisplay(ev.EndTime()),
				strconv.FormatBool(ev.Pinned),
			})
		}
		content.WriteString(utils.FormatTable([]string{"Event", "Start", "Ende", "Fixiert"}, eventRows))
	}

	if view.Notes != "" {
		content.WriteString("\n**Beschreibung:**\n\n")
		content.WriteString(utils.TruncateText(view.Notes, 300))
		content.WriteString("\n")
	}
	return content.String(), nil
}

// RenderTimeSchemes gibt Zeitpläne im konfigurierten Format aus
func (m *Mapper) RenderTimeSchemes(schemes []*reclaim.TimeScheme) (string, error) {
	views := make([]TimeSchemeView, 0, len(schemes))
	for _, scheme := range schemes {
		views = append(views, m.TimeSchemeToView(scheme))
	}

	if !m.markdown() {
		return renderYAML(views)
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{v.ID, v.Title, v.Category, v.Status})
	}
	return utils.FormatTable([]string{"ID", "Titel", "Kategorie", "Status"}, rows), nil
}

func (m *Mapper) markdown() bool {
	return m.config != nil && m.config.Format == "markdown"
}

func (m *Mapper) tasksTable(views []TaskView) string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			utils.TruncateText(v.Title, 60),
			v.Status,
			v.Priority,
			formatHours(v.Hours),
			displayWireTime(v.Due),
		})
	}
	return utils.FormatTable([]string{"ID", "Titel", "Status", "Priorität", "Dauer", "Fällig"}, rows)
}

func renderYAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("yaml-Ausgabe fehlgeschlagen: %w", err)
	}
	return string(out), nil
}

func formatHours(hours float64) string {
	if hours == 0 {
		return "-"
	}
	return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
}

// displayWireTime formatiert einen Wire-Zeitstempel für Tabellen.
func displayWireTime(wire string) string {
	if wire == "" {
		return utils.FormatDateForDisplay(time.Time{})
	}
	t, err := utils.ParseTime(wire)
	if err != nil {
		return wire
	}
	return utils.FormatDateForDisplay(t)
}
