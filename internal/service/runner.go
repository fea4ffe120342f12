package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/llabusch93/reclaim-sdk/internal/config"
	"github.com/llabusch93/reclaim-sdk/pkg/reclaim"
	"github.com/llabusch93/reclaim-sdk/pkg/utils"
)

// Runner führt CLI-Kommandos gegen die Reclaim API aus.
type Runner struct {
	tasks   *reclaim.Tasks
	events  *reclaim.Events
	schemes *reclaim.TimeSchemes
	mapper  *Mapper
	out     io.Writer
}

func NewRunner(cfg *config.Config, client *reclaim.Client, out io.Writer) *Runner {
	return &Runner{
		tasks:   reclaim.NewTasks(client),
		events:  reclaim.NewEvents(client),
		schemes: reclaim.NewTimeSchemes(client),
		mapper:  NewMapper(cfg),
		out:     out,
	}
}

// Request ist ein Kommando mit Argumenten.
type Request struct {
	Command string
	Args    []string
	Title   string
}

// Run startet das Kommando
func (r *Runner) Run(ctx context.Context, req Request) error {
	switch req.Command {
	case "tasks":
		return r.listTasks(ctx)
	case "search":
		return r.searchTasks(ctx, req.Title)
	case "show":
		return r.withTask(req.Args, func(id int64) error { return r.showTask(ctx, id) })
	case "create":
		return r.createTask(ctx, req.Args)
	case "done":
		return r.withTask(req.Args, func(id int64) error {
			return r.planner(ctx, id, "✅ Task abgeschlossen", r.tasks.MarkComplete)
		})
	case "undone":
		return r.withTask(req.Args, func(id int64) error {
			return r.planner(ctx, id, "↩️  Task wieder geöffnet", r.tasks.MarkIncomplete)
		})
	case "start":
		return r.withTask(req.Args, func(id int64) error {
			return r.planner(ctx, id, "▶️  Timer gestartet", r.tasks.Start)
		})
	case "stop":
		return r.withTask(req.Args, func(id int64) error {
			return r.planner(ctx, id, "⏹️  Timer gestoppt", r.tasks.Stop)
		})
	case "add-time":
		return r.addTime(ctx, req.Args)
	case "log-work":
		return r.logWork(ctx, req.Args)
	case "prioritize":
		return r.withTask(req.Args, func(id int64) error {
			return r.planner(ctx, id, "⬆️  Task priorisiert", r.tasks.Prioritize)
		})
	case "reindex":
		if err := r.tasks.PrioritizeByDue(ctx); err != nil {
			return fmt.Errorf("sortieren nach Fälligkeit fehlgeschlagen: %w", err)
		}
		fmt.Fprintln(r.out, "🔄 Tasks nach Fälligkeit sortiert")
		return nil
	case "hours":
		return r.listTimeSchemes(ctx)
	case "move":
		return r.moveEvent(ctx, req.Args)
	case "delete":
		return r.withTask(req.Args, func(id int64) error { return r.deleteTask(ctx, id) })
	default:
		return fmt.Errorf("unbekanntes Kommando %q", req.Command)
	}
}

func (r *Runner) listTasks(ctx context.Context) error {
	tasks, err := r.tasks.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("fehler beim Laden der Tasks: %w", err)
	}
	return r.print(r.mapper.RenderTasks(tasks))
}

func (r *Runner) searchTasks(ctx context.Context, title string) error {
	tasks, err := r.tasks.Search(ctx, map[string]any{"title": title})
	if err != nil {
		return fmt.Errorf("suche fehlgeschlagen: %w", err)
	}
	return r.print(r.mapper.RenderTasks(tasks))
}

func (r *Runner) showTask(ctx context.Context, id int64) error {
	task, err := r.tasks.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("task %d konnte nicht geladen werden: %w", id, err)
	}
	return r.print(r.mapper.RenderTask(task))
}

func (r *Runner) createTask(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("create erwartet TITLE HOURS")
	}
	hours, err := parseHours(args[1])
	if err != nil {
		return err
	}

	task := &reclaim.Task{Title: args[0]}
	task.SetDuration(hours)

	if err := r.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("task-Erstellung fehlgeschlagen: %w", err)
	}

	fmt.Fprintf(r.out, "✅ Task erstellt: %s (ID: %d)\n", task.Title, task.ID)
	return nil
}

func (r *Runner) planner(ctx context.Context, id int64, message string, action func(context.Context, *reclaim.Task) error) error {
	task := &reclaim.Task{ID: id}
	if err := action(ctx, task); err != nil {
		return fmt.Errorf("task %d: %w", id, err)
	}
	fmt.Fprintf(r.out, "%s: #%d - %s (%s)\n", message, task.ID, task.Title, task.Status)
	return nil
}

func (r *Runner) addTime(ctx context.Context, args []string) error {
	id, err := parseID(args, 2)
	if err != nil {
		return err
	}
	hours, err := parseHours(args[1])
	if err != nil {
		return err
	}

	task := &reclaim.Task{ID: id}
	if err := r.tasks.AddTime(ctx, task, hours); err != nil {
		return fmt.Errorf("zeit hinzufügen fehlgeschlagen: %w", err)
	}

	total, _ := task.Duration()
	fmt.Fprintf(r.out, "⏱️  Zeit hinzugefügt: #%d - %s (jetzt %s)\n", task.ID, task.Title, formatHours(total))
	return nil
}

func (r *Runner) logWork(ctx context.Context, args []string) error {
	id, err := parseID(args, 2)
	if err != nil {
		return err
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil || minutes <= 0 {
		return fmt.Errorf("ungültige Minuten %q", args[1])
	}

	task := &reclaim.Task{ID: id}
	// Ende bestimmt der Server
	if err := r.tasks.LogWork(ctx, task, minutes, time.Time{}); err != nil {
		return fmt.Errorf("arbeitszeit erfassen fehlgeschlagen: %w", err)
	}

	fmt.Fprintf(r.out, "📝 %d Minuten erfasst: #%d - %s\n", minutes, task.ID, task.Title)
	return nil
}

func (r *Runner) listTimeSchemes(ctx context.Context) error {
	schemes, err := r.schemes.List(ctx)
	if err != nil {
		return fmt.Errorf("fehler beim Laden der Zeitpläne: %w", err)
	}
	return r.print(r.mapper.RenderTimeSchemes(schemes))
}

func (r *Runner) moveEvent(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("move erwartet EVENT_ID START END")
	}
	start, err := utils.ParseTime(args[1])
	if err != nil {
		return fmt.Errorf("ungültiger Start: %w", err)
	}
	end, err := utils.ParseTime(args[2])
	if err != nil {
		return fmt.Errorf("ungültiges Ende: %w", err)
	}

	ev := &reclaim.TaskEvent{EventID: args[0]}
	if err := r.events.Move(ctx, ev, start, end); err != nil {
		return fmt.Errorf("event verschieben fehlgeschlagen: %w", err)
	}

	fmt.Fprintf(r.out, "📅 Event %s verschoben: %s - %s\n", ev.EventID,
		utils.FormatDateForDisplay(ev.StartTime()), utils.FormatDateForDisplay(ev.EndTime()))
	return nil
}

func (r *Runner) deleteTask(ctx context.Context, id int64) error {
	task := &reclaim.Task{ID: id}
	if err := r.tasks.Delete(ctx, task); err != nil {
		return fmt.Errorf("task %d konnte nicht gelöscht werden: %w", id, err)
	}
	fmt.Fprintf(r.out, "🗑️  Task gelöscht: #%d\n", id)
	return nil
}

func (r *Runner) withTask(args []string, fn func(id int64) error) error {
	id, err := parseID(args, 1)
	if err != nil {
		return err
	}
	return fn(id)
}

func (r *Runner) print(content string, err error) error {
	if err != nil {
		return err
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	_, err = io.WriteString(r.out, content)
	return err
}

// Helper Functions

func parseID(args []string, want int) (int64, error) {
	if len(args) != want {
		return 0, fmt.Errorf("erwartet %d Argument(e), bekommen %d", want, len(args))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("ungültige Task-ID %q", args[0])
	}
	return id, nil
}

func parseHours(value string) (float64, error) {
	// Komma als Dezimaltrenner erlauben
	hours, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("ungültige Stunden %q", value)
	}
	return hours, nil
}
