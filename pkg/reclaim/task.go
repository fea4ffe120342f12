package reclaim

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/llabusch93/reclaim-sdk/pkg/utils"
)

// Priority of a task, P1 is the highest.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// TaskStatus as reported by the planner.
type TaskStatus string

const (
	StatusNew        TaskStatus = "NEW"
	StatusScheduled  TaskStatus = "SCHEDULED"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusComplete   TaskStatus = "COMPLETE"
	StatusCancelled  TaskStatus = "CANCELLED"
	StatusArchived   TaskStatus = "ARCHIVED"
)

// EventCategory decides which hours a task is scheduled into.
type EventCategory string

const (
	CategoryWork     EventCategory = "WORK"
	CategoryPersonal EventCategory = "PERSONAL"
)

const (
	tasksEndpoint   = "/api/tasks"
	plannerEndpoint = "/api/planner"
)

var taskSchema = NewSchema("Task",
	Field{Name: "ID", Wire: "id", Kind: KindInt, ReadOnly: true},
	Field{Name: "Created", Wire: "created", Kind: KindTime, ReadOnly: true},
	Field{Name: "Updated", Wire: "updated", Kind: KindTime, ReadOnly: true},
	Field{Name: "Title", Wire: "title", Kind: KindString, Required: true},
	Field{Name: "Notes", Wire: "notes", Kind: KindString},
	Field{Name: "EventCategory", Wire: "eventCategory", Kind: KindEnum, Required: true, Default: CategoryWork},
	Field{Name: "EventSubType", Wire: "eventSubType", Kind: KindString},
	Field{Name: "TimeSchemeID", Wire: "timeSchemeId", Kind: KindString},
	Field{Name: "TimeChunksRequired", Wire: "timeChunksRequired", Kind: KindInt, Required: true, Default: 8},
	Field{Name: "MinChunkSize", Wire: "minChunkSize", Kind: KindInt, Required: true, Default: 2},
	Field{Name: "MaxChunkSize", Wire: "maxChunkSize", Kind: KindInt, Required: true, Default: 8},
	Field{Name: "Priority", Wire: "priority", Kind: KindEnum},
	Field{Name: "OnDeck", Wire: "onDeck", Kind: KindBool},
	Field{Name: "AlwaysPrivate", Wire: "alwaysPrivate", Kind: KindBool},
	Field{Name: "Status", Wire: "status", Kind: KindEnum},
	Field{Name: "Due", Wire: "due", Kind: KindTime},
	Field{Name: "SnoozeUntil", Wire: "snoozeUntil", Kind: KindTime},
	Field{Name: "Index", Wire: "index", Kind: KindFloat},
	Field{Name: "Instances", Wire: "instances", Kind: KindList, ReadOnly: true},
)

// Task is a Reclaim task. Durations are stored in 15 minute chunks; use the
// hour accessors to read and write them.
type Task struct {
	Base

	ID                 int64         `json:"id,omitempty"`
	Title              string        `json:"title,omitempty"`
	Notes              string        `json:"notes,omitempty"`
	EventCategory      EventCategory `json:"eventCategory,omitempty"`
	EventSubType       string        `json:"eventSubType,omitempty"`
	TimeSchemeID       string        `json:"timeSchemeId,omitempty"`
	TimeChunksRequired int           `json:"timeChunksRequired,omitempty"`
	MinChunkSize       int           `json:"minChunkSize,omitempty"`
	MaxChunkSize       int           `json:"maxChunkSize,omitempty"`
	Priority           Priority      `json:"priority,omitempty"`
	OnDeck             bool          `json:"onDeck"`
	AlwaysPrivate      bool          `json:"alwaysPrivate"`
	Status             TaskStatus    `json:"status,omitempty"`
	Due                *Time         `json:"due,omitempty"`
	SnoozeUntil        *Time         `json:"snoozeUntil,omitempty"`
	Index              *float64      `json:"index,omitempty"`
	Instances          []TaskEvent   `json:"instances,omitempty"`
}

func (t *Task) Endpoint() string { return tasksEndpoint }

func (t *Task) Schema() *Schema { return taskSchema }

func (t *Task) ResourceID() string {
	if t.ID == 0 {
		return ""
	}
	return strconv.FormatInt(t.ID, 10)
}

func (t *Task) String() string {
	return t.Title
}

// Name and SetName alias Title.
func (t *Task) Name() string        { return t.Title }
func (t *Task) SetName(name string) { t.Title = name }

// Description and SetDescription alias Notes.
func (t *Task) Description() string       { return t.Notes }
func (t *Task) SetDescription(doc string) { t.Notes = doc }

// Duration is the total time required in hours; ok is false when unset.
func (t *Task) Duration() (hours float64, ok bool) {
	return utils.ChunksToHours(t.TimeChunksRequired)
}

// SetDuration rounds hours to the nearest chunk.
func (t *Task) SetDuration(hours float64) {
	t.TimeChunksRequired = utils.HoursToChunks(hours)
}

// MinWorkDuration is the shortest block the planner may schedule.
func (t *Task) MinWorkDuration() (hours float64, ok bool) {
	return utils.ChunksToHours(t.MinChunkSize)
}

func (t *Task) SetMinWorkDuration(hours float64) {
	t.MinChunkSize = utils.HoursToChunks(hours)
}

// MaxWorkDuration is the longest block the planner may schedule.
func (t *Task) MaxWorkDuration() (hours float64, ok bool) {
	return utils.ChunksToHours(t.MaxChunkSize)
}

func (t *Task) SetMaxWorkDuration(hours float64) {
	t.MaxChunkSize = utils.HoursToChunks(hours)
}

// UpNext reports the on-deck flag.
func (t *Task) UpNext() bool { return t.OnDeck }

func (t *Task) SetUpNext(v bool) { t.OnDeck = v }

func (t *Task) IsPrivate() bool { return t.AlwaysPrivate }

func (t *Task) SetPrivate(v bool) { t.AlwaysPrivate = v }

func (t *Task) IsWorkTask() bool { return t.EventCategory == CategoryWork }

func (t *Task) SetWorkTask(work bool) {
	if work {
		t.EventCategory = CategoryWork
	} else {
		t.EventCategory = CategoryPersonal
	}
}

// IsScheduled is true while the planner has the task on the calendar.
func (t *Task) IsScheduled() bool {
	return t.Status == StatusScheduled || t.Status == StatusInProgress
}

// DueDate returns the deadline, zero if none.
func (t *Task) DueDate() time.Time { return t.Due.value() }

// SetDueDate sets the deadline; the zero time clears it.
func (t *Task) SetDueDate(due time.Time) { t.Due = NewTime(due) }

// StartDate is the earliest time the task may be scheduled (snoozeUntil).
func (t *Task) StartDate() time.Time { return t.SnoozeUntil.value() }

func (t *Task) SetStartDate(start time.Time) { t.SnoozeUntil = NewTime(start) }

// Events returns the scheduled instances sorted by start. The events point
// into t, so moving one updates the task's list as well.
func (t *Task) Events() []*TaskEvent {
	events := make([]*TaskEvent, 0, len(t.Instances))
	for i := range t.Instances {
		ev := &t.Instances[i]
		ev.task = t
		events = append(events, ev)
	}
	slices.SortStableFunc(events, func(a, b *TaskEvent) int {
		return a.StartTime().Compare(b.StartTime())
	})
	return events
}

// ScheduledStartDate is the earliest start over all instances.
func (t *Task) ScheduledStartDate() (time.Time, bool) {
	var earliest time.Time
	for _, ev := range t.Instances {
		start := ev.StartTime()
		if start.IsZero() {
			continue
		}
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	return earliest, !earliest.IsZero()
}

// ScheduledEndDate is the latest end over all instances.
func (t *Task) ScheduledEndDate() (time.Time, bool) {
	var latest time.Time
	for _, ev := range t.Instances {
		if end := ev.EndTime(); end.After(latest) {
			latest = end
		}
	}
	return latest, !latest.IsZero()
}

// DefaultTaskQuery excludes archived tasks and asks for inline instances.
func DefaultTaskQuery() url.Values {
	return url.Values{
		"status":    {"NEW,SCHEDULED,IN_PROGRESS,COMPLETE"},
		"instances": {"true"},
	}
}

// Tasks is the task store plus the planner workflow actions.
type Tasks struct {
	*Store[Task, *Task]
}

// NewTasks builds a task store with the default filter.
func NewTasks(client *Client, opts ...StoreOption) *Tasks {
	opts = append([]StoreOption{WithDefaultQuery(DefaultTaskQuery())}, opts...)
	return &Tasks{Store: NewStore[Task, *Task](client, opts...)}
}

// GetByID is Get for numeric ids.
func (s *Tasks) GetByID(ctx context.Context, id int64) (*Task, error) {
	return s.Get(ctx, strconv.FormatInt(id, 10))
}

func (s *Tasks) MarkComplete(ctx context.Context, t *Task) error {
	return s.planner(ctx, t, "done", nil)
}

func (s *Tasks) MarkIncomplete(ctx context.Context, t *Task) error {
	return s.planner(ctx, t, "unarchive", nil)
}

// Start starts the timer.
func (s *Tasks) Start(ctx context.Context, t *Task) error {
	return s.planner(ctx, t, "start", nil)
}

// Stop stops the timer.
func (s *Tasks) Stop(ctx context.Context, t *Task) error {
	return s.planner(ctx, t, "stop", nil)
}

func (s *Tasks) ClearExceptions(ctx context.Context, t *Task) error {
	return s.planner(ctx, t, "clear-exceptions", nil)
}

// AddTime adds hours to the task, rounded to whole 15 minute chunks.
// Negative hours remove time.
func (s *Tasks) AddTime(ctx context.Context, t *Task, hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return &ValidationError{Resource: "Task", Field: "minutes", Reason: "hours must be a finite number"}
	}
	minutes := utils.RoundMinutesToChunk(hours * 60)
	return s.planner(ctx, t, "add-time", url.Values{"minutes": {strconv.Itoa(minutes)}})
}

// LogWork records minutes of work. A zero end leaves the end to the server.
func (s *Tasks) LogWork(ctx context.Context, t *Task, minutes int, end time.Time) error {
	q := url.Values{"minutes": {strconv.Itoa(minutes)}}
	if !end.IsZero() {
		q.Set("end", utils.FormatTime(end))
	}
	return s.planner(ctx, t, "log-work", q)
}

// Prioritize moves the task to the top of the list. The response carries no
// task, so t is refreshed afterwards.
func (s *Tasks) Prioritize(ctx context.Context, t *Task) error {
	if t.ID == 0 {
		return fmt.Errorf("prioritize task: %w", ErrMissingID)
	}
	if _, err := s.client.Post(ctx, plannerPath("prioritize", t.ID), nil, nil); err != nil {
		return err
	}
	return s.Refresh(ctx, t)
}

// PrioritizeByDue reorders all tasks by due date.
func (s *Tasks) PrioritizeByDue(ctx context.Context) error {
	_, err := s.client.Request(ctx, http.MethodPatch, tasksEndpoint+"/reindex-by-due", nil, nil)
	return err
}

func plannerPath(action string, id int64) string {
	return fmt.Sprintf("%s/%s/task/%d", plannerEndpoint, action, id)
}

// planner posts a workflow action and replaces t with the returned taskOrHabit.
func (s *Tasks) planner(ctx context.Context, t *Task, action string, q url.Values) error {
	if t.ID == 0 {
		return fmt.Errorf("%s task: %w", action, ErrMissingID)
	}

	path := plannerPath(action, t.ID)
	data, err := s.client.Post(ctx, path, q, nil)
	if err != nil {
		return err
	}

	var resp struct {
		TaskOrHabit json.RawMessage `json:"taskOrHabit"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	if isNull(resp.TaskOrHabit) {
		return &APIError{Method: http.MethodPost, Path: path, StatusCode: http.StatusOK, Message: "response has no taskOrHabit", kind: ErrAPI}
	}
	return populate[Task, *Task](t, resp.TaskOrHabit)
}
