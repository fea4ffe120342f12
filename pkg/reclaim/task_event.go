package reclaim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/llabusch93/reclaim-sdk/pkg/utils"
)

const eventEndpoint = "/api/planner/event"

// TaskEvent is one scheduled occurrence of a task. The planner creates and
// removes events; the client can only move or pin them.
type TaskEvent struct {
	EventID string `json:"eventId"`
	Start   *Time  `json:"start,omitempty"`
	End     *Time  `json:"end,omitempty"`
	Pinned  bool   `json:"pinned,omitempty"`

	task *Task
}

// StartTime returns the start instant in UTC.
func (e *TaskEvent) StartTime() time.Time { return e.Start.value() }

// EndTime returns the end instant in UTC.
func (e *TaskEvent) EndTime() time.Time { return e.End.value() }

// Duration is End - Start.
func (e *TaskEvent) Duration() time.Duration { return e.EndTime().Sub(e.StartTime()) }

// Task returns the task the event was read from, nil if unknown.
func (e *TaskEvent) Task() *Task { return e.task }

func (e *TaskEvent) String() string {
	if e == nil {
		return "Task Event"
	}
	title := ""
	if e.task != nil {
		title = e.task.Title
	}
	return fmt.Sprintf("Task Event (%s - %s)", e.EventID, title)
}

// Events moves and pins task events.
type Events struct {
	client *Client
}

func NewEvents(client *Client) *Events {
	return &Events{client: client}
}

// Create always fails: events are created by the planner.
func (s *Events) Create(_ context.Context, e *TaskEvent) error {
	return fmt.Errorf("%w: create %s: task events are created by the planner", ErrUnsupportedOperation, e)
}

// Delete always fails: events are removed by the planner.
func (s *Events) Delete(_ context.Context, e *TaskEvent) error {
	return fmt.Errorf("%w: delete %s: task events are removed by the planner", ErrUnsupportedOperation, e)
}

// Save pushes the event's current start and end.
func (s *Events) Save(ctx context.Context, e *TaskEvent) error {
	return s.Move(ctx, e, e.StartTime(), e.EndTime())
}

// Move reschedules the event to [start, end].
func (s *Events) Move(ctx context.Context, e *TaskEvent, start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &ValidationError{Resource: "Task Event", Field: "start/end", Reason: "both instants are required"}
	}
	if end.Before(start) {
		return &ValidationError{Resource: "Task Event", Field: "end", Reason: "end is before start"}
	}

	q := url.Values{
		"start": {utils.FormatTime(start)},
		"end":   {utils.FormatTime(end)},
	}
	return s.post(ctx, e, "move", q)
}

// Pin fixes the event so the planner no longer moves it.
func (s *Events) Pin(ctx context.Context, e *TaskEvent) error {
	return s.post(ctx, e, "pin", nil)
}

// Unpin releases a pinned event.
func (s *Events) Unpin(ctx context.Context, e *TaskEvent) error {
	return s.post(ctx, e, "unpin", nil)
}

// post sends an event action and replaces e with events[0] of the response.
func (s *Events) post(ctx context.Context, e *TaskEvent, action string, q url.Values) error {
	if e.EventID == "" {
		return fmt.Errorf("%s task event: %w", action, ErrMissingID)
	}

	path := fmt.Sprintf("%s/%s/%s", eventEndpoint, action, url.PathEscape(e.EventID))
	data, err := s.client.Post(ctx, path, q, nil)
	if err != nil {
		return err
	}

	var resp struct {
		Events []TaskEvent `json:"events"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	if len(resp.Events) == 0 {
		return &APIError{Method: http.MethodPost, Path: path, StatusCode: http.StatusOK, Message: "response has no events", kind: ErrAPI}
	}

	task := e.task
	*e = resp.Events[0]
	e.task = task
	return nil
}
