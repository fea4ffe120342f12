package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/llabusch93/reclaim-sdk/internal/config"
	"github.com/llabusch93/reclaim-sdk/pkg/reclaim"
)

func newRunnerWithServer(t *testing.T, format string, handler http.HandlerFunc) (*Runner, *bytes.Buffer) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := reclaim.NewClient(reclaim.WithToken("test-token"), reclaim.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var out bytes.Buffer
	return NewRunner(&config.Config{Format: format}, client, &out), &out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRunner_Tasks_Markdown(t *testing.T) {
	r, out := newRunnerWithServer(t, "markdown", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/tasks" || req.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		writeJSON(w, []map[string]any{
			{"id": 1, "title": "Write", "status": "NEW", "timeChunksRequired": 4},
			{"id": 2, "title": "Review", "status": "SCHEDULED", "timeChunksRequired": 2},
		})
	})

	if err := r.Run(context.Background(), Request{Command: "tasks"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "| 1 | Write | NEW |  | 1h | Kein Datum |") ||
		!strings.Contains(out.String(), "| 2 | Review | SCHEDULED |  | 0.5h | Kein Datum |") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRunner_Search_YAML(t *testing.T) {
	r, out := newRunnerWithServer(t, "yaml", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": 1, "title": "Write"},
			{"id": 2, "title": "Review"},
		})
	})

	if err := r.Run(context.Background(), Request{Command: "search", Title: "Review"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "title: Review") || strings.Contains(out.String(), "title: Write") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRunner_CreateTask(t *testing.T) {
	var body map[string]any
	r, out := newRunnerWithServer(t, "yaml", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/tasks" || req.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		body["id"] = 42
		writeJSON(w, body)
	})

	if err := r.Run(context.Background(), Request{Command: "create", Args: []string{"Bericht", "2,5"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if body["timeChunksRequired"] != float64(10) || body["title"] != "Bericht" {
		t.Fatalf("unexpected create body: %v", body)
	}
	if !strings.Contains(out.String(), "✅ Task erstellt: Bericht (ID: 42)") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRunner_Done(t *testing.T) {
	r, out := newRunnerWithServer(t, "yaml", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/planner/done/task/7" || req.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		writeJSON(w, map[string]any{"taskOrHabit": map[string]any{"id": 7, "title": "Write", "status": "ARCHIVED"}})
	})

	if err := r.Run(context.Background(), Request{Command: "done", Args: []string{"7"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "#7 - Write (ARCHIVED)") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRunner_AddTime(t *testing.T) {
	r, out := newRunnerWithServer(t, "yaml", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("minutes") != "45" {
			t.Fatalf("unexpected minutes: %s", req.URL.RawQuery)
		}
		writeJSON(w, map[string]any{"taskOrHabit": map[string]any{"id": 7, "title": "Write", "timeChunksRequired": 11}})
	})

	if err := r.Run(context.Background(), Request{Command: "add-time", Args: []string{"7", "0.75"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "(jetzt 2.75h)") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRunner_MoveEvent(t *testing.T) {
	r, out := newRunnerWithServer(t, "yaml", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/planner/event/move/ev1" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		writeJSON(w, map[string]any{"events": []map[string]any{{"eventId": "ev1", "start": q.Get("start"), "end": q.Get("end")}}})
	})

	err := r.Run(context.Background(), Request{Command: "move", Args: []string{"ev1", "2024-03-01T10:00:00Z", "2024-03-01T12:00:00+01:00"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Event ev1 verschoben: 01.03.2024 10:00 - 01.03.2024 11:00") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRunner_DeleteAndHours(t *testing.T) {
	r, out := newRunnerWithServer(t, "markdown", func(w http.ResponseWriter, req *http.Request) {
		switch {
		case req.Method == http.MethodDelete && req.URL.Path == "/api/tasks/7":
			w.WriteHeader(http.StatusNoContent)
		case req.Method == http.MethodGet && req.URL.Path == "/api/timeschemes":
			writeJSON(w, []map[string]any{{"id": "ts-1", "title": "Working Hours", "taskCategory": "WORK"}})
		default:
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
	})

	if err := r.Run(context.Background(), Request{Command: "delete", Args: []string{"7"}}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.Run(context.Background(), Request{Command: "hours"}); err != nil {
		t.Fatalf("hours: %v", err)
	}
	if !strings.Contains(out.String(), "🗑️  Task gelöscht: #7") || !strings.Contains(out.String(), "| ts-1 | Working Hours | WORK |  |") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRunner_NotFoundIsWrapped(t *testing.T) {
	r, _ := newRunnerWithServer(t, "yaml", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Task not found"}`))
	})

	err := r.Run(context.Background(), Request{Command: "show", Args: []string{"99"}})
	if !errors.Is(err, reclaim.ErrRecordNotFound) || !strings.Contains(err.Error(), "task 99 konnte nicht geladen werden") {
		t.Fatalf("expected wrapped ErrRecordNotFound, got %v", err)
	}
}

func TestRunner_ArgumentErrors(t *testing.T) {
	r, _ := newRunnerWithServer(t, "yaml", func(w http.ResponseWriter, req *http.Request) {
		t.Fatalf("no request expected, got %s %s", req.Method, req.URL.Path)
	})

	tests := []struct {
		req     Request
		wantErr string
	}{
		{Request{Command: "export"}, `unbekanntes Kommando "export"`},
		{Request{Command: "done", Args: []string{"abc"}}, `ungültige Task-ID "abc"`},
		{Request{Command: "create", Args: []string{"X", "viel"}}, `ungültige Stunden "viel"`},
		{Request{Command: "log-work", Args: []string{"1", "-5"}}, `ungültige Minuten "-5"`},
		{Request{Command: "move", Args: []string{"ev1", "gestern", "heute"}}, "ungültiger Start"},
		{Request{Command: "move", Args: []string{"ev1", "2024-03-01T12:00:00Z", "2024-03-01T10:00:00Z"}}, "end is before start"},
		{Request{Command: "create", Args: []string{"", "1"}}, "validation failed"},
	}
	for _, tt := range tests {
		err := r.Run(context.Background(), tt.req)
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s %v: expected error containing %q, got %v", tt.req.Command, tt.req.Args, tt.wantErr, err)
		}
	}
}
