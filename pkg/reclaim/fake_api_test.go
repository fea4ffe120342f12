package reclaim

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// fakeReclaim is an in-memory stand-in for the Reclaim API. It records every
// request so tests can assert how many round trips an operation took.
type fakeReclaim struct {
	t *testing.T

	mu       sync.Mutex
	nextID   int64
	tasks    map[int64]map[string]any
	order    []int64
	schemes  []map[string]any
	requests []recordedRequest
	failNext int // status for the next request, 0 = none
}

func newFakeReclaim(t *testing.T) (*fakeReclaim, *Client) {
	t.Helper()

	f := &fakeReclaim{t: t, nextID: 100, tasks: map[int64]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", f.listTasks)
	mux.HandleFunc("POST /api/tasks", f.createTask)
	mux.HandleFunc("PATCH /api/tasks/reindex-by-due", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/tasks/{id}", f.getTask)
	mux.HandleFunc("PUT /api/tasks/{id}", f.updateTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", f.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", f.deleteTask)
	mux.HandleFunc("POST /api/planner/{action}/task/{id}", f.plannerAction)
	for _, action := range []string{"move", "pin", "unpin"} {
		mux.HandleFunc("POST /api/planner/event/"+action+"/{eventId}", func(w http.ResponseWriter, r *http.Request) {
			f.eventAction(w, r, action)
		})
	}
	mux.HandleFunc("GET /api/timeschemes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.schemes)
	})
	mux.HandleFunc("GET /api/timeschemes/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, scheme := range f.schemes {
			if scheme["id"] == r.PathValue("id") {
				writeJSON(w, http.StatusOK, scheme)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Time scheme not found"})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		status := f.failNext
		f.failNext = 0
		f.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]any{"message": "forced failure"})
			return
		}

		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(WithToken("test-token"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return f, client
}

// count returns how many requests matched method and path ("" matches any).
func (f *fakeReclaim) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if (method == "" || r.Method == method) && (path == "" || r.Path == path) {
			n++
		}
	}
	return n
}

func (f *fakeReclaim) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatalf("no request recorded")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeReclaim) failWith(status int) {
	f.mu.Lock()
	f.failNext = status
	f.mu.Unlock()
}

// seed stores a task as the server would return it and returns its id.
func (f *fakeReclaim) seed(task map[string]any) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	stored := map[string]any{"status": "NEW", "created": "2024-01-01T08:00:00Z", "updated": "2024-01-01T08:00:00Z"}
	for k, v := range task {
		stored[k] = v
	}
	stored["id"] = id
	f.tasks[id] = stored
	f.order = append(f.order, id)
	return id
}

func (f *fakeReclaim) task(id int64) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id]
}

func (f *fakeReclaim) listTasks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	allowed := map[string]bool{}
	if s := r.URL.Query().Get("status"); s != "" {
		for _, st := range strings.Split(s, ",") {
			allowed[st] = true
		}
	}

	out := []map[string]any{}
	for _, id := range f.order {
		task := f.tasks[id]
		if len(allowed) > 0 && !allowed[task["status"].(string)] {
			continue
		}
		out = append(out, task)
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeReclaim) createTask(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	if title, _ := body["title"].(string); title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "title is required"})
		return
	}
	id := f.seed(body)
	writeJSON(w, http.StatusOK, f.task(id))
}

func (f *fakeReclaim) lookup(w http.ResponseWriter, r *http.Request) (int64, map[string]any, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad id"})
		return 0, nil, false
	}
	task, ok := f.tasks[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Task not found"})
		return 0, nil, false
	}
	return id, task, true
}

func (f *fakeReclaim) getTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, task, ok := f.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, task)
	}
}

func (f *fakeReclaim) updateTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, task, ok := f.lookup(w, r)
	if !ok {
		return
	}

	body := decodeBody(r)
	if r.Method == http.MethodPut {
		task = map[string]any{"created": task["created"], "status": task["status"]}
	}
	for k, v := range body {
		if v == nil {
			delete(task, k)
			continue
		}
		task[k] = v
	}
	task["id"] = id
	task["updated"] = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
	f.tasks[id] = task
	writeJSON(w, http.StatusOK, task)
}

func (f *fakeReclaim) deleteTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _, ok := f.lookup(w, r)
	if !ok {
		return
	}
	delete(f.tasks, id)
	for i, v := range f.order {
		if v == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeReclaim) plannerAction(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, task, ok := f.lookup(w, r)
	if !ok {
		return
	}

	switch r.PathValue("action") {
	case "done":
		task["status"] = "ARCHIVED"
	case "unarchive":
		task["status"] = "NEW"
	case "start":
		task["status"] = "IN_PROGRESS"
	case "stop":
		task["status"] = "SCHEDULED"
	case "add-time":
		minutes, _ := strconv.Atoi(r.URL.Query().Get("minutes"))
		task["timeChunksRequired"] = number(task["timeChunksRequired"]) + float64(minutes/15)
	case "log-work", "clear-exceptions":
	case "prioritize":
		task["index"] = 0.5
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "unknown action"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"taskOrHabit": task, "events": []any{}})
}

func (f *fakeReclaim) eventAction(w http.ResponseWriter, r *http.Request, action string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	eventID := r.PathValue("eventId")
	for _, task := range f.tasks {
		instances, _ := task["instances"].([]any)
		for _, raw := range instances {
			ev := raw.(map[string]any)
			if ev["eventId"] != eventID {
				continue
			}
			switch action {
			case "move":
				ev["start"] = r.URL.Query().Get("start")
				ev["end"] = r.URL.Query().Get("end")
			case "pin":
				ev["pinned"] = true
			case "unpin":
				ev["pinned"] = false
			}
			writeJSON(w, http.StatusOK, map[string]any{"events": []any{ev}, "taskOrHabit": task})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Event not found"})
}

// number reads seeded ints and decoded float64s alike.
func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func decodeBody(r *http.Request) map[string]any {
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
