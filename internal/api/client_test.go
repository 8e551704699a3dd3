package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediacraft/internal/tasks"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:            server.URL,
		RequestTimeout:     5 * time.Second,
		SessionInitTimeout: time.Second,
	}, opts...)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client, server
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func TestCreateTask(t *testing.T) {
	var gotBody map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/init":
			w.WriteHeader(http.StatusOK)
		case "/api/tasks/create":
			if r.Method != http.MethodPost {
				t.Fatalf("unexpected method %s", r.Method)
			}
			if r.Header.Get("X-Request-ID") == "" {
				t.Fatal("expected X-Request-ID header")
			}
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			writeEnvelope(w, map[string]any{"task_id": "t1", "status": "created", "task_type": "video_merge"})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	result, err := client.CreateTask(context.Background(), tasks.TypeVideoMerge, "my merge")
	if err != nil {
		t.Fatalf("CreateTask returned error: %v", err)
	}
	if result.TaskID != "t1" || result.Status != tasks.StatusCreated {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotBody["task_type"] != "video_merge" || gotBody["task_name"] != "my merge" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

func TestCreateTaskSurfacesServerMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session/init" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "Cannot accept task",
			"message": "queue is full",
		})
	}))

	_, err := client.CreateTask(context.Background(), tasks.TypeVideoMerge, "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := ServerMessage(err); msg != "queue is full" {
		t.Fatalf("unexpected server message: %q", msg)
	}
}

func TestTaskStatusDecodesTask(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/init":
			w.WriteHeader(http.StatusOK)
		case "/api/tasks/t1/status":
			writeEnvelope(w, map[string]any{
				"task_id":             "t1",
				"task_type":           "video_merge",
				"status":              "processing",
				"progress_percentage": 40,
				"config": map[string]any{
					"files": []map[string]any{{"filename": "a.mp4", "size": 100, "duration": 12.4}},
				},
			})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	task, err := client.TaskStatus(context.Background(), "t1")
	if err != nil {
		t.Fatalf("TaskStatus returned error: %v", err)
	}
	if task.Status != tasks.StatusProcessing || task.ProgressPercentage != 40 {
		t.Fatalf("unexpected task: %+v", task)
	}
	if len(task.Config.Files) != 1 || task.Config.Files[0].Duration != 12.4 {
		t.Fatalf("unexpected config: %+v", task.Config)
	}
}

func TestUploadFileStreamsMultipartWithProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp4")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/init":
			w.WriteHeader(http.StatusOK)
		case "/api/tasks/t1/upload":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse multipart: %v", err)
			}
			file, header, err := r.FormFile("file")
			if err != nil {
				t.Fatalf("missing file part: %v", err)
			}
			defer file.Close()
			if header.Filename != "a.mp4" {
				t.Fatalf("unexpected filename: %q", header.Filename)
			}
			writeEnvelope(w, map[string]any{"task_id": "t1", "status": "uploaded", "original_filename": "a.mp4", "file_size": 4096})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	var percents []int
	result, err := client.UploadFile(context.Background(), "t1", path, func(p int) {
		percents = append(percents, p)
	})
	if err != nil {
		t.Fatalf("UploadFile returned error: %v", err)
	}
	if result.Status != tasks.StatusUploaded || result.FileSize != 4096 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Fatalf("expected final progress 100, got %v", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress regressed: %v", percents)
		}
	}
}

func TestSubmitTaskAcceptsHistoricalShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v.mp4")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/init":
			w.WriteHeader(http.StatusOK)
		case "/api/tasks/submit":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse multipart: %v", err)
			}
			if got := r.FormValue("task_type"); got != "watermark_removal" {
				t.Fatalf("unexpected task_type: %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"task_id": "t2",
				"status":  "queued",
				"message": "Task accepted",
			})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	result, err := client.SubmitTask(context.Background(), tasks.TypeWatermarkRemoval, path, nil)
	if err != nil {
		t.Fatalf("SubmitTask returned error: %v", err)
	}
	if result.TaskID != "t2" || result.Status != tasks.StatusQueued {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestUpdateSegmentSendsExactPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]float64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session/init" {
			w.WriteHeader(http.StatusOK)
			return
		}
		gotPath = r.Method + " " + r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		writeEnvelope(w, nil)
	}))

	if err := client.UpdateSegment(context.Background(), "t1", 0, 3, 5); err != nil {
		t.Fatalf("UpdateSegment returned error: %v", err)
	}
	if gotPath != "PUT /api/tasks/t1/segments/0" {
		t.Fatalf("unexpected request: %s", gotPath)
	}
	if gotBody["start_time"] != 3 || gotBody["end_time"] != 5 {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
}

func TestUnauthorizedTaskRequestRetriesAfterReinit(t *testing.T) {
	var initCalls, statusCalls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/init":
			initCalls++
			w.WriteHeader(http.StatusOK)
		case "/api/tasks/t1/status":
			statusCalls++
			if statusCalls == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeEnvelope(w, map[string]any{"task_id": "t1", "status": "queued"})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	task, err := client.TaskStatus(context.Background(), "t1")
	if err != nil {
		t.Fatalf("TaskStatus returned error: %v", err)
	}
	if task.Status != tasks.StatusQueued {
		t.Fatalf("unexpected task: %+v", task)
	}
	if statusCalls != 2 {
		t.Fatalf("expected one retry, got %d status calls", statusCalls)
	}
	if initCalls != 2 {
		t.Fatalf("expected re-init before retry, got %d init calls", initCalls)
	}
}

func TestAuthRoutesDoNotRetry(t *testing.T) {
	var profileCalls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/profile" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		profileCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Profile(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if profileCalls != 1 {
		t.Fatalf("auth route must not retry, got %d calls", profileCalls)
	}
}

func TestDownloadWritesBodyAndFilename(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/init":
			w.WriteHeader(http.StatusOK)
		case "/api/tasks/t1/download":
			w.Header().Set("Content-Disposition", `attachment; filename="processed_a.mp4"`)
			_, _ = w.Write([]byte("video-bytes"))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	var buf testBuffer
	filename, err := client.Download(context.Background(), "t1", &buf)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if filename != "processed_a.mp4" {
		t.Fatalf("unexpected filename: %q", filename)
	}
	if buf.String() != "video-bytes" {
		t.Fatalf("unexpected body: %q", buf.String())
	}
}

func TestDownloadRejectsIncompleteTask(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session/init" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Task not completed"})
	}))

	var buf testBuffer
	if _, err := client.Download(context.Background(), "t1", &buf); err == nil {
		t.Fatal("expected error for incomplete task")
	} else if ServerMessage(err) != "Task not completed" {
		t.Fatalf("unexpected message: %q", ServerMessage(err))
	}
}

func TestLoginPersistsSession(t *testing.T) {
	stateDir := t.TempDir()
	store := NewSessionStore(stateDir)

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/login" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "abc123", Path: "/"})
		writeEnvelope(w, map[string]any{"username": "alice"})
	}), WithSessionStore(store))

	profile, err := client.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	cookies, err := store.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cookies) != 1 || cookies[0].Name != "session_id" || cookies[0].Value != "abc123" {
		t.Fatalf("unexpected persisted cookies: %+v", cookies)
	}
}

type testBuffer struct {
	data []byte
}

func (b *testBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *testBuffer) String() string { return string(b.data) }

func TestUserTasksDecodesList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/init":
			w.WriteHeader(http.StatusOK)
		case "/api/user/tasks":
			writeEnvelope(w, map[string]any{"tasks": []map[string]any{
				{"task_id": "t1", "task_type": "video_merge", "status": "completed"},
				{"task_id": "t2", "task_type": "watermark_removal", "status": "processing"},
			}})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	list, err := client.UserTasks(context.Background())
	if err != nil {
		t.Fatalf("UserTasks returned error: %v", err)
	}
	if len(list) != 2 || list[0].TaskID != "t1" || list[1].Status != tasks.StatusProcessing {
		t.Fatalf("unexpected list: %+v", list)
	}
}
