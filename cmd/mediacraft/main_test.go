package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediacraft/internal/tasks"
)

type cliTestEnv struct {
	backend    *fakeBackend
	server     *httptest.Server
	configPath string
	baseDir    string
}

// fakeBackend is a minimal in-memory MediaCraft service.
type fakeBackend struct {
	uploads     []string
	started     bool
	cancelled   []string
	statusAfter tasks.Status
	listTasks   []map[string]any
}

func (b *fakeBackend) handler() http.Handler {
	envelope := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/session/init":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/api/tasks/create":
			envelope(w, map[string]any{"task_id": "t1", "status": "created"})
		case r.URL.Path == "/api/tasks/t1/upload":
			_ = r.ParseMultipartForm(1 << 20)
			_, header, err := r.FormFile("file")
			if err == nil {
				b.uploads = append(b.uploads, header.Filename)
			}
			envelope(w, map[string]any{"task_id": "t1", "status": "uploaded", "original_filename": header.Filename})
		case strings.HasPrefix(r.URL.Path, "/api/tasks/t1/segments/"):
			envelope(w, nil)
		case r.URL.Path == "/api/tasks/t1/config":
			b.started = true
			envelope(w, nil)
		case r.URL.Path == "/api/tasks/t1/status":
			if !b.started {
				envelope(w, map[string]any{
					"task_id": "t1", "task_type": "video_merge", "status": "uploaded",
					"config": map[string]any{"files": []map[string]any{
						{"filename": "a.mp4", "size": 6, "duration": 12.4},
						{"filename": "b.mp4", "size": 6, "duration": 8.0},
					}},
				})
				return
			}
			envelope(w, map[string]any{"task_id": "t1", "task_type": "video_merge", "status": string(b.statusAfter)})
		case r.URL.Path == "/api/tasks/t1/download":
			w.Header().Set("Content-Disposition", `attachment; filename="merged.mp4"`)
			_, _ = w.Write([]byte("merged-bytes"))
		case r.URL.Path == "/api/tasks/list":
			envelope(w, map[string]any{
				"tasks":      b.listTasks,
				"pagination": map[string]any{"page": 1, "limit": 20, "total": len(b.listTasks), "pages": 1},
			})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/tasks/"):
			b.cancelled = append(b.cancelled, strings.TrimPrefix(r.URL.Path, "/api/tasks/"))
			envelope(w, nil)
		default:
			http.NotFound(w, r)
		}
	})
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	backend := &fakeBackend{statusAfter: tasks.StatusCompleted}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[server]
base_url = %q

[paths]
state_dir = %q
log_dir = %q
download_dir = %q

[polling]
interval_seconds = 1
`,
		server.URL,
		filepath.Join(base, "state"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "downloads"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		backend:    backend,
		server:     server,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIMergeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	a := writeTestVideo(t, env.baseDir, "a.mp4")
	b := writeTestVideo(t, env.baseDir, "b.mp4")

	out, _, err := runCLI(t, env, "merge", a, b, "--segment", "0:3-5", "--download")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(out, "Created merge task t1") {
		t.Fatalf("missing create line: %q", out)
	}
	if !strings.Contains(out, "completed") {
		t.Fatalf("missing completion line: %q", out)
	}
	if len(env.backend.uploads) != 2 || env.backend.uploads[0] != "a.mp4" {
		t.Fatalf("unexpected uploads: %v", env.backend.uploads)
	}
	if !env.backend.started {
		t.Fatal("processing never started")
	}

	savedPath := filepath.Join(env.baseDir, "downloads", "merged.mp4")
	data, err := os.ReadFile(savedPath)
	if err != nil {
		t.Fatalf("result not downloaded: %v", err)
	}
	if string(data) != "merged-bytes" {
		t.Fatalf("unexpected result content: %q", data)
	}
	if !strings.Contains(out, savedPath) {
		t.Fatalf("saved path not reported: %q", out)
	}
}

func TestCLIMergeFailureSurfacesError(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.statusAfter = tasks.StatusFailed

	a := writeTestVideo(t, env.baseDir, "a.mp4")
	b := writeTestVideo(t, env.baseDir, "b.mp4")

	_, _, err := runCLI(t, env, "merge", a, b)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIMergeRejectsSingleFile(t *testing.T) {
	env := setupCLITestEnv(t)
	a := writeTestVideo(t, env.baseDir, "a.mp4")

	_, _, err := runCLI(t, env, "merge", a)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(env.backend.uploads) != 0 {
		t.Fatalf("nothing should upload: %v", env.backend.uploads)
	}
}

func TestCLITasksListAndCache(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.listTasks = []map[string]any{
		{"task_id": "t9", "task_type": "video_merge", "status": "completed", "original_filename": "a.mp4", "file_size": 4096},
	}

	out, _, err := runCLI(t, env, "tasks", "list")
	if err != nil {
		t.Fatalf("tasks list: %v", err)
	}
	if !strings.Contains(out, "t9") || !strings.Contains(out, "a.mp4") {
		t.Fatalf("unexpected list output: %q", out)
	}

	// The listing was mirrored locally; --cached works offline.
	env.server.Close()
	out, _, err = runCLI(t, env, "tasks", "list", "--cached")
	if err != nil {
		t.Fatalf("tasks list --cached: %v", err)
	}
	if !strings.Contains(out, "t9") {
		t.Fatalf("cached list missing task: %q", out)
	}
}

func TestCLITasksListRejectsUnknownFilters(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "tasks", "list", "--status", "exploded")
	if err == nil || !strings.Contains(err.Error(), `unknown status "exploded"`) {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err = runCLI(t, env, "tasks", "list", "--type", "gif")
	if err == nil || !strings.Contains(err.Error(), `unknown task type "gif"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatusPrinterPrintsOnChangeOnly(t *testing.T) {
	var buf bytes.Buffer
	printer := newStatusPrinter(&buf)

	printer(&tasks.Task{Status: tasks.StatusQueued})
	printer(&tasks.Task{Status: tasks.StatusProcessing, ProgressPercentage: 40})
	printer(&tasks.Task{Status: tasks.StatusProcessing, ProgressPercentage: 40})
	printer(&tasks.Task{Status: tasks.StatusProcessing, ProgressPercentage: 80})
	printer(&tasks.Task{Status: tasks.StatusCompleted, ProgressPercentage: 100})

	want := "Status: queued\nStatus: processing (40%)\nStatus: processing (80%)\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestCLITasksCancel(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "tasks", "cancel", "t1")
	if err != nil {
		t.Fatalf("tasks cancel: %v", err)
	}
	if !strings.Contains(out, "Cancelled task t1") {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(env.backend.cancelled) != 1 || env.backend.cancelled[0] != "t1" {
		t.Fatalf("cancel never reached backend: %v", env.backend.cancelled)
	}
}

func TestCLIConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	_, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected error without --overwrite")
	}

	out, _, err = runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output: %q", out)
	}
}
