package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediacraft/internal/notifications"
	"mediacraft/internal/tasks"
	"mediacraft/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(testsupport.NewConfig(t))
	if err := svc.NotifyTaskCompleted(context.Background(), &tasks.Task{TaskID: "t1"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	completed := &tasks.Task{
		TaskID:           "t1",
		TaskType:         tasks.TypeVideoMerge,
		Status:           tasks.StatusCompleted,
		OriginalFilename: "family.mp4",
	}
	failed := &tasks.Task{
		TaskID:       "t2",
		TaskType:     tasks.TypeWatermarkRemoval,
		Status:       tasks.StatusFailed,
		ErrorMessage: "codec error",
	}

	tests := []struct {
		name           string
		publish        func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "task completed",
			publish: func(svc notifications.Service) error {
				return svc.NotifyTaskCompleted(context.Background(), completed)
			},
			expectTitle:    "MediaCraft - Complete",
			expectMessage:  "Merge complete: family.mp4",
			expectTags:     "mediacraft,task,completed",
			expectPriority: "high",
		},
		{
			name: "task failed",
			publish: func(svc notifications.Service) error {
				return svc.NotifyTaskFailed(context.Background(), failed)
			},
			expectTitle:    "MediaCraft - Failed",
			expectMessage:  "Task failed: t2\nReason: codec error",
			expectTags:     "mediacraft,task,failed",
			expectPriority: "high",
		},
		{
			name: "upload failed",
			publish: func(svc notifications.Service) error {
				return svc.NotifyUploadFailed(context.Background(), "t1", "b.mp4", errors.New("connection reset"))
			},
			expectTitle:    "MediaCraft - Upload Failed",
			expectMessage:  "Upload failed: b.mp4 (task t1)\nconnection reset",
			expectTags:     "mediacraft,upload,failed",
			expectPriority: "high",
		},
		{
			name: "test notification",
			publish: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "MediaCraft - Test",
			expectMessage:  "Notification system test",
			expectTags:     "mediacraft,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
			cfg.Notifications.RequestTimeoutSeconds = 5

			svc := notifications.NewService(cfg)
			if err := tc.publish(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))

	svc := notifications.NewService(cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from failing ntfy endpoint")
	}
}
