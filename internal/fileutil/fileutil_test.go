package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.mp4")

	if err := WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("video"))
		return err
	}); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "video" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestWriteAtomicRemovesPartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.mp4")

	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("half"))
		return errors.New("stream interrupted")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("final file should not exist after failure")
	}
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("partial file left behind: %v", entries)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.mp4")

	got, err := UniquePath(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != path {
		t.Fatalf("free path should be returned unchanged, got %q", got)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = UniquePath(path)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "result (1).mp4" {
		t.Fatalf("unexpected variant: %q", got)
	}

	if err := os.WriteFile(got, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = UniquePath(path)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "result (2).mp4" {
		t.Fatalf("unexpected variant: %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"result.mp4", "result.mp4"},
		{"../../etc/passwd", "passwd"},
		{"  spaced.mp4  ", "spaced.mp4"},
		{"a:b.mp4", "a_b.mp4"},
		{"", "download"},
		{"..", "download"},
		{"bad\x00name.mp4", "badname.mp4"},
	}
	for _, tc := range tests {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if strings.ContainsAny(SanitizeFilename("x/y\\z.mp4"), "/\\") {
		t.Fatal("separators must not survive")
	}
}
