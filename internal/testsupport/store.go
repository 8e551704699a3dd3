package testsupport

import (
	"testing"

	"mediacraft/internal/config"
	"mediacraft/internal/taskcache"
)

// MustOpenCache opens a taskcache.Store for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *taskcache.Store {
	t.Helper()

	store, err := taskcache.Open(cfg)
	if err != nil {
		t.Fatalf("taskcache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
