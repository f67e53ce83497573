package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/kotconnect/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "kotconnect-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Get on missing key reports absent", func(t *testing.T) {
		value, ok, err := store.Get(ctx, "authToken")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Errorf("Expected key to be absent, got %q", value)
		}
	})

	t.Run("Set then Get returns value", func(t *testing.T) {
		if err := store.Set(ctx, "authToken", "abc"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		value, ok, err := store.Get(ctx, "authToken")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !ok || value != "abc" {
			t.Errorf("Get = (%q, %v), want (abc, true)", value, ok)
		}
	})

	t.Run("Set overwrites previous value", func(t *testing.T) {
		if err := store.Set(ctx, "authUsername", "nathan"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Set(ctx, "authUsername", "nathalie"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		value, _, err := store.Get(ctx, "authUsername")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if value != "nathalie" {
			t.Errorf("Get = %q, want nathalie", value)
		}
	})

	t.Run("Delete removes key and tolerates absent keys", func(t *testing.T) {
		if err := store.Delete(ctx, "authUsername"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "authUsername"); err != nil {
			t.Fatalf("second Delete failed: %v", err)
		}

		_, ok, err := store.Get(ctx, "authUsername")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("Expected key to be deleted")
		}
	})

	t.Run("Keys lists stored keys in order", func(t *testing.T) {
		if err := store.Set(ctx, "authEmail", "n@example.com"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		keys, err := store.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 2 || keys[0] != "authEmail" || keys[1] != "authToken" {
			t.Errorf("Keys = %v, want [authEmail authToken]", keys)
		}
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Set(ctx, "authToken", "persisted"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "authToken")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || value != "persisted" {
		t.Errorf("Get = (%q, %v), want (persisted, true)", value, ok)
	}
}

func TestSQLiteStore_Closed(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Closing twice is harmless.
	if err := store.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if err := store.Set(context.Background(), "k", "v"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}
