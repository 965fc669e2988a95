package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mzhao129/facility-notifier/internal/config"
)

// openBackends builds one in-memory store per driver so every test runs
// against both.
func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLiteMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	badgerKV, err := OpenBadgerMemory()
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { badgerKV.Close() })

	return map[string]Store{"sqlite": sqlite, "badger": badgerKV}
}

func TestStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get on missing key returned %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreSetGet(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := kv.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != `{"a":1}` {
				t.Errorf("Get returned %q, want %q", got, `{"a":1}`)
			}
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set(ctx, "k", []byte("first")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := kv.Set(ctx, "k", []byte("second")); err != nil {
				t.Fatalf("overwriting Set failed: %v", err)
			}
			got, err := kv.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != "second" {
				t.Errorf("Get returned %q after overwrite, want %q", got, "second")
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set(ctx, "k", []byte("v")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := kv.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete returned %v, want ErrNotFound", err)
			}
			// Deleting again is not an error.
			if err := kv.Delete(ctx, "k"); err != nil {
				t.Errorf("Delete on missing key returned %v, want nil", err)
			}
		})
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	sqlite, err := Open(config.StoreConfig{Driver: config.StoreSQLite, Path: filepath.Join(dir, "state.db")})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := sqlite.(*SQLiteStore); !ok {
		t.Errorf("Open returned %T, want *SQLiteStore", sqlite)
	}
	sqlite.Close()

	badgerKV, err := Open(config.StoreConfig{Driver: config.StoreBadger, Path: filepath.Join(dir, "badger")})
	if err != nil {
		t.Fatalf("Open badger: %v", err)
	}
	if _, ok := badgerKV.(*BadgerStore); !ok {
		t.Errorf("Open returned %T, want *BadgerStore", badgerKV)
	}
	badgerKV.Close()

	if _, err := Open(config.StoreConfig{Driver: "postgres", Path: "x"}); err == nil {
		t.Error("Open accepted an unknown driver")
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := first.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get after reopen returned %q, want %q", got, "v")
	}
}
