package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/andrebq/taskbox/store"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStore opens a migrated SQLite store inside a temporary directory,
// the returned func closes it and removes the directory.
func AcquireStore(ctx context.Context, t TestLog, name string) (*store.Store, func()) {
	dir, err := os.MkdirTemp("", "taskbox-tests")
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(ctx, store.SQLite, filepath.Join(dir, name, "taskbox.db"))
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return st, func() {
		err := st.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// AcquirePopulatedStore is AcquireStore plus a loader that runs before the
// store is handed to the test.
func AcquirePopulatedStore(ctx context.Context, t TestLog, name string, loader func(context.Context, *store.Store) error) (*store.Store, func()) {
	st, cleanup := AcquireStore(ctx, t, name)
	if loader != nil {
		if err := loader(ctx, st); err != nil {
			cleanup()
			t.Fatal(err)
		}
	}
	return st, cleanup
}
