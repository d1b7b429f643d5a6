package cmdflags

import (
	"context"

	"github.com/andrebq/taskbox/store"
)

// OpenStore parses driver and opens a migrated store at dsn.
func OpenStore(ctx context.Context, driver, dsn string) (*store.Store, error) {
	d, err := store.ParseDriver(driver)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, d, dsn)
}
