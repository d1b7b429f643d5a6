package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/andrebq/taskbox/internal/testutil"
	"github.com/andrebq/taskbox/store"
	"github.com/stretchr/testify/require"
)

func TestCreateAndLookupUser(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "users")
	defer cleanup()

	u := &store.User{Name: "Bob", Email: "  Bob@Sample.com ", PasswordHash: "aa:bb"}
	require.NoError(t, st.CreateUser(ctx, u))
	require.NotZero(t, u.ID)
	require.Equal(t, "bob@sample.com", u.Email)

	found, err := st.UserByEmail(ctx, "BOB@sample.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)
	require.Equal(t, "aa:bb", found.PasswordHash)

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Bob", byID.Name)

	_, err = st.UserByEmail(ctx, "nobody@sample.com")
	require.ErrorAs(t, err, &store.UserNotFound{})
}

func TestDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "dup")
	defer cleanup()

	require.NoError(t, st.CreateUser(ctx, &store.User{Name: "Bob", Email: "bob@sample.com", PasswordHash: "x"}))
	err := st.CreateUser(ctx, &store.User{Name: "Bobby", Email: "BOB@sample.com", PasswordHash: "y"})
	var dup store.DuplicateEmail
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "bob@sample.com", dup.Email)
}

func TestConcurrentRegistrationHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "race")
	defer cleanup()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.CreateUser(ctx, &store.User{Name: "Racer", Email: "race@sample.com", PasswordHash: "h"})
		}()
	}
	wg.Wait()
	close(errs)
	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.As(err, &store.DuplicateEmail{}):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, attempts-1, dup)
}

func TestListUsersWithStats(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "stats")
	defer cleanup()

	ana := &store.User{Name: "Ana", Email: "ana@sample.com", PasswordHash: "h"}
	require.NoError(t, st.CreateUser(ctx, ana))
	bob := &store.User{Name: "Bob", Email: "bob@sample.com", PasswordHash: "h"}
	require.NoError(t, st.CreateUser(ctx, bob))
	for i := 0; i < 7; i++ {
		require.NoError(t, st.CreateTask(ctx, &store.Task{Title: "open task", UserID: ana.ID}))
	}
	require.NoError(t, st.CreateTask(ctx, &store.Task{Title: "done task", IsCompleted: true, UserID: ana.ID}))

	users, err := st.ListUsersWithStats(ctx, store.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, users, 2)
	byName := map[string]store.UserWithStats{}
	for _, u := range users {
		byName[u.Name] = u
	}
	require.Equal(t, int64(8), byName["Ana"].Count.Tasks)
	require.Len(t, byName["Ana"].OpenTasks, 5)
	require.Equal(t, int64(0), byName["Bob"].Count.Tasks)
	require.Empty(t, byName["Bob"].OpenTasks)

	total, err := st.CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	second, err := st.ListUsersWithStats(ctx, store.Page{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, second, 1)
}
