package authprogram

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	// TokenStore remembers token ids that were logged off before they
	// expired.
	TokenStore interface {
		Revoke(ctx context.Context, tokenID string, until time.Time) error
		Revoked(ctx context.Context, tokenID string) (bool, error)
	}

	memStore struct {
		cache *bigcache.BigCache
		now   func() time.Time
	}
)

// InMemoryTokenStore keeps revoked ids for at most lifetime, which should
// match the session ttl: after that the token is expired anyway.
func InMemoryTokenStore(ctx context.Context, lifetime time.Duration) (TokenStore, error) {
	cfg := bigcache.DefaultConfig(lifetime)
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &memStore{
		cache: cache,
		now:   time.Now,
	}, nil
}

func (m *memStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if !until.After(m.now()) {
		return nil
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(until.Unix()))
	return m.cache.Set(tokenID, buf[:])
}

func (m *memStore) Revoked(ctx context.Context, tokenID string) (bool, error) {
	buf, err := m.cache.Get(tokenID)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if len(buf) != 8 {
		return false, nil
	}
	until := time.Unix(int64(binary.BigEndian.Uint64(buf)), 0)
	return m.now().Before(until), nil
}
