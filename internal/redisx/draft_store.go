package redisx

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/redis/go-redis/v9"
)

// DraftStore keeps the checkout draft under a single key. Every save
// overwrites the previous value; the key has no expiry.
type DraftStore struct {
	Redis *redis.Client
	Key   string
}

func NewDraftStore(rdb *redis.Client, key string) *DraftStore {
	if key == "" {
		key = DefaultDraftKey
	}
	return &DraftStore{Redis: rdb, Key: key}
}

func (s *DraftStore) SaveDraft(ctx context.Context, data []byte) error {
	return s.Redis.Set(ctx, s.Key, data, 0).Err()
}

func (s *DraftStore) LoadDraft(ctx context.Context) ([]byte, error) {
	b, err := s.Redis.Get(ctx, s.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, checkout.ErrNoDraft
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ClearDraft drops the stored draft.
func (s *DraftStore) ClearDraft(ctx context.Context) error {
	return s.Redis.Del(ctx, s.Key).Err()
}
