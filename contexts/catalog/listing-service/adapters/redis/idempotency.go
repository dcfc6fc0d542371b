package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"keystone/contexts/catalog/listing-service/ports"
)

const idempotencyKeyPrefix = "listing:moderation:idem:"

// IdempotencyStore keeps moderation decision payloads in redis so
// replays survive process restarts. The redis TTL enforces expiry; the
// now parameter exists for the port and is unused here.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string, _ time.Time) (ports.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	var record ports.IdempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	return record, true, nil
}

func (s *IdempotencyStore) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, idempotencyKeyPrefix+record.Key, raw, ttl).Err()
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)
