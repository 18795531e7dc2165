// Copyright (c) 2026 Kanakku. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anandvel/kanakku/internal/platform/constants"
)

// scanBatchSize is how many keys one SCAN iteration asks Redis for.
const scanBatchSize = 100

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds the Redis-backed session store. Keys follow the
// "session:<token>" taxonomy; expiry is enforced by Redis TTLs alone.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(token string) string {
	return constants.RedisPrefixSession + token
}

func (store *redisSessionStore) Set(ctx context.Context, token, username string, ttl time.Duration) error {
	if err := store.client.SetEx(ctx, sessionKey(token), username, ttl).Err(); err != nil {
		return fmt.Errorf("session_set_failed: %w", err)
	}
	return nil
}

func (store *redisSessionStore) Get(ctx context.Context, token string) (string, error) {
	username, err := store.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Unknown or expired token: a miss, not a failure.
			return "", nil
		}
		return "", fmt.Errorf("session_get_failed: %w", err)
	}
	return username, nil
}

func (store *redisSessionStore) Delete(ctx context.Context, token string) error {
	if err := store.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("session_delete_failed: %w", err)
	}
	return nil
}

func (store *redisSessionStore) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	extended, err := store.client.Expire(ctx, sessionKey(token), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("session_extend_failed: %w", err)
	}
	return extended, nil
}

// DeleteByUsername walks the session keyspace with SCAN and removes every
// binding whose value matches the username. Sessions are keyed by token, so
// a full scan is the only way to find them; the keyspace is small (one key
// per live session) and SCAN never blocks the server.
func (store *redisSessionStore) DeleteByUsername(ctx context.Context, username string) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		keys, nextCursor, err := store.client.Scan(ctx, cursor, constants.RedisPrefixSession+"*", scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("session_scan_failed: %w", err)
		}

		for _, key := range keys {
			boundUsername, err := store.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					// Expired between SCAN and GET.
					continue
				}
				return deleted, fmt.Errorf("session_scan_get_failed: %w", err)
			}

			if boundUsername != username {
				continue
			}

			if err := store.client.Del(ctx, key).Err(); err != nil {
				return deleted, fmt.Errorf("session_scan_delete_failed: %w", err)
			}
			deleted++
		}

		cursor = nextCursor
		if cursor == 0 {
			return deleted, nil
		}
	}
}
