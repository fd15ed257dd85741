package redis

import (
	"context"
	"errors"
	"time"

	"bondrizz-funnel/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps session-scoped funnel state in a Redis hash per session:
//
//	HSET funnel:session:{sessionID} quizAnswers {json} quizResultId {id} userEmail {email}
//
// Every write refreshes the hash TTL, so abandoned sessions age out.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	value, err := s.client.HGet(ctx, s.key(sessionID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrKeyNotFound
	}
	return value, err
}

func (s *SessionStore) Set(ctx context.Context, sessionID, key, value string) error {
	hash := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, hash, s.ttl)
		}
		return nil
	})
	return err
}

func (s *SessionStore) Clear(ctx context.Context, sessionID, key string) error {
	return s.client.HDel(ctx, s.key(sessionID), key).Err()
}

func (s *SessionStore) Drop(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "funnel:session:" + sessionID
}
