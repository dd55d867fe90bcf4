package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/checkin-console/internal/checkout"
	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/pkg/logger"
)

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrLocked          = errors.New("session is busy")
)

// SessionStore keeps import sessions and checkout rosters between requests.
// Update writes only when the key still exists, so a result arriving after
// the operator closed the session is dropped.
type SessionStore interface {
	CreateImport(ctx context.Context, s *csvimport.Session) error
	UpdateImport(ctx context.Context, s *csvimport.Session) error
	GetImport(ctx context.Context, id string) (*csvimport.Session, error)
	DeleteImport(ctx context.Context, id string) error

	CreateRoster(ctx context.Context, owner string, s *checkout.Selection) error
	UpdateRoster(ctx context.Context, owner string, s *checkout.Selection) error
	GetRoster(ctx context.Context, owner string, recordID int64) (*checkout.Selection, error)
	DeleteRoster(ctx context.Context, owner string, recordID int64) error

	// Lock serializes read-modify-write cycles on one session.
	Lock(ctx context.Context, name string, ttl time.Duration) (unlock func(), err error)
}

type redisSessionStore struct {
	rdb       *redis.Client
	importTTL time.Duration
	rosterTTL time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, importTTL, rosterTTL time.Duration) SessionStore {
	return &redisSessionStore{rdb: rdb, importTTL: importTTL, rosterTTL: rosterTTL}
}

func importKey(id string) string {
	return "console:import:" + id
}

func rosterKey(owner string, recordID int64) string {
	return fmt.Sprintf("console:roster:%s:%d", owner, recordID)
}

func (r *redisSessionStore) create(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := r.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) update(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = r.rdb.SetArgs(ctx, key, payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) get(ctx context.Context, key string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	payload, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) del(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *redisSessionStore) CreateImport(ctx context.Context, s *csvimport.Session) error {
	return r.create(ctx, importKey(s.ID), s, r.importTTL)
}

func (r *redisSessionStore) UpdateImport(ctx context.Context, s *csvimport.Session) error {
	return r.update(ctx, importKey(s.ID), s)
}

func (r *redisSessionStore) GetImport(ctx context.Context, id string) (*csvimport.Session, error) {
	var s csvimport.Session
	if err := r.get(ctx, importKey(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *redisSessionStore) DeleteImport(ctx context.Context, id string) error {
	return r.del(ctx, importKey(id))
}

func (r *redisSessionStore) CreateRoster(ctx context.Context, owner string, s *checkout.Selection) error {
	return r.create(ctx, rosterKey(owner, s.RecordID), s, r.rosterTTL)
}

func (r *redisSessionStore) UpdateRoster(ctx context.Context, owner string, s *checkout.Selection) error {
	return r.update(ctx, rosterKey(owner, s.RecordID), s)
}

func (r *redisSessionStore) GetRoster(ctx context.Context, owner string, recordID int64) (*checkout.Selection, error) {
	var s checkout.Selection
	if err := r.get(ctx, rosterKey(owner, recordID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *redisSessionStore) DeleteRoster(ctx context.Context, owner string, recordID int64) error {
	return r.del(ctx, rosterKey(owner, recordID))
}

// releaseLock deletes the lock only while it still holds our token, so an
// expired lock that another request has since taken is left alone.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *redisSessionStore) Lock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := "console:lock:" + name
	token := uuid.NewString()

	lockCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ok, err := r.rdb.SetNX(lockCtx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		if err := releaseLock.Run(ctx, r.rdb, []string{key}, token).Err(); err != nil {
			logger.WarnContext(ctx, "Failed to release session lock", "lock", name, "error", err)
		}
	}, nil
}
