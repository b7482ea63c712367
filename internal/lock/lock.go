// Package lock serializes seating runs per event.  Only one optimization
// may be in flight for a given event because a run deletes and rewrites the
// event's whole seating.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by TryLock when another holder owns the event.
var ErrLocked = errors.New("event is locked")

// EventLocker grants exclusive access to one event at a time.  TryLock
// never waits: it either acquires the lock or returns ErrLocked.  The
// returned function releases the lock and is safe to call once.
type EventLocker interface {
	TryLock(ctx context.Context, eventID uint64) (release func(), err error)
}

// Local is an in-process EventLocker.
type Local struct {
	mu   sync.Mutex
	held map[uint64]struct{}
}

func NewLocal() *Local { return &Local{held: make(map[uint64]struct{})} }

func (l *Local) TryLock(_ context.Context, eventID uint64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[eventID]; busy {
		return nil, ErrLocked
	}
	l.held[eventID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, eventID)
			l.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// Redis is an EventLocker shared by every server instance using the same
// Redis.  Locks expire after TTL so a crashed holder cannot block an event
// forever.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Redis locker; prefix namespaces the keys and ttl
// bounds how long a lock outlives a crashed holder.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "seating:lock"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(eventID uint64) string { return fmt.Sprintf("%s:%d", r.prefix, eventID) }

func (r *Redis) TryLock(ctx context.Context, eventID uint64) (func(), error) {
	token := uuid.NewString()
	key := r.key(eventID)
	ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, r.rdb, []string{key}, token).Err()
		})
	}, nil
}
