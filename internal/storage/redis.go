package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultLockTTL = 10 * time.Second

// RedisStore keeps values in Redis and serialises updates with a redsync lock.
type RedisStore struct {
	client  redis.UniversalClient
	rs      *redsync.Redsync
	prefix  string
	lockTTL time.Duration
	log     zerolog.Logger
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	URL     string
	Prefix  string
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// NewRedisStore connects to the Redis instance or cluster named by opts.URL.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL must be provided")
	}

	universal, err := buildUniversalOptions(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if len(universal.Addrs) > 1 && universal.DB != 0 {
		opts.Logger.Warn().Msg("Ignoring non-zero DB when using Redis Cluster configuration")
		universal.DB = 0
	}

	client := redis.NewUniversalClient(universal)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, opts), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient, opts RedisOptions) *RedisStore {
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisStore{
		client:  client,
		rs:      redsync.New(goredis.NewPool(client)),
		prefix:  opts.Prefix,
		lockTTL: ttl,
		log:     opts.Logger,
	}
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
	}

	if len(opts.Addrs) == 0 {
		return nil, errors.New("no Redis addresses provided")
	}
	return opts, nil
}

func (r *RedisStore) key(key string) string {
	return r.prefix + key
}

func (r *RedisStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}

	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisStore) SetItem(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (r *RedisStore) UpdateData(ctx context.Context, key string, fn UpdateFunc) error {
	if err := checkKey(key); err != nil {
		return err
	}

	return r.withLock(ctx, "lock:"+r.key(key), func() error {
		current, exists, err := r.GetItem(ctx, key)
		if err != nil {
			return err
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		return r.SetItem(ctx, key, next)
	})
}

func (r *RedisStore) withLock(ctx context.Context, lockName string, fn func() error) error {
	mutex := r.rs.NewMutex(lockName, redsync.WithExpiry(r.lockTTL))

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("acquire %s: %w", lockName, err)
	}

	defer func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			r.log.Error().Err(err).Str("lock", lockName).Msg("Failed to unlock mutex")
		}
	}()

	// Keep the lock alive while fn runs; stopped before the unlock.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.keepAlive(ctx, mutex, lockName, stop)
	}()
	defer func() {
		close(stop)
		wg.Wait()
	}()

	return fn()
}

func (r *RedisStore) keepAlive(ctx context.Context, mutex *redsync.Mutex, lockName string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.lockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ok, err := mutex.ExtendContext(ctx); err != nil || !ok {
				r.log.Warn().Err(err).Str("lock", lockName).Msg("Failed to extend mutex")
			}
		}
	}
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
