package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"ticketbot/pkg"
)

const (
	// DefaultKeyPrefix namespaces session keys when no prefix is configured
	DefaultKeyPrefix = "ticketbot:"
	sessionPrefix    = "session:"
	channelPrefix    = "channel:"
	scanBatch        = 100
)

// RedisSessionStore implements SessionStore on Redis. Inserts use SET NX,
// so concurrent opens for one user resolve to a single winner.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore connects to redisURL and verifies the connection
func NewRedisSessionStore(ctx context.Context, redisURL, prefix string) (*RedisSessionStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis session backend")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSessionStoreFromClient(client, prefix), nil
}

// NewRedisSessionStoreFromClient wraps an existing client
func NewRedisSessionStoreFromClient(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

func (r *RedisSessionStore) key(userID string) string {
	return r.prefix + sessionPrefix + userID
}

func (r *RedisSessionStore) channelKey(channelID string) string {
	return r.prefix + channelPrefix + channelID
}

// Insert stores the session if the user has none
func (r *RedisSessionStore) Insert(ctx context.Context, s pkg.Session) (bool, error) {
	if err := ValidateSession(s); err != nil {
		return false, err
	}

	data, err := sonic.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(s.UserID), data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to insert session: %w", err)
	}
	if ok && s.ChannelID != "" {
		if err := r.client.Set(ctx, r.channelKey(s.ChannelID), s.UserID, 0).Err(); err != nil {
			return false, fmt.Errorf("failed to index session channel: %w", err)
		}
	}
	return ok, nil
}

// Get retrieves a session by user ID
func (r *RedisSessionStore) Get(ctx context.Context, userID string) (pkg.Session, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pkg.Session{}, fmt.Errorf("user %s: %w", userID, ErrSessionNotFound)
		}
		return pkg.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var s pkg.Session
	if err := sonic.Unmarshal(data, &s); err != nil {
		return pkg.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, nil
}

// Update replaces an existing session and maintains the channel index
func (r *RedisSessionStore) Update(ctx context.Context, s pkg.Session) error {
	if err := ValidateSession(s); err != nil {
		return err
	}

	prev, err := r.Get(ctx, s.UserID)
	if err != nil {
		return err
	}

	data, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.UserID), data, 0)
	if prev.ChannelID != "" && prev.ChannelID != s.ChannelID {
		pipe.Del(ctx, r.channelKey(prev.ChannelID))
	}
	if s.ChannelID != "" {
		pipe.Set(ctx, r.channelKey(s.ChannelID), s.UserID, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Delete removes a session and its channel index entry
func (r *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	s, err := r.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	keys := []string{r.key(userID)}
	if s.ChannelID != "" {
		keys = append(keys, r.channelKey(s.ChannelID))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// FindByChannel returns the session bound to channelID
func (r *RedisSessionStore) FindByChannel(ctx context.Context, channelID string) (pkg.Session, error) {
	if channelID == "" {
		return pkg.Session{}, fmt.Errorf("channel ID cannot be empty")
	}

	userID, err := r.client.Get(ctx, r.channelKey(channelID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pkg.Session{}, fmt.Errorf("channel %s: %w", channelID, ErrSessionNotFound)
		}
		return pkg.Session{}, fmt.Errorf("failed to look up channel: %w", err)
	}

	s, err := r.Get(ctx, userID)
	if err != nil {
		return pkg.Session{}, err
	}
	if s.ChannelID != channelID {
		return pkg.Session{}, fmt.Errorf("channel %s: %w", channelID, ErrSessionNotFound)
	}
	return s, nil
}

// Count returns the number of open sessions
func (r *RedisSessionStore) Count(ctx context.Context) (int, error) {
	keys, err := r.scan(ctx, r.prefix+sessionPrefix+"*")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Reset drops every key under the store prefix
func (r *RedisSessionStore) Reset(ctx context.Context) error {
	keys, err := r.scan(ctx, r.prefix+"*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset sessions: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) scan(ctx context.Context, match string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Ping tests Redis connection
func (r *RedisSessionStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

var _ SessionStore = (*RedisSessionStore)(nil)
