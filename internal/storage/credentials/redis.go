package credentials

import (
	"context"
	"errors"
	"moviecatalog/proj/internal/storage"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 3 * time.Second

// RedisStore keeps the credential in Redis under <prefix>authToken and
// <prefix>role, for gateways that share a login across restarts or hosts.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) Load(ctx context.Context) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	vals, err := s.client.MGet(ctx, s.key(TokenKey), s.key(RoleKey)).Result()
	if err != nil {
		return "", "", err
	}
	token, _ := vals[0].(string)
	if token == "" {
		return "", "", storage.ErrNotFound
	}
	role, _ := vals[1].(string)
	return token, role, nil
}

func (s *RedisStore) Save(ctx context.Context, token, role string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(TokenKey), token, 0)
		pipe.Set(ctx, s.key(RoleKey), role, 0)
		return nil
	})
	return err
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(TokenKey), s.key(RoleKey)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
