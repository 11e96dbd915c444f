package identity

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const namesKey = "arena:names"

// Redis keeps display names in one hash so they survive restarts and are
// shared between instances.
type Redis struct{ rdb *redis.Client }

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Lookup(ctx context.Context, address string) (string, bool, error) {
	name, err := r.rdb.HGet(ctx, namesKey, strings.TrimSpace(address)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (r *Redis) Bind(ctx context.Context, address, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	address = strings.TrimSpace(address)
	if address == "" || name == "" {
		return nil
	}
	return r.rdb.HSet(ctx, namesKey, address, name).Err()
}
