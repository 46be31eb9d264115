package docstorage

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisAdapter stores documents as plain keys and tracks their ids in a set.
type RedisAdapter struct {
	client    *redis.Client
	keyPrefix string

	// owned clients are closed with the adapter
	owned bool
}

// NewRedisAdapter uses a client managed by the caller.
func NewRedisAdapter(client *redis.Client, keyPrefix string) *RedisAdapter {
	return &RedisAdapter{client: client, keyPrefix: keyPrefix}
}

func (a *RedisAdapter) docKey(id string) string {
	return fmt.Sprintf("%s:doc:%s", a.keyPrefix, id)
}

func (a *RedisAdapter) listKey() string {
	return fmt.Sprintf("%s:docs", a.keyPrefix)
}

func (a *RedisAdapter) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, a.docKey(id), data, 0)
		pipe.SAdd(ctx, a.listKey(), id)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to save document")
	}
	return nil
}

func (a *RedisAdapter) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := a.client.Get(ctx, a.docKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrDocumentNotFound{ID: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get document")
	}
	return data, nil
}

func (a *RedisAdapter) List(ctx context.Context) ([]string, error) {
	ids, err := a.client.SMembers(ctx, a.listKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get document list")
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *RedisAdapter) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, a.docKey(id))
		pipe.SRem(ctx, a.listKey(), id)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete document")
	}
	return nil
}

func (a *RedisAdapter) Close() error {
	if a.owned {
		return a.client.Close()
	}
	return nil
}
