package repository

import (
	"context"
	"gradebook_backend/internal/util"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const documentKeySuffix = ":document"

// RedisDocumentStore 键为 {prefix}{code}:document，值为文档 JSON
type RedisDocumentStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisDocumentStore(client *redis.Client, prefix string) *RedisDocumentStore {
	return &RedisDocumentStore{Client: client, Prefix: prefix}
}

func (s *RedisDocumentStore) Name() string {
	return util.BackendRedis
}

func (s *RedisDocumentStore) key(code string) string {
	return s.Prefix + code + documentKeySuffix
}

func (s *RedisDocumentStore) Get(ctx context.Context, code string) ([]byte, error) {
	body, err := s.Client.Get(ctx, s.key(code)).Bytes()
	if err == redis.Nil {
		return nil, util.ErrDocumentNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", code)
	}
	return body, nil
}

// Upsert 单条 SET 命令，天然原子
func (s *RedisDocumentStore) Upsert(ctx context.Context, code string, body []byte) error {
	err := s.Client.Set(ctx, s.key(code), body, 0).Err()
	return errors.Wrapf(err, "redis set %s", code)
}

func (s *RedisDocumentStore) List(ctx context.Context) ([]string, error) {
	var codes []string
	iter := s.Client.Scan(ctx, 0, s.Prefix+"*"+documentKeySuffix, 100).Iterator()
	for iter.Next(ctx) {
		k := strings.TrimPrefix(iter.Val(), s.Prefix)
		codes = append(codes, strings.TrimSuffix(k, documentKeySuffix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis scan documents")
	}
	sort.Strings(codes)
	return codes, nil
}
