package service

import (
	"context"
	"errors"
	"gradebook_backend/internal/repository"
	"sync"
	"sync/atomic"
	"time"
)

var errBackendDown = errors.New("backend down")

// flakyStore 在内存存储外包一层，可以按需让读写失败并统计调用次数
type flakyStore struct {
	*repository.MemoryDocumentStore
	failGets    atomic.Bool
	failUpserts atomic.Bool
	gets        atomic.Int32
	upserts     atomic.Int32
	// beforeUpsert 在写入前调用，返回错误时写入失败
	beforeUpsert func(ctx context.Context) error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryDocumentStore: repository.NewMemoryDocumentStore()}
}

func (s *flakyStore) Get(ctx context.Context, code string) ([]byte, error) {
	s.gets.Add(1)
	if s.failGets.Load() {
		return nil, errBackendDown
	}
	return s.MemoryDocumentStore.Get(ctx, code)
}

func (s *flakyStore) Upsert(ctx context.Context, code string, body []byte) error {
	s.upserts.Add(1)
	if s.failUpserts.Load() {
		return errBackendDown
	}
	if s.beforeUpsert != nil {
		if err := s.beforeUpsert(ctx); err != nil {
			return err
		}
	}
	return s.MemoryDocumentStore.Upsert(ctx, code, body)
}

func (s *flakyStore) body(code string) []byte {
	b, _ := s.MemoryDocumentStore.Get(context.Background(), code)
	return b
}

func fastSyncOptions() SyncOptions {
	return SyncOptions{Timeout: time.Second, Retries: 1, RetryBackoff: time.Millisecond, Workers: 2}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
