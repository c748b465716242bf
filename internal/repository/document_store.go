package repository

import (
	"context"
	"gradebook_backend/internal/util"
	"sort"
	"sync"
)

// DocumentStore 以租户代码为键保存整个租户文档。Upsert 必须是原子的：要么整体写入，要么不写
type DocumentStore interface {
	Get(ctx context.Context, code string) ([]byte, error)
	Upsert(ctx context.Context, code string, body []byte) error
	List(ctx context.Context) ([]string, error)
	Name() string
}

// MemoryDocumentStore 进程内存储，用于开发和测试
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string][]byte)}
}

func (s *MemoryDocumentStore) Name() string {
	return util.BackendMemory
}

func (s *MemoryDocumentStore) Get(ctx context.Context, code string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.docs[code]
	if !ok {
		return nil, util.ErrDocumentNotFound
	}
	return append([]byte(nil), body...), nil
}

func (s *MemoryDocumentStore) Upsert(ctx context.Context, code string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[code] = append([]byte(nil), body...)
	return nil
}

func (s *MemoryDocumentStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.docs))
	for code := range s.docs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}
