package cart

import (
	"context"
	"errors"
	"sync"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Storage 以固定鍵保存整份快照，每次異動都整份覆寫
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, snapshot []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage 單機用的快照儲存，未設定 redis 時使用
type MemoryStorage struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{snapshots: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.snapshots[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *MemoryStorage) Save(_ context.Context, key string, snapshot []byte) error {
	b := make([]byte, len(snapshot))
	copy(b, snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = b
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}
