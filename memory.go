package glitchreveal

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. It holds serialized bytes
// rather than pointers so callers never share a *Record with the store.
type MemoryStore struct {
	mu             sync.Mutex
	data           map[string][]byte
	maxRecordBytes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	data, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeRecord(data, s.maxRecordBytes)
}

func (s *MemoryStore) Save(ctx context.Context, key string, r *Record) error {
	buf := getBuffer()
	defer putBuffer(buf)

	blob, err := encodeRecord(buf, r, s.maxRecordBytes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), blob...)
	return nil
}

// SaveRaw stores data verbatim, bypassing encoding. Useful for seeding
// records written by another client.
func (s *MemoryStore) SaveRaw(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
