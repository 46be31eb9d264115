package docstorage

import (
	"context"
	"sort"
	"sync"
)

// MemoryAdapter keeps documents in process memory.
type MemoryAdapter struct {
	mu        sync.RWMutex
	documents map[string][]byte
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{documents: make(map[string][]byte)}
}

func (a *MemoryAdapter) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.documents[id] = append([]byte(nil), data...)
	return nil
}

func (a *MemoryAdapter) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound{ID: id}
	}
	return append([]byte(nil), data...), nil
}

func (a *MemoryAdapter) List(ctx context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.documents))
	for id := range a.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *MemoryAdapter) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.documents, id)
	return nil
}

func (a *MemoryAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.documents = make(map[string][]byte)
	return nil
}
