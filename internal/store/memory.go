package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// Memory is an in-process BlobStore used by tests and local development.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemory creates an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func (m *Memory) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = memObject{data: cp, contentType: contentType}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for _, k := range keys {
		if _, ok := m.objects[k]; ok {
			delete(m.objects, k)
			deleted++
		}
	}
	return deleted, nil
}
