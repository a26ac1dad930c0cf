package blob

import (
	"context"
	"sync"
)

// Memory is an in-process Uploader for tests and local runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailNext, when set, makes the next Upload return the given error
	// without storing anything, then clears itself.
	FailNext error
}

// NewMemory returns an empty in-memory uploader.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Upload(ctx context.Context, p Payload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return "", err
	}
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	m.objects[p.Key] = data
	return "mem://" + p.Key, nil
}

// Object returns the stored bytes for a key.
func (m *Memory) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}
