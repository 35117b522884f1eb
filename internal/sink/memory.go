package sink

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps documents in process memory.
type Memory struct {
	mu   sync.Mutex
	docs map[string]memoryDoc
}

type memoryDoc struct {
	handle Handle
	data   []byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]memoryDoc)}
}

func (m *Memory) Create(ctx context.Context, data []byte, filename, contentType string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	h := Handle{
		ID:          uuid.New().String(),
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.docs[h.ID] = memoryDoc{handle: h, data: buf}
	m.mu.Unlock()
	return h, nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *Memory) Fetch(_ context.Context, id string) (Handle, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return Handle{}, nil, ErrNotFound
	}
	return d.handle, d.data, nil
}

// List returns all handles, oldest first.
func (m *Memory) List(_ context.Context) ([]Handle, error) {
	m.mu.Lock()
	out := make([]Handle, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d.handle)
	}
	m.mu.Unlock()
	sortHandles(out)
	return out, nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func sortHandles(hs []Handle) {
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].CreatedAt.Equal(hs[j].CreatedAt) {
			return hs[i].ID < hs[j].ID
		}
		return hs[i].CreatedAt.Before(hs[j].CreatedAt)
	})
}
