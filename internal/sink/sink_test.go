package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip exercises the Create/Fetch/Remove contract shared by every sink.
func roundTrip(t *testing.T, s interface {
	Sink
	Fetcher
	Remover
}) {
	t.Helper()
	ctx := context.Background()

	h, err := s.Create(ctx, []byte("%PDF-1.7 body"), "part-1.pdf", "application/pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "part-1.pdf", h.Filename)
	assert.Equal(t, int64(13), h.Size)
	assert.False(t, h.CreatedAt.IsZero())

	got, data, err := s.Fetch(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 body", string(data))
	assert.Equal(t, h.ID, got.ID)
	assert.Equal(t, "application/pdf", got.ContentType)

	require.NoError(t, s.Remove(ctx, h.ID))
	_, _, err = s.Fetch(ctx, h.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, h.ID), ErrNotFound)
}

func TestMemory(t *testing.T) {
	roundTrip(t, NewMemory())
}

func TestMemory_CopiesInput(t *testing.T) {
	m := NewMemory()
	buf := []byte("abc")
	h, err := m.Create(context.Background(), buf, "a.pdf", "application/pdf")
	require.NoError(t, err)
	buf[0] = 'x'

	_, data, err := m.Fetch(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Create(ctx, nil, "a.pdf", "application/pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDir(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)
	roundTrip(t, d)
}

func TestDir_RejectsPathEscapes(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../x.pdf", "sub/x.pdf", "."} {
		_, err := d.Create(context.Background(), []byte("x"), name, "application/pdf")
		assert.Error(t, err, name)
	}
}

func TestDir_NeverReplacesFiles(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var ids []string
	for _, body := range []string{"one", "two", "three"} {
		h, err := d.Create(ctx, []byte(body), "Chapter.pdf", "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, h.ID, h.Filename)
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"Chapter.pdf", "Chapter-2.pdf", "Chapter-3.pdf"}, ids)

	for i, body := range []string{"one", "two", "three"} {
		_, data, err := d.Fetch(ctx, ids[i])
		require.NoError(t, err)
		assert.Equal(t, body, string(data))
	}

	require.NoError(t, d.Remove(ctx, ids[0]))
	_, data, err := d.Fetch(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestStore(t *testing.T) {
	s, err := OpenStore("")
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
}

func TestStore_ListAndFilter(t *testing.T) {
	s, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf", "a.pdf"} {
		_, err := s.Create(ctx, []byte(name), name, "application/pdf")
		require.NoError(t, err)
	}

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := s.List(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)
	for _, h := range onlyA {
		assert.Equal(t, "a.pdf", h.Filename)
	}
}
