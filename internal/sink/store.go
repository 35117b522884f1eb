package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"
)

// storedDocument is the badgerhold record for one document.
type storedDocument struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
	Data        []byte
}

func (d storedDocument) handle() Handle {
	return Handle{
		ID:          d.ID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		CreatedAt:   d.CreatedAt,
	}
}

// Store keeps documents in a badger database.
type Store struct {
	db *badgerhold.Store
}

// OpenStore opens (or creates) the database at path. An empty path keeps
// everything in memory.
func OpenStore(path string) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil
	if path == "" {
		options.InMemory = true
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		options.Dir = path
		options.ValueDir = path
	}

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Create(ctx context.Context, data []byte, filename, contentType string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	doc := storedDocument{
		ID:          uuid.New().String(),
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
		Data:        data,
	}
	if err := s.db.Insert(doc.ID, &doc); err != nil {
		return Handle{}, fmt.Errorf("save document %s: %w", filename, err)
	}
	return doc.handle(), nil
}

func (s *Store) Fetch(_ context.Context, id string) (Handle, []byte, error) {
	var doc storedDocument
	if err := s.db.Get(id, &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return Handle{}, nil, ErrNotFound
		}
		return Handle{}, nil, fmt.Errorf("get document: %w", err)
	}
	return doc.handle(), doc.Data, nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	if err := s.db.Delete(id, &storedDocument{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns every stored document's handle, oldest first. A non-empty
// filename restricts the result to documents with that name.
func (s *Store) List(_ context.Context, filename string) ([]Handle, error) {
	var query *badgerhold.Query
	if filename != "" {
		query = badgerhold.Where("Filename").Eq(filename)
	}

	var docs []storedDocument
	if err := s.db.Find(&docs, query); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]Handle, len(docs))
	for i, d := range docs {
		out[i] = d.handle()
	}
	sortHandles(out)
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
