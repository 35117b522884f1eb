// Package packer splits a document into chunks whose serialized size stays
// under a byte budget.
package packer

import (
	"fmt"

	"github.com/dgallion1/pdfsplice/internal/document"
)

// BytesPerMB converts the megabyte limits used by requests into bytes.
const BytesPerMB = 1 << 20

// Config controls packing behavior.
type Config struct {
	MaxBytes int64 // Upper bound on a chunk's serialized size.
}

// Encoder serializes a working document. document.Codec satisfies it.
type Encoder interface {
	Encode(w *document.Working) ([]byte, error)
}

// Chunk is one packed output document.
type Chunk struct {
	Data      []byte
	FirstPage int // 0-based index of the chunk's first source page
	PageCount int
}

// Pack walks src page by page, serializing the accumulator after every
// addition. When a multi-page accumulator grows past cfg.MaxBytes the last
// page is moved into a fresh accumulator. A single page larger than the
// budget still becomes its own chunk.
func Pack(src *document.Source, cfg Config, enc Encoder) ([]Chunk, error) {
	if cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be positive, got %d", cfg.MaxBytes)
	}

	var chunks []Chunk
	acc := document.NewWorking()
	defer func() { acc.Close() }()
	first := 0

	for i := 0; i < src.PageCount(); i++ {
		if err := acc.Import(src, i); err != nil {
			return nil, err
		}
		data, err := enc.Encode(acc)
		if err != nil {
			return nil, fmt.Errorf("serialize pages %d-%d: %w", first+1, i+1, err)
		}
		if int64(len(data)) <= cfg.MaxBytes || acc.PageCount() == 1 {
			continue
		}

		// Over budget: emit everything before page i.
		acc.RemoveLast()
		if data, err = enc.Encode(acc); err != nil {
			return nil, fmt.Errorf("serialize pages %d-%d: %w", first+1, i, err)
		}
		chunks = append(chunks, Chunk{Data: data, FirstPage: first, PageCount: acc.PageCount()})

		acc.Close()
		acc = document.NewWorking()
		first = i
		if err := acc.Import(src, i); err != nil {
			return nil, err
		}
	}

	if acc.PageCount() > 0 {
		data, err := enc.Encode(acc)
		if err != nil {
			return nil, fmt.Errorf("serialize pages %d-%d: %w", first+1, src.PageCount(), err)
		}
		chunks = append(chunks, Chunk{Data: data, FirstPage: first, PageCount: acc.PageCount()})
	}
	return chunks, nil
}
