// Package sink persists output documents produced by the restructuring
// engine.
package sink

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document id is unknown to a sink.
var ErrNotFound = errors.New("document not found")

// Handle describes a stored document.
type Handle struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Sink stores one output document per Create call.
type Sink interface {
	Create(ctx context.Context, data []byte, filename, contentType string) (Handle, error)
}

// Remover deletes stored documents. Sinks implementing it let the engine
// discard outputs of an operation that failed partway through emitting.
type Remover interface {
	Remove(ctx context.Context, id string) error
}

// Fetcher reads stored documents back.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (Handle, []byte, error)
}
