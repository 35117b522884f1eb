package restructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dgallion1/pdfsplice/internal/document"
	"github.com/dgallion1/pdfsplice/internal/sink"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeDoc is the serialized form used by fakeCodec. Bookmarks point at
// pages by index; -1 means no destination.
type fakeDoc struct {
	Pages   []fakePage `json:"pages"`
	Outline []fakeMark `json:"outline,omitempty"`
}

type fakePage struct {
	Label string  `json:"label"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	Pad   string  `json:"pad,omitempty"`
}

type fakeMark struct {
	Title string     `json:"title"`
	Page  int        `json:"page"`
	Kids  []fakeMark `json:"kids,omitempty"`
}

// fakeCodec decodes and encodes fakeDoc JSON and counts open sources.
type fakeCodec struct {
	open       atomic.Int64
	decoded    atomic.Int64
	failEncode atomic.Bool
}

func (c *fakeCodec) Decode(name string, data []byte) (*document.Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", document.ErrMalformed)
	}
	var d fakeDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrMalformed, err)
	}

	pages := make([]document.Page, len(d.Pages))
	for i, p := range d.Pages {
		pages[i].Ref = document.PageRef(100 + i)
		if p.W > 0 && p.H > 0 {
			pages[i].Geometry = &document.Geometry{Width: p.W, Height: p.H}
		}
	}
	var marks []*document.Bookmark
	if d.Outline != nil {
		marks = make([]*document.Bookmark, 0, len(d.Outline))
		for _, m := range d.Outline {
			marks = append(marks, m.bookmark())
		}
	}

	c.open.Add(1)
	c.decoded.Add(1)
	return document.NewSource(name, data, pages, marks, func() error {
		c.open.Add(-1)
		return nil
	}), nil
}

func (m fakeMark) bookmark() *document.Bookmark {
	b := &document.Bookmark{Title: m.Title}
	if m.Page >= 0 {
		b.Dest = document.PageDest(m.Page)
	}
	for _, k := range m.Kids {
		b.Children = append(b.Children, k.bookmark())
	}
	return b
}

func (c *fakeCodec) Encode(w *document.Working) ([]byte, error) {
	if c.failEncode.Load() {
		return nil, errors.New("codec exploded")
	}
	var d fakeDoc
	for _, wp := range w.Pages() {
		var orig fakeDoc
		if err := json.Unmarshal(wp.Source.Data, &orig); err != nil {
			return nil, err
		}
		p := orig.Pages[wp.Index]
		if wp.Override != nil {
			p.W, p.H = wp.Override.Width, wp.Override.Height
		}
		d.Pages = append(d.Pages, p)
	}
	for _, b := range w.Outline() {
		d.Outline = append(d.Outline, markOf(b))
	}
	return json.Marshal(d)
}

func markOf(b *document.Bookmark) fakeMark {
	m := fakeMark{Title: b.Title, Page: -1}
	if b.Dest != nil {
		m.Page = b.Dest.Page
	}
	for _, c := range b.Children {
		m.Kids = append(m.Kids, markOf(c))
	}
	return m
}

// doc builds fakeDoc JSON for pages labelled prefix1..prefixN.
func doc(prefix string, n int, outline ...fakeMark) []byte {
	d := fakeDoc{Outline: outline}
	for i := 1; i <= n; i++ {
		d.Pages = append(d.Pages, fakePage{Label: fmt.Sprintf("%s%d", prefix, i), W: 612, H: 792})
	}
	data, err := json.Marshal(d)
	if err != nil {
		panic(err)
	}
	return data
}

func sized(pages ...fakePage) []byte {
	data, err := json.Marshal(fakeDoc{Pages: pages})
	if err != nil {
		panic(err)
	}
	return data
}

func decodeFake(data []byte) fakeDoc {
	var d fakeDoc
	if err := json.Unmarshal(data, &d); err != nil {
		panic(err)
	}
	return d
}

func labels(data []byte) string {
	d := decodeFake(data)
	out := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Label
	}
	return strings.Join(out, ",")
}

// flakySink stores through a Memory sink but fails after limit creates.
type flakySink struct {
	*sink.Memory
	mu    sync.Mutex
	limit int
	calls int
}

func (f *flakySink) Create(ctx context.Context, data []byte, filename, contentType string) (sink.Handle, error) {
	f.mu.Lock()
	f.calls++
	over := f.calls > f.limit
	f.mu.Unlock()
	if over {
		return sink.Handle{}, errors.New("quota exceeded")
	}
	return f.Memory.Create(ctx, data, filename, contentType)
}

// createOnly hides Memory's Remove.
type createOnly struct {
	s sink.Sink
}

func (c createOnly) Create(ctx context.Context, data []byte, filename, contentType string) (sink.Handle, error) {
	return c.s.Create(ctx, data, filename, contentType)
}
