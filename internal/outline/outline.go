// Package outline copies bookmark trees between documents and derives
// page sections from them.
package outline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pdfsplice/internal/document"
)

// MaxDepth bounds outline nesting. Deeper nodes (or cyclic outlines) are
// dropped.
const MaxDepth = 64

// ErrNoBookmarks means the outline is absent or yields no usable section.
var ErrNoBookmarks = errors.New("no bookmarks")

// Resolve returns the 0-based source page a bookmark points at. The direct
// destination is tried first, then the go-to action's destination.
func Resolve(b *document.Bookmark, src *document.Source) (int, bool) {
	if page, ok := resolveDest(b.Dest, src); ok {
		return page, true
	}
	return resolveDest(b.GoTo, src)
}

func resolveDest(d *document.Destination, src *document.Source) (int, bool) {
	if d == nil {
		return 0, false
	}
	if d.Page >= 0 {
		return d.Page, true
	}
	if i := src.IndexOf(d.Ref); i >= 0 {
		return i, true
	}
	return 0, false
}

// Copy appends every root bookmark of src to dst, translating source page s
// to dst page pageOffset+s. A non-empty prefix is prepended to every title
// as "prefix - title". Nodes that fail to map are logged and dropped along
// with their subtree; src is never modified.
func Copy(src *document.Source, dst *document.Working, prefix string, pageOffset int, log *slog.Logger) {
	if len(src.Outline) == 0 {
		return
	}
	m := mapper{src: src, dst: dst, prefix: prefix, offset: pageOffset, log: log}
	for _, root := range src.Outline {
		mapped, err := m.mapNode(root, 0)
		if err != nil {
			m.dropped(root, err)
			continue
		}
		dst.AppendBookmark(mapped)
	}
}

type mapper struct {
	src    *document.Source
	dst    *document.Working
	prefix string
	offset int
	log    *slog.Logger
}

func (m *mapper) mapNode(b *document.Bookmark, depth int) (*document.Bookmark, error) {
	if b == nil {
		return nil, fmt.Errorf("nil bookmark")
	}
	if depth >= MaxDepth {
		return nil, fmt.Errorf("outline nested deeper than %d levels", MaxDepth)
	}

	out := &document.Bookmark{Title: b.Title}
	if m.prefix != "" {
		out.Title = m.prefix + " - " + b.Title
	}

	if s, ok := Resolve(b, m.src); ok && s < m.src.PageCount() {
		if t := m.offset + s; t >= 0 && t < m.dst.PageCount() {
			out.Dest = document.PageDest(t)
		}
	}

	for _, child := range b.Children {
		mapped, err := m.mapNode(child, depth+1)
		if err != nil {
			m.dropped(child, err)
			continue
		}
		out.Children = append(out.Children, mapped)
	}
	return out, nil
}

func (m *mapper) dropped(b *document.Bookmark, err error) {
	title := ""
	if b != nil {
		title = b.Title
	}
	m.log.Warn("dropping bookmark", "source", m.src.Name, "title", title, "error", err)
}
