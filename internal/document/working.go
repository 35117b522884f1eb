package document

import "fmt"

// Codec decodes input bytes into sources and serializes working documents.
type Codec interface {
	Decode(name string, data []byte) (*Source, error)
	Encode(w *Working) ([]byte, error)
}

// WorkingPage is one page of a Working document: a page of some source,
// optionally with its media box replaced.
type WorkingPage struct {
	Source   *Source
	Index    int       // 0-based page index within Source
	Override *Geometry // nil keeps the original media box
}

// Working is a freshly constructed document that accumulates pages
// imported from sources. Its page indices are independent of any source.
type Working struct {
	pages   []WorkingPage
	outline []*Bookmark
	closed  bool
}

// NewWorking returns an empty working document.
func NewWorking() *Working {
	return &Working{}
}

// Import appends page index of src.
func (w *Working) Import(src *Source, index int) error {
	return w.importPage(src, index, nil)
}

// ImportResized appends page index of src with its media box set to g.
func (w *Working) ImportResized(src *Source, index int, g Geometry) error {
	return w.importPage(src, index, &g)
}

func (w *Working) importPage(src *Source, index int, g *Geometry) error {
	if w.closed {
		return fmt.Errorf("import into closed document")
	}
	if src == nil {
		return fmt.Errorf("import from nil source")
	}
	if index < 0 || index >= src.PageCount() {
		return fmt.Errorf("import page %d: out of range (source has %d pages)", index, src.PageCount())
	}
	w.pages = append(w.pages, WorkingPage{Source: src, Index: index, Override: g})
	return nil
}

// RemoveLast drops the most recently imported page and returns it.
func (w *Working) RemoveLast() (WorkingPage, bool) {
	if len(w.pages) == 0 {
		return WorkingPage{}, false
	}
	last := w.pages[len(w.pages)-1]
	w.pages = w.pages[:len(w.pages)-1]
	return last, true
}

// PageCount returns the number of imported pages.
func (w *Working) PageCount() int {
	return len(w.pages)
}

// Pages returns the page sequence. Callers must not modify it.
func (w *Working) Pages() []WorkingPage {
	return w.pages
}

// Outline returns the root bookmarks of the document.
func (w *Working) Outline() []*Bookmark {
	return w.outline
}

// AppendBookmark adds b as the last root bookmark.
func (w *Working) AppendBookmark(b *Bookmark) {
	w.outline = append(w.outline, b)
}

// Close drops all page and outline references.
func (w *Working) Close() {
	w.pages = nil
	w.outline = nil
	w.closed = true
}
