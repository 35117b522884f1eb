package document

import (
	"errors"
	"fmt"
	"sync"
)

// ErrMalformed is returned by codecs for input that is not a well-formed
// document, including zero-length input.
var ErrMalformed = errors.New("malformed document")

// Geometry is a page rectangle in PDF points.
type Geometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns Width * Height.
func (g Geometry) Area() float64 {
	return g.Width * g.Height
}

// A4 is 210 x 297 mm expressed in points.
var A4 = Geometry{Width: 595.27563, Height: 841.8898}

// PageRef identifies a page object inside one source document.
// Zero means "no reference".
type PageRef int

// Page is a single page of a decoded source.
type Page struct {
	Ref      PageRef
	Geometry *Geometry // nil when the codec could not determine the media box
}

// Source is a decoded, read-only document owned by one operation.
type Source struct {
	Name    string      // Filename from the input metadata (may be empty)
	Data    []byte      // Encoded bytes, kept so codecs can re-read pages
	Pages   []Page      // Page sequence, 0-indexed
	Outline []*Bookmark // Root bookmarks; nil when the document has no outline

	closeOnce sync.Once
	release   func() error
	closeErr  error
}

// NewSource builds a Source. release is called once by Close and may be nil.
func NewSource(name string, data []byte, pages []Page, outline []*Bookmark, release func() error) *Source {
	return &Source{
		Name:    name,
		Data:    data,
		Pages:   pages,
		Outline: outline,
		release: release,
	}
}

// PageCount returns the number of pages.
func (s *Source) PageCount() int {
	return len(s.Pages)
}

// PageGeometry returns the media box size of page i.
func (s *Source) PageGeometry(i int) (Geometry, error) {
	if i < 0 || i >= len(s.Pages) {
		return Geometry{}, fmt.Errorf("page %d out of range (document has %d pages)", i, len(s.Pages))
	}
	g := s.Pages[i].Geometry
	if g == nil {
		return Geometry{}, fmt.Errorf("page %d has no media box", i)
	}
	return *g, nil
}

// IndexOf returns the position of the page object ref, or -1.
func (s *Source) IndexOf(ref PageRef) int {
	if ref == 0 {
		return -1
	}
	for i, p := range s.Pages {
		if p.Ref == ref {
			return i
		}
	}
	return -1
}

// Close releases codec resources. Safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.release != nil {
			s.closeErr = s.release()
		}
		s.Data = nil
	})
	return s.closeErr
}

// Destination points a bookmark at a page.
type Destination struct {
	Page int     // Direct 0-based page number; -1 when only Ref is known
	Ref  PageRef // Referenced page object; 0 when absent
}

// PageDest returns a destination with a direct page number.
func PageDest(page int) *Destination {
	return &Destination{Page: page}
}

// RefDest returns a destination that only names a page object.
func RefDest(ref PageRef) *Destination {
	return &Destination{Page: -1, Ref: ref}
}

// Bookmark is one node of an outline forest.
type Bookmark struct {
	Title    string
	Dest     *Destination // Direct destination
	GoTo     *Destination // Destination embedded in a go-to action
	Children []*Bookmark
}
