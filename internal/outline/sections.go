package outline

import (
	"github.com/dgallion1/pdfsplice/internal/document"
)

// Section is the page span owned by one bookmark, 0-indexed inclusive.
type Section struct {
	Title     string `json:"title"`
	StartPage int    `json:"startPage"`
	EndPage   int    `json:"endPage"`
}

// Pages returns the number of pages in the span, 0 when start > end.
func (s Section) Pages() int {
	if s.EndPage < s.StartPage {
		return 0
	}
	return s.EndPage - s.StartPage + 1
}

// Sections derives one section per resolvable root bookmark of src. A
// section ends one page before the next resolvable sibling starts, or at the
// last page. Only root siblings are scanned; topLevelOnly is accepted for
// callers but nested bookmarks never produce sections.
func Sections(src *document.Source, topLevelOnly bool) ([]Section, error) {
	if src.Outline == nil {
		return nil, ErrNoBookmarks
	}

	type start struct {
		title string
		page  int
	}
	var starts []start
	for _, b := range src.Outline {
		if b == nil {
			continue
		}
		page, ok := Resolve(b, src)
		if !ok {
			continue
		}
		starts = append(starts, start{title: b.Title, page: page})
	}
	if len(starts) == 0 {
		return nil, ErrNoBookmarks
	}

	total := src.PageCount()
	sections := make([]Section, len(starts))
	for i, s := range starts {
		end := total - 1
		if i+1 < len(starts) {
			end = starts[i+1].page - 1
		}
		sections[i] = Section{Title: s.title, StartPage: s.page, EndPage: end}
	}
	return sections, nil
}
