// Package pdftest builds small real PDFs for tests and reads outputs back
// with an independent parser.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Page describes one generated page. Zero sizes default to US Letter.
type Page struct {
	Label         string
	Width, Height float64
}

// Mark is a bookmark on a 0-based page. Levels start at 0 and may only
// grow by one from one mark to the next.
type Mark struct {
	Title string
	Page  int
	Level int
}

// Build renders pages, each showing its label, with marks as the outline.
func Build(pages []Page, marks ...Mark) ([]byte, error) {
	f := fpdf.New("P", "pt", "Letter", "")
	f.SetCompression(false)
	f.SetFont("Helvetica", "", 24)

	for i, p := range pages {
		w, h := p.Width, p.Height
		if w == 0 || h == 0 {
			w, h = 612, 792
		}
		f.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		f.Text(36, 72, p.Label)
		for _, m := range marks {
			if m.Page == i {
				f.Bookmark(m.Title, m.Level, 0)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustBuild is Build for tests.
func MustBuild(t testing.TB, pages []Page, marks ...Mark) []byte {
	t.Helper()
	data, err := Build(pages, marks...)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return data
}

// Labelled returns n default-size pages labelled prefix1..prefixN.
func Labelled(prefix string, n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Label: fmt.Sprintf("%s%d", prefix, i+1)}
	}
	return pages
}

// Info is what Inspect reads back from a PDF.
type Info struct {
	Texts   []string     // Plain text of every page
	Sizes   [][2]float64 // Media box width and height of every page
	Outline []string     // Bookmark titles, depth-first
}

// Pages returns the number of pages.
func (i Info) Pages() int {
	return len(i.Texts)
}

// Inspect parses data with ledongthuc/pdf.
func Inspect(t testing.TB, data []byte) Info {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}

	var info Info
	for n := 1; n <= r.NumPage(); n++ {
		p := r.Page(n)
		text, err := p.GetPlainText(nil)
		if err != nil {
			t.Fatalf("page %d text: %v", n, err)
		}
		info.Texts = append(info.Texts, strings.TrimSpace(text))

		box := mediaBox(p)
		info.Sizes = append(info.Sizes, [2]float64{
			box.Index(2).Float64() - box.Index(0).Float64(),
			box.Index(3).Float64() - box.Index(1).Float64(),
		})
	}

	var walk func(o pdf.Outline)
	walk = func(o pdf.Outline) {
		for _, c := range o.Child {
			info.Outline = append(info.Outline, c.Title)
			walk(c)
		}
	}
	walk(r.Outline())
	return info
}

// mediaBox looks the box up on the page, then on its ancestors.
func mediaBox(p pdf.Page) pdf.Value {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if box := v.Key("MediaBox"); !box.IsNull() {
			return box
		}
	}
	return pdf.Value{}
}

// StripDest removes the destination and action of every outline item
// titled title, keeping the item and its children.
func StripDest(t testing.TB, data []byte, title string) []byte {
	t.Helper()
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if ctx.Outlines == nil {
		t.Fatalf("pdf has no outline")
	}

	found := false
	var walk func(ir *types.IndirectRef)
	walk = func(ir *types.IndirectRef) {
		for ir != nil {
			d, err := ctx.DereferenceDict(*ir)
			if err != nil || d == nil {
				t.Fatalf("outline item %v: %v", ir, err)
			}
			if o, err := ctx.Dereference(d["Title"]); err == nil {
				if s, err := model.Text(o); err == nil && s == title {
					d.Delete("Dest")
					d.Delete("A")
					found = true
				}
			}
			walk(d.IndirectRefEntry("First"))
			ir = d.IndirectRefEntry("Next")
		}
	}
	walk(ctx.Outlines.IndirectRefEntry("First"))
	if !found {
		t.Fatalf("no outline item titled %q", title)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return buf.Bytes()
}
