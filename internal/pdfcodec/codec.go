// Package pdfcodec reads and writes PDF documents with pdfcpu.
package pdfcodec

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfsplice/internal/document"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	api.DisableConfigDir()
}

// Codec implements document.Codec. It holds no mutable state and is safe
// for concurrent use.
type Codec struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Codec {
	return &Codec{log: log}
}

// conf returns a fresh configuration; pdfcpu mutates it during a call.
func conf() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}

// Decode parses data and records each page's object number and media box
// plus the outline.
func (c *Codec) Decode(name string, data []byte) (*document.Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", document.ErrMalformed)
	}
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrMalformed, err)
	}

	pages := make([]document.Page, ctx.PageCount)
	for i := range pages {
		_, ref, inherited, err := ctx.PageDict(i+1, false)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", document.ErrMalformed, i+1, err)
		}
		if ref != nil {
			pages[i].Ref = document.PageRef(ref.ObjectNumber.Value())
		}
		if inherited != nil && inherited.MediaBox != nil {
			pages[i].Geometry = &document.Geometry{
				Width:  inherited.MediaBox.Width(),
				Height: inherited.MediaBox.Height(),
			}
		}
	}

	return document.NewSource(name, data, pages, c.readOutline(ctx, name), nil), nil
}

// readOutline walks /Outlines item by item. Items keep their title and
// children even when they carry no usable destination. It returns nil
// when the document has no outline.
func (c *Codec) readOutline(ctx *model.Context, name string) []*document.Bookmark {
	if ctx.Outlines == nil {
		return nil
	}
	if err := ctx.LocateNameTree("Dests", false); err != nil {
		c.log.Debug("named destinations unavailable", "document", name, "error", err)
	}
	r := outlineReader{ctx: ctx, log: c.log, name: name, seen: map[int]bool{}}
	items := r.items(ctx.Outlines.IndirectRefEntry("First"))
	if len(items) == 0 {
		return nil
	}
	return items
}

type outlineReader struct {
	ctx  *model.Context
	log  *slog.Logger
	name string
	seen map[int]bool
}

// items reads the sibling chain starting at ir. An item seen before ends
// the chain.
func (r *outlineReader) items(ir *types.IndirectRef) []*document.Bookmark {
	var out []*document.Bookmark
	for ir != nil {
		nr := ir.ObjectNumber.Value()
		if r.seen[nr] {
			r.log.Warn("outline loops back, ignoring the rest of the chain", "document", r.name, "object", nr)
			break
		}
		r.seen[nr] = true

		d, err := r.ctx.DereferenceDict(*ir)
		if err != nil || d == nil {
			r.log.Warn("unreadable outline item", "document", r.name, "object", nr, "error", err)
			break
		}

		b := &document.Bookmark{Title: r.title(d)}
		if dest, ok := d["Dest"]; ok {
			b.Dest = r.destination(dest)
		}
		if act, err := r.ctx.DereferenceDict(d["A"]); err == nil && act != nil {
			if s, ok := act["S"].(types.Name); ok && s.Value() == "GoTo" {
				b.GoTo = r.destination(act["D"])
			}
		}
		b.Children = r.items(d.IndirectRefEntry("First"))

		out = append(out, b)
		ir = d.IndirectRefEntry("Next")
	}
	return out
}

func (r *outlineReader) title(d types.Dict) string {
	o, err := r.ctx.Dereference(d["Title"])
	if err != nil || o == nil {
		return ""
	}
	s, err := model.Text(o)
	if err != nil {
		return ""
	}
	return strings.Map(func(ch rune) rune {
		if ch < 32 {
			return -1
		}
		return ch
	}, s)
}

// destination reads an explicit or named destination. A page reference
// becomes a Ref destination; an integer is already a 0-based page index.
func (r *outlineReader) destination(o types.Object) *document.Destination {
	o, err := r.ctx.Dereference(o)
	if err != nil || o == nil {
		return nil
	}

	var arr types.Array
	switch v := o.(type) {
	case types.Array:
		arr = v
	case types.Dict:
		arr, err = r.ctx.DereferenceArray(v["D"])
	case types.Name:
		arr, err = r.ctx.DereferenceDestArray(v.Value())
	case types.StringLiteral:
		var s string
		if s, err = types.StringLiteralToString(v); err == nil {
			arr, err = r.ctx.DereferenceDestArray(s)
		}
	case types.HexLiteral:
		var s string
		if s, err = types.HexLiteralToString(v); err == nil {
			arr, err = r.ctx.DereferenceDestArray(s)
		}
	}
	if err != nil || len(arr) == 0 {
		return nil
	}

	switch first := arr[0].(type) {
	case types.IndirectRef:
		return document.RefDest(document.PageRef(first.ObjectNumber.Value()))
	case types.Integer:
		return document.PageDest(first.Value())
	}
	return nil
}

// Encode writes w's pages in order. Runs of pages taken from the same
// source are collected in one pass and the runs are merged; page size
// overrides and the outline are applied to the result.
func (c *Codec) Encode(w *document.Working) ([]byte, error) {
	if w.PageCount() == 0 {
		return emptyDocument()
	}

	var parts []io.ReadSeeker
	for _, run := range runs(w.Pages()) {
		var buf bytes.Buffer
		if err := api.Collect(bytes.NewReader(run.src.Data), &buf, run.selection, conf()); err != nil {
			return nil, fmt.Errorf("collect pages from %s: %w", run.src.Name, err)
		}
		parts = append(parts, bytes.NewReader(buf.Bytes()))
	}

	data, err := merge(parts)
	if err != nil {
		return nil, err
	}
	return c.finalize(data, w.Pages(), w.Outline())
}

// run is a maximal sequence of consecutive working pages from one source.
type run struct {
	src       *document.Source
	selection []string
}

func runs(pages []document.WorkingPage) []run {
	var out []run
	for _, p := range pages {
		if len(out) == 0 || out[len(out)-1].src != p.Source {
			out = append(out, run{src: p.Source})
		}
		last := &out[len(out)-1]
		last.selection = append(last.selection, strconv.Itoa(p.Index+1))
	}
	return out
}

func merge(parts []io.ReadSeeker) ([]byte, error) {
	if len(parts) == 1 {
		return io.ReadAll(parts[0])
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(parts, &buf, false, conf()); err != nil {
		return nil, fmt.Errorf("merge page runs: %w", err)
	}
	return buf.Bytes(), nil
}

// finalize replaces any outline carried over from the sources with marks
// and applies media box overrides.
func (c *Codec) finalize(data []byte, pages []document.WorkingPage, marks []*document.Bookmark) ([]byte, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf())
	if err != nil {
		return nil, fmt.Errorf("reread output: %w", err)
	}
	if ctx.PageCount != len(pages) {
		return nil, fmt.Errorf("output has %d pages, expected %d", ctx.PageCount, len(pages))
	}

	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	root.Delete("Outlines")

	for i, p := range pages {
		if p.Override == nil {
			continue
		}
		d, _, _, err := ctx.PageDict(i+1, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		d.Update("MediaBox", types.NewRectangle(0, 0, p.Override.Width, p.Override.Height).Array())
		d.Delete("CropBox")
	}

	if len(marks) > 0 {
		if err := c.writeOutline(ctx, root, marks); err != nil {
			c.log.Warn("failed to write outline, document saved without bookmarks", "error", err)
			root.Delete("Outlines")
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return buf.Bytes(), nil
}

func emptyDocument() ([]byte, error) {
	ctx, err := pdfcpu.CreateContextWithXRefTable(conf(), types.PaperSize["A4"])
	if err != nil {
		return nil, fmt.Errorf("create empty document: %w", err)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("write empty document: %w", err)
	}
	return buf.Bytes(), nil
}

// writeOutline installs marks as the document outline. Items keep their
// order as given; an item without a destination is written without one.
func (c *Codec) writeOutline(ctx *model.Context, root types.Dict, marks []*document.Bookmark) error {
	outlines := types.Dict{"Type": types.Name("Outlines")}
	ir, err := ctx.IndRefForNewObject(outlines)
	if err != nil {
		return err
	}
	first, last, total, err := c.outlineItems(ctx, marks, *ir)
	if err != nil {
		return err
	}
	outlines["First"] = *first
	outlines["Last"] = *last
	outlines["Count"] = types.Integer(total)
	root["Outlines"] = *ir
	return nil
}

// outlineItems writes one sibling chain, all items open, and returns its
// ends plus the number of items including descendants.
func (c *Codec) outlineItems(ctx *model.Context, marks []*document.Bookmark, parent types.IndirectRef) (first, last *types.IndirectRef, total int, err error) {
	var prev types.Dict
	for _, m := range marks {
		title, err := types.EscapedUTF16String(m.Title)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("bookmark %q: %w", m.Title, err)
		}
		d := types.Dict{
			"Title":  types.StringLiteral(*title),
			"Parent": parent,
		}
		if m.Dest != nil {
			if _, page, _, err := ctx.PageDict(m.Dest.Page+1, false); err == nil && page != nil {
				d["Dest"] = types.Array{*page, types.Name("Fit")}
			} else {
				c.log.Warn("bookmark page missing from output, writing it without destination", "title", m.Title, "page", m.Dest.Page+1)
			}
		}

		ir, err := ctx.IndRefForNewObject(d)
		if err != nil {
			return nil, nil, 0, err
		}
		total++

		if len(m.Children) > 0 {
			kidFirst, kidLast, n, err := c.outlineItems(ctx, m.Children, *ir)
			if err != nil {
				return nil, nil, 0, err
			}
			d["First"] = *kidFirst
			d["Last"] = *kidLast
			d["Count"] = types.Integer(n)
			total += n
		}

		if first == nil {
			first = ir
		}
		if prev != nil {
			d["Prev"] = *last
			prev["Next"] = *ir
		}
		prev = d
		last = ir
	}
	return first, last, total, nil
}
