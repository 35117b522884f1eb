package pdfcodec

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/pdfsplice/internal/document"
	"github.com/dgallion1/pdfsplice/internal/outline"
	"github.com/dgallion1/pdfsplice/internal/pdftest"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func decode(t *testing.T, c *Codec, name string, data []byte) *document.Source {
	t.Helper()
	src, err := c.Decode(name, data)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestDecode(t *testing.T) {
	c := New(discard)
	data := pdftest.MustBuild(t,
		[]pdftest.Page{{Label: "one"}, {Label: "two", Width: 300, Height: 400}, {Label: "three"}},
		pdftest.Mark{Title: "Intro", Page: 0},
		pdftest.Mark{Title: "Detail", Page: 1, Level: 1},
		pdftest.Mark{Title: "Outro", Page: 2},
	)

	src := decode(t, c, "in.pdf", data)
	assert.Equal(t, "in.pdf", src.Name)
	require.Equal(t, 3, src.PageCount())

	g, err := src.PageGeometry(1)
	require.NoError(t, err)
	assert.InDelta(t, 300, g.Width, 0.01)
	assert.InDelta(t, 400, g.Height, 0.01)

	for i, p := range src.Pages {
		assert.NotZero(t, p.Ref, "page %d", i)
		assert.Equal(t, i, src.IndexOf(p.Ref))
	}

	require.Len(t, src.Outline, 2)
	assert.Equal(t, "Intro", src.Outline[0].Title)
	assert.Equal(t, src.Pages[0].Ref, src.Outline[0].Dest.Ref)
	assert.Equal(t, 0, resolved(t, src.Outline[0], src))
	require.Len(t, src.Outline[0].Children, 1)
	assert.Equal(t, "Detail", src.Outline[0].Children[0].Title)
	assert.Equal(t, 1, resolved(t, src.Outline[0].Children[0], src))
	assert.Equal(t, 2, resolved(t, src.Outline[1], src))
}

func resolved(t *testing.T, b *document.Bookmark, src *document.Source) int {
	t.Helper()
	page, ok := outline.Resolve(b, src)
	require.True(t, ok, "bookmark %q does not resolve", b.Title)
	return page
}

func TestDecode_KeepsItemWithoutDestination(t *testing.T) {
	c := New(discard)
	data := pdftest.MustBuild(t, pdftest.Labelled("p", 3),
		pdftest.Mark{Title: "A", Page: 0},
		pdftest.Mark{Title: "G", Page: 1},
		pdftest.Mark{Title: "G1", Page: 1, Level: 1},
		pdftest.Mark{Title: "C", Page: 2},
	)
	src := decode(t, c, "", pdftest.StripDest(t, data, "G"))

	require.Len(t, src.Outline, 3)
	g := src.Outline[1]
	assert.Equal(t, "G", g.Title)
	assert.Nil(t, g.Dest)
	assert.Nil(t, g.GoTo)
	_, ok := outline.Resolve(g, src)
	assert.False(t, ok)

	require.Len(t, g.Children, 1)
	assert.Equal(t, "G1", g.Children[0].Title)
	assert.Equal(t, 1, resolved(t, g.Children[0], src))
	assert.Equal(t, "C", src.Outline[2].Title)
}

func TestDestination_IntegerIsPageIndex(t *testing.T) {
	ctx, err := pdfcpu.CreateContextWithXRefTable(conf(), types.PaperSize["A4"])
	require.NoError(t, err)
	r := outlineReader{ctx: ctx, log: discard, seen: map[int]bool{}}

	d := r.destination(types.Array{types.Integer(2), types.Name("Fit")})
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Page)

	d = r.destination(types.Array{*types.NewIndirectRef(7, 0), types.Name("Fit")})
	require.NotNil(t, d)
	assert.Equal(t, document.PageRef(7), d.Ref)

	assert.Nil(t, r.destination(types.Name("missing")))
	assert.Nil(t, r.destination(nil))
}

func TestDecode_NoOutline(t *testing.T) {
	src := decode(t, New(discard), "", pdftest.MustBuild(t, pdftest.Labelled("p", 2)))
	assert.Nil(t, src.Outline)
}

func TestDecode_Malformed(t *testing.T) {
	c := New(discard)
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("this is not a pdf at all"),
		"truncated": func() []byte {
			full := pdftest.MustBuild(t, pdftest.Labelled("p", 1))
			return full[:len(full)/3]
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode("bad.pdf", data)
			assert.ErrorIs(t, err, document.ErrMalformed)
		})
	}
}

func TestEncode_PageOrderAcrossSources(t *testing.T) {
	c := New(discard)
	a := decode(t, c, "a.pdf", pdftest.MustBuild(t, pdftest.Labelled("a", 3)))
	b := decode(t, c, "b.pdf", pdftest.MustBuild(t, pdftest.Labelled("b", 2)))

	w := document.NewWorking()
	for _, step := range []struct {
		src *document.Source
		i   int
	}{{a, 2}, {a, 0}, {b, 1}, {a, 1}, {b, 0}} {
		require.NoError(t, w.Import(step.src, step.i))
	}

	data, err := c.Encode(w)
	require.NoError(t, err)

	info := pdftest.Inspect(t, data)
	assert.Equal(t, []string{"a3", "a1", "b2", "a2", "b1"}, info.Texts)
	assert.Empty(t, info.Outline)
}

func TestEncode_DropsSourceOutline(t *testing.T) {
	c := New(discard)
	src := decode(t, c, "", pdftest.MustBuild(t, pdftest.Labelled("p", 2), pdftest.Mark{Title: "Old", Page: 0}))

	w := document.NewWorking()
	require.NoError(t, w.Import(src, 0))
	data, err := c.Encode(w)
	require.NoError(t, err)

	assert.Empty(t, pdftest.Inspect(t, data).Outline)
}

func TestEncode_MediaBoxOverride(t *testing.T) {
	c := New(discard)
	src := decode(t, c, "", pdftest.MustBuild(t, []pdftest.Page{{Label: "x"}, {Label: "y", Width: 200, Height: 200}}))

	w := document.NewWorking()
	require.NoError(t, w.ImportResized(src, 0, document.Geometry{Width: 500, Height: 700}))
	require.NoError(t, w.Import(src, 1))
	data, err := c.Encode(w)
	require.NoError(t, err)

	info := pdftest.Inspect(t, data)
	require.Equal(t, 2, info.Pages())
	assert.InDelta(t, 500, info.Sizes[0][0], 0.01)
	assert.InDelta(t, 700, info.Sizes[0][1], 0.01)
	assert.InDelta(t, 200, info.Sizes[1][0], 0.01)
}

func TestEncode_WritesOutline(t *testing.T) {
	c := New(discard)
	src := decode(t, c, "", pdftest.MustBuild(t, pdftest.Labelled("p", 3)))

	w := document.NewWorking()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Import(src, i))
	}
	w.AppendBookmark(&document.Bookmark{Title: "First", Dest: document.PageDest(0)})
	w.AppendBookmark(&document.Bookmark{
		Title:    "Group",
		Children: []*document.Bookmark{{Title: "Leaf", Dest: document.PageDest(2)}},
	})

	data, err := c.Encode(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Group", "Leaf"}, pdftest.Inspect(t, data).Outline)

	back := decode(t, c, "", data)
	require.Len(t, back.Outline, 2)
	assert.Equal(t, 0, resolved(t, back.Outline[0], back))
	assert.Nil(t, back.Outline[1].Dest)
	require.Len(t, back.Outline[1].Children, 1)
	assert.Equal(t, 2, resolved(t, back.Outline[1].Children[0], back))
}

func threePages(t *testing.T, c *Codec) *document.Working {
	t.Helper()
	src := decode(t, c, "", pdftest.MustBuild(t, pdftest.Labelled("p", 3)))
	w := document.NewWorking()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Import(src, i))
	}
	return w
}

func TestEncode_OutlineOutOfPageOrder(t *testing.T) {
	c := New(discard)
	w := threePages(t, c)
	w.AppendBookmark(&document.Bookmark{Title: "Late", Dest: document.PageDest(2), Children: []*document.Bookmark{
		{Title: "Earlier child", Dest: document.PageDest(1)},
	}})
	w.AppendBookmark(&document.Bookmark{Title: "Early", Dest: document.PageDest(0)})

	data, err := c.Encode(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"Late", "Earlier child", "Early"}, pdftest.Inspect(t, data).Outline)

	back := decode(t, c, "", data)
	require.Len(t, back.Outline, 2)
	assert.Equal(t, 2, resolved(t, back.Outline[0], back))
	assert.Equal(t, 1, resolved(t, back.Outline[0].Children[0], back))
	assert.Equal(t, 0, resolved(t, back.Outline[1], back))
}

func TestEncode_OutlineItemWithoutDestination(t *testing.T) {
	c := New(discard)
	w := threePages(t, c)
	w.AppendBookmark(&document.Bookmark{Title: "Chapter", Dest: document.PageDest(2)})
	w.AppendBookmark(&document.Bookmark{Title: "Appendix"})

	data, err := c.Encode(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chapter", "Appendix"}, pdftest.Inspect(t, data).Outline)

	back := decode(t, c, "", data)
	require.Len(t, back.Outline, 2)
	assert.Equal(t, 2, resolved(t, back.Outline[0], back))
	assert.Nil(t, back.Outline[1].Dest)
	assert.Nil(t, back.Outline[1].GoTo)
}

func TestEncode_Empty(t *testing.T) {
	c := New(discard)
	data, err := c.Encode(document.NewWorking())
	require.NoError(t, err)

	back := decode(t, c, "", data)
	assert.Zero(t, back.PageCount())
}

func TestRuns(t *testing.T) {
	a := document.NewSource("a", nil, make([]document.Page, 4), nil, nil)
	b := document.NewSource("b", nil, make([]document.Page, 4), nil, nil)
	pages := []document.WorkingPage{{Source: a, Index: 0}, {Source: a, Index: 3}, {Source: b, Index: 1}, {Source: a, Index: 2}}

	got := runs(pages)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"1", "4"}, got[0].selection)
	assert.Same(t, b, got[1].src)
	assert.Equal(t, []string{"3"}, got[2].selection)
}
