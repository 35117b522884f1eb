package pdfcodec_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/dgallion1/pdfsplice/internal/document"
	"github.com/dgallion1/pdfsplice/internal/outline"
	"github.com/dgallion1/pdfsplice/internal/pdfcodec"
	"github.com/dgallion1/pdfsplice/internal/pdftest"
	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/dgallion1/pdfsplice/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() (*restructure.Engine, *sink.Memory) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := sink.NewMemory()
	return restructure.New(pdfcodec.New(log), mem, log), mem
}

func stored(t *testing.T, mem *sink.Memory, d restructure.OutputDocument) pdftest.Info {
	t.Helper()
	_, data, err := mem.Fetch(context.Background(), d.ID)
	require.NoError(t, err)
	return pdftest.Inspect(t, data)
}

func TestMergeRealDocuments(t *testing.T) {
	e, mem := newEngine()
	a := pdftest.MustBuild(t, pdftest.Labelled("a", 3), pdftest.Mark{Title: "A start", Page: 0})
	b := pdftest.MustBuild(t, []pdftest.Page{{Label: "b1", Width: 400, Height: 400}, {Label: "b2"}}, pdftest.Mark{Title: "B end", Page: 1})

	res, err := e.Merge(context.Background(), restructure.MergeRequest{
		Documents:               []restructure.Input{{Name: "a.pdf", Data: a}, {Name: "b.pdf", Data: b}},
		PreserveBookmarks:       true,
		PageSizeStandardization: restructure.KeepOriginal,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalPages)
	assert.Equal(t, 2, res.SourceDocumentCount)

	info := stored(t, mem, res.MergedDocument)
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, info.Texts)
	assert.Equal(t, []string{"a.pdf - A start", "b.pdf - B end"}, info.Outline)
	assert.InDelta(t, 400, info.Sizes[3][0], 0.01)
}

func TestSplitRealDocumentByRange(t *testing.T) {
	e, mem := newEngine()
	data := pdftest.MustBuild(t, pdftest.Labelled("p", 10))

	res, err := e.SplitByRange(context.Background(), restructure.SplitByRangeRequest{
		Document:   restructure.Input{Name: "ten.pdf", Data: data},
		PageRanges: "1-3,5-7,9-10",
	})
	require.NoError(t, err)
	require.Len(t, res.SplitDocuments, 3)

	want := [][]string{{"p1", "p2", "p3"}, {"p5", "p6", "p7"}, {"p9", "p10"}}
	for i, d := range res.SplitDocuments {
		assert.Equal(t, want[i], stored(t, mem, d).Texts)
	}
}

func TestSplitRealDocumentByBookmark(t *testing.T) {
	e, mem := newEngine()
	data := pdftest.MustBuild(t, pdftest.Labelled("p", 6),
		pdftest.Mark{Title: "Part One", Page: 0},
		pdftest.Mark{Title: "Nested", Page: 1, Level: 1},
		pdftest.Mark{Title: "Part Two", Page: 4},
	)

	res, err := e.SplitByBookmark(context.Background(), restructure.SplitByBookmarkRequest{
		Document: restructure.Input{Data: data},
	})
	require.NoError(t, err)
	require.Len(t, res.SplitDocuments, 2)
	assert.Equal(t, "Part_One.pdf", res.SplitDocuments[0].Filename)
	assert.Equal(t, []string{"p5", "p6"}, stored(t, mem, res.SplitDocuments[1]).Texts)
}

func TestSplitRealDocumentBySize(t *testing.T) {
	e, mem := newEngine()
	data := pdftest.MustBuild(t, pdftest.Labelled("p", 4))

	res, err := e.SplitBySize(context.Background(), restructure.SplitBySizeRequest{
		Document:      restructure.Input{Data: data},
		MaxFileSizeMB: 1,
	})
	require.NoError(t, err)
	require.Len(t, res.SplitDocuments, 1)
	assert.Equal(t, 4, stored(t, mem, res.SplitDocuments[0]).Pages())
}

func TestRoundTripRealDocuments(t *testing.T) {
	e, mem := newEngine()
	var inputs []restructure.Input
	for _, label := range []string{"x", "y", "z"} {
		inputs = append(inputs, restructure.Input{Data: pdftest.MustBuild(t, []pdftest.Page{{Label: label}})})
	}

	merged, err := e.Merge(context.Background(), restructure.MergeRequest{Documents: inputs})
	require.NoError(t, err)
	_, data, err := mem.Fetch(context.Background(), merged.MergedDocument.ID)
	require.NoError(t, err)

	res, err := e.SplitByPage(context.Background(), restructure.SplitByPageRequest{
		Document:     restructure.Input{Data: data},
		PagesPerFile: 1,
	})
	require.NoError(t, err)
	require.Len(t, res.SplitDocuments, 3)
	for i, label := range []string{"x", "y", "z"} {
		assert.Equal(t, []string{label}, stored(t, mem, res.SplitDocuments[i]).Texts)
	}
}

func TestMergeKeepsBookmarkWithoutDestination(t *testing.T) {
	e, mem := newEngine()
	first := pdftest.MustBuild(t, pdftest.Labelled("f", 2), pdftest.Mark{Title: "Front", Page: 0})
	second := pdftest.StripDest(t, pdftest.MustBuild(t, pdftest.Labelled("s", 3),
		pdftest.Mark{Title: "A", Page: 0},
		pdftest.Mark{Title: "G", Page: 1},
		pdftest.Mark{Title: "G1", Page: 1, Level: 1},
		pdftest.Mark{Title: "C", Page: 2},
	), "G")

	res, err := e.Merge(context.Background(), restructure.MergeRequest{
		Documents:               []restructure.Input{{Name: "f.pdf", Data: first}, {Name: "s.pdf", Data: second}},
		PreserveBookmarks:       true,
		PageSizeStandardization: restructure.KeepOriginal,
	})
	require.NoError(t, err)

	info := stored(t, mem, res.MergedDocument)
	assert.Equal(t, []string{"f.pdf - Front", "s.pdf - A", "s.pdf - G", "s.pdf - G1", "s.pdf - C"}, info.Outline)

	_, data, err := mem.Fetch(context.Background(), res.MergedDocument.ID)
	require.NoError(t, err)
	back, err := pdfcodec.New(slog.New(slog.NewTextHandler(io.Discard, nil))).Decode("", data)
	require.NoError(t, err)
	defer back.Close()

	require.Len(t, back.Outline, 4)
	g := back.Outline[2]
	assert.Nil(t, g.Dest)
	require.Len(t, g.Children, 1)
	page, ok := outline.Resolve(g.Children[0], back)
	require.True(t, ok)
	assert.Equal(t, 3, page)
}

func TestMergeKeepsOutOfOrderBookmarks(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec := pdfcodec.New(log)

	// A source whose outline points backwards, like a trailing index entry.
	plain, err := codec.Decode("", pdftest.MustBuild(t, pdftest.Labelled("o", 3)))
	require.NoError(t, err)
	defer plain.Close()
	w := document.NewWorking()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Import(plain, i))
	}
	w.AppendBookmark(&document.Bookmark{Title: "Body", Dest: document.PageDest(1)})
	w.AppendBookmark(&document.Bookmark{Title: "Index", Dest: document.PageDest(0)})
	backwards, err := codec.Encode(w)
	require.NoError(t, err)

	e, mem := newEngine()
	res, err := e.Merge(context.Background(), restructure.MergeRequest{
		Documents: []restructure.Input{
			{Name: "b.pdf", Data: pdftest.MustBuild(t, pdftest.Labelled("b", 2), pdftest.Mark{Title: "B", Page: 1})},
			{Name: "o.pdf", Data: backwards},
		},
		PreserveBookmarks:       true,
		PageSizeStandardization: restructure.KeepOriginal,
	})
	require.NoError(t, err)

	info := stored(t, mem, res.MergedDocument)
	assert.Equal(t, []string{"b1", "b2", "o1", "o2", "o3"}, info.Texts)
	assert.Equal(t, []string{"b.pdf - B", "o.pdf - Body", "o.pdf - Index"}, info.Outline)
}

func TestMergeStandardizesPageSize(t *testing.T) {
	a := pdftest.MustBuild(t, []pdftest.Page{{Label: "a1"}, {Label: "a2", Width: 300, Height: 300}})
	b := pdftest.MustBuild(t, []pdftest.Page{{Label: "b1", Width: 400, Height: 400}})

	for _, tc := range []struct {
		policy restructure.PageSizePolicy
		w, h   float64
	}{
		{restructure.UseLargest, 612, 792},
		{restructure.UseFirst, 400, 400},
		{restructure.A4, document.A4.Width, document.A4.Height},
	} {
		t.Run(string(tc.policy), func(t *testing.T) {
			e, mem := newEngine()
			res, err := e.Merge(context.Background(), restructure.MergeRequest{
				Documents:               []restructure.Input{{Name: "b.pdf", Data: b}, {Name: "a.pdf", Data: a}},
				PageSizeStandardization: tc.policy,
			})
			require.NoError(t, err)

			info := stored(t, mem, res.MergedDocument)
			assert.Equal(t, []string{"b1", "a1", "a2"}, info.Texts)
			for i, size := range info.Sizes {
				assert.InDelta(t, tc.w, size[0], 0.01, "page %d width", i+1)
				assert.InDelta(t, tc.h, size[1], 0.01, "page %d height", i+1)
			}
		})
	}
}

func TestSplitByBookmarkIntoDirKeepsDuplicateTitles(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	out, err := sink.NewDir(dir)
	require.NoError(t, err)
	e := restructure.New(pdfcodec.New(log), out, log)

	data := pdftest.MustBuild(t, pdftest.Labelled("p", 4),
		pdftest.Mark{Title: "Chapter", Page: 0},
		pdftest.Mark{Title: "Chapter", Page: 2},
	)
	res, err := e.SplitByBookmark(context.Background(), restructure.SplitByBookmarkRequest{
		Document: restructure.Input{Data: data},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, "Chapter.pdf", res.SplitDocuments[0].Filename)
	assert.Equal(t, "Chapter-2.pdf", res.SplitDocuments[1].Filename)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	for i, want := range [][]string{{"p1", "p2"}, {"p3", "p4"}} {
		_, body, err := out.Fetch(context.Background(), res.SplitDocuments[i].ID)
		require.NoError(t, err)
		assert.Equal(t, want, pdftest.Inspect(t, body).Texts)
	}
}
