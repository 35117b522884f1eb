// Package restructure merges and splits PDF documents.
//
// Every operation runs the same four phases: load the inputs through the
// codec, build the output page plans, serialize every output, then hand the
// encoded outputs to the sink. Nothing is stored unless all outputs
// serialized, and outputs already stored are removed again when a later
// store fails and the sink supports removal.
package restructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgallion1/pdfsplice/internal/document"
	"github.com/dgallion1/pdfsplice/internal/outline"
	"github.com/dgallion1/pdfsplice/internal/packer"
	"github.com/dgallion1/pdfsplice/internal/pagerange"
	"github.com/dgallion1/pdfsplice/internal/sink"
	"github.com/go-playground/validator/v10"
)

// Engine runs restructuring operations. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	codec    document.Codec
	sink     sink.Sink
	log      *slog.Logger
	validate *validator.Validate
}

// New returns an engine that decodes and encodes with codec and stores
// every output in s.
func New(codec document.Codec, s sink.Sink, log *slog.Logger) *Engine {
	return &Engine{
		codec:    codec,
		sink:     s,
		log:      log,
		validate: newValidator(),
	}
}

// encoded is a serialized output waiting to be stored.
type encoded struct {
	data     []byte
	filename string
	pages    int
}

// Merge concatenates req.Documents in order into one document.
func (e *Engine) Merge(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	req.applyDefaults()
	if err := e.check(&req); err != nil {
		return nil, err
	}
	log := e.log.With("op", "merge")
	log.Info("merging documents", "documents", len(req.Documents), "policy", req.PageSizeStandardization, "bookmarks", req.PreserveBookmarks)

	var sources []*document.Source
	defer func() { closeSources(log, sources) }()
	for i, in := range req.Documents {
		src, err := e.load(log, in, i)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	log.Debug("transform")
	target := Reconcile(sources, req.PageSizeStandardization, log)
	w := document.NewWorking()
	defer w.Close()

	totalPages := 0
	for i, src := range sources {
		offset := w.PageCount()
		for p := 0; p < src.PageCount(); p++ {
			var err error
			if target != nil {
				err = w.ImportResized(src, p, *target)
			} else {
				err = w.Import(src, p)
			}
			if err != nil {
				return nil, newError(CodeMergeFailure, err, "import page %d of %s", p+1, displayName(req.Documents[i], i))
			}
		}
		totalPages += src.PageCount()
		if req.PreserveBookmarks {
			outline.Copy(src, w, req.Documents[i].Name, offset, log)
		}
	}

	log.Debug("serialize", "pages", w.PageCount())
	data, err := e.codec.Encode(w)
	if err != nil {
		return nil, newError(CodeMergeFailure, err, "failed to merge PDF documents")
	}

	docs, err := e.emit(ctx, log, CodeMergeFailure, []encoded{{data: data, filename: req.OutputFilename, pages: w.PageCount()}})
	if err != nil {
		return nil, err
	}

	log.Info("merged documents", "documents", len(sources), "pages", totalPages, "bytes", len(data))
	return &MergeResult{
		MergedDocument:      docs[0],
		TotalPages:          totalPages,
		SourceDocumentCount: len(sources),
		FileSizeBytes:       int64(len(data)),
	}, nil
}

// SplitByPage cuts the document into consecutive runs of req.PagesPerFile
// pages; the last run may be shorter.
func (e *Engine) SplitByPage(ctx context.Context, req SplitByPageRequest) (*SplitResult, error) {
	defaultPattern(&req.OutputPattern, DefaultPagePattern)
	if err := e.check(&req); err != nil {
		return nil, err
	}
	log := e.log.With("op", "split_by_page")
	log.Info("splitting document by page count", "document", req.Document.Name, "pages_per_file", req.PagesPerFile)

	return e.split(ctx, log, req.Document, ByPage, func(src *document.Source) ([]encoded, error) {
		var outs []encoded
		for start, n := 0, 1; start < src.PageCount(); start, n = start+req.PagesPerFile, n+1 {
			end := min(start+req.PagesPerFile, src.PageCount())
			out, err := e.encodePages(src, start, end-1)
			if err != nil {
				return nil, newError(CodeSplitFailure, err, "failed to split PDF by page")
			}
			out.filename = ExpandPattern(req.OutputPattern, indexVars(n))
			outs = append(outs, out)
		}
		return outs, nil
	})
}

// SplitByRange writes one document per range of req.PageRanges, in the
// order the ranges are written.
func (e *Engine) SplitByRange(ctx context.Context, req SplitByRangeRequest) (*SplitResult, error) {
	defaultPattern(&req.OutputPattern, DefaultRangePattern)
	if err := e.check(&req); err != nil {
		return nil, err
	}
	log := e.log.With("op", "split_by_range")
	log.Info("splitting document by ranges", "document", req.Document.Name, "ranges", req.PageRanges)

	return e.split(ctx, log, req.Document, ByRange, func(src *document.Source) ([]encoded, error) {
		ranges, err := pagerange.Parse(req.PageRanges, src.PageCount())
		if err != nil {
			return nil, &Error{Code: CodeInvalidRange, Message: err.Error(), Err: err}
		}
		outs := make([]encoded, 0, len(ranges))
		for i, r := range ranges {
			out, err := e.encodePages(src, r.Start-1, r.End-1)
			if err != nil {
				return nil, newError(CodeSplitFailure, err, "failed to split PDF by range %s", r)
			}
			out.filename = ExpandPattern(req.OutputPattern, map[string]string{
				"index": strconv.Itoa(i + 1),
				"start": strconv.Itoa(r.Start),
				"end":   strconv.Itoa(r.End),
			})
			outs = append(outs, out)
		}
		return outs, nil
	})
}

// SplitByBookmark writes one document per resolvable root bookmark.
func (e *Engine) SplitByBookmark(ctx context.Context, req SplitByBookmarkRequest) (*SplitResult, error) {
	defaultPattern(&req.OutputPattern, DefaultBookmarkPattern)
	if err := e.check(&req); err != nil {
		return nil, err
	}
	log := e.log.With("op", "split_by_bookmark")
	log.Info("splitting document by bookmarks", "document", req.Document.Name, "top_level_only", req.TopLevelOnly)

	return e.split(ctx, log, req.Document, ByBookmark, func(src *document.Source) ([]encoded, error) {
		if src.Outline == nil {
			return nil, &Error{Code: CodeNoBookmarks, Message: "PDF document does not contain any bookmarks", Err: outline.ErrNoBookmarks}
		}
		sections, err := outline.Sections(src, req.TopLevelOnly)
		if err != nil {
			return nil, &Error{Code: CodeNoBookmarks, Message: "no valid bookmarks found in PDF document", Err: err}
		}
		outs := make([]encoded, 0, len(sections))
		for i, s := range sections {
			out, err := e.encodePages(src, s.StartPage, s.EndPage)
			if err != nil {
				return nil, newError(CodeSplitFailure, err, "failed to split PDF by bookmark %q", s.Title)
			}
			out.filename = ExpandPattern(req.OutputPattern, map[string]string{
				"bookmark": SanitizeTitle(s.Title),
				"index":    strconv.Itoa(i + 1),
			})
			outs = append(outs, out)
		}
		return outs, nil
	})
}

// SplitBySize packs pages into documents of at most req.MaxFileSizeMB
// megabytes each. A single page that is larger on its own still gets a
// document of its own.
func (e *Engine) SplitBySize(ctx context.Context, req SplitBySizeRequest) (*SplitResult, error) {
	defaultPattern(&req.OutputPattern, DefaultSizePattern)
	if err := e.check(&req); err != nil {
		return nil, err
	}
	log := e.log.With("op", "split_by_size")
	log.Info("splitting document by size", "document", req.Document.Name, "max_mb", req.MaxFileSizeMB)

	return e.split(ctx, log, req.Document, BySize, func(src *document.Source) ([]encoded, error) {
		chunks, err := packer.Pack(src, packer.Config{MaxBytes: int64(req.MaxFileSizeMB) * packer.BytesPerMB}, e.codec)
		if err != nil {
			return nil, newError(CodeSplitFailure, err, "failed to split PDF by size")
		}
		outs := make([]encoded, len(chunks))
		for i, c := range chunks {
			outs[i] = encoded{
				data:     c.Data,
				filename: ExpandPattern(req.OutputPattern, indexVars(i+1)),
				pages:    c.PageCount,
			}
		}
		return outs, nil
	})
}

// split loads one document, lets build produce the encoded outputs and
// stores them.
func (e *Engine) split(ctx context.Context, log *slog.Logger, in Input, method SplitMethod, build func(*document.Source) ([]encoded, error)) (*SplitResult, error) {
	src, err := e.load(log, in, 0)
	if err != nil {
		return nil, err
	}
	defer closeSources(log, []*document.Source{src})

	log.Debug("transform", "pages", src.PageCount())
	outs, err := build(src)
	if err != nil {
		return nil, err
	}

	docs, err := e.emit(ctx, log, CodeSplitFailure, outs)
	if err != nil {
		return nil, err
	}

	log.Info("split document", "pages", src.PageCount(), "files", len(docs))
	return &SplitResult{
		SplitDocuments: docs,
		TotalFiles:     len(docs),
		OriginalPages:  src.PageCount(),
		SplitMethod:    method,
	}, nil
}

func (e *Engine) check(req any) error {
	if err := e.validate.Struct(req); err != nil {
		return &Error{Code: CodeInvalidRequest, Message: describeValidation(err), Err: err}
	}
	return nil
}

func (e *Engine) load(log *slog.Logger, in Input, i int) (*document.Source, error) {
	log.Debug("load", "document", displayName(in, i), "bytes", len(in.Data))
	src, err := e.codec.Decode(in.Name, in.Data)
	if err != nil {
		return nil, newError(CodeDecode, err, "failed to load %s", displayName(in, i))
	}
	return src, nil
}

// encodePages serializes source pages first..last (0-based, inclusive).
// Indices outside the source are skipped, so first > last yields an empty
// document.
func (e *Engine) encodePages(src *document.Source, first, last int) (encoded, error) {
	w := document.NewWorking()
	defer w.Close()
	for p := max(first, 0); p <= last && p < src.PageCount(); p++ {
		if err := w.Import(src, p); err != nil {
			return encoded{}, err
		}
	}
	data, err := e.codec.Encode(w)
	if err != nil {
		return encoded{}, err
	}
	return encoded{data: data, pages: w.PageCount()}, nil
}

// emit stores outs in order. On failure every output stored so far is
// removed again when the sink supports it.
func (e *Engine) emit(ctx context.Context, log *slog.Logger, code Code, outs []encoded) ([]OutputDocument, error) {
	log.Debug("emit", "documents", len(outs))
	docs := make([]OutputDocument, 0, len(outs))
	for _, o := range outs {
		err := ctx.Err()
		var h sink.Handle
		if err == nil {
			h, err = e.sink.Create(ctx, o.data, o.filename, ContentTypePDF)
		}
		if err != nil {
			e.discard(ctx, log, docs)
			return nil, newError(code, err, "failed to store %s", o.filename)
		}
		docs = append(docs, OutputDocument{Handle: h, PageCount: o.pages})
	}
	return docs, nil
}

func (e *Engine) discard(ctx context.Context, log *slog.Logger, docs []OutputDocument) {
	if len(docs) == 0 {
		return
	}
	r, ok := e.sink.(sink.Remover)
	if !ok {
		log.Warn("sink cannot remove partial outputs", "stored", len(docs))
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, d := range docs {
		if err := r.Remove(ctx, d.ID); err != nil && !errors.Is(err, sink.ErrNotFound) {
			log.Warn("failed to remove partial output", "id", d.ID, "filename", d.Filename, "error", err)
		}
	}
}

func closeSources(log *slog.Logger, sources []*document.Source) {
	for _, src := range sources {
		if err := src.Close(); err != nil {
			log.Warn("failed to close document", "document", src.Name, "error", err)
		}
	}
}

func displayName(in Input, i int) string {
	if in.Name != "" {
		return in.Name
	}
	return fmt.Sprintf("Document%d", i+1)
}
