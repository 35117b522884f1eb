package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/dgallion1/pdfsplice/internal/sink"
)

// Operation names one engine entry point.
type Operation string

const (
	OpMerge           Operation = "merge"
	OpSplitByPage     Operation = "split-page"
	OpSplitByRange    Operation = "split-range"
	OpSplitByBookmark Operation = "split-bookmark"
	OpSplitBySize     Operation = "split-size"
)

// Operations lists every supported operation.
var Operations = []Operation{OpMerge, OpSplitByPage, OpSplitByRange, OpSplitByBookmark, OpSplitBySize}

// ParseOperation reports whether s names a supported operation.
func ParseOperation(s string) (Operation, bool) {
	for _, op := range Operations {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// CodeDocumentNotFound is reported when a referenced document id is unknown.
const CodeDocumentNotFound = "DOCUMENT_NOT_FOUND"

// Request is an operation over stored documents. Only the fields of the
// chosen operation are read; empty patterns and filenames take the engine
// defaults.
type Request struct {
	Operation   Operation `json:"operation"`
	DocumentIDs []string  `json:"documentIds"`

	OutputFilename          string                     `json:"outputFilename,omitempty"`
	PreserveBookmarks       bool                       `json:"preserveBookmarks,omitempty"`
	PageSizeStandardization restructure.PageSizePolicy `json:"pageSizeStandardization,omitempty"`

	PagesPerFile  int    `json:"pagesPerFile,omitempty"`
	PageRanges    string `json:"pageRanges,omitempty"`
	TopLevelOnly  bool   `json:"topLevelOnly,omitempty"`
	MaxFileSizeMB int    `json:"maxFileSizeMb,omitempty"`
	OutputPattern string `json:"outputPattern,omitempty"`
}

// Validate checks the parts of the request the engine cannot see.
func (r Request) Validate() error {
	if _, ok := ParseOperation(string(r.Operation)); !ok {
		return &restructure.Error{Code: restructure.CodeInvalidRequest, Message: fmt.Sprintf("unknown operation %q", r.Operation)}
	}
	if r.Operation != OpMerge && len(r.DocumentIDs) != 1 {
		return &restructure.Error{Code: restructure.CodeInvalidRequest, Message: "split operations take exactly one document id"}
	}
	return nil
}

// ErrorCode classifies err for API and job responses.
func ErrorCode(err error) string {
	if code := restructure.CodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, sink.ErrNotFound) {
		return CodeDocumentNotFound
	}
	return "INTERNAL_ERROR"
}

// Runner resolves stored documents and hands them to the engine.
type Runner struct {
	engine *restructure.Engine
	docs   sink.Fetcher
	log    *slog.Logger
}

// NewRunner creates a runner that reads request documents from docs.
func NewRunner(engine *restructure.Engine, docs sink.Fetcher, log *slog.Logger) *Runner {
	return &Runner{engine: engine, docs: docs, log: log}
}

// Run fetches the request's documents and executes it.
func (r *Runner) Run(ctx context.Context, req Request) (restructure.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inputs, err := r.Inputs(ctx, req.DocumentIDs)
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, req, inputs)
}

// Inputs loads documents by id, in order.
func (r *Runner) Inputs(ctx context.Context, ids []string) ([]restructure.Input, error) {
	inputs := make([]restructure.Input, 0, len(ids))
	for _, id := range ids {
		h, data, err := r.docs.Fetch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		inputs = append(inputs, restructure.Input{Name: h.Filename, ContentType: h.ContentType, Data: data})
	}
	r.log.Debug("fetched documents", "count", len(inputs))
	return inputs, nil
}

// Execute dispatches req to the matching engine operation.
func (r *Runner) Execute(ctx context.Context, req Request, inputs []restructure.Input) (restructure.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Operation == OpMerge {
		res, err := r.engine.Merge(ctx, restructure.MergeRequest{
			Documents:               inputs,
			OutputFilename:          req.OutputFilename,
			PreserveBookmarks:       req.PreserveBookmarks,
			PageSizeStandardization: req.PageSizeStandardization,
		})
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	if len(inputs) != 1 {
		return nil, &restructure.Error{Code: restructure.CodeInvalidRequest, Message: "split operations take exactly one document"}
	}
	doc := inputs[0]

	var (
		res *restructure.SplitResult
		err error
	)
	switch req.Operation {
	case OpSplitByPage:
		res, err = r.engine.SplitByPage(ctx, restructure.SplitByPageRequest{
			Document: doc, PagesPerFile: req.PagesPerFile, OutputPattern: req.OutputPattern,
		})
	case OpSplitByRange:
		res, err = r.engine.SplitByRange(ctx, restructure.SplitByRangeRequest{
			Document: doc, PageRanges: req.PageRanges, OutputPattern: req.OutputPattern,
		})
	case OpSplitByBookmark:
		res, err = r.engine.SplitByBookmark(ctx, restructure.SplitByBookmarkRequest{
			Document: doc, TopLevelOnly: req.TopLevelOnly, OutputPattern: req.OutputPattern,
		})
	case OpSplitBySize:
		res, err = r.engine.SplitBySize(ctx, restructure.SplitBySizeRequest{
			Document: doc, MaxFileSizeMB: req.MaxFileSizeMB, OutputPattern: req.OutputPattern,
		})
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
