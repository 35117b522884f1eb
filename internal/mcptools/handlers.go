package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pdfsplice/internal/pdfcodec"
	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/dgallion1/pdfsplice/internal/sink"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers implements the tool calls. Each call gets its own engine writing
// into the requested output directory.
type Handlers struct {
	log *slog.Logger
}

func NewHandlers(log *slog.Logger) *Handlers {
	return &Handlers{log: log}
}

func (h *Handlers) engine(dir string) (*restructure.Engine, error) {
	out, err := sink.NewDir(dir)
	if err != nil {
		return nil, err
	}
	return restructure.New(pdfcodec.New(h.log), out, h.log), nil
}

// Merge implements merge_pdfs.
func (h *Handlers) Merge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := request.RequireStringSlice("files")
	if err != nil || len(files) == 0 {
		return mcp.NewToolResultError("Error: files parameter is required"), nil
	}
	dir, err := request.RequireString("output_dir")
	if err != nil || dir == "" {
		return mcp.NewToolResultError("Error: output_dir parameter is required"), nil
	}

	req := restructure.MergeRequest{
		OutputFilename:          request.GetString("output_filename", ""),
		PreserveBookmarks:       request.GetBool("preserve_bookmarks", false),
		PageSizeStandardization: restructure.PageSizePolicy(request.GetString("page_size", "")),
	}
	for _, path := range files {
		in, err := readInput(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
		}
		req.Documents = append(req.Documents, in)
	}

	e, err := h.engine(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	res, err := e.Merge(ctx, req)
	if err != nil {
		h.log.Warn("merge_pdfs failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Merge failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatMerge(dir, res)), nil
}

// SplitByPage implements split_pdf_by_page.
func (h *Handlers) SplitByPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.split(request, "split_pdf_by_page", func(e *restructure.Engine, in restructure.Input, pattern string) (*restructure.SplitResult, error) {
		return e.SplitByPage(ctx, restructure.SplitByPageRequest{
			Document: in, PagesPerFile: request.GetInt("pages_per_file", 0), OutputPattern: pattern,
		})
	})
}

// SplitByRange implements split_pdf_by_range.
func (h *Handlers) SplitByRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.split(request, "split_pdf_by_range", func(e *restructure.Engine, in restructure.Input, pattern string) (*restructure.SplitResult, error) {
		return e.SplitByRange(ctx, restructure.SplitByRangeRequest{
			Document: in, PageRanges: request.GetString("page_ranges", ""), OutputPattern: pattern,
		})
	})
}

// SplitByBookmark implements split_pdf_by_bookmark.
func (h *Handlers) SplitByBookmark(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.split(request, "split_pdf_by_bookmark", func(e *restructure.Engine, in restructure.Input, pattern string) (*restructure.SplitResult, error) {
		return e.SplitByBookmark(ctx, restructure.SplitByBookmarkRequest{
			Document: in, TopLevelOnly: request.GetBool("top_level_only", true), OutputPattern: pattern,
		})
	})
}

// SplitBySize implements split_pdf_by_size.
func (h *Handlers) SplitBySize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.split(request, "split_pdf_by_size", func(e *restructure.Engine, in restructure.Input, pattern string) (*restructure.SplitResult, error) {
		return e.SplitBySize(ctx, restructure.SplitBySizeRequest{
			Document: in, MaxFileSizeMB: request.GetInt("max_file_size_mb", 0), OutputPattern: pattern,
		})
	})
}

type splitFunc func(e *restructure.Engine, in restructure.Input, pattern string) (*restructure.SplitResult, error)

func (h *Handlers) split(request mcp.CallToolRequest, tool string, run splitFunc) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("file")
	if err != nil || path == "" {
		return mcp.NewToolResultError("Error: file parameter is required"), nil
	}
	dir, err := request.RequireString("output_dir")
	if err != nil || dir == "" {
		return mcp.NewToolResultError("Error: output_dir parameter is required"), nil
	}

	in, err := readInput(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	e, err := h.engine(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}

	res, err := run(e, in, request.GetString("output_pattern", ""))
	if err != nil {
		h.log.Warn(tool+" failed", "file", path, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Split failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatSplit(dir, res)), nil
}

func readInput(path string) (restructure.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return restructure.Input{}, fmt.Errorf("read %s: %w", path, err)
	}
	return restructure.Input{Name: filepath.Base(path), ContentType: restructure.ContentTypePDF, Data: data}, nil
}

func formatMerge(dir string, res *restructure.MergeResult) string {
	var b strings.Builder
	b.WriteString("# Merge complete\n\n")
	fmt.Fprintf(&b, "- **File:** %s\n", filepath.Join(dir, res.MergedDocument.Filename))
	fmt.Fprintf(&b, "- **Sources:** %d\n", res.SourceDocumentCount)
	fmt.Fprintf(&b, "- **Pages:** %d\n", res.TotalPages)
	fmt.Fprintf(&b, "- **Size:** %d bytes\n", res.FileSizeBytes)
	return b.String()
}

func formatSplit(dir string, res *restructure.SplitResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Split complete (%s)\n\n", res.SplitMethod)
	fmt.Fprintf(&b, "%d files from %d pages:\n\n", res.TotalFiles, res.OriginalPages)
	for _, doc := range res.SplitDocuments {
		fmt.Fprintf(&b, "- %s (%d pages, %d bytes)\n", filepath.Join(dir, doc.Filename), doc.PageCount, doc.Size)
	}
	return b.String()
}
