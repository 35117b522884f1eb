// Package mcptools exposes the restructuring operations as MCP tools that
// read PDFs from local paths and write results into a directory.
package mcptools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Register adds every pdfsplice tool to s.
func Register(s *server.MCPServer, h *Handlers) {
	s.AddTool(mergeTool(), h.Merge)
	s.AddTool(splitByPageTool(), h.SplitByPage)
	s.AddTool(splitByRangeTool(), h.SplitByRange)
	s.AddTool(splitByBookmarkTool(), h.SplitByBookmark)
	s.AddTool(splitBySizeTool(), h.SplitBySize)
}

func mergeTool() mcp.Tool {
	return mcp.NewTool("merge_pdfs",
		mcp.WithDescription("Merge several PDF files into one, in the given order"),
		mcp.WithArray("files",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Paths of the PDF files to merge"),
		),
		mcp.WithString("output_dir",
			mcp.Required(),
			mcp.Description("Directory receiving the merged file"),
		),
		mcp.WithString("output_filename",
			mcp.Description("Merged file name (default: merged.pdf)"),
		),
		mcp.WithBoolean("preserve_bookmarks",
			mcp.Description("Carry over bookmarks, prefixed with the source file name (default: false)"),
		),
		mcp.WithString("page_size",
			mcp.Description("KEEP_ORIGINAL, A4, USE_FIRST or USE_LARGEST (default: USE_LARGEST)"),
		),
	)
}

// splitTool adds the parameters every split tool shares.
func splitTool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append([]mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path of the PDF file to split"),
		),
		mcp.WithString("output_dir",
			mcp.Required(),
			mcp.Description("Directory receiving the output files"),
		),
		mcp.WithString("output_pattern",
			mcp.Description("File name pattern with {index}, {start}, {end} or {bookmark} placeholders"),
		),
	}, opts...)
	return mcp.NewTool(name, opts...)
}

func splitByPageTool() mcp.Tool {
	return splitTool("split_pdf_by_page", "Split a PDF into files of a fixed number of pages",
		mcp.WithNumber("pages_per_file",
			mcp.Required(),
			mcp.Description("Pages in each output file (at least 1)"),
		),
	)
}

func splitByRangeTool() mcp.Tool {
	return splitTool("split_pdf_by_range", "Split a PDF into one file per page range",
		mcp.WithString("page_ranges",
			mcp.Required(),
			mcp.Description(`Comma separated 1-based ranges, e.g. "1-3,5,7-9"`),
		),
	)
}

func splitByBookmarkTool() mcp.Tool {
	return splitTool("split_pdf_by_bookmark", "Split a PDF into one file per top-level bookmark",
		mcp.WithBoolean("top_level_only",
			mcp.Description("Only split at top-level bookmarks (default: true)"),
		),
	)
}

func splitBySizeTool() mcp.Tool {
	return splitTool("split_pdf_by_size", "Split a PDF into files no larger than a size limit",
		mcp.WithNumber("max_file_size_mb",
			mcp.Required(),
			mcp.Description("Maximum output size in MB (1-100)"),
		),
	)
}
