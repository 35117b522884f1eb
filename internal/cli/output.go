package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/pdfsplice/internal/restructure"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// FormatMergeSummary renders the merged file and its totals.
func FormatMergeSummary(w io.Writer, dir string, res *restructure.MergeResult) {
	doc := res.MergedDocument
	content := titleStyle.Render("Merge Complete") + "\n" +
		fmt.Sprintf("%s %d  %s %d  %s %s\n",
			dimStyle.Render("Sources:"), res.SourceDocumentCount,
			dimStyle.Render("Pages:"), res.TotalPages,
			dimStyle.Render("Size:"), formatBytes(res.FileSizeBytes),
		) +
		successStyle.Render(filepath.Join(dir, doc.Filename))
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatSplitSummary renders one line per output file.
func FormatSplitSummary(w io.Writer, dir string, res *restructure.SplitResult) {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Split Complete"))
	fmt.Fprintf(&b, "\n%s %s  %s %d  %s %d",
		dimStyle.Render("Method:"), res.SplitMethod,
		dimStyle.Render("Pages:"), res.OriginalPages,
		dimStyle.Render("Files:"), res.TotalFiles,
	)
	for _, doc := range res.SplitDocuments {
		fmt.Fprintf(&b, "\n%s %s",
			successStyle.Render(filepath.Join(dir, doc.Filename)),
			dimStyle.Render(fmt.Sprintf("(%d pages, %s)", doc.PageCount, formatBytes(doc.Size))),
		)
	}
	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
