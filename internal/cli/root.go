// Package cli implements the pdfsplice command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dgallion1/pdfsplice/internal/pdfcodec"
	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/dgallion1/pdfsplice/internal/sink"
	"github.com/dgallion1/pdfsplice/internal/version"
	"github.com/spf13/cobra"
)

type options struct {
	outDir  string
	verbose bool
}

// NewRootCommand builds the pdfsplice command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "pdfsplice",
		Short: "Merge and split PDF documents",
		Long: `pdfsplice restructures PDF documents: merge several into one, or split one
by page count, page ranges, top-level bookmarks or file size. Bookmarks are
carried over and output files are written to --out-dir.`,
		SilenceUsage: true,
	}
	root.Version = version.Version
	root.SetVersionTemplate(fmt.Sprintf("pdfsplice %s\n", version.String()))

	root.PersistentFlags().StringVarP(&opts.outDir, "out-dir", "d", ".", "Directory receiving output files")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(newMergeCommand(opts), newSplitCommand(opts))
	return root
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

// engine returns an engine writing into opts.outDir.
func (o *options) engine(stderr io.Writer) (*restructure.Engine, error) {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	dir, err := sink.NewDir(o.outDir)
	if err != nil {
		return nil, err
	}
	return restructure.New(pdfcodec.New(log), dir, log), nil
}

func readInput(path string) (restructure.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return restructure.Input{}, fmt.Errorf("read %s: %w", path, err)
	}
	return restructure.Input{Name: filepath.Base(path), ContentType: restructure.ContentTypePDF, Data: data}, nil
}
