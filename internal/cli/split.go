package cli

import (
	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/spf13/cobra"
)

func newSplitCommand(opts *options) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a PDF document into several",
	}
	cmd.PersistentFlags().StringVarP(&pattern, "pattern", "p", "", "Output file name pattern ({index}, {start}, {end}, {bookmark})")

	// run loads the single input and hands it to split.
	run := func(split func(*restructure.Engine, *cobra.Command, restructure.Input) (*restructure.SplitResult, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			engine, err := opts.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, err := split(engine, cmd, in)
			if err != nil {
				return err
			}
			FormatSplitSummary(cmd.OutOrStdout(), opts.outDir, res)
			return nil
		}
	}

	var pagesPerFile int
	pages := &cobra.Command{
		Use:   "pages <file.pdf>",
		Short: "Split into files of a fixed page count",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(e *restructure.Engine, cmd *cobra.Command, in restructure.Input) (*restructure.SplitResult, error) {
			return e.SplitByPage(cmd.Context(), restructure.SplitByPageRequest{Document: in, PagesPerFile: pagesPerFile, OutputPattern: pattern})
		}),
	}
	pages.Flags().IntVarP(&pagesPerFile, "pages-per-file", "n", 1, "Pages in each output file")

	var ranges string
	byRange := &cobra.Command{
		Use:   "range <file.pdf>",
		Short: "Split into one file per page range",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(e *restructure.Engine, cmd *cobra.Command, in restructure.Input) (*restructure.SplitResult, error) {
			return e.SplitByRange(cmd.Context(), restructure.SplitByRangeRequest{Document: in, PageRanges: ranges, OutputPattern: pattern})
		}),
	}
	byRange.Flags().StringVarP(&ranges, "ranges", "r", "", `Page ranges, e.g. "1-3,5,7-9"`)
	_ = byRange.MarkFlagRequired("ranges")

	var topLevelOnly bool
	bookmark := &cobra.Command{
		Use:   "bookmark <file.pdf>",
		Short: "Split into one file per top-level bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(e *restructure.Engine, cmd *cobra.Command, in restructure.Input) (*restructure.SplitResult, error) {
			return e.SplitByBookmark(cmd.Context(), restructure.SplitByBookmarkRequest{Document: in, TopLevelOnly: topLevelOnly, OutputPattern: pattern})
		}),
	}
	bookmark.Flags().BoolVar(&topLevelOnly, "top-level-only", true, "Only split at top-level bookmarks")

	var maxMB int
	size := &cobra.Command{
		Use:   "size <file.pdf>",
		Short: "Split into files no larger than a size limit",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(e *restructure.Engine, cmd *cobra.Command, in restructure.Input) (*restructure.SplitResult, error) {
			return e.SplitBySize(cmd.Context(), restructure.SplitBySizeRequest{Document: in, MaxFileSizeMB: maxMB, OutputPattern: pattern})
		}),
	}
	size.Flags().IntVarP(&maxMB, "max-mb", "m", 10, "Maximum output file size in MB (1-100)")

	cmd.AddCommand(pages, byRange, bookmark, size)
	return cmd
}
