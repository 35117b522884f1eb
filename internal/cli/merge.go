package cli

import (
	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/spf13/cobra"
)

func newMergeCommand(opts *options) *cobra.Command {
	var (
		output    string
		bookmarks bool
		pageSize  string
	)
	cmd := &cobra.Command{
		Use:   "merge <file.pdf>...",
		Short: "Merge PDF documents into one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := restructure.MergeRequest{
				OutputFilename:          output,
				PreserveBookmarks:       bookmarks,
				PageSizeStandardization: restructure.PageSizePolicy(pageSize),
			}
			for _, path := range args {
				in, err := readInput(path)
				if err != nil {
					return err
				}
				req.Documents = append(req.Documents, in)
			}

			engine, err := opts.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, err := engine.Merge(cmd.Context(), req)
			if err != nil {
				return err
			}
			FormatMergeSummary(cmd.OutOrStdout(), opts.outDir, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", restructure.DefaultMergeFilename, "Merged file name")
	cmd.Flags().BoolVar(&bookmarks, "bookmarks", false, "Carry over bookmarks, prefixed with the source file name")
	cmd.Flags().StringVar(&pageSize, "page-size", string(restructure.UseLargest), "Page size policy (KEEP_ORIGINAL, A4, USE_FIRST, USE_LARGEST)")
	return cmd
}
