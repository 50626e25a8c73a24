package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatsurvey/internal/cache"
)

// ExternalizeOptions holds the flags of the externalize command.
type ExternalizeOptions struct {
	*RootOptions
	Output    string
	Dir       string
	Threshold int
}

// NewExternalizeCommand creates the externalize command, which moves
// large embedded pickles out of a cache file into gzip side files named
// by content digest.
func NewExternalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExternalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "externalize <cache-file>",
		Short: "Move large embedded pickles into side files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "reading cache", err)
			}

			out, moved, err := cache.ExternalizePickles(data, opts.Dir, opts.Threshold)
			if err != nil {
				return WrapExitError(ExitCommandError, "externalizing pickles", err)
			}
			if opts.Verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "externalized %d pickle(s) into %s\n", moved, opts.Dir)
			}

			target := opts.Output
			if target == "" {
				target = args[0]
			}
			if err := os.WriteFile(target, out, 0o644); err != nil {
				return WrapExitError(ExitCommandError, "writing cache", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file, in place by default")
	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "directory for the pickle side files")
	cmd.Flags().IntVar(&opts.Threshold, "threshold", cache.DefaultPickleThreshold, "externalize pickles larger than this many characters")

	return cmd
}
