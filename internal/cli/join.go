package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatsurvey/internal/cache"
)

// JoinOptions holds the flags of the join command.
type JoinOptions struct {
	*RootOptions
	Output string
}

// NewJoinCommand creates the join command. Joining is a pure union:
// every entry of every input survives, same-kind entries are
// concatenated.
func NewJoinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JoinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "join <cache-file>...",
		Short: "Merge cache files into one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([][]byte, len(args))
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "reading cache", err)
				}
				inputs[i] = data
			}

			joined, err := cache.Join(inputs...)
			if err != nil {
				return WrapExitError(ExitCommandError, "joining caches", err)
			}

			if opts.Output != "" {
				if err := os.WriteFile(opts.Output, joined, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "writing joined cache", err)
				}
				return nil
			}
			_, err = cmd.OutOrStdout().Write(joined)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file, stdout by default")

	return cmd
}
