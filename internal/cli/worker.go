package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatsurvey/internal/geom/sim"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// WorkerOptions holds the flags of the worker command that precede the
// ordered tokens.
type WorkerOptions struct {
	*RootOptions
	Caches    []string
	CacheOnly bool
	Steps     int
	Timeout   time.Duration
}

// NewWorkerCommand creates the worker command, the investigation of a
// single surface. The scheduler of a distributed survey invokes this
// with a pickled surface as the work package.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "worker <surface> [surface flags] <goal>... [reporter]...",
		Short: "Investigate a single surface",
		Long: `Run the selected goals on one surface, e.g.:

  flatsurvey worker ngon -a 1 -a 1 -a 1 orbit-closure json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringArrayVar(&opts.Caches, "cache", nil, "cache file consulted before computing, repeatable")
	cmd.Flags().BoolVar(&opts.CacheOnly, "cache-only", false, "resolve goals from the cache only, without any computation")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "pipeline step budget, 0 for unlimited")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "wall clock limit, 0 for unlimited")

	return cmd
}

func runWorker(ctx context.Context, opts *WorkerOptions, args []string, out io.Writer) error {
	segments, err := SplitTokens(args, workerToken)
	if err != nil {
		return err
	}
	if len(segments) == 0 || !surfaceTokens[segments[0].Token] {
		return NewExitError(ExitCommandError, "worker needs a surface as its first token")
	}

	s, err := parseSurface(segments[0])
	if err != nil {
		return err
	}

	b := &build{backend: sim.New(), cacheOnly: opts.CacheOnly, steps: opts.Steps, out: out}
	if err := b.assemble(segments[1:]); err != nil {
		return err
	}
	if err := b.open(opts.Caches); err != nil {
		return err
	}
	defer b.close()

	source := &surface.Literal{Surfaces: []surface.Surface{s}}
	return sweep(ctx, []surface.Source{source}, b, 1, opts.Timeout)
}
