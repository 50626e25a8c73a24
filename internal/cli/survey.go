package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatsurvey/internal/geom/sim"
	"github.com/flatsurf/flatsurvey/internal/scheduler"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// SurveyOptions holds the flags of the survey command that precede the
// ordered tokens.
type SurveyOptions struct {
	*RootOptions
	Caches    []string
	CacheOnly bool
	Steps     int
	Timeout   time.Duration
	Parallel  int
}

// NewSurveyCommand creates the survey command, a sweep over a family of
// surfaces.
func NewSurveyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SurveyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "survey <source> [source flags] <goal>... [reporter]...",
		Short: "Sweep goals over a family of surfaces",
		Long: `Enumerate surfaces from a source and investigate each with the
selected goals, e.g.:

  flatsurvey survey ngons -n 3 --limit 7 orbit-closure json --prefix out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvey(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringArrayVar(&opts.Caches, "cache", nil, "cache file consulted before computing, repeatable")
	cmd.Flags().BoolVar(&opts.CacheOnly, "cache-only", false, "resolve goals from the cache only, without any computation")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "pipeline step budget per surface, 0 for unlimited")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "wall clock limit for the whole sweep, 0 for unlimited")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "surfaces investigated concurrently")

	return cmd
}

func runSurvey(ctx context.Context, opts *SurveyOptions, args []string, out io.Writer) error {
	segments, err := SplitTokens(args, surveyToken)
	if err != nil {
		return err
	}
	if len(segments) == 0 || !sourceTokens[segments[0].Token] {
		return NewExitError(ExitCommandError, "survey needs a surface source as its first token")
	}

	source, err := parseSource(segments[0])
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

	return sweep(ctx, []surface.Source{source}, b, opts.Parallel, opts.Timeout)
}

// sweep runs the scheduler over the sources and maps the outcome to the
// command's exit code.
func sweep(ctx context.Context, sources []surface.Source, b *build, parallel int, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	summary, err := scheduler.Run(ctx, scheduler.Options{
		Sources:  sources,
		Spawn:    b.spawn,
		Parallel: parallel,
		Logger:   slog.Default(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "sweep aborted", err)
	}
	if !summary.Ok() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d surface(s) failed", summary.Failed()))
	}
	return nil
}
