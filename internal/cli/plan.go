package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatsurvey/internal/geom/sim"
	"github.com/flatsurf/flatsurvey/internal/plan"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// NewPlanCommand creates the plan command, which runs a survey described
// by a CUE plan file instead of ordered command tokens.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <plan-file>",
		Short: "Run a survey described by a plan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "loading plan", err)
			}
			return runPlan(cmd.Context(), p, cmd.OutOrStdout())
		},
	}
}

func runPlan(ctx context.Context, p *plan.Plan, out io.Writer) error {
	source, err := p.Source.Build()
	if err != nil {
		return WrapExitError(ExitCommandError, "building source", err)
	}

	b := &build{backend: sim.New(), cacheOnly: p.CacheOnly, steps: p.Budget.Steps, out: out}

	for _, g := range p.Goals {
		b.goals = append(b.goals, goalSpec{kind: g.Kind, limit: g.Limit, expansions: g.Expansions})
	}
	for _, r := range p.Reporters {
		spec := reporterSpec{kind: r.Kind}
		switch r.Kind {
		case "json", "yaml":
			spec.prefix = r.Path
			if spec.prefix == "" {
				spec.prefix = "."
			}
		case "store":
			spec.db = r.Path
		}
		b.reporters = append(b.reporters, spec)
	}
	if len(b.reporters) == 0 {
		b.reporters = []reporterSpec{{kind: "log"}}
	}

	var cacheFiles []string
	for _, c := range p.Caches {
		// Store caches ride along as store reporters would; local ones
		// seed the read cache.
		switch c.Kind {
		case "local":
			cacheFiles = append(cacheFiles, c.Path)
		case "store":
			b.reporters = append(b.reporters, reporterSpec{kind: "store", db: c.Path})
		}
	}

	if err := b.open(cacheFiles); err != nil {
		return err
	}
	defer b.close()

	var timeout time.Duration
	if timeout, err = p.Budget.Duration(); err != nil {
		return WrapExitError(ExitCommandError, "invalid budget", err)
	}

	return sweep(ctx, []surface.Source{source}, b, p.Parallel, timeout)
}
