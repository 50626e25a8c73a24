package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/jobs"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/report"
	"github.com/flatsurf/flatsurvey/internal/store"
	"github.com/flatsurf/flatsurvey/internal/surface"
	"github.com/flatsurf/flatsurvey/internal/worker"
)

// goalSpec is a parsed goal token. Zero tuning values mean the goal's
// own defaults.
type goalSpec struct {
	kind       string
	limit      int
	expansions int
}

// reporterSpec is a parsed reporter token.
type reporterSpec struct {
	kind   string
	prefix string // output directory for file reporters
	db     string // database path for the store reporter
}

// build holds everything the ordered tokens selected, plus the shared
// resources of a sweep. One build spawns the worker for every surface.
type build struct {
	backend   geom.Backend
	goals     []goalSpec
	induction int // flow decomposition induction limit; 0 means default
	reporters []reporterSpec
	cacheOnly bool
	steps     int

	out       io.Writer    // log reporter output
	cacheSeed *cache.Local // seeded from --cache files, shared reads
	stores    map[string]*store.Store
}

func newSegmentFlags(token string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(token, pflag.ContinueOnError)
	fs.Usage = func() {}
	return fs
}

func usageError(token string, err error) error {
	return WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s arguments", token), err)
}

// parseSurface builds the single surface of a worker invocation.
func parseSurface(seg Segment) (surface.Surface, error) {
	switch seg.Token {
	case "ngon":
		fs := newSegmentFlags("ngon")
		angles := fs.IntSliceP("angle", "a", nil, "vertex angle, repeatable")
		if err := fs.Parse(seg.Args); err != nil {
			return nil, usageError("ngon", err)
		}
		s, err := surface.NewNgon(*angles)
		if err != nil {
			return nil, usageError("ngon", err)
		}
		return s, nil
	case "pickle":
		src, err := parseSource(seg)
		if err != nil {
			return nil, err
		}
		s, ok, err := src.Next()
		if err != nil {
			return nil, usageError("pickle", err)
		}
		if !ok {
			return nil, NewExitError(ExitCommandError, "pickle source yielded no surface")
		}
		return s, nil
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown surface token %q", seg.Token))
	}
}

// parseSource builds the surface source of a survey invocation.
func parseSource(seg Segment) (surface.Source, error) {
	switch seg.Token {
	case "ngons":
		fs := newSegmentFlags("ngons")
		vertices := fs.IntP("vertices", "n", 3, "number of polygon vertices")
		limit := fs.IntP("limit", "l", 0, "total angle bound")
		count := fs.IntP("count", "c", 0, "stop after this many surfaces")
		literature := fs.Bool("include-literature", false, "include surfaces already studied in the literature")
		if err := fs.Parse(seg.Args); err != nil {
			return nil, usageError("ngons", err)
		}
		if *limit <= 0 {
			return nil, NewExitError(ExitCommandError, "ngons requires a positive --limit")
		}
		return &surface.Ngons{Vertices: *vertices, Limit: *limit, Count: *count, IncludeLiterature: *literature}, nil
	case "pickle":
		fs := newSegmentFlags("pickle")
		base64 := fs.String("base64", "", "base64 encoded surface pickle")
		if err := fs.Parse(seg.Args); err != nil {
			return nil, usageError("pickle", err)
		}
		if *base64 == "" {
			return nil, NewExitError(ExitCommandError, "pickle requires --base64")
		}
		return &surface.Pickled{Base64: *base64}, nil
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown source token %q", seg.Token))
	}
}

func parseGoal(seg Segment) (goalSpec, error) {
	fs := newSegmentFlags(seg.Token)
	limit := fs.Int("limit", 0, "goal specific work limit")
	expansions := fs.Int("expansions", 0, "search expansions before giving up")
	if err := fs.Parse(seg.Args); err != nil {
		return goalSpec{}, usageError(seg.Token, err)
	}
	return goalSpec{kind: seg.Token, limit: *limit, expansions: *expansions}, nil
}

func parseProcessor(seg Segment) (int, error) {
	fs := newSegmentFlags(seg.Token)
	limit := fs.Int("limit", jobs.DefaultInductionLimit, "Zorich induction steps per component")
	if err := fs.Parse(seg.Args); err != nil {
		return 0, usageError(seg.Token, err)
	}
	return *limit, nil
}

func parseReporter(seg Segment) (reporterSpec, error) {
	fs := newSegmentFlags(seg.Token)
	spec := reporterSpec{kind: seg.Token}
	switch seg.Token {
	case "json", "yaml":
		fs.StringVar(&spec.prefix, "prefix", ".", "directory for the output files")
	case "store":
		fs.StringVar(&spec.db, "db", "", "SQLite database path")
	}
	if err := fs.Parse(seg.Args); err != nil {
		return reporterSpec{}, usageError(seg.Token, err)
	}
	if seg.Token == "store" && spec.db == "" {
		return reporterSpec{}, NewExitError(ExitCommandError, "store requires --db")
	}
	return spec, nil
}

// assemble distributes the parsed segments of an invocation. The first
// segment is handled by the caller (surface or source).
func (b *build) assemble(segments []Segment) error {
	for _, seg := range segments {
		switch {
		case goalTokens[seg.Token]:
			spec, err := parseGoal(seg)
			if err != nil {
				return err
			}
			b.goals = append(b.goals, spec)
		case processorTokens[seg.Token]:
			limit, err := parseProcessor(seg)
			if err != nil {
				return err
			}
			b.induction = limit
		case reporterTokens[seg.Token]:
			spec, err := parseReporter(seg)
			if err != nil {
				return err
			}
			b.reporters = append(b.reporters, spec)
		default:
			return NewExitError(ExitCommandError, fmt.Sprintf("unexpected token %q", seg.Token))
		}
	}

	if len(b.goals) == 0 {
		return NewExitError(ExitCommandError, "no goal selected")
	}
	if len(b.reporters) == 0 {
		b.reporters = []reporterSpec{{kind: "log"}}
	}
	return nil
}

// open prepares the shared resources: the seeded read cache and the
// SQLite stores of the store reporters.
func (b *build) open(cacheFiles []string) error {
	b.cacheSeed = cache.NewLocal()
	b.cacheSeed.ReadOnly = true
	for _, path := range cacheFiles {
		if err := b.cacheSeed.LoadFile(path); err != nil {
			return WrapExitError(ExitCommandError, "loading cache", err)
		}
	}

	b.stores = map[string]*store.Store{}
	for _, spec := range b.reporters {
		if spec.kind != "store" {
			continue
		}
		if _, ok := b.stores[spec.db]; ok {
			continue
		}
		db, err := store.Open(spec.db)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening results store", err)
		}
		b.stores[spec.db] = db
	}
	return nil
}

func (b *build) close() error {
	var err error
	for _, db := range b.stores {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// spawn wires the complete pipeline for one surface: backend handle,
// reporters, producers, goals.
func (b *build) spawn(ctx context.Context, s surface.Surface) (*worker.Worker, error) {
	handle, err := b.backend.Open(ctx, s.Characteristics())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Describe(), err)
	}

	var reporters []report.Reporter
	var outputs []io.Closer
	cleanup := func() {
		for _, f := range outputs {
			_ = f.Close()
		}
		_ = handle.Close()
	}

	for _, spec := range b.reporters {
		switch spec.kind {
		case "log":
			out := b.out
			if out == nil {
				out = os.Stdout
			}
			reporters = append(reporters, report.NewLog(s, out))
		case "json", "yaml":
			f, err := os.Create(filepath.Join(spec.prefix, s.Name()+"."+spec.kind))
			if err != nil {
				cleanup()
				return nil, fmt.Errorf("creating %s output: %w", spec.kind, err)
			}
			outputs = append(outputs, f)
			if spec.kind == "json" {
				reporters = append(reporters, report.NewJSON(s, f))
			} else {
				reporters = append(reporters, report.NewYAML(s, f))
			}
		case "store":
			reporters = append(reporters, report.NewStore(s, b.stores[spec.db]))
		}
	}
	rep := report.New(reporters...)

	// Results land in a scratch cache first; seeded caches and stores
	// are consulted read-only behind it.
	layers := []cache.Cache{cache.NewLocal(), b.cacheSeed}
	for _, db := range b.stores {
		layers = append(layers, db)
	}
	caches := cache.NewStack(layers...)

	connections := jobs.NewSaddleConnections(handle, rep)
	orientations := jobs.NewSaddleConnectionOrientations()
	decompositions := jobs.NewFlowDecompositions(handle, rep)
	if b.induction > 0 {
		decompositions.Limit = b.induction
	}
	connections.Register(orientations)
	orientations.Register(decompositions)

	opts := jobs.GoalOptions{
		Surface:   s,
		Report:    rep,
		Cache:     caches,
		CacheOnly: b.cacheOnly,
	}

	// The Boshernitzan goal iterates over the special directions of the
	// conjecture instead of the saddle connection orientations, so it
	// gets a producer chain of its own.
	var boshOrientations *jobs.BoshernitzanConjectureOrientations
	var boshDecompositions *jobs.FlowDecompositions

	var goals []pipeline.Goal
	var saddleGoals int
	for _, spec := range b.goals {
		if spec.kind == "boshernitzan-conjecture" {
			if boshOrientations == nil {
				var err error
				boshOrientations, err = jobs.NewBoshernitzanConjectureOrientations(s)
				if err != nil {
					cleanup()
					return nil, err
				}
				boshDecompositions = jobs.NewFlowDecompositions(handle, rep)
				if b.induction > 0 {
					boshDecompositions.Limit = b.induction
				}
				boshOrientations.Register(boshDecompositions)
			}
			g := jobs.NewBoshernitzanConjecture(opts, boshOrientations)
			boshDecompositions.Register(g)
			goals = append(goals, g)
			continue
		}

		var g pipeline.Goal
		switch spec.kind {
		case "orbit-closure":
			oc := jobs.NewOrbitClosure(opts, handle, connections)
			if spec.limit > 0 {
				oc.Limit = spec.limit
			}
			if spec.expansions > 0 {
				oc.Expansions = spec.expansions
			}
			g = oc
		case "cylinder-periodic-direction":
			cpd := jobs.NewCylinderPeriodicDirection(opts)
			if spec.limit > 0 {
				cpd.Limit = spec.limit
			}
			g = cpd
		case "completely-cylinder-periodic":
			ccp := jobs.NewCompletelyCylinderPeriodic(opts)
			if spec.limit > 0 {
				ccp.Limit = spec.limit
			}
			g = ccp
		case "undetermined-iet":
			u := jobs.NewUndeterminedIET(opts)
			if spec.limit > 0 {
				u.Limit = spec.limit
			}
			g = u
		case "cylinder-periodic-asymptotics":
			g = jobs.NewCylinderPeriodicAsymptotics(opts)
		default:
			cleanup()
			return nil, fmt.Errorf("unknown goal %q", spec.kind)
		}
		decompositions.Register(g)
		saddleGoals++
		goals = append(goals, g)
	}

	var producers []pipeline.Producer
	if saddleGoals > 0 {
		producers = append(producers, connections)
	}
	if boshOrientations != nil {
		producers = append(producers, boshOrientations)
	}

	var budget *worker.Budget
	if b.steps > 0 {
		budget = worker.NewBudget(b.steps)
	}

	return worker.New(worker.Options{
		Surface:   s,
		Producers: producers,
		Goals:     goals,
		Report:    rep,
		Budget:    budget,
		Release: func() error {
			err := rep.Flush()
			cleanup()
			return err
		},
	}), nil
}
