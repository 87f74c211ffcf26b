// Package scheduler drives a whole build invocation: shared directories are
// compiled once, configurations are ordered by their resource dependencies,
// and each configuration's pipeline runs on a bounded worker pool.
package scheduler

import (
	"context"
	"runtime"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/asb/internal/builder"
	"github.com/Norgate-AV/asb/internal/config"
	"github.com/Norgate-AV/asb/internal/graph"
	"github.com/Norgate-AV/asb/internal/utils"
)

// Tool is the resource compiler used by every pipeline, plus whole
// directory compiles for shared directories
type Tool interface {
	builder.Tool
	CompileDir(ctx context.Context, dir, outDir string) ([]string, error)
}

// Options configures a Scheduler
type Options struct {
	// Workers caps how many pipelines run at once, runtime.NumCPU() when zero
	Workers int
	// SplitDependencyChains runs unrelated dependency chains concurrently
	// instead of as one sequential group
	SplitDependencyChains bool
	// OnPhase is called as each phase starts
	OnPhase func(Phase)
}

// Scheduler builds sets of configurations
type Scheduler struct {
	tool   Tool
	opts   Options
	logger *zap.Logger
}

// New creates a scheduler running pipelines with tool
func New(tool Tool, opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	return &Scheduler{tool: tool, opts: opts, logger: logger}
}

// Summary aggregates the results of one invocation
type Summary struct {
	// Results holds one result per configuration, in configuration order
	Results   []*builder.BuildResult
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Success reports whether every configuration built
func (s *Summary) Success() bool {
	return s.Failed == 0
}

// Failures returns the results of configurations that failed
func (s *Summary) Failures() []*builder.BuildResult {
	var failed []*builder.BuildResult
	for _, r := range s.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}

	return failed
}

func (s *Scheduler) enter(p Phase) {
	s.logger.Debug("build phase", zap.Stringer("phase", p))
	if s.opts.OnPhase != nil {
		s.opts.OnPhase(p)
	}
}

// Run builds every configuration. Only structural problems, such as a
// dependency cycle between configurations, are returned as errors; they are
// detected before anything is compiled. Failures of individual
// configurations are reported in the summary.
func (s *Scheduler) Run(ctx context.Context, configs []config.BuildConfig) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	s.enter(PhaseInit)
	if len(configs) == 0 {
		s.enter(PhaseDone)
		return summary, nil
	}

	cfgs := make([]config.BuildConfig, len(configs))
	for i := range configs {
		cfgs[i] = configs[i].Clone()
	}

	var opts []graph.Option
	if s.opts.SplitDependencyChains {
		opts = append(opts, graph.WithComponentGroups())
	}

	independent, groups, err := graph.Resolve(cfgs, opts...)
	if err != nil {
		return nil, err
	}

	s.enter(PhaseResolveCommonDeps)
	common := graph.ExtractCommon(cfgs)
	if len(common) > 0 {
		s.logger.Info("found shared resource directories", zap.Int("count", len(common)))
	}

	s.enter(PhaseCompileCommonDeps)
	precompiled := s.compileCommon(ctx, cfgs, common)
	for _, dep := range common {
		shared, ok := precompiled[dep.Key]
		if !ok {
			continue
		}

		// the config whose main directory is the shared one reuses it too
		for i := range cfgs {
			if !slices.Contains(dep.Configs, i) && utils.NormalizePath(cfgs[i].ResourceDir) != dep.Key {
				continue
			}

			if !shared.usableBy(cfgs[i]) {
				s.logger.Debug("resource filter differs, compiling shared directory per config",
					zap.String("dir", dep.ResourceDir), zap.String("package", cfgs[i].PackageName))
				continue
			}

			if cfgs[i].Precompiled == nil {
				cfgs[i].Precompiled = make(map[string][]string)
			}
			cfgs[i].Precompiled[dep.Key] = shared.artifacts
		}
	}

	s.enter(PhaseResolveGraph)
	s.logger.Debug("configurations ordered",
		zap.Ints("independent", independent),
		zap.Int("groups", len(groups)),
		zap.Int("workers", s.opts.Workers),
	)

	results := make([]*builder.BuildResult, len(cfgs))
	build := func(i int) {
		results[i] = builder.New(cfgs[i], s.tool, s.logger, builder.WithIndex(i)).Build(ctx)
	}

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)

	s.enter(PhaseRunIndependent)
	for _, i := range independent {
		g.Go(func() error {
			build(i)
			return nil
		})
	}

	s.enter(PhaseRunDependentGroups)
	for _, group := range groups {
		g.Go(func() error {
			for _, i := range group {
				build(i)
			}
			return nil
		})
	}

	_ = g.Wait()

	s.enter(PhaseAggregate)
	for _, r := range results {
		if r == nil {
			continue
		}

		summary.Results = append(summary.Results, r)
		if r.Success {
			summary.Succeeded++
			continue
		}

		summary.Failed++
		s.logger.Error("configuration failed",
			zap.Int("config", r.Index),
			zap.String("package", r.PackageName),
			zap.Strings("errors", r.Errors),
			zap.Error(r.Err),
		)
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Index < summary.Results[j].Index
	})

	summary.Duration = time.Since(start)

	s.enter(PhaseDone)

	return summary, nil
}
