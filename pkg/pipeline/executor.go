package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/aerogeophys/magqc/pkg/errors"
	"github.com/aerogeophys/magqc/pkg/logger"
	"github.com/aerogeophys/magqc/pkg/survey"
)

// Executor applies a parsed specification to a dataset, step by step.
//
// Steps run strictly in declared order. Each step receives the dataset
// produced by the previous step; a step returning a dataset replaces the
// working dataset. Any step error halts execution at that step with no
// rollback of prior steps, so the returned dataset reflects all completed
// work up to the failure. Execution is deterministic: re-running the same
// specification against the same dataset produces identical derived
// channels.
type Executor struct {
	spec     *Spec
	registry *Registry
	logger   *zap.Logger
}

// NewExecutor creates an executor for a parsed specification. A nil
// registry uses the process-global registry; a nil logger uses the global
// logger.
func NewExecutor(spec *Spec, registry *Registry, log *zap.Logger) *Executor {
	if registry == nil {
		registry = globalRegistry
	}
	if log == nil {
		log = logger.Get().With(zap.String("component", "pipeline"))
	}
	return &Executor{spec: spec, registry: registry, logger: log}
}

// Run executes the pipeline against ds with a fresh context built from the
// specification's top-level parameters. It returns the final dataset; on a
// step failure it returns the dataset as of the failed step together with
// the error.
func (e *Executor) Run(ds *survey.Dataset) (*survey.Dataset, error) {
	return e.RunContext(NewContext(e.spec.Params, e.logger), ds)
}

// RunContext executes the pipeline with a caller-supplied context, which is
// how callers can observe accumulated summary state after the run.
func (e *Executor) RunContext(ctx *Context, ds *survey.Dataset) (*survey.Dataset, error) {
	for i, step := range e.spec.Steps {
		f, err := e.registry.Lookup(step.Name)
		if err != nil {
			return ds, errors.Wrap(err, errors.ErrorTypeUnknownFilter,
				fmt.Sprintf("step %d (%s) cannot be resolved", i, step.Name))
		}

		if len(step.Args) > 0 {
			ctx.Logger.Info("running step",
				zap.Int("index", i),
				zap.String("name", step.Name),
				zap.String("params", formatArgs(step.Args)))
		} else {
			ctx.Logger.Info("running step",
				zap.Int("index", i),
				zap.String("name", step.Name))
		}

		out, err := f(ctx, ds, step.Args)
		if err != nil {
			ctx.Logger.Error("step failed",
				zap.Int("index", i),
				zap.String("name", step.Name),
				zap.Error(err))
			return ds, errors.Wrap(err, errors.TypeOf(err),
				fmt.Sprintf("step %d (%s) failed", i, step.Name))
		}
		if out != nil {
			ds = out
		}
	}
	return ds, nil
}

// formatArgs renders step parameters deterministically for the log trail.
func formatArgs(args Args) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(parts, ", ")
}
