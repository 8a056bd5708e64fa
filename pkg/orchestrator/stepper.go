package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ormasoftchile/methopipe/pkg/providers"
)

// StepRunner executes one out-of-process step (Gate, G, E, F) and
// returns its command result. Two implementations exist: SubprocessRunner
// for real runs and InProcessRunner for tests.
type StepRunner interface {
	RunStep(ctx context.Context, step string, args []string) (*providers.CommandResult, error)
}

// stepBinaries maps a subprocess step to the binary that implements it.
var stepBinaries = map[string]string{
	"Gate": "qualitygate",
	"G":    "glossarysync",
	"E":    "publisher",
	"F":    "releasesummary",
}

// SubprocessRunner shells out to the step's standalone binary via an
// injected CommandExecutor (providers.RealExecutor in production),
// grounded on pkg/providers/cli.go. Unlike the teacher's executor, it
// bounds every step with a timeout, per spec.md §9's suggestion that a
// strong implementation should add one.
type SubprocessRunner struct {
	Executor providers.CommandExecutor
	BinDir   string
	Timeout  time.Duration
}

// RunStep implements StepRunner.
func (r *SubprocessRunner) RunStep(ctx context.Context, step string, args []string) (*providers.CommandResult, error) {
	bin, ok := stepBinaries[step]
	if !ok {
		return nil, fmt.Errorf("no subprocess binary registered for step %q", step)
	}
	path := bin
	if r.BinDir != "" {
		path = filepath.Join(r.BinDir, bin)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	executor := r.Executor
	if executor == nil {
		executor = &providers.RealExecutor{}
	}
	return executor.Execute(ctx, path, args, nil)
}

// InProcessRunner dispatches each step to an injected fake function,
// letting orchestrator tests exercise the full Gate/G/E/F control flow
// (skip-on-Gate-FAIL, halt-on-fail, manifest bookkeeping) without real
// binaries on disk.
type InProcessRunner struct {
	Funcs map[string]func(ctx context.Context, args []string) (*providers.CommandResult, error)
}

// RunStep implements StepRunner.
func (r *InProcessRunner) RunStep(ctx context.Context, step string, args []string) (*providers.CommandResult, error) {
	fn, ok := r.Funcs[step]
	if !ok {
		return nil, fmt.Errorf("no in-process fake registered for step %q", step)
	}
	return fn(ctx, args)
}
