// Package step runs the bootstrap as a declarative list of steps. Each step
// declares its own "already satisfied?" predicate and a failure policy, and
// the runner applies both uniformly instead of scattering existence checks
// and error suppression across call sites.
package step

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
)

// Policy declares how a step's failure affects the run.
type Policy int

const (
	// Propagate aborts the run with the step's error. This is the default:
	// package installs and repository operations are not suppressed.
	Propagate Policy = iota

	// BestEffort logs the failure and continues. Used for individual
	// runtime version installs and convenience extras.
	BestEffort

	// Fatal aborts the run with exit code 1. Reserved for sanity-check
	// failures where a manager is installed but broken.
	Fatal
)

// String returns the policy name for logging.
func (p Policy) String() string {
	switch p {
	case BestEffort:
		return "best-effort"
	case Fatal:
		return "fatal"
	default:
		return "propagate"
	}
}

// Context carries the shared mutable state of a bootstrap run. The
// environment lives here, not in the process environment: steps that
// activate a tool merge its variables so later steps can use it.
type Context struct {
	// Env is the explicit environment the run threads through every step.
	Env *envctx.Env

	// Platform is the host's platform tag.
	Platform string

	// Log receives step progress.
	Log *slog.Logger
}

// Step is one unit of bootstrap work.
type Step struct {
	// Name identifies the step in logs and results.
	Name string

	// Policy declares how a failure of Run is treated.
	Policy Policy

	// Satisfied reports whether the step's work is already done. A nil
	// predicate means the step always runs; Run must then be idempotent
	// itself.
	Satisfied func(tc *Context) bool

	// Run performs the step's work.
	Run func(ctx context.Context, tc *Context) error
}

// Status classifies a step's outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is one step's outcome.
type Result struct {
	Name   string
	Status Status
	Err    error
}

// Run executes steps in order. Satisfied steps are skipped. On failure the
// step's policy decides: BestEffort records and continues, Fatal returns an
// ExitError with code 1, Propagate returns the error as-is. The results
// collected so far are returned in every case.
func Run(ctx context.Context, tc *Context, steps []Step) ([]Result, error) {
	results := make([]Result, 0, len(steps))

	for _, s := range steps {
		log := tc.Log.With("step", s.Name)

		if s.Satisfied != nil && s.Satisfied(tc) {
			log.Debug("already satisfied, skipping")
			results = append(results, Result{Name: s.Name, Status: StatusSkipped})
			continue
		}

		log.Debug("running", "policy", s.Policy.String())
		err := s.Run(ctx, tc)
		if err == nil {
			results = append(results, Result{Name: s.Name, Status: StatusOK})
			continue
		}

		results = append(results, Result{Name: s.Name, Status: StatusFailed, Err: err})

		switch s.Policy {
		case BestEffort:
			log.Warn("step failed, continuing", "error", err)
		case Fatal:
			// A step that already produced an ExitError keeps its code and
			// suggestion; anything else becomes a fatal exit.
			var exitErr *setuperrors.ExitError
			if errors.As(err, &exitErr) {
				return results, err
			}
			return results, setuperrors.NewExitError(errors.Wrapf(err, "step %s", s.Name), setuperrors.ExitFatal)
		default:
			return results, errors.Wrapf(err, "step %s", s.Name)
		}
	}

	return results, nil
}
