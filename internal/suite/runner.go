package suite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yoanbernabeu/wrtprobe/internal/constants"
	"github.com/yoanbernabeu/wrtprobe/internal/results"
)

// Runner executes checks sequentially against one session
type Runner struct {
	log     zerolog.Logger
	session *Session
	store   results.Store
	timeout time.Duration

	// OnOutcome is called after each check, for progress output
	OnOutcome func(results.Outcome)

	now func() time.Time
}

// NewRunner creates a runner. store may be nil to skip persistence.
func NewRunner(log zerolog.Logger, session *Session, store results.Store) *Runner {
	return &Runner{
		log:     log.With().Str("component", "runner").Logger(),
		session: session,
		store:   store,
		timeout: session.config.Timeout(),
		now:     time.Now,
	}
}

// Run executes checks in order. A failing check never stops the ones after
// it. The returned run is saved to the store before returning; a store error
// is returned alongside the run.
func (r *Runner) Run(ctx context.Context, checks []*Check) (*results.Run, error) {
	run := &results.Run{
		ID:      uuid.NewString(),
		Target:  r.session.target,
		Started: r.now(),
	}

	if r.session.workDir == "" {
		r.session.workDir = constants.RunWorkDir(r.session.config.WorkDir, run.ID)
	}
	if err := os.MkdirAll(r.session.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}

	r.log.Info().
		Str("run", run.ID).
		Str("target", run.Target).
		Int("checks", len(checks)).
		Msg("run started")

	for _, c := range checks {
		if ctx.Err() != nil {
			run.Outcomes = append(run.Outcomes, r.record(results.Outcome{
				Check:   c.Name,
				Status:  results.StatusError,
				Message: "run cancelled: " + ctx.Err().Error(),
			}))
			continue
		}
		run.Outcomes = append(run.Outcomes, r.record(r.runCheck(ctx, c)))
	}

	run.Finished = r.now()
	run.Bag = r.session.bag.Snapshot()

	if err := r.session.Close(); err != nil {
		r.log.Warn().Err(err).Msg("failed to close transports")
	}

	counts := run.Counts()
	r.log.Info().
		Str("run", run.ID).
		Int("passed", counts[results.StatusPass]).
		Int("failed", counts[results.StatusFail]).
		Int("errors", counts[results.StatusError]).
		Int("skipped", counts[results.StatusSkip]).
		Dur("duration", run.Finished.Sub(run.Started)).
		Msg("run finished")

	if r.store != nil {
		if err := r.store.Save(run); err != nil {
			return run, fmt.Errorf("saving run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func (r *Runner) runCheck(ctx context.Context, c *Check) results.Outcome {
	if missing := missingFeatures(c, r.session.features); len(missing) > 0 {
		return results.Outcome{
			Check:   c.Name,
			Status:  results.StatusSkip,
			Message: "missing feature " + strings.Join(missing, ", "),
		}
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = r.timeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state := newState(r.session, c, r.log)
	state.log.Debug().Str("transport", c.Needs.String()).Msg("check started")

	start := r.now()
	err := invoke(checkCtx, c, state)
	outcome := results.Outcome{
		Check:    c.Name,
		Status:   results.StatusPass,
		Duration: r.now().Sub(start),
		Labels:   state.Labels(),
	}

	switch {
	case err == nil:
	case IsFailure(err):
		outcome.Status = results.StatusFail
		outcome.Message = err.Error()
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		outcome.Status = results.StatusError
		outcome.Message = fmt.Sprintf("timed out after %s: %v", timeout, err)
	default:
		outcome.Status = results.StatusError
		outcome.Message = err.Error()
	}
	return outcome
}

// invoke runs the check body, turning a panic into an error
func invoke(ctx context.Context, c *Check, s *State) (err error) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Str("stack", string(debug.Stack())).Msg("check panicked")
			err = fmt.Errorf("check panicked: %v", p)
		}
	}()
	return c.Func(ctx, s)
}

func (r *Runner) record(o results.Outcome) results.Outcome {
	event := r.log.Info()
	switch o.Status {
	case results.StatusFail, results.StatusError:
		event = r.log.Error()
	case results.StatusSkip:
		event = r.log.Warn()
	}
	event.
		Str("check", o.Check).
		Str("status", string(o.Status)).
		Dur("duration", o.Duration).
		Str("message", o.Message).
		Msg("check finished")

	if r.OnOutcome != nil {
		r.OnOutcome(o)
	}
	return o
}
