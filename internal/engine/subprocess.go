package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"benefit-calculator/internal/camunda"
)

// SubprocessOutcome describes how the wait for the calculation subprocess
// ended. Completed is false when the budget ran out.
type SubprocessOutcome struct {
	SubprocessID string
	Completed    bool
	Attempts     int
	Elapsed      time.Duration
}

type instanceState int

const (
	stateRunning instanceState = iota
	stateCompleted
	stateMissing
)

// WaitForSubprocess polls until the subprocess spawned by the main process
// has ended, or until the main process ends without spawning one. Engine
// failures during polling are logged and retried; only cancellation aborts.
func (s *Service) WaitForSubprocess(ctx context.Context, processInstanceID string) (SubprocessOutcome, error) {
	var out SubprocessOutcome
	check := func(ctx context.Context) (bool, error) {
		if out.SubprocessID == "" {
			id, err := s.findSubprocess(ctx, processInstanceID)
			if err != nil {
				return false, s.pollError(ctx, "subprocess lookup", processInstanceID, err)
			}
			if id == "" {
				st, err := s.processState(ctx, processInstanceID)
				if err != nil {
					return false, s.pollError(ctx, "main process state", processInstanceID, err)
				}
				return st != stateRunning, nil
			}
			out.SubprocessID = id
			s.logger.Debug("subprocess found", "process_instance_id", processInstanceID, "subprocess_id", id)
		}
		st, err := s.processState(ctx, out.SubprocessID)
		if err != nil {
			return false, s.pollError(ctx, "subprocess state", out.SubprocessID, err)
		}
		return st != stateRunning, nil
	}

	res, err := s.waiter.Poll(ctx, check)
	out.Completed = res.Done
	out.Attempts = res.Attempts
	out.Elapsed = res.Elapsed
	if err != nil {
		return out, fmt.Errorf("wait for subprocess of %s: %w", processInstanceID, err)
	}
	return out, nil
}

// pollError keeps the poll going on engine failures and stops it only when
// the caller's context is done.
func (s *Service) pollError(ctx context.Context, what, id string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.Warn("poll failed, retrying", "check", what, "id", id, "error", err)
	return nil
}

// findSubprocess returns the id of a child process of superID, looking at
// running instances first and history second. "" means none exists.
func (s *Service) findSubprocess(ctx context.Context, superID string) (string, error) {
	running, runErr := s.engine.SubProcessInstances(ctx, superID)
	if runErr == nil && len(running) > 0 {
		return running[0].ID, nil
	}
	ended, histErr := s.engine.HistoricSubProcessInstances(ctx, superID)
	if histErr == nil && len(ended) > 0 {
		return ended[0].ID, nil
	}
	if runErr != nil && histErr != nil {
		return "", runErr
	}
	return "", nil
}

// processState reports whether an instance is still running. The runtime
// API answers 404 for an ended instance; any other runtime failure falls
// back to the history end time.
func (s *Service) processState(ctx context.Context, id string) (instanceState, error) {
	_, err := s.engine.ProcessInstance(ctx, id)
	if err == nil {
		return stateRunning, nil
	}
	if errors.Is(err, camunda.ErrUnavailable) || ctx.Err() != nil {
		return stateRunning, err
	}

	hi, herr := s.engine.HistoricProcessInstance(ctx, id)
	switch {
	case herr == nil && camunda.IsNotFound(err):
		return stateCompleted, nil
	case herr == nil && hi.Completed():
		return stateCompleted, nil
	case herr == nil:
		return stateRunning, nil
	case camunda.IsNotFound(herr) && camunda.IsNotFound(err):
		return stateMissing, nil
	case camunda.IsNotFound(err):
		// History may be disabled on the engine; the runtime 404 stands.
		return stateCompleted, nil
	default:
		return stateRunning, fmt.Errorf("state of %s: %w", id, herr)
	}
}
