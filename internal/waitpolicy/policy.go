// Package waitpolicy bounds the polling wait for an asynchronously
// completing subprocess. A wait that runs out of budget is not an error.
package waitpolicy

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is a two-step interval schedule bounded by a total budget.
type Policy struct {
	Initial     time.Duration `yaml:"initial"`
	Later       time.Duration `yaml:"later"`
	SwitchAfter int           `yaml:"switch_after"`
	Budget      time.Duration `yaml:"budget"`
}

func Default() Policy {
	return Policy{
		Initial:     100 * time.Millisecond,
		Later:       500 * time.Millisecond,
		SwitchAfter: 5,
		Budget:      9 * time.Second,
	}
}

// schedule adapts Policy to backoff.BackOff.
type schedule struct {
	policy   Policy
	clock    backoff.Clock
	start    time.Time
	attempts int
}

func (s *schedule) Reset() {
	s.start = s.clock.Now()
	s.attempts = 0
}

func (s *schedule) NextBackOff() time.Duration {
	next := s.policy.Initial
	if s.attempts >= s.policy.SwitchAfter {
		next = s.policy.Later
	}
	s.attempts++
	if s.clock.Now().Sub(s.start)+next > s.policy.Budget {
		return backoff.Stop
	}
	return next
}

type Option func(*Waiter)

// WithClock replaces the wall clock used to measure the budget.
func WithClock(c backoff.Clock) Option {
	return func(w *Waiter) { w.clock = c }
}

// WithTimer replaces the timer used between polls.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(w *Waiter) { w.newTimer = newTimer }
}

type Waiter struct {
	policy   Policy
	clock    backoff.Clock
	newTimer func() backoff.Timer
}

func New(p Policy, opts ...Option) *Waiter {
	w := &Waiter{policy: p, clock: backoff.SystemClock}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Waiter) Policy() Policy {
	return w.policy
}

// CheckFunc reports whether the awaited condition holds. A returned error
// ends the wait immediately.
type CheckFunc func(ctx context.Context) (bool, error)

type Result struct {
	Done     bool
	Attempts int
	Elapsed  time.Duration
}

var errPending = errors.New("still pending")

// Poll runs check until it reports done, fails, or the budget is spent. Only
// check failures and context cancellation are returned as errors; running out
// of budget yields Done == false.
func (w *Waiter) Poll(ctx context.Context, check CheckFunc) (Result, error) {
	var res Result
	start := w.clock.Now()
	op := func() error {
		res.Attempts++
		done, err := check(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errPending
		}
		return nil
	}

	var timer backoff.Timer
	if w.newTimer != nil {
		timer = w.newTimer()
	}
	b := backoff.WithContext(&schedule{policy: w.policy, clock: w.clock}, ctx)
	err := backoff.RetryNotifyWithTimer(op, b, nil, timer)
	res.Elapsed = w.clock.Now().Sub(start)

	switch {
	case err == nil:
		res.Done = true
		return res, nil
	case errors.Is(err, errPending):
		return res, nil
	default:
		return res, err
	}
}
