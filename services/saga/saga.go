// Package saga runs ordered steps that span more than one datastore. When a
// step fails, every completed step is compensated in reverse order.
package saga

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Step is one unit of work. Compensate may be nil for steps with nothing to undo.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// EventKind identifies what happened to a step
type EventKind string

const (
	StepCompleted         EventKind = "step_completed"
	StepFailed            EventKind = "step_failed"
	CompensationSucceeded EventKind = "compensation_succeeded"
	CompensationFailed    EventKind = "compensation_failed"
)

// Event is delivered to observers after every step and compensation outcome
type Event struct {
	Saga string
	Step string
	Kind EventKind
	Err  error
}

// Observer receives step events. It runs synchronously on the saga goroutine.
type Observer func(ctx context.Context, event Event)

// CompensationError records a compensation that still failed after all retries
type CompensationError struct {
	Step string
	Err  error
}

// Error is returned by Run when a step fails. It unwraps to the step's own error.
type Error struct {
	Saga               string
	Step               string
	Err                error
	CompensationErrors []CompensationError
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: step %s: %v", e.Saga, e.Step, e.Err)
	if len(e.CompensationErrors) == 0 {
		return msg
	}

	failed := make([]string, 0, len(e.CompensationErrors))
	for _, ce := range e.CompensationErrors {
		failed = append(failed, fmt.Sprintf("%s (%v)", ce.Step, ce.Err))
	}
	return msg + "; compensation failed for " + strings.Join(failed, ", ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compensated reports whether every completed step was undone
func (e *Error) Compensated() bool {
	return len(e.CompensationErrors) == 0
}

// Option configures a Saga
type Option func(*Saga)

// WithRetries sets how often a compensation is attempted and the base delay between attempts
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(s *Saga) {
		if attempts > 0 {
			s.attempts = attempts
		}
		s.backoff = backoff
	}
}

// WithObserver registers an observer for step events
func WithObserver(o Observer) Option {
	return func(s *Saga) {
		s.observers = append(s.observers, o)
	}
}

// WithFields adds fields to every log line the saga writes
func WithFields(fields logrus.Fields) Option {
	return func(s *Saga) {
		s.log = s.log.WithFields(fields)
	}
}

// Saga is an ordered list of steps with compensations
type Saga struct {
	name      string
	steps     []Step
	attempts  int
	backoff   time.Duration
	observers []Observer
	log       *logrus.Entry
}

// New creates a saga. Compensations are retried 3 times with a 100ms linear backoff by default.
func New(name string, opts ...Option) *Saga {
	s := &Saga{
		name:     name,
		attempts: 3,
		backoff:  100 * time.Millisecond,
		log:      logrus.WithField("saga", name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends steps in execution order
func (s *Saga) Add(steps ...Step) *Saga {
	s.steps = append(s.steps, steps...)
	return s
}

// Run executes the steps in order. On failure it compensates the completed
// steps in reverse and returns a *Error.
func (s *Saga) Run(ctx context.Context) error {
	completed := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, step.Name, err, completed)
		}

		if err := step.Do(ctx); err != nil {
			s.log.WithField("step", step.Name).WithError(err).Warn("step failed")
			s.notify(ctx, Event{Saga: s.name, Step: step.Name, Kind: StepFailed, Err: err})
			return s.fail(ctx, step.Name, err, completed)
		}

		s.log.WithField("step", step.Name).Debug("step completed")
		completed = append(completed, step)
		s.notify(ctx, Event{Saga: s.name, Step: step.Name, Kind: StepCompleted})
	}

	return nil
}

func (s *Saga) fail(ctx context.Context, stepName string, cause error, completed []Step) error {
	// compensations must finish even if the caller has gone away
	ctx = context.WithoutCancel(ctx)

	sagaErr := &Error{Saga: s.name, Step: stepName, Err: cause}

	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}

		if err := s.compensate(ctx, step); err != nil {
			sagaErr.CompensationErrors = append(sagaErr.CompensationErrors, CompensationError{Step: step.Name, Err: err})
			s.notify(ctx, Event{Saga: s.name, Step: step.Name, Kind: CompensationFailed, Err: err})
			continue
		}
		s.notify(ctx, Event{Saga: s.name, Step: step.Name, Kind: CompensationSucceeded})
	}

	return sagaErr
}

func (s *Saga) compensate(ctx context.Context, step Step) error {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err = step.Compensate(ctx); err == nil {
			s.log.WithFields(logrus.Fields{"step": step.Name, "attempt": attempt}).Info("compensated")
			return nil
		}

		s.log.WithFields(logrus.Fields{"step": step.Name, "attempt": attempt}).WithError(err).Warn("compensation failed")
		if attempt < s.attempts && s.backoff > 0 {
			time.Sleep(time.Duration(attempt) * s.backoff)
		}
	}

	s.log.WithField("step", step.Name).WithError(err).Error("compensation exhausted retries")
	return err
}

func (s *Saga) notify(ctx context.Context, event Event) {
	for _, o := range s.observers {
		o(ctx, event)
	}
}
