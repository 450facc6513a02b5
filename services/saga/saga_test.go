package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingStep(name string, log *[]string, doErr error) Step {
	return Step{
		Name: name,
		Do: func(ctx context.Context) error {
			if doErr != nil {
				return doErr
			}
			*log = append(*log, "do:"+name)
			return nil
		},
		Compensate: func(ctx context.Context) error {
			*log = append(*log, "undo:"+name)
			return nil
		},
	}
}

func TestRunAllStepsSucceed(t *testing.T) {
	var log []string
	var events []Event

	err := New("assign", WithObserver(func(_ context.Context, e Event) { events = append(events, e) })).
		Add(recordingStep("a", &log, nil), recordingStep("b", &log, nil)).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"do:a", "do:b"}, log)
	require.Len(t, events, 2)
	assert.Equal(t, StepCompleted, events[1].Kind)
	assert.Equal(t, "b", events[1].Step)
}

func TestRunCompensatesInReverseOrder(t *testing.T) {
	var log []string
	boom := errors.New("boom")

	err := New("assign", WithRetries(1, 0)).
		Add(
			recordingStep("a", &log, nil),
			recordingStep("b", &log, nil),
			recordingStep("c", &log, boom),
		).
		Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"do:a", "do:b", "undo:b", "undo:a"}, log)

	var sagaErr *Error
	require.True(t, errors.As(err, &sagaErr))
	assert.Equal(t, "c", sagaErr.Step)
	assert.True(t, sagaErr.Compensated())
}

func TestCompensationIsRetried(t *testing.T) {
	calls := 0
	flaky := Step{
		Name: "flaky",
		Do:   func(ctx context.Context) error { return nil },
		Compensate: func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		},
	}
	failing := Step{Name: "fail", Do: func(ctx context.Context) error { return errors.New("boom") }}

	err := New("retry", WithRetries(3, 0)).Add(flaky, failing).Run(context.Background())

	var sagaErr *Error
	require.True(t, errors.As(err, &sagaErr))
	assert.True(t, sagaErr.Compensated())
	assert.Equal(t, 3, calls)
}

func TestExhaustedCompensationIsReported(t *testing.T) {
	var events []Event
	stuck := Step{
		Name:       "stuck",
		Do:         func(ctx context.Context) error { return nil },
		Compensate: func(ctx context.Context) error { return errors.New("still down") },
	}
	failing := Step{Name: "fail", Do: func(ctx context.Context) error { return errors.New("boom") }}

	err := New("stuck", WithRetries(2, 0), WithObserver(func(_ context.Context, e Event) { events = append(events, e) })).
		Add(stuck, failing).
		Run(context.Background())

	var sagaErr *Error
	require.True(t, errors.As(err, &sagaErr))
	assert.False(t, sagaErr.Compensated())
	require.Len(t, sagaErr.CompensationErrors, 1)
	assert.Equal(t, "stuck", sagaErr.CompensationErrors[0].Step)
	assert.Contains(t, err.Error(), "compensation failed for stuck")
	assert.Equal(t, CompensationFailed, events[len(events)-1].Kind)
}

func TestCancelledContextStopsBeforeNextStep(t *testing.T) {
	var log []string
	ctx, cancel := context.WithCancel(context.Background())

	first := Step{
		Name: "first",
		Do: func(ctx context.Context) error {
			log = append(log, "do:first")
			cancel()
			return nil
		},
		Compensate: func(ctx context.Context) error {
			// compensation still runs with a live context
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log = append(log, "undo:first")
			return nil
		},
	}

	err := New("cancel", WithRetries(1, 0)).Add(first, recordingStep("second", &log, nil)).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"do:first", "undo:first"}, log)
}
