package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNextFire(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			"before today's fire time",
			time.Date(2013, time.May, 5, 9, 0, 0, 0, time.UTC),
			time.Date(2013, time.May, 5, 14, 30, 0, 0, time.UTC),
		},
		{
			"after today's fire time",
			time.Date(2013, time.May, 5, 15, 0, 0, 0, time.UTC),
			time.Date(2013, time.May, 6, 14, 30, 0, 0, time.UTC),
		},
		{
			"exactly at fire time rolls to tomorrow",
			time.Date(2013, time.May, 5, 14, 30, 0, 0, time.UTC),
			time.Date(2013, time.May, 6, 14, 30, 0, 0, time.UTC),
		},
		{
			"month boundary",
			time.Date(2013, time.May, 31, 20, 0, 0, 0, time.UTC),
			time.Date(2013, time.June, 1, 14, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextFire(tt.now, 14, 30))
		})
	}
}

func TestRun_FiresDaily(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2013, time.May, 5, 9, 0, 0, 0, time.UTC))
	d := New(14, 30, clock, discardLogger())

	fired := make(chan time.Time, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, func(context.Context) error {
			fired <- clock.Now().UTC()
			return nil
		})
	}()

	// First fire at 14:30 today.
	clock.BlockUntil(1)
	clock.Advance(5*time.Hour + 30*time.Minute)
	first := <-fired
	assert.Equal(t, time.Date(2013, time.May, 5, 14, 30, 0, 0, time.UTC), first)

	// Second fire a day later.
	clock.BlockUntil(1)
	clock.Advance(24 * time.Hour)
	second := <-fired
	assert.Equal(t, time.Date(2013, time.May, 6, 14, 30, 0, 0, time.UTC), second)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_ContinuesAfterError(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2013, time.May, 5, 9, 0, 0, 0, time.UTC))
	d := New(14, 30, clock, discardLogger())

	calls := make(chan int, 4)
	n := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = d.Run(ctx, func(context.Context) error {
			n++
			calls <- n
			return errors.New("run failed")
		})
	}()

	clock.BlockUntil(1)
	clock.Advance(6 * time.Hour)
	assert.Equal(t, 1, <-calls)

	clock.BlockUntil(1)
	clock.Advance(24 * time.Hour)
	assert.Equal(t, 2, <-calls)
}
