package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) SweepOverdue(context.Context) (int64, error) {
	s.calls.Add(1)
	return 3, s.err
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New(&countingSweeper{}, &config.Scheduler{OverdueSweep: "not a schedule"}, slog.Default())
	require.Error(t, s.Start())
}

func TestStart_RegistersSweep(t *testing.T) {
	s := New(&countingSweeper{}, &config.Scheduler{OverdueSweep: "@every 1h"}, slog.Default())
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunOverdueSweep(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(sweeper, &config.Scheduler{OverdueSweep: "@hourly"}, slog.Default())
	s.runOverdueSweep()

	sweeper.err = errors.New("db down")
	s.runOverdueSweep()
	assert.Equal(t, int32(2), sweeper.calls.Load())
}
