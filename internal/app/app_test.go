package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingGenerator struct {
	calls atomic.Int32
	err   error
}

func (g *countingGenerator) GenerateForAll(context.Context) error {
	g.calls.Add(1)
	return g.err
}

func TestSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	gen := &countingGenerator{err: errors.New("db down")}
	s := NewScheduler(gen, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return gen.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger("production", zap.String("app", "test")))
	assert.NotNil(t, NewLogger("development"))
}
