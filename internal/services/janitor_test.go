package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingSweeper struct {
	calls   atomic.Int32
	removed int
	err     error
}

func (c *countingSweeper) Sweep(context.Context) (int, error) {
	c.calls.Add(1)
	return c.removed, c.err
}

func TestJanitorSweepOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	files := &countingSweeper{removed: 3}
	sessions := &countingSweeper{err: errors.New("valkey down")}

	j := NewJanitor(map[string]Sweeper{"files": files, "sessions": sessions}, time.Hour, zap.New(core))

	assert.Equal(t, 3, j.SweepOnce(context.Background()))
	assert.Equal(t, 1, logs.FilterMessageSnippet("Sweep failed").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("Expired entries removed").Len())
}

func TestJanitorRunsUntilStopped(t *testing.T) {
	s := &countingSweeper{}
	j := NewJanitor(map[string]Sweeper{"files": s}, 5*time.Millisecond, nil)

	j.Start(context.Background())
	assert.Eventually(t, func() bool { return s.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	j.Stop()
	j.Stop()

	after := s.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, s.calls.Load())
}
