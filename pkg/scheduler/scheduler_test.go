package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskRunsPeriodically(t *testing.T) {
	var runs atomic.Int64

	s := New()
	s.Register(Task{
		Name:     "counter",
		Interval: 10 * time.Millisecond,
		Run:      func(ctx context.Context) { runs.Add(1) },
	})
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestStopWaitsForTasks(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool

	s := New()
	s.Register(Task{
		Name:     "slow",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) {
			select {
			case started <- struct{}{}:
			default:
			}
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
		},
	})
	s.Start(context.Background())

	<-started
	s.Stop()
	assert.True(t, finished.Load(), "Stop returned before the running task finished")
}

func TestStopBeforeStart(t *testing.T) {
	s := New()
	s.Register(Task{Name: "noop", Interval: time.Hour, Run: func(ctx context.Context) {}})
	// No Start; Stop must not panic or block.
	s.Stop()
}

func TestTasksStopOnParentCancel(t *testing.T) {
	var runs atomic.Int64

	ctx, cancel := context.WithCancel(context.Background())
	s := New()
	s.Register(Task{
		Name:     "counter",
		Interval: 5 * time.Millisecond,
		Run:      func(ctx context.Context) { runs.Add(1) },
	})
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "task kept running after cancel")
}
