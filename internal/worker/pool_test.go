package worker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPool_RunsEveryTask(t *testing.T) {
	p := NewPool(4, 16, time.Second, zerolog.Nop())
	p.Start()

	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		assert.True(t, p.Submit(func() { ran.Add(1) }))
	}
	p.Stop()

	assert.Equal(t, int64(100), ran.Load())
	assert.Equal(t, 0, p.Stats().QueueLength)
}

func TestPool_SurvivesPanics(t *testing.T) {
	p := NewPool(1, 4, time.Second, zerolog.Nop())
	p.Start()

	var ran atomic.Int64
	p.Submit(func() { panic("boom") })
	p.Submit(func() { ran.Add(1) })
	p.Stop()

	assert.Equal(t, int64(1), ran.Load())
}

func TestPool_DropsWhenFull(t *testing.T) {
	p := NewPool(1, 1, 10*time.Millisecond, zerolog.Nop())
	p.Start()

	release := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-release
	})
	<-started

	assert.True(t, p.Submit(func() {}))
	assert.False(t, p.Submit(func() {}))
	assert.Equal(t, 1, p.Stats().Dropped)

	close(release)
	p.Stop()
	p.Stop()

	assert.False(t, p.Submit(func() {}))
}
