package loop

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSurface struct {
	acquireErr error
	acquired   int
	released   int
}

func (s *fakeSurface) Acquire() error {
	if s.acquireErr != nil {
		return s.acquireErr
	}
	s.acquired++
	return nil
}

func (s *fakeSurface) Release() { s.released++ }

type fakeEvents struct {
	mu       sync.Mutex
	fn       func(PointerEvent)
	err      error
	removals int
}

func (e *fakeEvents) OnPointer(fn func(PointerEvent)) (func(), error) {
	if e.err != nil {
		return nil, e.err
	}
	e.mu.Lock()
	e.fn = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		e.fn = nil
		e.removals++
		e.mu.Unlock()
	}, nil
}

func (e *fakeEvents) listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fn != nil
}

func noop(time.Time) error { return nil }

func TestStartRunsFramesUntilDisposed(t *testing.T) {
	sched := NewManualScheduler()
	surf := &fakeSurface{}
	ev := &fakeEvents{}

	var n int
	l, err := Start(sched, surf, ev, func(time.Time) error { n++; return nil },
		Options{OnPointer: func(PointerEvent) {}})
	require.NoError(t, err)
	assert.Equal(t, Running, l.State())
	assert.True(t, ev.listening())

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, sched.Step(time.Now()))
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, uint64(3), l.Frames())

	l.Dispose()
	l.Dispose()
	assert.Equal(t, Disposed, l.State())
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 0, sched.Step(time.Now()))
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, surf.released)
	assert.Equal(t, 1, ev.removals)
	assert.False(t, ev.listening())
}

func TestStartReleasesOnListenerError(t *testing.T) {
	surf := &fakeSurface{}
	ev := &fakeEvents{err: errors.New("no pointer")}

	_, err := Start(NewManualScheduler(), surf, ev, noop, Options{OnPointer: func(PointerEvent) {}})
	require.Error(t, err)
	assert.Equal(t, 1, surf.acquired)
	assert.Equal(t, 1, surf.released)
}

func TestStartSurfaceError(t *testing.T) {
	sched := NewManualScheduler()
	surf := &fakeSurface{acquireErr: errors.New("no context")}

	_, err := Start(sched, surf, nil, noop, Options{})
	require.ErrorContains(t, err, "no context")
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 0, surf.released)
}

func TestFrameErrorDisposes(t *testing.T) {
	sched := NewManualScheduler()
	surf := &fakeSurface{}
	boom := errors.New("boom")

	l, err := Start(sched, surf, nil, func(time.Time) error { return boom }, Options{})
	require.NoError(t, err)
	sched.Step(time.Now())

	assert.Equal(t, Disposed, l.State())
	assert.ErrorIs(t, l.Err(), boom)
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 1, surf.released)
}

func TestErrStopDisposesCleanly(t *testing.T) {
	sched := NewManualScheduler()
	l, err := Start(sched, nil, nil, func(time.Time) error { return ErrStop }, Options{})
	require.NoError(t, err)
	sched.Step(time.Now())

	assert.Equal(t, Disposed, l.State())
	assert.NoError(t, l.Err())
}

func TestTickerSchedulerDisposeWaitsForFrame(t *testing.T) {
	var frames atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	l, err := Start(&TickerScheduler{Interval: time.Millisecond}, nil, nil, func(time.Time) error {
		if frames.Add(1) == 2 {
			entered <- struct{}{}
			<-release
		}
		return nil
	}, Options{})
	require.NoError(t, err)

	<-entered
	done := make(chan struct{})
	go func() {
		l.Dispose()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Dispose returned while a frame was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-done

	after := frames.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, frames.Load())
	assert.Equal(t, Disposed, l.State())
}
