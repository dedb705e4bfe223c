// Package loop runs a per-frame callback on a Scheduler and owns the
// resources a running viewer holds: the drawing surface and the pointer
// listener.
package loop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the loop lifecycle. There is no paused state: a loop runs
// until it is disposed.
type State int32

const (
	Running State = iota
	Disposed
)

func (s State) String() string {
	if s == Disposed {
		return "disposed"
	}
	return "running"
}

// ErrStop may be returned by a frame func to dispose the loop without
// recording an error.
var ErrStop = errors.New("loop: stop")

// Surface is a drawing target acquired for the loop's lifetime.
type Surface interface {
	Acquire() error
	Release()
}

// PointerEvent is a cursor update in surface pixels.
type PointerEvent struct {
	X, Y   float64
	Inside bool
}

// Events delivers pointer events to a registered listener.
type Events interface {
	OnPointer(fn func(PointerEvent)) (remove func(), err error)
}

// FrameFunc renders one frame.
type FrameFunc func(now time.Time) error

type Options struct {
	// OnPointer is registered on Events when both are set.
	OnPointer func(PointerEvent)
	Logger    *zap.Logger
}

type Loop struct {
	sched   Scheduler
	surface Surface
	frame   FrameFunc
	log     *zap.Logger

	mu        sync.Mutex
	state     State
	cancel    func()
	removePtr func()
	err       error
	inFrame   sync.WaitGroup
	released  bool

	frames atomic.Uint64
}

// Start acquires the surface, registers the pointer listener and requests
// the first frame. If any step fails, everything acquired so far is
// released before the error is returned.
func Start(sched Scheduler, surface Surface, events Events, frame FrameFunc, opts Options) (*Loop, error) {
	if sched == nil || frame == nil {
		return nil, errors.New("loop: scheduler and frame func are required")
	}
	l := &Loop{
		sched:   sched,
		surface: surface,
		frame:   frame,
		log:     opts.Logger,
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}

	if surface != nil {
		if err := surface.Acquire(); err != nil {
			return nil, fmt.Errorf("loop: acquire surface: %w", err)
		}
	}
	if events != nil && opts.OnPointer != nil {
		remove, err := events.OnPointer(opts.OnPointer)
		if err != nil {
			if surface != nil {
				surface.Release()
			}
			return nil, fmt.Errorf("loop: register pointer listener: %w", err)
		}
		l.removePtr = remove
	}

	l.mu.Lock()
	l.schedule()
	l.mu.Unlock()
	return l, nil
}

// schedule requests the next frame. Caller holds l.mu.
func (l *Loop) schedule() {
	if l.state != Running {
		return
	}
	l.cancel = l.sched.Request(l.tick)
}

func (l *Loop) tick(now time.Time) {
	l.mu.Lock()
	if l.state != Running {
		l.mu.Unlock()
		return
	}
	l.cancel = nil
	l.inFrame.Add(1)
	l.mu.Unlock()

	err := l.frame(now)
	l.inFrame.Done()

	if err != nil {
		if !errors.Is(err, ErrStop) {
			l.log.Warn("frame failed, disposing loop", zap.Error(err))
			l.mu.Lock()
			if l.err == nil {
				l.err = err
			}
			l.mu.Unlock()
		}
		l.Dispose()
		return
	}
	l.frames.Add(1)

	l.mu.Lock()
	l.schedule()
	l.mu.Unlock()
}

// Dispose cancels the pending frame, removes the pointer listener, waits
// for an in-flight frame and releases the surface. It is idempotent. It
// must not be called from inside the frame func; return ErrStop instead.
func (l *Loop) Dispose() {
	l.mu.Lock()
	if l.state == Disposed {
		l.mu.Unlock()
		return
	}
	l.state = Disposed
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.removePtr != nil {
		l.removePtr()
		l.removePtr = nil
	}
	l.mu.Unlock()

	l.inFrame.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.surface != nil && !l.released {
		l.surface.Release()
		l.released = true
	}
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the error that stopped the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Frames returns the number of frames completed.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}
