// Package player drives looping playback over a set of sliced frames.
//
// Playback is a pure function of an elapsed-time clock: at any instant the
// visible frame is elapsed mod (frames * perFrame) divided by perFrame. The
// loop never terminates on its own; it runs until its context does.
package player

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"
)

// ErrNoFrames is returned when a loop is created without any frames.
var ErrNoFrames = errors.New("no frames to play")

// FrameIndexAt returns the frame visible at the given elapsed time.
func FrameIndexAt(elapsed, perFrame time.Duration, frameCount int) int {
	if frameCount <= 0 || perFrame <= 0 {
		return 0
	}
	cycle := perFrame * time.Duration(frameCount)
	e := elapsed % cycle
	if e < 0 {
		e += cycle
	}
	return int(e / perFrame)
}

// Loop plays frames continuously against a wall clock. The per-frame
// duration can change while running; the new speed applies from the next
// tick without resetting the clock origin.
type Loop struct {
	mu       sync.Mutex
	frames   []image.Image
	perFrame time.Duration
	origin   time.Time

	now func() time.Time // swapped out in tests
}

// NewLoop creates a loop over the given frames. The clock origin starts at
// creation time.
func NewLoop(frames []image.Image, perFrame time.Duration) (*Loop, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if perFrame <= 0 {
		return nil, errors.New("per-frame duration must be positive")
	}
	l := &Loop{
		frames:   frames,
		perFrame: perFrame,
		now:      time.Now,
	}
	l.origin = l.now()
	return l, nil
}

// Restart resets the clock origin, replaying from frame 0.
func (l *Loop) Restart() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.origin = l.now()
}

// SetFrameDuration changes playback speed. Non-positive values are ignored.
func (l *Loop) SetFrameDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perFrame = d
}

// FrameDuration returns the current per-frame duration.
func (l *Loop) FrameDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perFrame
}

// Frame returns the frame visible right now and its index.
func (l *Loop) Frame() (image.Image, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := FrameIndexAt(l.now().Sub(l.origin), l.perFrame, len(l.frames))
	return l.frames[idx], idx
}

// Run ticks at the given interval, invoking fn with the current frame and
// index, until the context ends or fn returns an error. A context end is a
// normal stop and returns nil.
func (l *Loop) Run(ctx context.Context, tick time.Duration, fn func(frame image.Image, index int) error) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frame, idx := l.Frame()
			if err := fn(frame, idx); err != nil {
				return err
			}
		}
	}
}
