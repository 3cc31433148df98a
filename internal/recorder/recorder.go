// Package recorder turns a run into an animated GIF: one screenshot after the
// initial navigation and after every step, with a pointer gliding to each
// element acted on.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/driver"
	"github.com/v0xg/formpilot/internal/runner"
)

var _ runner.Observer = (*Recorder)(nil)

var ErrNoFrames = errors.New("recorder: no frames captured")

// Options configures recording
type Options struct {
	// FrameDelay is how long each step's screenshot stays on screen
	FrameDelay time.Duration
	// Width of the output GIF; height keeps the aspect ratio
	Width uint
	// Cursor draws the pointer and click ripples
	Cursor bool
	// Tween is the number of movement frames between two pointer positions
	Tween int
}

func (o Options) withDefaults() Options {
	if o.FrameDelay <= 0 {
		o.FrameDelay = 800 * time.Millisecond
	}
	if o.Width == 0 {
		o.Width = 800
	}
	if o.Tween < 0 {
		o.Tween = 0
	}
	return o
}

// frame is a composited image and its display time in 100ths of a second
type frame struct {
	img   image.Image
	delay int
}

// Recorder implements runner.Observer
type Recorder struct {
	shooter driver.Screenshotter
	opts    Options
	logger  logrus.FieldLogger

	frames  []frame
	last    image.Image
	pointer image.Point
	placed  bool
}

func New(shooter driver.Screenshotter, opts Options, logger logrus.FieldLogger) *Recorder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recorder{shooter: shooter, opts: opts.withDefaults(), logger: logger}
}

// Observe captures the page after a step
func (r *Recorder) Observe(ctx context.Context, ev runner.Event) error {
	data, err := r.shooter.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	shot, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode screenshot: %w", err)
	}

	if !r.placed {
		b := shot.Bounds()
		r.pointer = image.Pt(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)
		r.placed = true
	}

	target := r.pointer
	if p, ok := ev.Target.(driver.Pointer); ok {
		if center, err := p.Center(ctx); err == nil {
			target = center
		} else {
			r.logger.WithError(err).Debug("No position for step target")
		}
	}

	if r.opts.Cursor && r.last != nil && target != r.pointer {
		for i := 1; i <= r.opts.Tween; i++ {
			pos := tween(r.pointer, target, float64(i)/float64(r.opts.Tween+1))
			r.frames = append(r.frames, frame{img: withCursor(r.last, pos, false), delay: 4})
		}
	}
	r.pointer = target

	img := shot
	if r.opts.Cursor {
		img = withCursor(shot, target, ev.Step.Action == runner.ActionClick)
	}
	r.frames = append(r.frames, frame{img: img, delay: centiseconds(r.opts.FrameDelay)})
	r.last = shot

	r.logger.WithFields(logrus.Fields{"frames": len(r.frames), "step": ev.Index + 1}).Debug("Frame captured")
	return nil
}

// Frames returns the number of GIF frames recorded so far
func (r *Recorder) Frames() int {
	return len(r.frames)
}

// Encode writes the recording as GIF
func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	return encodeGIF(w, r.frames, r.opts.Width)
}

// WriteFile writes the GIF to path and returns its size. Nothing is left at
// path when writing fails.
func (r *Recorder) WriteFile(path string) (size int64, err error) {
	if len(r.frames) == 0 {
		return 0, ErrNoFrames
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			size = 0
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				r.logger.WithError(rmErr).WithField("file", path).Warn("Failed to remove partial recording")
			}
		}
	}()

	cw := &countingWriter{w: f}
	if err := r.Encode(cw); err != nil {
		return 0, err
	}
	return cw.n, nil
}

// countingWriter counts the bytes written through it
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func centiseconds(d time.Duration) int {
	cs := int(d / (10 * time.Millisecond))
	if cs < 1 {
		return 1
	}
	return cs
}
