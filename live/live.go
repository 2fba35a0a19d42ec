// Package live runs the interactive view: acquire a frame, annotate it with
// a frame-counter/FPS heads-up display, show it, and poll for a quit key.
package live

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
)

// Quit keys returned by Display.PollKey
const (
	KeyEsc = 27
	KeyQ   = 'q'

	// NoKey is returned by PollKey when no key was pressed
	NoKey = -1
)

// FrameReader is the part of *csicapture.Source the loop needs
type FrameReader interface {
	Acquire() (csicapture.Frame, bool)
	Close()
}

// Display shows annotated frames and reports key presses.
//
// Display is an io.Closer so it can be handed to csicapture.WithDisplay:
// the Source then releases it on Close, after the camera. Run itself never
// closes the display.
type Display interface {
	// Show draws hud over the frame and presents it
	Show(frame csicapture.Frame, hud string) error

	// PollKey waits about 1ms for a key press and returns its code, or
	// NoKey
	PollKey() int

	Close() error
}

// HUDStyle describes how the HUD text is drawn
type HUDStyle struct {
	OriginX   int
	OriginY   int
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// DefaultHUDStyle returns the HUD style: (15, 35), scale 1.0, white, thickness 2
func DefaultHUDStyle() HUDStyle {
	return HUDStyle{
		OriginX:   15,
		OriginY:   35,
		Scale:     1.0,
		Color:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Thickness: 2,
	}
}

// HUDText formats the overlay text for a frame, e.g. "frame=42  fps~29.8"
func HUDText(frame csicapture.Frame) string {
	return fmt.Sprintf("frame=%d  fps~%.1f", frame.ID, frame.FPS)
}

// IsQuitKey reports whether key ends the loop (ESC or 'q')
func IsQuitKey(key int) bool {
	return key == KeyEsc || key == KeyQ
}

// Option configures Run
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger sets the loop logger (default: slog.Default())
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run drives the acquire, annotate, show, poll loop until a quit key, a soft
// stop from the source, or ctx cancellation.
//
// src.Close is deferred and runs exactly once on every exit path, including
// display errors and panics. A soft stop is a normal exit: Run returns nil.
// A display error is returned after the source is closed.
func Run(ctx context.Context, src FrameReader, disp Display, opts ...Option) error {
	o := runOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	defer src.Close()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("live: interrupted, stopping", "reason", ctx.Err())
			return nil
		default:
		}

		frame, ok := src.Acquire()
		if !ok {
			o.logger.Warn("live: frame read failed")
			return nil
		}

		if err := disp.Show(frame, HUDText(frame)); err != nil {
			return fmt.Errorf("live: show frame %d: %w", frame.ID, err)
		}

		if key := disp.PollKey(); IsQuitKey(key) {
			o.logger.Info("live: quit requested", "key", key, "frames", frame.ID)
			return nil
		}
	}
}
