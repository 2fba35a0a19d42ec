// Package display shows frames in an OpenCV HighGUI window (gocv) with the
// HUD drawn by PutText.
package display

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/live"
)

// DefaultTitle is the window title
const DefaultTitle = "CSI Camera"

// Window implements live.Display.
//
// The native window is created on the first Show, so a Window that never
// showed a frame (camera failed to open, immediate soft stop) owns nothing
// and Close is a no-op.
type Window struct {
	title  string
	style  live.HUDStyle
	window *gocv.Window
}

var _ live.Display = (*Window)(nil)

// New returns a display that will open a window titled title
func New(title string) *Window {
	if title == "" {
		title = DefaultTitle
	}
	return &Window{title: title, style: live.DefaultHUDStyle()}
}

// WithStyle overrides the HUD style
func (w *Window) WithStyle(style live.HUDStyle) *Window {
	w.style = style
	return w
}

// Show wraps the BGR frame in a Mat, draws hud and presents it
func (w *Window) Show(frame csicapture.Frame, hud string) error {
	if frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("display: frame %d has unknown size %dx%d", frame.ID, frame.Width, frame.Height)
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return fmt.Errorf("display: wrap frame %d: %w", frame.ID, err)
	}
	defer mat.Close()

	gocv.PutText(&mat, hud,
		image.Pt(w.style.OriginX, w.style.OriginY),
		gocv.FontHersheySimplex,
		w.style.Scale,
		w.style.Color,
		w.style.Thickness,
	)

	if w.window == nil {
		w.window = gocv.NewWindow(w.title)
	}
	w.window.IMShow(mat)

	return nil
}

// PollKey waits 1ms for a key press
func (w *Window) PollKey() int {
	if w.window == nil {
		return live.NoKey
	}

	key := w.window.WaitKey(1)
	if key < 0 {
		return live.NoKey
	}
	return key & 0xFF
}

// Close destroys the window if one was created
func (w *Window) Close() error {
	if w.window == nil {
		return nil
	}

	win := w.window
	w.window = nil
	return win.Close()
}
