// Package snapshot writes annotated frames to disk for headless capture.
package snapshot

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/live"
)

// Supported output formats
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// BGRToRGBA converts a packed BGR24 frame into an opaque RGBA image
func BGRToRGBA(frame csicapture.Frame) (*image.RGBA, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("frame %d has unknown size %dx%d", frame.ID, frame.Width, frame.Height)
	}

	pixels := frame.Width * frame.Height
	if len(frame.Data) < pixels*3 {
		return nil, fmt.Errorf("frame %d: %d bytes, want %d for %dx%d BGR",
			frame.ID, len(frame.Data), pixels*3, frame.Width, frame.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))

	for i := 0; i < pixels; i++ {
		img.Pix[i*4+0] = frame.Data[i*3+2] // R
		img.Pix[i*4+1] = frame.Data[i*3+1] // G
		img.Pix[i*4+2] = frame.Data[i*3+0] // B
		img.Pix[i*4+3] = 255
	}

	return img, nil
}

// DrawHUD draws text at the style origin (baseline) with the 7x13 bitmap
// font. Scale and thickness do not apply to bitmap faces.
func DrawHUD(img *image.RGBA, text string, style live.HUDStyle) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(style.Color),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(style.OriginX, style.OriginY),
	}
	d.DrawString(text)
}

// Writer saves annotated frames into a directory
type Writer struct {
	dir         string
	format      string
	jpegQuality int
	style       live.HUDStyle
}

// NewWriter validates the format and creates dir if needed
func NewWriter(dir, format string, jpegQuality int) (*Writer, error) {
	if format != FormatPNG && format != FormatJPEG {
		return nil, fmt.Errorf("invalid output format: %s (must be png or jpeg)", format)
	}
	if jpegQuality < 1 || jpegQuality > 100 {
		return nil, fmt.Errorf("invalid jpeg quality: %d (must be 1-100)", jpegQuality)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Writer{
		dir:         dir,
		format:      format,
		jpegQuality: jpegQuality,
		style:       live.DefaultHUDStyle(),
	}, nil
}

// Filename returns the file name used for frame, e.g.
// frame_000042_20250101_120000.123.png
func (w *Writer) Filename(frame csicapture.Frame) string {
	return fmt.Sprintf("frame_%06d_%s.%s", frame.ID, frame.Timestamp.Format("20060102_150405.000"), w.format)
}

// Save converts frame, draws hud (if non-empty) and encodes it.
// Returns the written path.
func (w *Writer) Save(frame csicapture.Frame, hud string) (path string, err error) {
	img, err := BGRToRGBA(frame)
	if err != nil {
		return "", err
	}
	if hud != "" {
		DrawHUD(img, hud, w.style)
	}

	path = filepath.Join(w.dir, w.Filename(frame))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	switch w.format {
	case FormatPNG:
		if err := png.Encode(file, img); err != nil {
			return path, fmt.Errorf("failed to encode PNG: %w", err)
		}
	case FormatJPEG:
		if err := jpeg.Encode(file, img, &jpeg.Options{Quality: w.jpegQuality}); err != nil {
			return path, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	}

	return path, nil
}
