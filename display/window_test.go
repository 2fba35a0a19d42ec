package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/live"
)

// These tests never create a native window; showing real frames needs a
// display server and is exercised manually with `csi-capture live`.

func TestNew_DefaultTitle(t *testing.T) {
	w := New("")
	assert.Equal(t, DefaultTitle, w.title)
	assert.Equal(t, live.DefaultHUDStyle(), w.style)
}

func TestWindow_UnusedCloseIsNoop(t *testing.T) {
	w := New("test")

	assert.Equal(t, live.NoKey, w.PollKey())
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWindow_ShowRejectsUnknownSize(t *testing.T) {
	w := New("test")

	err := w.Show(csicapture.Frame{ID: 3, Data: []byte{1, 2, 3}}, "frame=3  fps~0.0")

	assert.ErrorContains(t, err, "unknown size")
	assert.Nil(t, w.window)
}
