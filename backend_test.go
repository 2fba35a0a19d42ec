package csicapture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/cvcapture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/display"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/gstpipe"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/live"
)

func TestPublicBackends(t *testing.T) {
	backends := map[string]csicapture.Backend{
		"gstreamer": gstpipe.NewBackend(),
		"opencv":    cvcapture.NewBackend(),
	}

	for name, b := range backends {
		assert.Equal(t, name, b.Name())
	}
}

func TestPublicDisplay(t *testing.T) {
	var d live.Display = display.New("CSI Camera")

	// Never shown, so closing creates no window
	assert.NoError(t, d.Close())
}
