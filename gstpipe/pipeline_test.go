package gstpipe

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackendWithConfig_Defaults(t *testing.T) {
	b := NewBackendWithConfig(Config{})

	assert.Equal(t, 5*time.Second, b.cfg.StartTimeout)
	assert.Equal(t, 100*time.Millisecond, b.cfg.PollInterval)
	assert.NotNil(t, b.cfg.Logger)
}

func TestNewBackendWithConfig_KeepsCustomValues(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b := NewBackendWithConfig(Config{
		StartTimeout: time.Second,
		PollInterval: 10 * time.Millisecond,
		Logger:       logger,
	})

	assert.Equal(t, time.Second, b.cfg.StartTimeout)
	assert.Equal(t, 10*time.Millisecond, b.cfg.PollInterval)
	assert.Same(t, logger, b.cfg.Logger)
}

func TestBackend_Name(t *testing.T) {
	assert.Equal(t, "gstreamer", NewBackend().Name())
}

func TestPipeline_ReleaseIdempotent(t *testing.T) {
	// A zero Pipeline behaves like an already released one
	p := &Pipeline{}

	require.NoError(t, p.Release())
	require.NoError(t, p.Release())

	_, _, _, err := p.Read()
	assert.ErrorIs(t, err, errReleased)
}

// Integration tests require nvarguscamerasrc or videotestsrc and are run
// manually with: csi-capture capture --test-pattern --max-frames 30
