package csicapture

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapture replays a scripted sequence of reads
type fakeCapture struct {
	reads      []error // nil = successful read
	pos        int
	width      int
	height     int
	releases   int
	releaseErr error
	panicOnRel bool
	onRead     func()
	calls      *[]string // shared release log, optional
}

func (c *fakeCapture) Read() ([]byte, int, int, error) {
	if c.onRead != nil {
		c.onRead()
	}
	if c.pos >= len(c.reads) {
		return nil, 0, 0, io.EOF
	}
	err := c.reads[c.pos]
	c.pos++
	if err != nil {
		return nil, 0, 0, err
	}
	return make([]byte, c.width*c.height*3), c.width, c.height, nil
}

func (c *fakeCapture) Release() error {
	c.releases++
	if c.calls != nil {
		*c.calls = append(*c.calls, "capture")
	}
	if c.panicOnRel {
		panic("native release crashed")
	}
	return c.releaseErr
}

type fakeBackend struct {
	capture    *fakeCapture
	openErr    error
	descriptor string
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Open(descriptor string) (Capture, error) {
	b.descriptor = descriptor
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.capture, nil
}

// nilBackend reports success without a capture handle
type nilBackend struct{}

func (nilBackend) Name() string { return "nil" }

func (nilBackend) Open(string) (Capture, error) { return nil, nil }

// fakeDisplay records Close calls
type fakeDisplay struct {
	closes int
	err    error
	name   string
	calls  *[]string
}

func (d *fakeDisplay) Close() error {
	d.closes++
	if d.calls != nil {
		*d.calls = append(*d.calls, d.name)
	}
	return d.err
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func successes(n int) []error {
	return make([]error, n)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openFake(t *testing.T, capture *fakeCapture, opts ...Option) *Source {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	src, err := Open(DefaultCaptureConfig(), &fakeBackend{capture: capture}, opts...)
	require.NoError(t, err)
	return src
}

func TestOpen_UsesBuiltDescriptor(t *testing.T) {
	backend := &fakeBackend{capture: &fakeCapture{}}
	cfg := DefaultCaptureConfig()

	src, err := Open(cfg, backend, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, PipelineDescriptor(cfg), backend.descriptor)
	assert.Equal(t, backend.descriptor, src.Descriptor())
	assert.Equal(t, cfg, src.Config())
	assert.Equal(t, "fake", src.Backend())
}

func TestOpen_DescriptorOverride(t *testing.T) {
	backend := &fakeBackend{capture: &fakeCapture{}}
	cfg := DefaultCaptureConfig()

	src, err := Open(cfg, backend, WithLogger(quietLogger()), WithDescriptor(TestPatternDescriptor(cfg)))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, TestPatternDescriptor(cfg), backend.descriptor)
}

func TestOpen_Failure(t *testing.T) {
	backendErr := errors.New(`no element "nvarguscamerasrc"`)
	backend := &fakeBackend{openErr: backendErr}

	src, err := Open(DefaultCaptureConfig(), backend, WithLogger(quietLogger()))

	require.Error(t, err)
	assert.Nil(t, src)
	assert.True(t, IsOpenError(err))
	assert.ErrorIs(t, err, backendErr)

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "fake", openErr.Backend)
	assert.Equal(t, ErrCategoryPlugin, openErr.Category)
	assert.Contains(t, openErr.Error(), "nvarguscamerasrc sensor-id=0")
}

func TestOpen_NilBackend(t *testing.T) {
	src, err := Open(DefaultCaptureConfig(), nil, WithLogger(quietLogger()))

	require.Error(t, err)
	assert.Nil(t, src)
	assert.True(t, IsOpenError(err))
}

func TestOpen_BackendWithoutCapture(t *testing.T) {
	src, err := Open(DefaultCaptureConfig(), nilBackend{}, WithLogger(quietLogger()))

	require.Error(t, err)
	assert.Nil(t, src)
	assert.True(t, IsOpenError(err))
	assert.ErrorIs(t, err, ErrNoCapture)

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "nil", openErr.Backend)
}

func TestAcquire_FrameIDsAreGapless(t *testing.T) {
	const n = 25
	src := openFake(t, &fakeCapture{reads: successes(n), width: 4, height: 2})
	defer src.Close()

	for want := uint64(1); want <= n; want++ {
		frame, ok := src.Acquire()
		require.True(t, ok)
		assert.Equal(t, want, frame.ID)
		assert.Equal(t, 4, frame.Width)
		assert.Equal(t, 2, frame.Height)
		assert.Len(t, frame.Data, 4*2*3)
		assert.NotEmpty(t, frame.TraceID)
	}

	_, ok := src.Acquire()
	assert.False(t, ok, "end of stream is a soft stop")
	assert.Equal(t, uint64(n), src.Stats().FrameCount)
}

func TestAcquire_FPSStaysZeroBeforeFirstWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	capture := &fakeCapture{
		reads:  successes(12),
		width:  2,
		height: 2,
		onRead: func() { clock.Advance(40 * time.Millisecond) },
	}
	src := openFake(t, capture, WithClock(clock.Now))
	defer src.Close()

	// 12 × 40ms = 480ms < 500ms
	for i := 0; i < 12; i++ {
		frame, ok := src.Acquire()
		require.True(t, ok)
		assert.Equal(t, 0.0, frame.FPS, "frame %d", frame.ID)
	}
}

func TestAcquire_FPSCommitsAfterHalfSecond(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	capture := &fakeCapture{
		reads:  successes(10),
		width:  2,
		height: 2,
		onRead: func() { clock.Advance(100 * time.Millisecond) },
	}
	src := openFake(t, capture, WithClock(clock.Now))
	defer src.Close()

	var fps []float64
	var stamps []time.Time
	for i := 0; i < 10; i++ {
		frame, ok := src.Acquire()
		require.True(t, ok)
		fps = append(fps, frame.FPS)
		stamps = append(stamps, frame.Timestamp)
	}

	// 10 reads uniformly over 1.0s: first commit at 0.5s, next at 1.0s
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, fps[i], "frame %d", i+1)
	}
	for i := 4; i < 10; i++ {
		assert.InDelta(t, 10.0, fps[i], 1e-9, "frame %d", i+1)
	}

	assert.Equal(t, time.Unix(1700000000, 0).Add(time.Second), stamps[9])
	assert.Equal(t, stamps[9].UnixNano(), Frame{Timestamp: stamps[9]}.TimestampNS())

	stats := src.Stats()
	assert.InDelta(t, 10.0, stats.FPS, 1e-9)
	assert.InDelta(t, 10.0, stats.FPSMean, 1e-9)
	assert.True(t, stats.IsStable)
}

func TestAcquire_FPSNotRecomputedBetweenBoundaries(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	step := 100 * time.Millisecond
	capture := &fakeCapture{
		reads:  successes(8),
		width:  2,
		height: 2,
		onRead: func() { clock.Advance(step) },
	}
	src := openFake(t, capture, WithClock(clock.Now))
	defer src.Close()

	for i := 0; i < 5; i++ {
		_, ok := src.Acquire()
		require.True(t, ok)
	}

	// Frame rate collapses, but the committed value holds until 0.5s pass
	step = 200 * time.Millisecond
	frame, ok := src.Acquire() // +0.2s
	require.True(t, ok)
	assert.InDelta(t, 10.0, frame.FPS, 1e-9)

	frame, ok = src.Acquire() // +0.4s
	require.True(t, ok)
	assert.InDelta(t, 10.0, frame.FPS, 1e-9)

	frame, ok = src.Acquire() // +0.6s → 3 samples / 0.6s
	require.True(t, ok)
	assert.InDelta(t, 5.0, frame.FPS, 1e-9)
}

func TestAcquire_FailureOnFirstReadThenClose(t *testing.T) {
	display := &fakeDisplay{}
	capture := &fakeCapture{reads: []error{errors.New("nvbuf_utils: timeout")}}
	src := openFake(t, capture, WithDisplay("window", display))

	frame, ok := src.Acquire()
	assert.False(t, ok)
	assert.Equal(t, Frame{}, frame)

	assert.NotPanics(t, src.Close)
	assert.Equal(t, 1, capture.releases)
	assert.Equal(t, 1, display.closes)
}

func TestAcquire_EmptyBufferIsSoftStop(t *testing.T) {
	capture := &fakeCapture{reads: successes(3), width: 0, height: 0}
	src := openFake(t, capture)
	defer src.Close()

	_, ok := src.Acquire()
	assert.False(t, ok)
}

func TestAcquire_AfterCloseIsSoftStop(t *testing.T) {
	capture := &fakeCapture{reads: successes(3), width: 2, height: 2}
	src := openFake(t, capture)
	src.Close()

	_, ok := src.Acquire()
	assert.False(t, ok)
	assert.Equal(t, 0, capture.pos, "closed source must not touch the handle")
}

func TestAcquire_WithoutTraceIDs(t *testing.T) {
	src := openFake(t, &fakeCapture{reads: successes(1), width: 1, height: 1}, WithoutTraceIDs())
	defer src.Close()

	frame, ok := src.Acquire()
	require.True(t, ok)
	assert.Empty(t, frame.TraceID)
}

func TestClose_Idempotent(t *testing.T) {
	display := &fakeDisplay{}
	capture := &fakeCapture{reads: successes(2), width: 2, height: 2}
	src := openFake(t, capture, WithDisplay("window", display))

	src.Close()
	src.Close()
	src.Close()

	assert.Equal(t, 1, capture.releases, "capture handle released exactly once")
	assert.Equal(t, 1, display.closes)
	assert.True(t, src.Stats().Closed)
}

func TestClose_ReleasesCaptureBeforeDisplays(t *testing.T) {
	t.Run("single display", func(t *testing.T) {
		var calls []string
		capture := &fakeCapture{calls: &calls}
		display := &fakeDisplay{name: "window", calls: &calls}
		src := openFake(t, capture, WithDisplay("window", display))

		src.Close()

		assert.Equal(t, []string{"capture", "window"}, calls)
	})

	t.Run("displays in registration order", func(t *testing.T) {
		var calls []string
		capture := &fakeCapture{calls: &calls}
		window := &fakeDisplay{name: "window", calls: &calls}
		overlay := &fakeDisplay{name: "overlay", calls: &calls}
		src := openFake(t, capture, WithDisplay("window", window), WithDisplay("overlay", overlay))

		src.Close()
		src.Close()

		assert.Equal(t, []string{"capture", "window", "overlay"}, calls)
	})

	t.Run("order kept when capture release panics", func(t *testing.T) {
		var calls []string
		capture := &fakeCapture{calls: &calls, panicOnRel: true}
		display := &fakeDisplay{name: "window", calls: &calls}
		src := openFake(t, capture, WithDisplay("window", display))

		assert.NotPanics(t, src.Close)
		assert.Equal(t, []string{"capture", "window"}, calls)
	})
}

func TestClose_DisplayReleasedWhenCaptureFails(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		display := &fakeDisplay{}
		capture := &fakeCapture{releaseErr: errors.New("set state NULL failed")}
		src := openFake(t, capture, WithDisplay("window", display))

		assert.NotPanics(t, src.Close)
		assert.Equal(t, 1, capture.releases)
		assert.Equal(t, 1, display.closes)
	})

	t.Run("panic", func(t *testing.T) {
		display := &fakeDisplay{}
		capture := &fakeCapture{panicOnRel: true}
		src := openFake(t, capture, WithDisplay("window", display))

		assert.NotPanics(t, src.Close)
		assert.Equal(t, 1, display.closes)
	})

	t.Run("display fault is swallowed", func(t *testing.T) {
		first := &fakeDisplay{err: errors.New("window already destroyed")}
		second := &fakeDisplay{}
		src := openFake(t, &fakeCapture{}, WithDisplay("window", first), WithDisplay("overlay", second))

		assert.NotPanics(t, src.Close)
		assert.Equal(t, 1, first.closes)
		assert.Equal(t, 1, second.closes)
	})
}

func TestRelease(t *testing.T) {
	assert.NoError(t, release("ok", func() error { return nil }))

	err := release("capture", func() error { return io.ErrUnexpectedEOF })
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "capture")

	err = release("window", func() error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic during release: boom")
}
