// Package csicapture provides CSI camera frame acquisition on Jetson boards
// through a fixed nvarguscamerasrc GStreamer pipeline.
//
// A Source opens the pipeline with a pluggable capture Backend, hands out
// BGR frames one at a time with a strictly increasing frame ID and a windowed
// FPS estimate, and releases the camera (and any registered display) exactly
// once on Close.
//
// # Quick Start
//
//	cfg := csicapture.DefaultCaptureConfig() // sensor 0, 1920x1080@30 → 960x540, rotate 180
//
//	src, err := csicapture.Open(cfg, gstpipe.NewBackend())
//	if err != nil {
//	    log.Fatal(err) // *csicapture.OpenError: camera, plugin or negotiation failure
//	}
//	defer src.Close()
//
//	for {
//	    frame, ok := src.Acquire()
//	    if !ok {
//	        break // end of stream or read failure (soft stop)
//	    }
//	    fmt.Printf("frame=%d  fps~%.1f\n", frame.ID, frame.FPS)
//	}
//
// The live package wraps this loop with a window, a HUD and quit keys.
//
// # Pipeline
//
// PipelineDescriptor builds the exact pipeline handed to the backend:
//
//	nvarguscamerasrc sensor-id=0 !
//	video/x-raw(memory:NVMM), width=(int)1920, height=(int)1080, framerate=(fraction)30/1 !
//	nvvidconv flip-method=2 !
//	video/x-raw, width=(int)960, height=(int)540, format=(string)BGRx !
//	videoconvert !
//	video/x-raw, format=(string)BGR ! appsink drop=1
//
// (shown wrapped; the real descriptor is one line joined with " ! ").
// The builder is pure and does not validate: out-of-range values surface as
// an OpenError when the backend parses the pipeline.
//
// TestPatternDescriptor produces the same output caps from videotestsrc for
// development machines without a CSI sensor.
//
// # Backends
//
//   - gstpipe: go-gst, appsink pulled synchronously (default)
//   - cvcapture: OpenCV VideoCapture with the GStreamer API (gocv)
//
// Both return freshly allocated BGR24 buffers; a Frame never aliases native
// memory.
//
// # Frame Rate Estimate
//
// Frame.FPS is recomputed only when at least 500ms have elapsed since the
// start of the current window, as frames-in-window / elapsed seconds. Between
// recomputations the previous value is reported unchanged, and it is 0.0
// until the first window closes. WithFPSPeriod changes the window length.
//
// Stats returns a broader view computed over recent frame timestamps
// (mean/stddev/min/max FPS, inter-frame jitter, stability verdict).
//
// # Soft Stop
//
// Acquire returns ok=false on end of stream, on a backend read failure, and
// after Close. The reason is logged; the caller ends its loop and closes the
// Source. Acquire never returns an error value.
//
// # Teardown
//
// Close releases the capture handle first, then each display registered with
// WithDisplay, even when an earlier release failed or panicked. Faults are
// logged at warn level and suppressed. Calling Close again is a no-op.
//
// # Thread Safety
//
// A Source belongs to the goroutine running the acquisition loop. Acquire,
// Stats and Close must not be called concurrently.
//
// # Logging
//
// The package logs through log/slog (slog.Default unless WithLogger is
// given) with a "csi-capture:" message prefix.
package csicapture
