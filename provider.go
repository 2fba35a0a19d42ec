package csicapture

// Backend opens capture handles from a pipeline descriptor.
//
// Implementations:
//   - gstpipe: GStreamer appsink via go-gst (default)
//   - cvcapture: OpenCV VideoCapture with the GStreamer API
type Backend interface {
	// Name identifies the backend in logs and errors
	Name() string

	// Open starts the pipeline described by descriptor.
	//
	// Returns an error if the pipeline cannot be parsed, a required element
	// is missing, or the camera refuses to start.
	Open(descriptor string) (Capture, error)
}

// Capture is an open capture handle.
//
// Capture is used from a single goroutine; implementations need no locking.
type Capture interface {
	// Read blocks until the next frame is available.
	//
	// The returned buffer holds packed BGR24 pixels and must be a fresh
	// allocation: the caller keeps it after Read returns.
	//
	// Returns io.EOF at end of stream, or another error if the backend
	// failed. Both end the acquisition loop.
	Read() (data []byte, width, height int, err error)

	// Release stops the pipeline and frees native resources.
	Release() error
}
