package csicapture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies open failures for diagnostics
type ErrorCategory int

const (
	// ErrCategoryCamera indicates the sensor or Argus daemon is unavailable
	ErrCategoryCamera ErrorCategory = iota
	// ErrCategoryPlugin indicates a missing GStreamer element or backend
	ErrCategoryPlugin
	// ErrCategoryNegotiation indicates caps/format negotiation failures
	ErrCategoryNegotiation
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the error category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryCamera:
		return "camera"
	case ErrCategoryPlugin:
		return "plugin"
	case ErrCategoryNegotiation:
		return "negotiation"
	default:
		return "unknown"
	}
}

// ErrNoCapture is the OpenError cause when a backend reports success
// without a capture handle
var ErrNoCapture = errors.New("backend returned no capture handle")

// OpenError is returned by Open when the backend cannot start the pipeline.
//
// It is fatal for the Source: no retry is attempted.
type OpenError struct {
	// Backend is the name of the capture backend
	Backend string
	// Descriptor is the pipeline that failed to open
	Descriptor string
	// Category is the heuristic classification of Err
	Category ErrorCategory
	// Err is the backend error
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("csi-capture: unable to open camera via %s [%s]: %v (pipeline: %s)",
		e.Backend, e.Category, e.Err, e.Descriptor)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// IsOpenError reports whether err is (or wraps) an *OpenError
func IsOpenError(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}

// ClassifyOpenError analyzes a backend error and categorizes it.
//
// Classification is based on message heuristics: GStreamer and OpenCV report
// most failures as plain strings.
func ClassifyOpenError(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryUnknown
	}

	msg := strings.ToLower(err.Error())

	// Priority 1: missing elements (most specific)
	if containsAny(msg, pluginKeywords) {
		return ErrCategoryPlugin
	}

	// Priority 2: caps negotiation
	if containsAny(msg, negotiationKeywords) {
		return ErrCategoryNegotiation
	}

	// Priority 3: camera / Argus
	if containsAny(msg, cameraKeywords) {
		return ErrCategoryCamera
	}

	return ErrCategoryUnknown
}

var pluginKeywords = []string{
	"no element",
	"no such element",
	"missing plugin",
	"could not create",
	"not built with gstreamer",
	"backend is not available",
	"unknown backend",
}

var negotiationKeywords = []string{
	"not negotiated",
	"negotiation",
	"caps",
	"format",
	"could not link",
}

var cameraKeywords = []string{
	"argus",
	"nvarguscamerasrc",
	"sensor",
	"camera",
	"no cameras available",
	"failed to create capturesession",
	"resource busy",
	"device",
	"timeout",
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
