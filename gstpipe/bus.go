package gstpipe

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
)

// drainBus pops every pending bus message without blocking.
//
// Returns io.EOF on end of stream, an error on a pipeline error, nil
// otherwise. State changes are logged at debug level.
func drainBus(pipeline *gst.Pipeline, logger *slog.Logger) error {
	bus := pipeline.GetPipelineBus()

	for {
		msg := bus.TimedPop(0)
		if msg == nil {
			return nil
		}

		switch msg.Type() {
		case gst.MessageEOS:
			logger.Info("gstpipe: end of stream received")
			return io.EOF

		case gst.MessageError:
			gerr := msg.ParseError()
			logger.Error("gstpipe: pipeline error",
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
				"source", msg.Source(),
			)
			return fmt.Errorf("pipeline error: %s", gerr.Error())

		case gst.MessageWarning:
			gerr := msg.ParseWarning()
			logger.Warn("gstpipe: pipeline warning",
				"warning", gerr.Error(),
				"source", msg.Source(),
			)

		case gst.MessageStateChanged:
			if msg.Source() == pipeline.GetName() {
				old, new := msg.ParseStateChanged()
				logger.Debug("gstpipe: pipeline state changed",
					"from", old,
					"to", new,
				)
			}
		}
	}
}
