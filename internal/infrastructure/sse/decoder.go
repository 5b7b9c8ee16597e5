package sse

import (
	"go.uber.org/zap"

	"github.com/pauseshop/backend/internal/domain"
)

const maxLoggedFrame = 200

// Decoder turns raw body chunks into classified events for one stream.
// Malformed frames are logged and skipped; they never stop the stream.
type Decoder struct {
	parser FrameParser
	logger *zap.Logger
}

// NewDecoder creates a decoder for a single stream
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// Feed consumes chunk and returns the events it completes, in arrival order.
// Unrecognized payloads are logged and dropped.
func (d *Decoder) Feed(chunk []byte) []domain.StreamEvent {
	var events []domain.StreamEvent
	for _, line := range d.parser.Feed(chunk) {
		switch line.Kind {
		case LineBlank, LineEvent:
			continue
		case LineOther:
			d.logger.Debug("ignoring non-data line", zap.String("line", truncate(line.Data)))
			continue
		case LineTooLong:
			d.logger.Warn("dropping oversized line", zap.Int("limit", d.parser.maxLine()))
			continue
		}

		event, err := Classify([]byte(line.Data))
		if err != nil {
			d.logger.Warn("skipping malformed frame",
				zap.String("frame", truncate(line.Data)),
				zap.Error(err))
			continue
		}
		if u, ok := event.(domain.UnrecognizedEvent); ok {
			d.logger.Debug("dropping unrecognized frame", zap.String("frame", truncate(string(u.Raw))))
			continue
		}
		events = append(events, event)
	}
	return events
}

// Close releases the buffered fragment. An unterminated trailing line is
// discarded, never classified.
func (d *Decoder) Close() {
	if pending := d.parser.Pending(); pending != "" {
		d.logger.Debug("discarding unterminated fragment", zap.Int("bytes", len(pending)))
	}
	d.parser.Reset()
}

func truncate(s string) string {
	if len(s) <= maxLoggedFrame {
		return s
	}
	return s[:maxLoggedFrame] + "..."
}
