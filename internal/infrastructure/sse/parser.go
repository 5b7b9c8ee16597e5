// Package sse decodes the line-oriented event stream returned by the
// recognition service. Frames are "data: <json>" lines; there is no type
// field on the wire, so payloads are classified by shape.
package sse

import (
	"bytes"
	"strings"
)

const (
	dataPrefix  = "data: "
	eventPrefix = "event: "

	// DefaultMaxLineBytes bounds how much of an unterminated line is buffered
	DefaultMaxLineBytes = 1 << 20
)

// LineKind describes how the parser treated a completed line
type LineKind int

const (
	LineBlank LineKind = iota
	LineEvent
	LineData
	LineOther
	// LineTooLong marks a line dropped for exceeding the buffer limit
	LineTooLong
)

// Line is one completed line from the stream
type Line struct {
	Kind LineKind
	// Data is the trimmed payload of a data line, or the raw text otherwise
	Data string
}

// FrameParser splits an incrementally delivered byte stream into lines.
// The trailing fragment after the last newline is held until a later
// chunk terminates it. A FrameParser belongs to exactly one stream.
type FrameParser struct {
	// MaxLineBytes caps the buffered fragment. Zero means DefaultMaxLineBytes.
	MaxLineBytes int

	buf        []byte
	discarding bool
}

// Feed appends chunk to the buffer and returns every line it completes, in order.
// A fragment that outgrows MaxLineBytes is dropped up to its next newline and
// reported once as LineTooLong.
func (p *FrameParser) Feed(chunk []byte) []Line {
	if p.discarding {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			return nil
		}
		chunk = chunk[i+1:]
		p.discarding = false
	}
	p.buf = append(p.buf, chunk...)

	var lines []Line
	if last := bytes.LastIndexByte(p.buf, '\n'); last >= 0 {
		complete := string(p.buf[:last])
		p.buf = append(p.buf[:0], p.buf[last+1:]...)

		raw := strings.Split(complete, "\n")
		lines = make([]Line, 0, len(raw))
		for _, l := range raw {
			lines = append(lines, classifyLine(l))
		}
	}

	if len(p.buf) > p.maxLine() {
		p.buf = p.buf[:0]
		p.discarding = true
		lines = append(lines, Line{Kind: LineTooLong})
	}
	return lines
}

func (p *FrameParser) maxLine() int {
	if p.MaxLineBytes > 0 {
		return p.MaxLineBytes
	}
	return DefaultMaxLineBytes
}

// Pending returns the buffered incomplete fragment
func (p *FrameParser) Pending() string {
	return string(p.buf)
}

// Reset discards any buffered fragment
func (p *FrameParser) Reset() {
	p.buf = p.buf[:0]
	p.discarding = false
}

func classifyLine(line string) Line {
	switch {
	case strings.TrimSpace(line) == "":
		return Line{Kind: LineBlank}
	case strings.HasPrefix(line, eventPrefix):
		return Line{Kind: LineEvent, Data: strings.TrimSpace(line[len(eventPrefix):])}
	case strings.HasPrefix(line, dataPrefix):
		return Line{Kind: LineData, Data: strings.TrimSpace(line[len(dataPrefix):])}
	default:
		return Line{Kind: LineOther, Data: line}
	}
}
