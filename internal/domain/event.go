package domain

import "encoding/json"

// StreamEvent is a classified frame from a streaming response. The set of
// implementations is closed: ProductEvent, RankingEvent, CompletionEvent,
// ErrorEvent and UnrecognizedEvent.
type StreamEvent interface {
	isStreamEvent()
}

// ProductEvent carries one detected product
type ProductEvent struct {
	Product Product
}

// RankingEvent carries one ranking update
type RankingEvent struct {
	Ranking RankingResult
}

// CompletionKind tells which flow a completion frame terminates
type CompletionKind string

const (
	CompletionAnalysis    CompletionKind = "analysis"
	CompletionRanking     CompletionKind = "ranking"
	CompletionEndOfStream CompletionKind = "end_of_stream" // body ended without a completion frame
)

// CompletionEvent terminates a stream successfully
type CompletionEvent struct {
	Kind           CompletionKind
	TotalProducts  *int
	TotalRankings  *int
	ProcessingTime *float64
}

// ErrorKind is the classified error reported to callers
type ErrorKind string

const (
	ErrorKindImage      ErrorKind = "image_error"
	ErrorKindProcessing ErrorKind = "processing_error"
	ErrorKindRateLimit  ErrorKind = "rate_limit_error"
	ErrorKindServer     ErrorKind = "server_error"
	ErrorKindConnection ErrorKind = "connection_error"
	ErrorKindStream     ErrorKind = "stream_error"
)

// ErrorKindForCode maps a server error code to its error kind
func ErrorKindForCode(code string) ErrorKind {
	switch code {
	case "INVALID_IMAGE":
		return ErrorKindImage
	case "PROCESSING_ERROR":
		return ErrorKindProcessing
	case "RATE_LIMIT_EXCEEDED":
		return ErrorKindRateLimit
	default:
		return ErrorKindServer
	}
}

// ErrorEvent terminates a stream with a classified error
type ErrorEvent struct {
	Kind    ErrorKind
	Code    string
	Message string
}

// Err converts the event into a *StreamError
func (e ErrorEvent) Err() error {
	return &StreamError{Kind: e.Kind, Code: e.Code, Message: e.Message}
}

// UnrecognizedEvent is a well-formed frame whose shape matches no known event
type UnrecognizedEvent struct {
	Raw json.RawMessage
}

func (ProductEvent) isStreamEvent()      {}
func (RankingEvent) isStreamEvent()      {}
func (CompletionEvent) isStreamEvent()   {}
func (ErrorEvent) isStreamEvent()        {}
func (UnrecognizedEvent) isStreamEvent() {}

// StreamState is the lifecycle state of one in-flight streaming request
type StreamState int

const (
	StateIdle StreamState = iota
	StateSending
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
