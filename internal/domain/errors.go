package domain

import "github.com/go-faster/errors"

var (
	// ErrUnknownFormat is returned when referrer data matches neither wire format
	ErrUnknownFormat = errors.New("unknown referrer data format")

	// ErrMalformedReferrer is returned when referrer data is recognised but corrupt
	ErrMalformedReferrer = errors.New("malformed referrer data")

	// ErrNoProducts is returned when a decoded referrer carries no marketplace products
	ErrNoProducts = errors.New("referrer data contains no products")

	// ErrUnencodable is returned when a value cannot be represented in the fixed-length format
	ErrUnencodable = errors.New("value cannot be encoded")

	// ErrConnection is returned when the recognition service cannot be reached or rejects the request
	ErrConnection = errors.New("recognition service connection failed")

	// ErrStreamRead is returned when the response body fails mid-stream
	ErrStreamRead = errors.New("recognition stream read failed")

	// ErrStreamCancelled is returned when the caller cancels an in-flight stream.
	// It is never delivered through an OnError callback.
	ErrStreamCancelled = errors.New("stream cancelled")

	// ErrSessionImageUnavailable is returned when the server no longer holds the
	// screenshot for a pauseId. Consumed by the deep search fallback.
	ErrSessionImageUnavailable = errors.New("session image unavailable")

	// ErrScreenshotExpired is returned when the session image is gone and no local copy exists
	ErrScreenshotExpired = errors.New("saved screenshot has expired, please pause the video again")

	// ErrInconsistentRanking is returned when a completed ranking has duplicate or missing ranks
	ErrInconsistentRanking = errors.New("ranking response is inconsistent")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// StreamError is a server-reported {code, message} error delivered inside a stream.
type StreamError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *StreamError) Error() string {
	if e.Code == "" {
		return string(e.Kind) + ": " + e.Message
	}
	return e.Code + ": " + e.Message
}
