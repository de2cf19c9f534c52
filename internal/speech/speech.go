// Package speech is the speech capture facility: continuous transcription
// with interim results, start/stop control and a fixed error vocabulary.
package speech

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by Start when capture is not available.
var ErrUnsupported = errors.New("speech capture unsupported")

// ErrorCode is the capture error vocabulary. Codes other than the named
// ones are treated as transient.
type ErrorCode string

const (
	CodeUnsupported ErrorCode = "unsupported"
	CodeNotAllowed  ErrorCode = "not-allowed"
	CodeAborted     ErrorCode = "aborted"
	CodeNetwork     ErrorCode = "network"
	CodeNoSpeech    ErrorCode = "no-speech"
)

type EventType string

const (
	EventStarted EventType = "start"
	EventResult  EventType = "result"
	EventError   EventType = "error"
	EventEnded   EventType = "end"
)

// Event is one capture notification. For EventResult, Interim and Final
// carry the transcript fragments of that result batch.
type Event struct {
	Type    EventType `json:"event"`
	Interim string    `json:"interim,omitempty"`
	Final   string    `json:"final,omitempty"`
	Code    ErrorCode `json:"error,omitempty"`
}

type Options struct {
	Continuous bool   `json:"continuous"`
	Interim    bool   `json:"interim_results"`
	Language   string `json:"lang"`
}

// Recognizer starts one capture at a time. The returned channel delivers
// events for that capture and is closed after EventEnded.
type Recognizer interface {
	Start(ctx context.Context, opts Options) (<-chan Event, error)
	Stop()
}
