package input

import (
	"errors"

	"adplayer/internal/speech"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrCaptureTransient = errors.New("speech capture failed")
)

const (
	MsgUnsupported      = "Voice input is not supported in this browser. Please use text input."
	MsgPermissionDenied = "Microphone access denied. Please use text input or enable microphone permissions."
	MsgTransient        = "Voice recognition error. Please try again or use text input."
	MsgUnavailable      = "Voice recognition not available. Please use text input."
	MsgPermissionNeeded = "Microphone permission is required for voice interaction. Please allow microphone access and try again."
)

// Failure is a capture problem ready to show to the viewer.
type Failure struct {
	Err     error
	Kind    string
	Message string
	// Long marks notices that should stay up longer than usual.
	Long bool
}

func (f *Failure) Error() string { return f.Err.Error() }
func (f *Failure) Unwrap() error { return f.Err }

// ClassifyCode maps a recognizer error code to a failure. Aborted captures
// map to nil.
func ClassifyCode(code speech.ErrorCode) *Failure {
	switch code {
	case speech.CodeAborted:
		return nil
	case speech.CodeUnsupported:
		return &Failure{Err: speech.ErrUnsupported, Kind: "unsupported", Message: MsgUnsupported}
	case speech.CodeNotAllowed:
		return &Failure{Err: ErrPermissionDenied, Kind: "permission", Message: MsgPermissionDenied}
	default:
		return &Failure{Err: ErrCaptureTransient, Kind: "transient", Message: MsgTransient}
	}
}

// Classify maps an error returned while starting a recognizer.
func Classify(err error) *Failure {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, speech.ErrUnsupported):
		return &Failure{Err: speech.ErrUnsupported, Kind: "unsupported", Message: MsgUnsupported}
	case errors.Is(err, ErrPermissionDenied):
		return &Failure{Err: ErrPermissionDenied, Kind: "permission", Message: MsgPermissionNeeded, Long: true}
	default:
		return &Failure{Err: ErrCaptureTransient, Kind: "transient", Message: MsgUnavailable}
	}
}
