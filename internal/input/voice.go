// Package input turns typed text and speech capture events into questions.
//
// Both channels produce the same output: a trimmed question tagged with its
// modality. The voice channel is a small state machine driven by explicit
// capture events; it never talks to a recognizer itself, it only tells the
// caller when to start or stop one.
package input

import (
	"errors"
	"strings"

	"adplayer/internal/speech"
	"adplayer/internal/types"
)

type VoiceState string

const (
	VoiceIdle      VoiceState = "IDLE"
	VoiceListening VoiceState = "LISTENING"
	VoiceError     VoiceState = "ERROR"
)

// Entry names the control that triggered capture. Both entries share one
// state machine.
type Entry string

const (
	EntryInline Entry = "inline"
	EntryTap    Entry = "tap"
)

// Action tells the caller what to do with the recognizer.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
)

// Question is one emission of the unified question stream.
type Question struct {
	Text     string
	Modality types.Modality
}

// Outcome is the result of feeding a capture event to the voice channel.
type Outcome struct {
	Caption  string
	Question *Question
	Action   Action
	Failure  *Failure
}

// Voice is the voice sub-state machine. Not safe for concurrent use; the
// owner serializes calls.
type Voice struct {
	state   VoiceState
	entry   Entry
	caption string
	emitted bool
	capture uint64
}

func NewVoice() *Voice { return &Voice{state: VoiceIdle} }

func (v *Voice) State() VoiceState { return v.state }
func (v *Voice) Entry() Entry      { return v.entry }
func (v *Voice) Caption() string   { return v.caption }
func (v *Voice) Listening() bool   { return v.state == VoiceListening }

// Capture identifies the current listening session. It changes on every
// start so events from an earlier capture can be told apart.
func (v *Voice) Capture() uint64 { return v.capture }

func (v *Voice) setState(to VoiceState) {
	if v.state == to {
		return
	}
	metricVoiceTransitions.WithLabelValues(string(v.state), string(to)).Inc()
	v.state = to
}

// Toggle starts capture when not listening and stops it when listening.
func (v *Voice) Toggle(entry Entry) Action {
	if v.state == VoiceListening {
		v.setState(VoiceIdle)
		v.caption = ""
		metricCaptureOutcomes.WithLabelValues("stopped").Inc()
		return ActionStop
	}
	v.entry = entry
	v.caption = ""
	v.emitted = false
	v.capture++
	v.setState(VoiceListening)
	return ActionStart
}

// StartFailed records that the recognizer could not be started.
func (v *Voice) StartFailed(err error) Outcome {
	if v.state != VoiceListening {
		return Outcome{}
	}
	f := Classify(err)
	v.caption = ""
	if f == nil {
		v.setState(VoiceIdle)
		return Outcome{}
	}
	v.setState(VoiceError)
	metricCaptureOutcomes.WithLabelValues(f.Kind).Inc()
	return Outcome{Failure: f}
}

// Handle feeds one capture event to the machine. Events that arrive when
// not listening are ignored.
func (v *Voice) Handle(ev speech.Event) Outcome {
	if v.state != VoiceListening {
		return Outcome{}
	}
	switch ev.Type {
	case speech.EventResult:
		return v.result(ev)
	case speech.EventError:
		return v.fail(ev.Code)
	case speech.EventEnded:
		v.setState(VoiceIdle)
		v.caption = ""
		return Outcome{}
	}
	return Outcome{}
}

func (v *Voice) result(ev speech.Event) Outcome {
	if v.emitted {
		return Outcome{}
	}
	if final, ok := NormalizeText(ev.Final); ok {
		v.emitted = true
		v.caption = ""
		v.setState(VoiceIdle)
		metricCaptureOutcomes.WithLabelValues("question").Inc()
		return Outcome{
			Question: &Question{Text: final, Modality: types.Voice},
			Action:   ActionStop,
		}
	}
	if ev.Interim != "" {
		v.caption = ev.Interim
		return Outcome{Caption: v.caption}
	}
	return Outcome{}
}

func (v *Voice) fail(code speech.ErrorCode) Outcome {
	f := ClassifyCode(code)
	if f != nil && v.entry == EntryTap && errors.Is(f.Err, ErrPermissionDenied) {
		// tap-to-ask asks for the permission explicitly
		f.Message, f.Long = MsgPermissionNeeded, true
	}
	v.caption = ""
	if f == nil {
		// aborted: the user stopped it
		v.setState(VoiceIdle)
		return Outcome{}
	}
	v.setState(VoiceError)
	metricCaptureOutcomes.WithLabelValues(f.Kind).Inc()
	return Outcome{Failure: f}
}

// Reset returns the machine to Idle, reporting whether a running capture
// must be stopped.
func (v *Voice) Reset() Action {
	listening := v.state == VoiceListening
	v.caption = ""
	v.emitted = false
	v.setState(VoiceIdle)
	if listening {
		return ActionStop
	}
	return ActionNone
}

// NormalizeText trims typed or transcribed input. Blank input is rejected.
func NormalizeText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// TextQuestion builds a typed-channel question, rejecting blank input.
func TextQuestion(s string) (Question, bool) {
	text, ok := NormalizeText(s)
	if !ok {
		return Question{}, false
	}
	return Question{Text: text, Modality: types.Text}, true
}
