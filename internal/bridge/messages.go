package bridge

import (
	"adplayer/internal/drag"
	"adplayer/internal/speech"
	"adplayer/internal/widget"
)

// Inbound is one JSON frame from the browser surface. Only the fields of
// the given Type are set.
type Inbound struct {
	Type string `json:"type"`

	// submit_text, choose_suggestion, speech
	Text string `json:"text,omitempty"`
	// voice_toggle
	Entry string `json:"entry,omitempty"`
	// speech
	Event speech.EventType `json:"event,omitempty"`
	Final bool             `json:"final,omitempty"`
	Error speech.ErrorCode `json:"error,omitempty"`
	// capabilities
	Speech *bool `json:"speech,omitempty"`
	// pointer
	Device drag.Device `json:"device,omitempty"`
	Phase  drag.Phase  `json:"phase,omitempty"`
	X      float64     `json:"x,omitempty"`
	Y      float64     `json:"y,omitempty"`
	Target drag.Target `json:"target,omitempty"`
}

func (m Inbound) speechEvent() speech.Event {
	ev := speech.Event{Type: m.Event, Code: m.Error}
	if m.Event == speech.EventResult {
		if m.Final {
			ev.Final = m.Text
		} else {
			ev.Interim = m.Text
		}
	}
	return ev
}

func (m Inbound) pointerEvent() drag.PointerEvent {
	return drag.PointerEvent{Device: m.Device, Phase: m.Phase, X: m.X, Y: m.Y, Target: m.Target}
}

type viewFrame struct {
	Type string      `json:"type"`
	View widget.View `json:"view"`
}

type speechControlFrame struct {
	Type    string          `json:"type"`
	Action  string          `json:"action"`
	Options *speech.Options `json:"options,omitempty"`
}

type dragCaptureFrame struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}
