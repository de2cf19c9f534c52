package drag

import "adplayer/internal/types"

type Device string

const (
	Mouse Device = "mouse"
	Touch Device = "touch"
)

type Phase string

const (
	PhaseDown   Phase = "down"
	PhaseMove   Phase = "move"
	PhaseUp     Phase = "up"
	PhaseCancel Phase = "cancel"
)

// PointerEvent is a device-neutral pointer notification. For touch input
// X and Y are the first touch point.
type PointerEvent struct {
	Device Device  `json:"device"`
	Phase  Phase   `json:"phase"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Target Target  `json:"target"`
}

// Handle translates a mouse or touch event into Start, Move or End.
func (e *Engine) Handle(ev PointerEvent) error {
	p := types.Point{X: ev.X, Y: ev.Y}
	switch ev.Phase {
	case PhaseDown:
		return e.Start(p, ev.Target)
	case PhaseMove:
		e.Move(p)
	case PhaseUp, PhaseCancel:
		e.End()
	}
	return nil
}
