package widget

import (
	"adplayer/internal/agent"
	"adplayer/internal/input"
	"adplayer/internal/types"
)

// Notice is a transient message shown to the viewer.
type Notice struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

const (
	NoticeAgent              = "agent"
	NoticeAgentUnavailable   = "agent_unavailable"
	NoticeCaptureUnsupported = "capture_unsupported"
	NoticeCapturePermission  = "capture_permission"
	NoticeCaptureTransient   = "capture_transient"
)

// View is everything the surface needs to render the widget.
type View struct {
	Owner       string             `json:"owner"`
	Domain      string             `json:"domain,omitempty"`
	Slides      []types.VideoSlide `json:"slides"`
	Index       int                `json:"index"`
	Empty       bool               `json:"empty"`
	Suggestions []string           `json:"suggestions"`
	ChatOpen    bool               `json:"chat_open"`
	Focused     bool               `json:"focused"`
	Question    string             `json:"question,omitempty"`
	Answer      string             `json:"answer,omitempty"`
	Composing   bool               `json:"composing"`
	Voice       input.VoiceState   `json:"voice"`
	Caption     string             `json:"caption,omitempty"`
	Notice      *Notice            `json:"notice,omitempty"`
	Session     agent.Status       `json:"session"`
	Placement   types.Placement    `json:"placement"`
	Dragging    bool               `json:"dragging"`
}
