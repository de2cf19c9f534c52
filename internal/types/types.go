package types

import "time"

// SourceKind identifies where a slide's video is hosted.
type SourceKind string

const (
	SourceEmbedded SourceKind = "YouTube"
	SourceHosted   SourceKind = "Static Resource"
	SourceDirect   SourceKind = ""
)

// VideoSlide is one carousel item. Slides are immutable once loaded.
type VideoSlide struct {
	ID          string     `json:"id"`
	Kind        SourceKind `json:"kind"`
	VideoURL    string     `json:"video_url"`
	ProductCode string     `json:"product_code,omitempty"`
	ProductName string     `json:"product_name,omitempty"`
	Suggestions string     `json:"suggestions,omitempty"`
}

// Embedded reports whether the slide plays through an embedded stream player.
func (s VideoSlide) Embedded() bool { return s.Kind == SourceEmbedded }

type Modality string

const (
	Voice Modality = "Voice"
	Text  Modality = "Text"
)

// ConversationTurn is one completed question/answer exchange. It is handed
// to the conversation logger and not retained.
type ConversationTurn struct {
	ConversationID string
	Question       string
	Answer         string
	Modality       Modality
	SlideID        string
	Elapsed        time.Duration
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Placement is the widget offset from its default corner anchor.
type Placement = Point
