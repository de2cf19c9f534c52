package carousel

import "adplayer/internal/types"

// Navigator owns the active index into the slide list. The list is only
// ever replaced wholesale.
type Navigator struct {
	slides []types.VideoSlide
	index  int
}

func NewNavigator() *Navigator { return &Navigator{} }

// Load replaces the slide list and rewinds to the first slide.
func (n *Navigator) Load(slides []types.VideoSlide) {
	n.slides = append([]types.VideoSlide(nil), slides...)
	n.index = 0
}

func (n *Navigator) Len() int   { return len(n.slides) }
func (n *Navigator) Index() int { return n.index }

// Next advances by one with wraparound. It returns false when there is
// nothing to navigate.
func (n *Navigator) Next() bool { return n.step(1) }

// Previous retreats by one with wraparound.
func (n *Navigator) Previous() bool { return n.step(-1) }

func (n *Navigator) step(delta int) bool {
	l := len(n.slides)
	if l == 0 {
		return false
	}
	n.index = ((n.index+delta)%l + l) % l
	return true
}

// Current projects the active index into the slide list.
func (n *Navigator) Current() (types.VideoSlide, bool) {
	if len(n.slides) == 0 {
		return types.VideoSlide{}, false
	}
	return n.slides[n.index], true
}

// Slides returns a copy of the loaded list.
func (n *Navigator) Slides() []types.VideoSlide {
	out := make([]types.VideoSlide, len(n.slides))
	copy(out, n.slides)
	return out
}
