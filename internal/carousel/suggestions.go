package carousel

import (
	"strings"

	"adplayer/internal/types"
)

// Delimiter separates suggestions in a slide's raw suggestion text.
const Delimiter = ","

// Tracker derives suggestion chips for the active slide and remembers
// which ones have been used.
type Tracker struct {
	available []string
	used      []string
}

func NewTracker() *Tracker { return &Tracker{} }

// Reload parses the slide's suggestions and forgets used ones.
func (t *Tracker) Reload(slide types.VideoSlide) {
	t.available = ParseSuggestions(slide.Suggestions)
	t.used = nil
}

// Reset clears both sets, used when there is no active slide.
func (t *Tracker) Reset() {
	t.available = nil
	t.used = nil
}

// MarkUsed records text as used. Marking twice is a no-op.
func (t *Tracker) MarkUsed(text string) {
	for _, u := range t.used {
		if u == text {
			return
		}
	}
	t.used = append(t.used, text)
}

// Visible is available minus used, in source order.
func (t *Tracker) Visible() []string {
	out := make([]string, 0, len(t.available))
	for _, s := range t.available {
		if !t.isUsed(s) {
			out = append(out, s)
		}
	}
	return out
}

func (t *Tracker) Available() []string { return append([]string(nil), t.available...) }
func (t *Tracker) Used() []string      { return append([]string(nil), t.used...) }
func (t *Tracker) Loaded() bool        { return len(t.available) > 0 }

func (t *Tracker) isUsed(s string) bool {
	for _, u := range t.used {
		if u == s {
			return true
		}
	}
	return false
}

// ParseSuggestions splits raw on Delimiter, trims, drops empties and
// duplicates while keeping first-seen order.
func ParseSuggestions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, Delimiter)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
