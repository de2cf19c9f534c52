package speech

import (
	"context"
	"errors"
	"sync"
)

var ErrCaptureActive = errors.New("speech capture already active")

// Control is a command for a recognizer running on the client surface.
type Control struct {
	Action  string   `json:"action"` // start | stop
	Options *Options `json:"options,omitempty"`
}

// Remote relays capture to the client surface: Start/Stop are sent as
// Control commands and the client's recognition events come back
// through Deliver.
type Remote struct {
	send func(Control) error

	mu        sync.Mutex
	supported bool
	ch        chan Event
	stopping  bool
	// ends still owed by the client for captures replaced before they
	// ended; client events are dropped until they arrive.
	stale int
}

func NewRemote(send func(Control) error) *Remote {
	return &Remote{send: send, supported: true}
}

// SetSupported records whether the client can capture speech at all.
func (r *Remote) SetSupported(ok bool) {
	r.mu.Lock()
	r.supported = ok
	r.mu.Unlock()
}

func (r *Remote) Start(ctx context.Context, opts Options) (<-chan Event, error) {
	r.mu.Lock()
	if !r.supported {
		r.mu.Unlock()
		return nil, ErrUnsupported
	}
	if r.ch != nil {
		if !r.stopping {
			r.mu.Unlock()
			return nil, ErrCaptureActive
		}
		r.endLocked()
		r.stale++
	}
	ch := make(chan Event, 32)
	r.ch = ch
	r.stopping = false
	r.mu.Unlock()

	if err := r.send(Control{Action: "start", Options: &opts}); err != nil {
		r.mu.Lock()
		if r.ch == ch {
			r.ch = nil
		}
		r.mu.Unlock()
		return nil, err
	}
	metricCaptures.WithLabelValues("remote").Inc()
	return ch, nil
}

// Stop asks the client to stop; the client answers with an end event. A
// Start issued before that end replaces the stopping capture.
func (r *Remote) Stop() {
	r.mu.Lock()
	active := r.ch != nil
	if active {
		r.stopping = true
	}
	r.mu.Unlock()
	if active {
		_ = r.send(Control{Action: "stop"})
	}
}

// Deliver forwards a client event to the active capture. Events with no
// active capture are dropped.
func (r *Remote) Deliver(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale > 0 {
		if ev.Type == EventEnded {
			r.stale--
		}
		return
	}
	if r.ch == nil {
		return
	}
	select {
	case r.ch <- ev:
	default:
		metricEventDrops.Inc()
	}
	if ev.Type == EventEnded {
		close(r.ch)
		r.ch = nil
		r.stopping = false
	}
}

// Detach ends the active capture locally, used when the client goes away.
func (r *Remote) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = 0
	if r.ch != nil {
		r.endLocked()
	}
}

func (r *Remote) endLocked() {
	select {
	case r.ch <- Event{Type: EventEnded}:
	default:
	}
	close(r.ch)
	r.ch = nil
	r.stopping = false
}
