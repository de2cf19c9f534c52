// Package drag moves the widget around the screen. Mouse and touch input
// go through the same three operations: Start, Move and End.
package drag

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"adplayer/internal/placement"
	"adplayer/internal/types"
)

var (
	ErrFocused           = errors.New("drag disabled while focused")
	ErrInteractiveTarget = errors.New("drag not allowed on interactive control")
)

// Target is the element a gesture started on.
type Target string

const (
	TargetSurface    Target = "surface"
	TargetVideo      Target = "video"
	TargetButton     Target = "button"
	TargetChat       Target = "chat"
	TargetChatToggle Target = "chat_toggle"
	TargetNav        Target = "nav"
)

// Interactive reports whether gestures starting on t belong to the control.
func (t Target) Interactive() bool {
	switch t {
	case TargetButton, TargetChat, TargetChatToggle, TargetNav:
		return true
	}
	return false
}

// Capturer attaches move/end listeners at document scope. The returned
// func detaches them.
type Capturer interface {
	Capture() (release func())
}

type CaptureFunc func() func()

func (f CaptureFunc) Capture() func() { return f() }

type Engine struct {
	capt  Capturer
	paint func(types.Placement)
	store placement.Store
	key   string
	log   *zap.Logger

	mu        sync.Mutex
	focused   bool
	dragging  bool
	origin    types.Point
	start     types.Placement
	placement types.Placement
	release   func()
}

// NewEngine builds an engine. paint is called with every new placement;
// store may be nil.
func NewEngine(capt Capturer, paint func(types.Placement), store placement.Store, key string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capt == nil {
		capt = CaptureFunc(func() func() { return func() {} })
	}
	if paint == nil {
		paint = func(types.Placement) {}
	}
	return &Engine{capt: capt, paint: paint, store: store, key: key, log: logger.Named("drag")}
}

func (e *Engine) SetFocused(f bool) {
	e.mu.Lock()
	e.focused = f
	e.mu.Unlock()
}

func (e *Engine) Dragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dragging
}

func (e *Engine) Placement() types.Placement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.placement
}

// Reset clears the persisted slot and returns to the default anchor.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	e.placement = types.Placement{}
	e.mu.Unlock()
	if e.store == nil {
		return
	}
	if err := e.store.Clear(ctx, e.key); err != nil {
		e.log.Warn("clear placement failed", zap.Error(err))
	}
}

func (e *Engine) Start(origin types.Point, target Target) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.focused {
		metricRejected.WithLabelValues("focused").Inc()
		return ErrFocused
	}
	if target.Interactive() {
		metricRejected.WithLabelValues("interactive").Inc()
		return ErrInteractiveTarget
	}
	if e.dragging {
		// a second pointer-down mid-gesture restarts from here
		e.origin = origin
		e.start = e.placement
		return nil
	}
	e.dragging = true
	e.origin = origin
	e.start = e.placement
	e.release = e.capt.Capture()
	metricGestures.Inc()
	return nil
}

// Move repositions the widget. It has no effect unless dragging.
func (e *Engine) Move(p types.Point) bool {
	e.mu.Lock()
	if !e.dragging {
		e.mu.Unlock()
		return false
	}
	e.placement = e.start.Add(p.Sub(e.origin))
	pl := e.placement
	e.mu.Unlock()
	e.paint(pl)
	return true
}

// End finishes the gesture and persists the final placement.
func (e *Engine) End() {
	e.mu.Lock()
	if !e.dragging {
		e.mu.Unlock()
		return
	}
	e.stopLocked()
	pl := e.placement
	e.mu.Unlock()

	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.store.Save(ctx, e.key, pl); err != nil {
		metricSaveErrors.Inc()
		e.log.Warn("save placement failed", zap.Error(err))
	}
}

// Teardown detaches capture even mid-gesture. Nothing is persisted.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging {
		e.stopLocked()
	}
}

func (e *Engine) stopLocked() {
	e.dragging = false
	if e.release != nil {
		e.release()
		e.release = nil
	}
}
