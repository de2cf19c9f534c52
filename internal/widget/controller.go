// Package widget is the interaction controller of one carousel widget. It
// wires navigation, suggestions, the agent session, both input channels,
// turn logging and dragging together, and exposes the result as View
// snapshots.
package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"adplayer/internal/agent"
	"adplayer/internal/carousel"
	"adplayer/internal/catalog"
	"adplayer/internal/convlog"
	"adplayer/internal/drag"
	"adplayer/internal/input"
	"adplayer/internal/placement"
	"adplayer/internal/registry"
	"adplayer/internal/speech"
	"adplayer/internal/types"
)

const (
	MsgRequestFailed    = "Sorry, there was an error processing your question. Please try again."
	MsgAgentUnavailable = "Sorry, the assistant is not available right now. Please try again."
)

const DefaultPlacementKey = "videoCarouselPosition"

var ErrNoAgent = errors.New("widget: agent service required")

type Timing struct {
	ComposingMin        time.Duration
	NoticeTTL           time.Duration
	PermissionNoticeTTL time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.ComposingMin <= 0 {
		t.ComposingMin = 1500 * time.Millisecond
	}
	if t.NoticeTTL <= 0 {
		t.NoticeTTL = 3 * time.Second
	}
	if t.PermissionNoticeTTL <= 0 {
		t.PermissionNoticeTTL = 8 * time.Second
	}
	return t
}

// Deps are the collaborators of one widget instance. Only Agent is
// required.
type Deps struct {
	Registry     *registry.Registry
	Catalog      catalog.Service
	Agent        agent.Service
	Credentials  agent.Credentials
	Turns        *convlog.Logger
	Recognizer   speech.Recognizer
	Language     string
	Placement    placement.Store
	PlacementKey string
	Capturer     drag.Capturer
	Timing       Timing
	Logger       *zap.Logger
}

type Controller struct {
	owner   string
	convID  string
	mgr     *agent.Manager
	turns   *convlog.Logger
	rec     speech.Recognizer
	lang    string
	drag    *drag.Engine
	timing  Timing
	log     *zap.Logger
	release func()

	ctx    context.Context
	cancel context.CancelFunc

	changed chan struct{}

	mu          sync.Mutex
	closed      bool
	domain      string
	nav         *carousel.Navigator
	tracker     *carousel.Tracker
	voice       *input.Voice
	chatOpen    bool
	focused     bool
	question    string
	answer      string
	composing   bool
	notice      *Notice
	noticeTimer *time.Timer
	noticeSeq   uint64
	// epoch changes on every conversation reset; async results carrying an
	// older epoch are dropped.
	epoch        uint64
	composeTimer *time.Timer
}

// Open activates a widget for owner. It fails with registry.ErrActive when
// another instance holds the owner.
func Open(ctx context.Context, owner string, deps Deps) (*Controller, error) {
	if deps.Agent == nil {
		return nil, ErrNoAgent
	}
	reg := deps.Registry
	if reg == nil {
		reg = registry.Default
	}
	release, err := reg.Acquire(owner)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	turns := deps.Turns
	if turns == nil {
		turns = convlog.New(discardSink{}, 0, logger)
	}
	lang := deps.Language
	if lang == "" {
		lang = "en-US"
	}
	key := deps.PlacementKey
	if key == "" {
		key = DefaultPlacementKey
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		owner:   owner,
		convID:  convlog.NewConversationID(),
		mgr:     agent.NewManager(deps.Agent, deps.Credentials, owner, logger),
		turns:   turns,
		rec:     deps.Recognizer,
		lang:    lang,
		timing:  deps.Timing.withDefaults(),
		log:     logger.Named("widget").With(zap.String("owner", owner)),
		release: release,
		ctx:     cctx,
		cancel:  cancel,
		changed: make(chan struct{}, 1),
		nav:     carousel.NewNavigator(),
		tracker: carousel.NewTracker(),
		voice:   input.NewVoice(),
	}
	c.drag = drag.NewEngine(deps.Capturer, func(types.Placement) { c.notify() }, deps.Placement, PlacementSlot(key, owner), logger)
	c.drag.Reset(ctx)

	if deps.Catalog != nil {
		slides, err := deps.Catalog.FetchSlides(ctx, owner)
		if err != nil {
			c.log.Warn("catalog fetch failed, showing empty state", zap.Error(err))
		}
		c.nav.Load(slides)
	}
	if s, ok := c.nav.Current(); ok {
		c.tracker.Reload(s)
	} else {
		c.tracker.Reset()
	}

	if d, err := deps.Agent.ResolveDomain(ctx); err != nil {
		c.log.Warn("resolve domain failed", zap.Error(err))
	} else {
		c.domain = d
	}
	metricActivations.Inc()
	c.log.Info("widget active", zap.Int("slides", c.nav.Len()), zap.String("conversation", c.convID))
	return c, nil
}

// Changes signals after state changes. Signals coalesce; read View after
// each one.
func (c *Controller) Changes() <-chan struct{} { return c.changed }

func (c *Controller) notify() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

func (c *Controller) ConversationID() string { return c.convID }

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Owner:       c.owner,
		Domain:      c.domain,
		Slides:      c.nav.Slides(),
		Index:       c.nav.Index(),
		Empty:       c.nav.Len() == 0,
		Suggestions: c.tracker.Visible(),
		ChatOpen:    c.chatOpen,
		Focused:     c.focused,
		Question:    c.question,
		Answer:      c.answer,
		Composing:   c.composing,
		Voice:       c.voice.State(),
		Caption:     c.voice.Caption(),
		Session:     c.mgr.Snapshot().Status,
		Placement:   c.drag.Placement(),
		Dragging:    c.drag.Dragging(),
	}
	if c.notice != nil {
		n := *c.notice
		v.Notice = &n
	}
	return v
}

func (c *Controller) Next()     { c.step(true) }
func (c *Controller) Previous() { c.step(false) }

func (c *Controller) step(forward bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var moved bool
	if forward {
		moved = c.nav.Next()
	} else {
		moved = c.nav.Previous()
	}
	if !moved {
		c.mu.Unlock()
		return
	}
	stop := c.resetConversationLocked()
	c.chatOpen = false
	if s, ok := c.nav.Current(); ok {
		c.tracker.Reload(s)
	}
	c.mu.Unlock()

	dir := "next"
	if !forward {
		dir = "previous"
	}
	metricSlideChanges.WithLabelValues(dir).Inc()
	c.stopCapture(stop)
	c.notify()
}

// resetConversationLocked drops the current exchange, cancels pacing timers
// and ends the agent session. It reports whether capture must be stopped.
func (c *Controller) resetConversationLocked() bool {
	c.epoch++
	if c.composeTimer != nil {
		c.composeTimer.Stop()
		c.composeTimer = nil
	}
	c.clearNoticeLocked()
	c.mgr.Close()
	c.question = ""
	c.answer = ""
	c.composing = false
	return c.voice.Reset() == input.ActionStop
}

// OpenChat shows the conversation surface and enters focused mode.
func (c *Controller) OpenChat() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.chatOpen = true
	c.setFocusedLocked(true)
	if !c.tracker.Loaded() {
		if s, ok := c.nav.Current(); ok {
			c.tracker.Reload(s)
		}
	}
	c.mu.Unlock()
	c.notify()
}

// CloseChat hides the surface, leaves focused mode and ends the session.
func (c *Controller) CloseChat() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.chatOpen = false
	c.setFocusedLocked(false)
	stop := c.resetConversationLocked()
	c.mu.Unlock()
	c.stopCapture(stop)
	c.notify()
}

// ClearChat ends the session and clears the exchange, keeping the surface
// open.
func (c *Controller) ClearChat() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	stop := c.resetConversationLocked()
	c.mu.Unlock()
	c.stopCapture(stop)
	c.notify()
}

func (c *Controller) setFocusedLocked(f bool) {
	c.focused = f
	c.drag.SetFocused(f)
}

// SubmitText emits a typed question. Blank input and submissions while
// composing are ignored.
func (c *Controller) SubmitText(text string) {
	q, ok := input.TextQuestion(text)
	if !ok {
		return
	}
	c.mu.Lock()
	started := c.emitLocked(q)
	c.mu.Unlock()
	if started {
		c.notify()
	}
}

// ChooseSuggestion marks a suggestion used and asks it as a typed question.
func (c *Controller) ChooseSuggestion(text string) {
	q, ok := input.TextQuestion(text)
	if !ok {
		return
	}
	c.mu.Lock()
	if c.closed || c.composing {
		c.mu.Unlock()
		return
	}
	c.tracker.MarkUsed(q.Text)
	c.emitLocked(q)
	c.mu.Unlock()
	c.notify()
}

// emitLocked sends q to the agent and enters composing.
func (c *Controller) emitLocked(q input.Question) bool {
	if c.closed {
		return false
	}
	if c.composing {
		metricDropped.WithLabelValues("busy").Inc()
		return false
	}
	slide, ok := c.nav.Current()
	if !ok {
		metricDropped.WithLabelValues("no_slide").Inc()
		return false
	}
	c.question = q.Text
	c.answer = ""
	c.composing = true
	c.clearNoticeLocked()
	metricQuestions.WithLabelValues(string(q.Modality)).Inc()
	go c.ask(c.epoch, slide, q, time.Now())
	return true
}

func (c *Controller) ask(epoch uint64, slide types.VideoSlide, q input.Question, emitted time.Time) {
	ans, err := c.mgr.Ask(c.ctx, slide, q.Text)

	c.mu.Lock()
	if c.epoch != epoch || c.closed {
		c.mu.Unlock()
		metricDropped.WithLabelValues("stale").Inc()
		return
	}
	if err != nil {
		if errors.Is(err, agent.ErrStale) || errors.Is(err, agent.ErrBusy) {
			c.composing = false
			c.mu.Unlock()
			metricDropped.WithLabelValues("stale").Inc()
			c.notify()
			return
		}
		c.composing = false
		if errors.Is(err, agent.ErrUnavailable) {
			c.showNoticeLocked(NoticeAgentUnavailable, MsgAgentUnavailable, c.timing.NoticeTTL)
		} else {
			c.showNoticeLocked(NoticeAgent, MsgRequestFailed, c.timing.NoticeTTL)
		}
		c.mu.Unlock()
		c.log.Warn("question failed", zap.String("slide", slide.ID), zap.Error(err))
		c.notify()
		return
	}

	wait := c.timing.ComposingMin - time.Since(emitted)
	if wait <= 0 {
		c.mu.Unlock()
		c.publish(epoch, slide, q, ans.Text, emitted)
		return
	}
	c.composeTimer = time.AfterFunc(wait, func() { c.publish(epoch, slide, q, ans.Text, emitted) })
	c.mu.Unlock()
}

// publish shows the answer and logs the turn unless the exchange was reset
// in the meantime.
func (c *Controller) publish(epoch uint64, slide types.VideoSlide, q input.Question, answer string, emitted time.Time) {
	c.mu.Lock()
	if c.epoch != epoch || c.closed {
		c.mu.Unlock()
		metricDropped.WithLabelValues("stale").Inc()
		return
	}
	c.composeTimer = nil
	c.composing = false
	c.answer = answer
	c.mu.Unlock()

	c.turns.Record(types.ConversationTurn{
		ConversationID: c.convID,
		Question:       q.Text,
		Answer:         answer,
		Modality:       q.Modality,
		SlideID:        slide.ID,
		Elapsed:        time.Since(emitted),
	})
	metricTurns.WithLabelValues(string(q.Modality)).Inc()
	c.notify()
}

func (c *Controller) showNoticeLocked(kind, text string, ttl time.Duration) {
	c.clearNoticeLocked()
	c.notice = &Notice{Kind: kind, Text: text}
	seq := c.noticeSeq
	c.noticeTimer = time.AfterFunc(ttl, func() {
		c.mu.Lock()
		if c.noticeSeq != seq {
			c.mu.Unlock()
			return
		}
		c.notice = nil
		c.noticeTimer = nil
		c.mu.Unlock()
		c.notify()
	})
	metricNotices.WithLabelValues(kind).Inc()
}

func (c *Controller) clearNoticeLocked() {
	c.noticeSeq++
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
		c.noticeTimer = nil
	}
	c.notice = nil
}

// Pointer feeds a mouse or touch event to the drag engine.
func (c *Controller) Pointer(ev drag.PointerEvent) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil
	}
	err := c.drag.Handle(ev)
	if ev.Phase != drag.PhaseMove {
		c.notify()
	}
	return err
}

// Close tears the widget down: drag capture and speech capture are
// released, the session is ended and pending turn writes are flushed
// before the owner is deregistered.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stop := c.resetConversationLocked()
	done := c.mgr.Close()
	c.mu.Unlock()

	defer c.release()
	c.drag.Teardown()
	c.stopCapture(stop)

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	c.cancel()
	if ferr := c.turns.Flush(ctx); ferr != nil && err == nil {
		err = ferr
	}
	c.log.Info("widget closed")
	return err
}

// PlacementSlot is the store key holding owner's placement. Each owner has
// its own slot since one store serves every widget in the process.
func PlacementSlot(key, owner string) string { return key + ":" + owner }

type discardSink struct{}

func (discardSink) Write(context.Context, convlog.Record) (string, error) { return "", nil }
