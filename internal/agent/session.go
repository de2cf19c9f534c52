package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"adplayer/internal/types"
)

// Status of the single agent session a widget may hold.
type Status string

const (
	Idle         Status = "IDLE"
	Initializing Status = "INITIALIZING"
	Active       Status = "ACTIVE"
	Ending       Status = "ENDING"
)

// Answer is a resolved recommendation.
type Answer struct {
	Text      string
	SessionID string
	SlideKey  string
	Elapsed   time.Duration
}

// Snapshot is a read-only copy of the manager state.
type Snapshot struct {
	Status    Status
	SessionID string
	SlideKey  string
}

// openAttempt is shared by every caller waiting on one open-session call.
type openAttempt struct {
	done chan struct{}
	err  error
}

// Manager owns the lifecycle of the remote session bound to the active
// slide. At most one session is non-idle at a time and at most one
// open-session call is in flight.
type Manager struct {
	svc          Service
	creds        Credentials
	owner        string
	log          *zap.Logger
	closeTimeout time.Duration

	mu        sync.Mutex
	status    Status
	sessionID string
	slideKey  string
	// gen changes whenever the session is closed; results computed under
	// an older gen are stale.
	gen     uint64
	opening *openAttempt
	ending  chan struct{}
	asking  bool
}

func NewManager(svc Service, creds Credentials, owner string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		svc:          svc,
		creds:        creds,
		owner:        owner,
		log:          logger.Named("agent"),
		closeTimeout: 10 * time.Second,
		status:       Idle,
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, SessionID: m.sessionID, SlideKey: m.slideKey}
}

// EnsureSession opens a session for slide unless one is already active for
// it. Concurrent callers for the same slide share one open call.
func (m *Manager) EnsureSession(ctx context.Context, slide types.VideoSlide) error {
	for {
		m.mu.Lock()
		switch m.status {
		case Active:
			key := m.slideKey
			m.mu.Unlock()
			if key == slide.ID {
				return nil
			}
			return ErrSlideMismatch

		case Initializing:
			if m.slideKey != slide.ID {
				m.mu.Unlock()
				return ErrSlideMismatch
			}
			at := m.opening
			m.mu.Unlock()
			select {
			case <-at.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			if at.err != nil {
				return at.err
			}
			continue

		case Ending:
			wait := m.ending
			m.mu.Unlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		at := &openAttempt{done: make(chan struct{})}
		m.opening = at
		m.slideKey = slide.ID
		m.setState(Initializing)
		gen := m.gen
		m.mu.Unlock()
		return m.open(ctx, slide, gen, at)
	}
}

func (m *Manager) open(ctx context.Context, slide types.VideoSlide, gen uint64, at *openAttempt) error {
	start := time.Now()
	sid, err := m.svc.OpenSession(ctx, m.creds, m.owner, slide.ProductCode)
	metricCallMS.WithLabelValues("open").Observe(float64(time.Since(start).Milliseconds()))

	m.mu.Lock()
	stale := m.gen != gen
	switch {
	case stale:
		at.err = ErrStale
	case err != nil:
		m.slideKey = ""
		m.setState(Idle)
		at.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		m.sessionID = sid
		m.setState(Active)
	}
	if m.opening == at {
		m.opening = nil
	}
	close(at.done)
	m.mu.Unlock()

	switch {
	case stale:
		metricCalls.WithLabelValues("open", "stale").Inc()
		if err == nil && sid != "" {
			// Closed while opening; the remote session has no owner now.
			go m.endRemote(sid)
		}
	case err != nil:
		metricCalls.WithLabelValues("open", "error").Inc()
		m.log.Warn("open session failed", zap.String("slide", slide.ID), zap.Error(err))
	default:
		metricCalls.WithLabelValues("open", "ok").Inc()
		m.log.Debug("session opened", zap.String("session", sid), zap.String("slide", slide.ID), zap.String("product_code", slide.ProductCode))
	}
	return at.err
}

// Ask sends question on the session bound to slide, opening it first if
// needed. Only one question may be outstanding; a second one gets ErrBusy.
func (m *Manager) Ask(ctx context.Context, slide types.VideoSlide, question string) (Answer, error) {
	m.mu.Lock()
	if m.asking {
		m.mu.Unlock()
		metricBusyRejects.Inc()
		return Answer{}, ErrBusy
	}
	m.asking = true
	gen := m.gen
	m.mu.Unlock()

	if err := m.EnsureSession(ctx, slide); err != nil {
		m.finishAsk(gen)
		return Answer{}, err
	}

	m.mu.Lock()
	if m.gen != gen || m.status != Active || m.slideKey != slide.ID {
		m.mu.Unlock()
		m.finishAsk(gen)
		return Answer{}, ErrStale
	}
	sid := m.sessionID
	m.mu.Unlock()

	start := time.Now()
	text, err := m.svc.Recommend(ctx, sid, question, m.creds)
	elapsed := time.Since(start)
	metricCallMS.WithLabelValues("recommend").Observe(float64(elapsed.Milliseconds()))

	if !m.finishAsk(gen) {
		metricCalls.WithLabelValues("recommend", "stale").Inc()
		m.log.Debug("dropping stale recommendation", zap.String("session", sid))
		return Answer{}, ErrStale
	}
	if err != nil {
		metricCalls.WithLabelValues("recommend", "error").Inc()
		m.log.Warn("recommendation failed", zap.String("session", sid), zap.Error(err))
		return Answer{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	metricCalls.WithLabelValues("recommend", "ok").Inc()
	return Answer{Text: text, SessionID: sid, SlideKey: slide.ID, Elapsed: elapsed}, nil
}

// finishAsk clears the outstanding flag if the session generation is
// unchanged and reports whether it was.
func (m *Manager) finishAsk(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.asking = false
	return true
}

// Close ends the current session. The remote end call is best-effort and
// runs in the background; the returned channel is closed once the manager
// is back to Idle.
func (m *Manager) Close() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case Idle:
		return closedChan()
	case Ending:
		return m.ending
	case Initializing:
		m.gen++
		m.asking = false
		m.slideKey = ""
		m.setState(Idle)
		return closedChan()
	}

	sid := m.sessionID
	m.gen++
	m.asking = false
	done := make(chan struct{})
	m.ending = done
	m.setState(Ending)

	go func() {
		m.endRemote(sid)
		m.mu.Lock()
		m.sessionID = ""
		m.slideKey = ""
		m.ending = nil
		m.setState(Idle)
		m.mu.Unlock()
		close(done)
	}()
	return done
}

// endRemote issues the end-session call. Failures are only logged.
func (m *Manager) endRemote(sid string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.closeTimeout)
	defer cancel()
	start := time.Now()
	err := m.svc.CloseSession(ctx, sid, m.creds)
	metricCallMS.WithLabelValues("close").Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metricCalls.WithLabelValues("close", "error").Inc()
		m.log.Warn("end session failed", zap.String("session", sid), zap.Error(err))
		return
	}
	metricCalls.WithLabelValues("close", "ok").Inc()
	m.log.Debug("session ended", zap.String("session", sid))
}

// setState transitions and records the metric. Callers hold mu.
func (m *Manager) setState(to Status) {
	from := m.status
	if from == to {
		return
	}
	metricTransitions.WithLabelValues(string(from), string(to)).Inc()
	m.status = to
}

func closedChan() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
