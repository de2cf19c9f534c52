// Package convlog records completed question/answer turns to the
// conversation log service. Recording never blocks and never fails from the
// caller's point of view.
package convlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"adplayer/internal/types"
)

var ErrWriteFailed = errors.New("conversation log write failed")

// Record is the wire form of one turn.
type Record struct {
	SessionID       string `json:"session_id"`
	Question        string `json:"question"`
	Response        string `json:"response"`
	InteractionType string `json:"interaction_type"`
	VideoID         string `json:"video_id"`
	ResponseTimeMs  int64  `json:"response_time"`
}

func recordFromTurn(t types.ConversationTurn) Record {
	ms := t.Elapsed.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return Record{
		SessionID:       t.ConversationID,
		Question:        t.Question,
		Response:        t.Answer,
		InteractionType: string(t.Modality),
		VideoID:         t.SlideID,
		ResponseTimeMs:  ms,
	}
}

// Sink persists one record and returns the id the service assigned to it.
type Sink interface {
	Write(ctx context.Context, r Record) (string, error)
}

type Logger struct {
	sink    Sink
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func New(sink Sink, timeout time.Duration, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Logger{sink: sink, timeout: timeout, log: logger.Named("convlog")}
}

// Record writes turn in the background. A missing conversation id is
// replaced with a fresh one rather than dropping the turn.
func (l *Logger) Record(turn types.ConversationTurn) {
	if turn.ConversationID == "" {
		turn.ConversationID = NewConversationID()
		metricRegenerated.Inc()
		l.log.Warn("conversation id missing, regenerated", zap.String("conversation", turn.ConversationID))
	}
	rec := recordFromTurn(turn)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		start := time.Now()
		id, err := l.sink.Write(ctx, rec)
		metricWriteMS.Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metricWrites.WithLabelValues("error").Inc()
			l.log.Warn("turn not logged",
				zap.String("conversation", rec.SessionID),
				zap.String("video", rec.VideoID),
				zap.Error(fmt.Errorf("%w: %v", ErrWriteFailed, err)))
			return
		}
		metricWrites.WithLabelValues("ok").Inc()
		l.log.Debug("turn logged", zap.String("record", id), zap.String("conversation", rec.SessionID))
	}()
}

// Flush waits for pending writes or until ctx is done.
func (l *Logger) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewConversationID returns a fresh conversation-tracking identifier.
func NewConversationID() string {
	return "session-" + uuid.NewString()
}
