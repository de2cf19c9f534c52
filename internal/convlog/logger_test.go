package convlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adplayer/internal/types"
)

type memSink struct {
	mu   sync.Mutex
	recs []Record
	err  error
	gate chan struct{}
}

func (s *memSink) Write(ctx context.Context, r Record) (string, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.recs = append(s.recs, r)
	return "rec-1", nil
}

func (s *memSink) records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.recs...)
}

func TestRecordIsNonBlocking(t *testing.T) {
	sink := &memSink{gate: make(chan struct{})}
	l := New(sink, time.Second, nil)

	done := make(chan struct{})
	go func() {
		l.Record(types.ConversationTurn{ConversationID: "c1", Question: "q", Answer: "a", Modality: types.Text, SlideID: "v1", Elapsed: 1500 * time.Millisecond})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on the sink")
	}

	close(sink.gate)
	require.NoError(t, l.Flush(context.Background()))
	recs := sink.records()
	require.Len(t, recs, 1)
	assert.Equal(t, Record{SessionID: "c1", Question: "q", Response: "a", InteractionType: "Text", VideoID: "v1", ResponseTimeMs: 1500}, recs[0])
}

func TestRecordRegeneratesMissingConversationID(t *testing.T) {
	sink := &memSink{}
	l := New(sink, time.Second, nil)
	l.Record(types.ConversationTurn{Question: "q", Answer: "a", Modality: types.Voice})
	require.NoError(t, l.Flush(context.Background()))
	recs := sink.records()
	require.Len(t, recs, 1)
	assert.True(t, strings.HasPrefix(recs[0].SessionID, "session-"), recs[0].SessionID)
}

func TestRecordSwallowsWriteFailure(t *testing.T) {
	sink := &memSink{err: errors.New("down")}
	l := New(sink, time.Second, nil)
	l.Record(types.ConversationTurn{ConversationID: "c1"})
	require.NoError(t, l.Flush(context.Background()))
	assert.Empty(t, sink.records())
}

func TestFlushHonoursContext(t *testing.T) {
	sink := &memSink{gate: make(chan struct{})}
	l := New(sink, time.Minute, nil)
	l.Record(types.ConversationTurn{ConversationID: "c1"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Flush(ctx), context.DeadlineExceeded)
	close(sink.gate)
}

func TestHTTPSink(t *testing.T) {
	var got Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversation-logs", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"a0X1"}`))
	}))
	defer srv.Close()

	id, err := NewHTTPSink(srv.URL+"/", time.Second).Write(context.Background(), Record{SessionID: "c1", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "a0X1", id)
	assert.Equal(t, "c1", got.SessionID)
}

func TestHTTPSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPSink(srv.URL, time.Second).Write(context.Background(), Record{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNewConversationID(t *testing.T) {
	a, b := NewConversationID(), NewConversationID()
	assert.True(t, strings.HasPrefix(a, "session-"))
	assert.NotEqual(t, a, b)
}
