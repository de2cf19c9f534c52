package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("capture did not end")
		}
	}
}

func TestRemoteRelaysControlAndEvents(t *testing.T) {
	var mu sync.Mutex
	var sent []Control
	r := NewRemote(func(c Control) error {
		mu.Lock()
		sent = append(sent, c)
		mu.Unlock()
		return nil
	})

	ch, err := r.Start(context.Background(), Options{Continuous: true, Interim: true, Language: "en-US"})
	require.NoError(t, err)

	_, err = r.Start(context.Background(), Options{})
	require.ErrorIs(t, err, ErrCaptureActive)

	r.Deliver(Event{Type: EventStarted})
	r.Deliver(Event{Type: EventResult, Interim: "how long"})
	r.Stop()
	r.Deliver(Event{Type: EventEnded})
	r.Deliver(Event{Type: EventResult, Final: "late"})

	evs := collect(t, ch)
	require.Len(t, evs, 3)
	assert.Equal(t, "how long", evs[1].Interim)
	assert.Equal(t, EventEnded, evs[2].Type)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 2)
	assert.Equal(t, "start", sent[0].Action)
	assert.True(t, sent[0].Options.Continuous)
	assert.Equal(t, "stop", sent[1].Action)
}

func TestRemoteUnsupported(t *testing.T) {
	r := NewRemote(func(Control) error { return nil })
	r.SetSupported(false)
	_, err := r.Start(context.Background(), Options{})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestRemoteDetachEndsCapture(t *testing.T) {
	r := NewRemote(func(Control) error { return nil })
	ch, err := r.Start(context.Background(), Options{})
	require.NoError(t, err)
	r.Detach()
	evs := collect(t, ch)
	require.Len(t, evs, 1)
	assert.Equal(t, EventEnded, evs[0].Type)
}

func TestRemoteRestartBeforeEndReplacesCapture(t *testing.T) {
	r := NewRemote(func(Control) error { return nil })
	first, err := r.Start(context.Background(), Options{})
	require.NoError(t, err)
	r.Stop()

	second, err := r.Start(context.Background(), Options{})
	require.NoError(t, err)

	evs := collect(t, first)
	require.Len(t, evs, 1)
	assert.Equal(t, EventEnded, evs[0].Type)

	// late events of the first capture, then the new one
	r.Deliver(Event{Type: EventResult, Final: "old"})
	r.Deliver(Event{Type: EventEnded})
	r.Deliver(Event{Type: EventResult, Final: "new"})
	r.Stop()
	r.Deliver(Event{Type: EventEnded})

	evs = collect(t, second)
	require.Len(t, evs, 2)
	assert.Equal(t, "new", evs[0].Final)
	assert.Equal(t, EventEnded, evs[1].Type)
}

func TestDeepgramWithoutKeyIsUnsupported(t *testing.T) {
	d := NewDeepgram(DeepgramConfig{}, nil)
	_, err := d.Start(context.Background(), Options{})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestDeepgramStreamsTranscripts(t *testing.T) {
	gotAudio := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("interim_results"))
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		gotAudio <- data
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"Metadata"}`))
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"how long is"}]}}`))
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":" How long is the warranty? "}]}}`))
		_, _, _ = c.Read(ctx)
	}))
	defer srv.Close()

	d := NewDeepgram(DeepgramConfig{APIKey: "secret", BaseURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, nil)
	ch, err := d.Start(context.Background(), Options{Continuous: false, Interim: true})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return d.Feed([]byte{1, 2, 3, 4}) }, time.Second, 10*time.Millisecond)
	select {
	case b := <-gotAudio:
		assert.Equal(t, []byte{1, 2, 3, 4}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("no audio received")
	}

	evs := collect(t, ch)
	var interim, final string
	for _, ev := range evs {
		if ev.Type == EventResult {
			interim += ev.Interim
			final += ev.Final
		}
	}
	assert.Equal(t, "how long is", interim)
	assert.Equal(t, "How long is the warranty?", final)
	assert.Equal(t, EventEnded, evs[len(evs)-1].Type)
}

func TestParseResultIgnoresOtherFrames(t *testing.T) {
	_, ok := parseResult([]byte(`{"type":"UtteranceEnd"}`))
	assert.False(t, ok)
	_, ok = parseResult([]byte(`not json`))
	assert.False(t, ok)
	ev, ok := parseResult([]byte(`{"speech_final":true,"channel":{"alternatives":[{"transcript":"yes"}]}}`))
	require.True(t, ok)
	assert.Equal(t, "yes", ev.Final)
}
