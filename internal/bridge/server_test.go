package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ws "nhooyr.io/websocket"

	"adplayer/internal/agent"
	"adplayer/internal/auth"
	"adplayer/internal/config"
	"adplayer/internal/registry"
	"adplayer/internal/types"
	"adplayer/internal/widget"
)

type stubAgent struct{}

func (stubAgent) ResolveDomain(context.Context) (string, error) { return "acme", nil }
func (stubAgent) OpenSession(context.Context, agent.Credentials, string, string) (string, error) {
	return "s1", nil
}
func (stubAgent) Recommend(_ context.Context, _ string, msg string, _ agent.Credentials) (string, error) {
	return "answer to " + msg, nil
}
func (stubAgent) CloseSession(context.Context, string, agent.Credentials) error { return nil }

type stubCatalog struct{}

func (stubCatalog) FetchSlides(context.Context, string) ([]types.VideoSlide, error) {
	return []types.VideoSlide{{ID: "v1", Suggestions: "Price?"}, {ID: "v2"}}, nil
}

type frame struct {
	Type    string      `json:"type"`
	View    widget.View `json:"view"`
	Action  string      `json:"action"`
	Active  bool        `json:"active"`
	Options *struct {
		Continuous bool `json:"continuous"`
	} `json:"options"`
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *httptest.Server {
	t.Helper()
	var cfg config.Config
	cfg.Speech.Provider = "remote"
	for _, o := range opts {
		o(&cfg)
	}
	s := NewServer(cfg, widget.Deps{
		Registry: registry.New(),
		Catalog:  stubCatalog{},
		Agent:    stubAgent{},
		Timing:   widget.Timing{ComposingMin: time.Millisecond},
	}, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/widget", s.HandleWidgetWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, owner string) *ws.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/widget?owner=" + owner
	c, _, err := ws.Dial(ctx, u, nil)
	require.NoError(t, err)
	return c
}

func send(t *testing.T, c *ws.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, ws.MessageText, b))
}

func readUntil(t *testing.T, c *ws.Conn, match func(frame) bool) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if match(f) {
			return f
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv, "701xx")
	defer c.Close(ws.StatusNormalClosure, "")

	f := readUntil(t, c, func(f frame) bool { return f.Type == "view" })
	require.Len(t, f.View.Slides, 2)
	assert.Equal(t, []string{"Price?"}, f.View.Suggestions)

	send(t, c, Inbound{Type: "open_chat"})
	send(t, c, Inbound{Type: "submit_text", Text: "What is the price?"})
	f = readUntil(t, c, func(f frame) bool { return f.Type == "view" && f.View.Answer != "" })
	assert.Equal(t, "answer to What is the price?", f.View.Answer)
	assert.True(t, f.View.ChatOpen)

	send(t, c, Inbound{Type: "next"})
	f = readUntil(t, c, func(f frame) bool { return f.Type == "view" && f.View.Index == 1 })
	assert.Empty(t, f.View.Answer)
}

func TestRelayedSpeech(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv, "701xx")
	defer c.Close(ws.StatusNormalClosure, "")
	readUntil(t, c, func(f frame) bool { return f.Type == "view" })

	send(t, c, Inbound{Type: "voice_toggle", Entry: "inline"})
	f := readUntil(t, c, func(f frame) bool { return f.Type == "speech_control" })
	assert.Equal(t, "start", f.Action)
	require.NotNil(t, f.Options)
	assert.True(t, f.Options.Continuous)

	send(t, c, Inbound{Type: "speech", Event: "start"})
	send(t, c, Inbound{Type: "speech", Event: "result", Text: "How long is the warranty?", Final: true})
	var stopped bool
	var answer string
	readUntil(t, c, func(f frame) bool {
		if f.Type == "speech_control" && f.Action == "stop" {
			stopped = true
		}
		if f.Type == "view" && f.View.Answer != "" {
			answer = f.View.Answer
		}
		return stopped && answer != ""
	})
	assert.Equal(t, "answer to How long is the warranty?", answer)
}

func TestDragCaptureFrames(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv, "701xx")
	defer c.Close(ws.StatusNormalClosure, "")
	readUntil(t, c, func(f frame) bool { return f.Type == "view" })

	send(t, c, Inbound{Type: "pointer", Device: "mouse", Phase: "down", X: 10, Y: 10, Target: "video"})
	f := readUntil(t, c, func(f frame) bool { return f.Type == "drag_capture" })
	assert.True(t, f.Active)
	send(t, c, Inbound{Type: "pointer", Device: "mouse", Phase: "move", X: 30, Y: 5})
	send(t, c, Inbound{Type: "pointer", Device: "mouse", Phase: "up"})
	f = readUntil(t, c, func(f frame) bool { return f.Type == "drag_capture" })
	assert.False(t, f.Active)
	f = readUntil(t, c, func(f frame) bool { return f.Type == "view" && !f.View.Dragging && f.View.Placement != (types.Placement{}) })
	assert.Equal(t, types.Placement{X: 20, Y: -5}, f.View.Placement)
}

func TestSecondSurfaceRefused(t *testing.T) {
	srv := newTestServer(t)
	first := dial(t, srv, "701xx")
	defer first.Close(ws.StatusNormalClosure, "")
	readUntil(t, first, func(f frame) bool { return f.Type == "view" })

	second := dial(t, srv, "701xx")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := second.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, ws.StatusPolicyViolation, ws.CloseStatus(err))
}

func TestMissingOwner(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/ws/widget")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSurfaceToken(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Auth.SurfaceSecret = "s3cret"
		c.Auth.SkewSeconds = 5
	})

	resp, err := http.Get(srv.URL + "/ws/widget?owner=701xx")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok := auth.Sign("s3cret", "701xx", time.Now().Add(time.Minute))
	c := dial(t, srv, "701xx&token="+tok)
	defer c.Close(ws.StatusNormalClosure, "")
}
