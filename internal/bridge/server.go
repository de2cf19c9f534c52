// Package bridge binds one browser surface to one widget instance over a
// websocket. The surface sends user input and relayed speech events; the
// bridge answers with view snapshots and capture commands.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	ws "nhooyr.io/websocket"

	"adplayer/internal/auth"
	"adplayer/internal/config"
	"adplayer/internal/drag"
	"adplayer/internal/input"
	"adplayer/internal/registry"
	"adplayer/internal/speech"
	"adplayer/internal/widget"
)

const writeTimeout = 5 * time.Second

type Server struct {
	Cfg  config.Config
	Deps widget.Deps
	Log  *zap.Logger
}

// NewServer returns a bridge. deps carries the shared collaborators; the
// recognizer and drag capturer are created per connection.
func NewServer(cfg config.Config, deps widget.Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Cfg: cfg, Deps: deps, Log: logger.Named("bridge")}
}

type conn struct {
	ws  *ws.Conn
	ctx context.Context
	id  string
	log *zap.Logger
}

func (c *conn) send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, ws.MessageText, b)
}

func (c *conn) sendSpeechControl(ctl speech.Control) error {
	return c.send(speechControlFrame{Type: "speech_control", Action: ctl.Action, Options: ctl.Options})
}

// capture asks the surface to route move/end events from the whole
// document until released.
func (c *conn) capture() func() {
	if err := c.send(dragCaptureFrame{Type: "drag_capture", Active: true}); err != nil {
		c.log.Debug("drag capture send failed", zap.Error(err))
	}
	return func() {
		_ = c.send(dragCaptureFrame{Type: "drag_capture", Active: false})
	}
}

func (s *Server) HandleWidgetWS(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "missing owner", http.StatusBadRequest)
		return
	}
	if secret := s.Cfg.Auth.SurfaceSecret; secret != "" {
		skew := time.Duration(s.Cfg.Auth.SkewSeconds) * time.Second
		if err := auth.Verify(secret, r.URL.Query().Get("token"), owner, time.Now(), skew); err != nil {
			metricConnections.WithLabelValues("unauthorized").Inc()
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
	}

	c, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: s.Cfg.Server.Dev})
	if err != nil {
		s.Log.Warn("ws accept", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := uuid.NewString()
	cn := &conn{ws: c, ctx: ctx, id: id, log: s.Log.With(zap.String("conn", id), zap.String("owner", owner))}

	deps := s.Deps
	deps.Logger = cn.log
	deps.Capturer = drag.CaptureFunc(cn.capture)
	var (
		remote *speech.Remote
		dg     *speech.Deepgram
	)
	switch s.Cfg.Speech.Provider {
	case "deepgram":
		dg = speech.NewDeepgram(speech.DeepgramConfig{
			APIKey:   s.Cfg.Speech.DeepgramAPIKey,
			Model:    s.Cfg.Speech.DeepgramModel,
			Language: s.Cfg.Speech.Language,
			BaseURL:  s.Cfg.Speech.DeepgramURL,
		}, cn.log)
		deps.Recognizer = dg
	case "none":
		deps.Recognizer = nil
	default:
		remote = speech.NewRemote(cn.sendSpeechControl)
		deps.Recognizer = remote
	}

	ctrl, err := widget.Open(ctx, owner, deps)
	if errors.Is(err, registry.ErrActive) {
		metricConnections.WithLabelValues("refused").Inc()
		_ = c.Close(ws.StatusPolicyViolation, "instance already active")
		return
	}
	if err != nil {
		metricConnections.WithLabelValues("error").Inc()
		cn.log.Error("widget activation failed", zap.Error(err))
		_ = c.Close(ws.StatusInternalError, "activation failed")
		return
	}
	metricConnections.WithLabelValues("accepted").Inc()
	metricActive.Inc()
	cn.log.Info("surface connected")

	defer func() {
		metricActive.Dec()
		if remote != nil {
			remote.Detach()
		}
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := ctrl.Close(cctx); err != nil {
			cn.log.Warn("widget close", zap.Error(err))
		}
		ccancel()
		_ = c.Close(ws.StatusNormalClosure, "done")
		cn.log.Info("surface disconnected")
	}()

	go pushViews(ctx, cn, ctrl)

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ == ws.MessageBinary {
			if dg != nil {
				dg.Feed(data)
			}
			continue
		}
		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			metricMessages.WithLabelValues("invalid").Inc()
			continue
		}
		dispatch(ctrl, remote, msg, cn.log)
	}
}

func dispatch(ctrl *widget.Controller, remote *speech.Remote, m Inbound, log *zap.Logger) {
	switch m.Type {
	case "next":
		ctrl.Next()
	case "previous":
		ctrl.Previous()
	case "open_chat":
		ctrl.OpenChat()
	case "close_chat":
		ctrl.CloseChat()
	case "clear_chat":
		ctrl.ClearChat()
	case "submit_text":
		ctrl.SubmitText(m.Text)
	case "choose_suggestion":
		ctrl.ChooseSuggestion(m.Text)
	case "voice_toggle":
		entry := input.Entry(m.Entry)
		if entry != input.EntryTap {
			entry = input.EntryInline
		}
		ctrl.ToggleVoice(entry)
	case "speech":
		if remote != nil {
			remote.Deliver(m.speechEvent())
		}
	case "capabilities":
		if remote != nil && m.Speech != nil {
			remote.SetSupported(*m.Speech)
		}
	case "pointer":
		if err := ctrl.Pointer(m.pointerEvent()); err != nil {
			log.Debug("drag refused", zap.Error(err))
		}
	default:
		metricMessages.WithLabelValues("invalid").Inc()
		return
	}
	metricMessages.WithLabelValues(m.Type).Inc()
}

// pushViews sends a snapshot now and after every change until ctx ends.
func pushViews(ctx context.Context, cn *conn, ctrl *widget.Controller) {
	send := func() bool {
		if err := cn.send(viewFrame{Type: "view", View: ctrl.View()}); err != nil {
			cn.log.Debug("view push failed", zap.Error(err))
			return false
		}
		return true
	}
	if !send() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Changes():
			if !send() {
				return
			}
		}
	}
}
