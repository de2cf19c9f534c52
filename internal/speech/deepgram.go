package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

type DeepgramConfig struct {
	APIKey        string
	Model         string
	Language      string
	BaseURL       string
	EndpointingMs int
	UtterEndMs    int
}

// Deepgram transcribes PCM16@16k audio pushed through Feed over a live
// websocket, one capture at a time.
type Deepgram struct {
	cfg DeepgramConfig
	log *zap.Logger

	mu  sync.Mutex
	cur *dgCapture
}

type dgCapture struct {
	ctx    context.Context
	cancel context.CancelFunc
	sendQ  chan []byte
	events chan Event
}

func NewDeepgram(cfg DeepgramConfig, logger *zap.Logger) *Deepgram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deepgram{cfg: cfg, log: logger.Named("deepgram")}
}

func (d *Deepgram) Start(ctx context.Context, opts Options) (<-chan Event, error) {
	if d.cfg.APIKey == "" {
		return nil, ErrUnsupported
	}
	d.mu.Lock()
	if d.cur != nil {
		d.mu.Unlock()
		return nil, ErrCaptureActive
	}
	cctx, cancel := context.WithCancel(ctx)
	c := &dgCapture{
		ctx:    cctx,
		cancel: cancel,
		sendQ:  make(chan []byte, 8),
		events: make(chan Event, 32),
	}
	d.cur = c
	d.mu.Unlock()

	metricCaptures.WithLabelValues("deepgram").Inc()
	go d.run(c, opts)
	return c.events, nil
}

func (d *Deepgram) Stop() {
	d.mu.Lock()
	c := d.cur
	d.mu.Unlock()
	if c != nil {
		c.cancel()
	}
}

// Feed queues an audio frame for the active capture. Frames are dropped
// when no capture is active or the queue is congested.
func (d *Deepgram) Feed(pcm []byte) bool {
	d.mu.Lock()
	c := d.cur
	d.mu.Unlock()
	if c == nil {
		return false
	}
	select {
	case c.sendQ <- pcm:
		metricAudioBytes.Add(float64(len(pcm)))
		return true
	default:
		metricAudioDrops.Inc()
		return false
	}
}

func (d *Deepgram) listenURL(opts Options) string {
	q := url.Values{}
	q.Set("model", orDefault(d.cfg.Model, "nova-2"))
	q.Set("language", orDefault(opts.Language, orDefault(d.cfg.Language, "en-US")))
	q.Set("smart_format", "true")
	q.Set("endpointing", fmt.Sprintf("%d", nzd(d.cfg.EndpointingMs, 1000)))
	q.Set("interim_results", fmt.Sprintf("%t", opts.Interim))
	q.Set("utterance_end_ms", fmt.Sprintf("%d", nzd(d.cfg.UtterEndMs, 1500)))
	q.Set("encoding", "linear16")
	q.Set("sample_rate", "16000")
	q.Set("channels", "1")
	base := d.cfg.BaseURL
	if base == "" {
		base = "wss://api.deepgram.com/v1/listen"
	}
	return base + "?" + q.Encode()
}

func (d *Deepgram) run(c *dgCapture, opts Options) {
	defer func() {
		c.cancel()
		emit(c, Event{Type: EventEnded})
		close(c.events)
		d.mu.Lock()
		if d.cur == c {
			d.cur = nil
		}
		d.mu.Unlock()
	}()

	hdr := make(http.Header)
	hdr.Set("Authorization", "Token "+d.cfg.APIKey)
	dctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	start := time.Now()
	ws, resp, err := websocket.Dial(dctx, d.listenURL(opts), &websocket.DialOptions{HTTPHeader: hdr})
	cancel()
	if err != nil {
		if c.ctx.Err() != nil {
			emit(c, Event{Type: EventError, Code: CodeAborted})
			return
		}
		code := CodeNetwork
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			code = CodeNotAllowed
		}
		d.log.Warn("connect failed", zap.Error(err), zap.String("code", string(code)))
		emit(c, Event{Type: EventError, Code: code})
		return
	}
	metricConnectMS.Observe(float64(time.Since(start).Milliseconds()))
	defer ws.Close(websocket.StatusNormalClosure, "bye")
	emit(c, Event{Type: EventStarted})

	go func() {
		for {
			select {
			case <-c.ctx.Done():
				return
			case b := <-c.sendQ:
				wctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
				err := ws.Write(wctx, websocket.MessageBinary, b)
				cancel()
				if err != nil {
					d.log.Debug("write error", zap.Error(err))
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				d.log.Warn("read error", zap.Error(err))
				emit(c, Event{Type: EventError, Code: CodeNetwork})
			}
			return
		}
		if ev, ok := parseResult(data); ok {
			emit(c, ev)
			if ev.Final != "" && !opts.Continuous {
				return
			}
		}
	}
}

// parseResult reads a Deepgram "Results" frame leniently.
func parseResult(data []byte) (Event, bool) {
	var m struct {
		Type    string `json:"type"`
		Channel struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channel"`
		IsFinal     bool `json:"is_final"`
		SpeechFinal bool `json:"speech_final"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Event{}, false
	}
	if m.Type != "" && !strings.EqualFold(m.Type, "Results") {
		return Event{}, false
	}
	if len(m.Channel.Alternatives) == 0 {
		return Event{}, false
	}
	text := strings.TrimSpace(m.Channel.Alternatives[0].Transcript)
	if text == "" {
		return Event{}, false
	}
	if m.IsFinal || m.SpeechFinal {
		return Event{Type: EventResult, Final: text}, true
	}
	return Event{Type: EventResult, Interim: text}, true
}

func emit(c *dgCapture, e Event) {
	select {
	case c.events <- e:
	default:
		metricEventDrops.Inc()
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nzd(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
