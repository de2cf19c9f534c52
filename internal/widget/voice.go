package widget

import (
	"go.uber.org/zap"

	"adplayer/internal/input"
	"adplayer/internal/speech"
)

// ToggleVoice starts capture when idle and stops it when listening.
// Starting clears the previous exchange and is refused while composing.
func (c *Controller) ToggleVoice(entry input.Entry) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.voice.Listening() && c.composing {
		c.mu.Unlock()
		return
	}
	act := c.voice.Toggle(entry)
	capture := c.voice.Capture()
	if act == input.ActionStart {
		c.question = ""
		c.answer = ""
		c.clearNoticeLocked()
	}
	c.mu.Unlock()
	c.notify()

	switch act {
	case input.ActionStop:
		c.stopCapture(true)
	case input.ActionStart:
		c.startCapture(capture)
	}
}

func (c *Controller) startCapture(capture uint64) {
	opts := speech.Options{Continuous: true, Interim: true, Language: c.lang}
	var (
		events <-chan speech.Event
		err    error
	)
	if c.rec == nil {
		err = speech.ErrUnsupported
	} else {
		events, err = c.rec.Start(c.ctx, opts)
	}

	c.mu.Lock()
	current := c.voice.Capture() == capture && c.voice.Listening()
	if err != nil {
		if current {
			c.applyLocked(c.voice.StartFailed(err))
		}
		c.mu.Unlock()
		c.log.Debug("capture start failed", zap.Error(err))
		c.notify()
		return
	}
	c.mu.Unlock()

	go c.consume(capture, events)
	if !current {
		// toggled off while starting
		c.stopCapture(true)
	}
}

func (c *Controller) consume(capture uint64, events <-chan speech.Event) {
	for ev := range events {
		c.onSpeech(capture, ev)
	}
}

func (c *Controller) onSpeech(capture uint64, ev speech.Event) {
	c.mu.Lock()
	if c.closed || c.voice.Capture() != capture {
		c.mu.Unlock()
		return
	}
	out := c.voice.Handle(ev)
	c.applyLocked(out)
	if out.Question != nil {
		c.emitLocked(*out.Question)
	}
	c.mu.Unlock()

	if out.Action == input.ActionStop {
		c.stopCapture(true)
	}
	c.notify()
}

func (c *Controller) applyLocked(out input.Outcome) {
	f := out.Failure
	if f == nil {
		return
	}
	ttl := c.timing.NoticeTTL
	if f.Long {
		ttl = c.timing.PermissionNoticeTTL
	}
	c.showNoticeLocked(noticeKind(f), f.Message, ttl)
}

func noticeKind(f *input.Failure) string {
	switch f.Kind {
	case "unsupported":
		return NoticeCaptureUnsupported
	case "permission":
		return NoticeCapturePermission
	}
	return NoticeCaptureTransient
}

func (c *Controller) stopCapture(stop bool) {
	if stop && c.rec != nil {
		c.rec.Stop()
	}
}
