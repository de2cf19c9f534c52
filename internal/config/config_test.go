package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "GRPC_PORT", "LOG_LEVEL", "CONVLOG_DRIVER", "PLACEMENT_DRIVER", "PLACEMENT_KEY", "SPEECH_PROVIDER", "SPEECH_LANGUAGE", "WIDGET_COMPOSING_MIN_MS", "SURFACE_TOKEN_SECRET", "SURFACE_TOKEN_SKEW_SECONDS"} {
		t.Setenv(k, "")
	}

	c := Load()

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, "9090", c.Server.GRPCPort)
	assert.Equal(t, "info", c.Server.LogLevel)
	assert.Empty(t, c.Auth.SurfaceSecret)
	assert.Equal(t, 60, c.Auth.SkewSeconds)
	assert.Equal(t, 15000, c.Agent.TimeoutMs)
	assert.Equal(t, "http", c.ConvLog.Driver)
	assert.Equal(t, "conversations.turns", c.ConvLog.Subject)
	assert.Equal(t, "memory", c.Placement.Driver)
	assert.Equal(t, "videoCarouselPosition", c.Placement.Key)
	assert.Equal(t, "remote", c.Speech.Provider)
	assert.Equal(t, "en-US", c.Speech.Language)
	assert.Equal(t, 1500, c.Widget.ComposingMinMs)
	assert.Equal(t, 3000, c.Widget.NoticeTTLMs)
	assert.Equal(t, 8000, c.Widget.PermissionNoticeTTLMs)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("AGENT_BASE_URL", "https://agent.internal")
	t.Setenv("AGENT_CONSUMER_SECRET", "s3cret")
	t.Setenv("SPEECH_PROVIDER", "deepgram")
	t.Setenv("WIDGET_COMPOSING_MIN_MS", "250")
	t.Setenv("SURFACE_TOKEN_SECRET", "tok-secret")

	c := Load()

	assert.Equal(t, "9999", c.Server.Port)
	assert.Equal(t, "https://agent.internal", c.Agent.BaseURL)
	assert.Equal(t, "deepgram", c.Speech.Provider)
	assert.Equal(t, 250*time.Millisecond, Ms(c.Widget.ComposingMinMs))
	assert.Equal(t, "tok-secret", c.Auth.SurfaceSecret)
	assert.NotContains(t, c.Summary(), "s3cret")
	assert.NotContains(t, c.Summary(), "tok-secret")
}
