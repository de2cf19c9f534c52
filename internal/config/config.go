package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		GRPCPort string
		LogLevel string
		LogFile  string
		Dev      bool
	}
	Auth struct {
		SurfaceSecret string
		SkewSeconds   int
	}
	Agent struct {
		BaseURL        string
		AgentID        string
		ConsumerKey    string
		ConsumerSecret string
		TimeoutMs      int
	}
	Catalog struct {
		BaseURL   string
		Origin    string
		TimeoutMs int
	}
	ConvLog struct {
		Driver    string
		BaseURL   string
		NATSURL   string
		Subject   string
		TimeoutMs int
	}
	Placement struct {
		Driver    string
		RedisAddr string
		Key       string
	}
	Speech struct {
		Provider       string
		Language       string
		DeepgramAPIKey string
		DeepgramModel  string
		DeepgramURL    string
	}
	Widget struct {
		ComposingMinMs        int
		NoticeTTLMs           int
		PermissionNoticeTTLMs int
	}
}

// Load reads configuration from the environment, after an optional .env
// file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.dev", false)

	v.SetDefault("auth.skew_seconds", 60)

	v.SetDefault("agent.timeout_ms", 15000)

	v.SetDefault("catalog.timeout_ms", 10000)

	v.SetDefault("convlog.driver", "http")
	v.SetDefault("convlog.subject", "conversations.turns")
	v.SetDefault("convlog.timeout_ms", 5000)

	v.SetDefault("placement.driver", "memory")
	v.SetDefault("placement.redis_addr", "localhost:6379")
	v.SetDefault("placement.key", "videoCarouselPosition")

	v.SetDefault("speech.provider", "remote")
	v.SetDefault("speech.language", "en-US")
	v.SetDefault("speech.deepgram_model", "nova-2")

	v.SetDefault("widget.composing_min_ms", 1500)
	v.SetDefault("widget.notice_ttl_ms", 3000)
	v.SetDefault("widget.permission_notice_ttl_ms", 8000)

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.grpc_port", "GRPC_PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("server.log_file", "LOG_FILE")
	v.BindEnv("server.dev", "DEV")

	v.BindEnv("auth.surface_secret", "SURFACE_TOKEN_SECRET")
	v.BindEnv("auth.skew_seconds", "SURFACE_TOKEN_SKEW_SECONDS")

	v.BindEnv("agent.base_url", "AGENT_BASE_URL")
	v.BindEnv("agent.agent_id", "AGENT_ID")
	v.BindEnv("agent.consumer_key", "AGENT_CONSUMER_KEY")
	v.BindEnv("agent.consumer_secret", "AGENT_CONSUMER_SECRET")
	v.BindEnv("agent.timeout_ms", "AGENT_TIMEOUT_MS")

	v.BindEnv("catalog.base_url", "CATALOG_BASE_URL")
	v.BindEnv("catalog.origin", "CATALOG_ORIGIN")
	v.BindEnv("catalog.timeout_ms", "CATALOG_TIMEOUT_MS")

	v.BindEnv("convlog.driver", "CONVLOG_DRIVER")
	v.BindEnv("convlog.base_url", "CONVLOG_BASE_URL")
	v.BindEnv("convlog.nats_url", "NATS_URL")
	v.BindEnv("convlog.subject", "CONVLOG_SUBJECT")
	v.BindEnv("convlog.timeout_ms", "CONVLOG_TIMEOUT_MS")

	v.BindEnv("placement.driver", "PLACEMENT_DRIVER")
	v.BindEnv("placement.redis_addr", "REDIS_ADDR")
	v.BindEnv("placement.key", "PLACEMENT_KEY")

	v.BindEnv("speech.provider", "SPEECH_PROVIDER")
	v.BindEnv("speech.language", "SPEECH_LANGUAGE")
	v.BindEnv("speech.deepgram_api_key", "DEEPGRAM_API_KEY")
	v.BindEnv("speech.deepgram_model", "DEEPGRAM_MODEL")
	v.BindEnv("speech.deepgram_url", "DEEPGRAM_URL")

	v.BindEnv("widget.composing_min_ms", "WIDGET_COMPOSING_MIN_MS")
	v.BindEnv("widget.notice_ttl_ms", "WIDGET_NOTICE_TTL_MS")
	v.BindEnv("widget.permission_notice_ttl_ms", "WIDGET_PERMISSION_NOTICE_TTL_MS")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.GRPCPort = toString(v.Get("server.grpc_port"))
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Server.LogFile = v.GetString("server.log_file")
	c.Server.Dev = v.GetBool("server.dev")

	c.Auth.SurfaceSecret = v.GetString("auth.surface_secret")
	c.Auth.SkewSeconds = v.GetInt("auth.skew_seconds")

	c.Agent.BaseURL = v.GetString("agent.base_url")
	c.Agent.AgentID = v.GetString("agent.agent_id")
	c.Agent.ConsumerKey = v.GetString("agent.consumer_key")
	c.Agent.ConsumerSecret = v.GetString("agent.consumer_secret")
	c.Agent.TimeoutMs = v.GetInt("agent.timeout_ms")

	c.Catalog.BaseURL = v.GetString("catalog.base_url")
	c.Catalog.Origin = v.GetString("catalog.origin")
	c.Catalog.TimeoutMs = v.GetInt("catalog.timeout_ms")

	c.ConvLog.Driver = v.GetString("convlog.driver")
	c.ConvLog.BaseURL = v.GetString("convlog.base_url")
	c.ConvLog.NATSURL = v.GetString("convlog.nats_url")
	c.ConvLog.Subject = v.GetString("convlog.subject")
	c.ConvLog.TimeoutMs = v.GetInt("convlog.timeout_ms")

	c.Placement.Driver = v.GetString("placement.driver")
	c.Placement.RedisAddr = v.GetString("placement.redis_addr")
	c.Placement.Key = v.GetString("placement.key")

	c.Speech.Provider = v.GetString("speech.provider")
	c.Speech.Language = v.GetString("speech.language")
	c.Speech.DeepgramAPIKey = v.GetString("speech.deepgram_api_key")
	c.Speech.DeepgramModel = v.GetString("speech.deepgram_model")
	c.Speech.DeepgramURL = v.GetString("speech.deepgram_url")

	c.Widget.ComposingMinMs = v.GetInt("widget.composing_min_ms")
	c.Widget.NoticeTTLMs = v.GetInt("widget.notice_ttl_ms")
	c.Widget.PermissionNoticeTTLMs = v.GetInt("widget.permission_notice_ttl_ms")

	return c
}

// Ms converts a millisecond setting to a duration.
func Ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Summary is a one-line description safe to log; secrets are omitted.
func (c Config) Summary() string {
	return fmt.Sprintf("port=%s grpc_port=%s agent=%s catalog=%s convlog=%s placement=%s speech=%s",
		c.Server.Port, c.Server.GRPCPort, c.Agent.BaseURL, c.Catalog.BaseURL,
		c.ConvLog.Driver, c.Placement.Driver, c.Speech.Provider)
}

func toString(v any) string { return fmt.Sprint(v) }
