package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"adplayer/internal/config"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// CheckAll runs every dependency check that applies to cfg.
func CheckAll(ctx context.Context, cfg config.Config) HealthStatus {
	checks := []CheckResult{
		checkAgent(ctx, cfg),
		checkCatalog(ctx, cfg),
		checkSpeech(cfg),
	}
	switch cfg.ConvLog.Driver {
	case "nats":
		checks = append(checks, checkNATS(cfg))
	default:
		checks = append(checks, checkHTTP(ctx, "convlog", cfg.ConvLog.BaseURL, "CONVLOG_BASE_URL"))
	}
	if cfg.Placement.Driver == "redis" {
		checks = append(checks, checkRedis(ctx, cfg))
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}
	return HealthStatus{OK: allOK, Checks: checks, CheckedAt: time.Now().UTC()}
}

func checkAgent(ctx context.Context, cfg config.Config) CheckResult {
	if cfg.Agent.AgentID == "" || cfg.Agent.ConsumerKey == "" || cfg.Agent.ConsumerSecret == "" {
		return CheckResult{Name: "agent", Error: "AGENT_ID, AGENT_CONSUMER_KEY or AGENT_CONSUMER_SECRET not set"}
	}
	return checkHTTP(ctx, "agent", strings.TrimSuffix(cfg.Agent.BaseURL, "/")+"/domain", "AGENT_BASE_URL")
}

func checkCatalog(ctx context.Context, cfg config.Config) CheckResult {
	return checkHTTP(ctx, "catalog", cfg.Catalog.BaseURL, "CATALOG_BASE_URL")
}

// checkHTTP treats any response below 500 as reachable.
func checkHTTP(ctx context.Context, name, url, env string) CheckResult {
	start := time.Now()
	result := CheckResult{Name: name}
	if url == "" || strings.HasPrefix(url, "/") {
		result.Error = env + " not set"
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("request build failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	defer resp.Body.Close()
	result.Latency = time.Since(start)

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		result.Error = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body))
		return result
	}
	io.Copy(io.Discard, resp.Body)
	result.OK = true
	return result
}

func checkSpeech(cfg config.Config) CheckResult {
	result := CheckResult{Name: "speech", OK: true}
	switch cfg.Speech.Provider {
	case "deepgram":
		if cfg.Speech.DeepgramAPIKey == "" {
			result.OK = false
			result.Error = "DEEPGRAM_API_KEY not set"
		}
	case "remote", "none":
	default:
		result.OK = false
		result.Error = fmt.Sprintf("unknown SPEECH_PROVIDER %q", cfg.Speech.Provider)
	}
	return result
}

func checkNATS(cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "nats"}
	if cfg.ConvLog.NATSURL == "" {
		result.Error = "NATS_URL not set"
		return result
	}
	nc, err := nats.Connect(cfg.ConvLog.NATSURL, nats.Timeout(3*time.Second))
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = fmt.Sprintf("connect failed: %v", err)
		return result
	}
	nc.Close()
	result.OK = true
	return result
}

func checkRedis(ctx context.Context, cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "redis"}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Placement.RedisAddr})
	defer rdb.Close()
	err := rdb.Ping(ctx).Err()
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = fmt.Sprintf("ping failed: %v", err)
		return result
	}
	result.OK = true
	return result
}
