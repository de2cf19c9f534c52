package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"adplayer/internal/config"
)

func TestCheckAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/domain" {
			_, _ = w.Write([]byte(`{"domain":"acme"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var cfg config.Config
	cfg.Agent.BaseURL = srv.URL
	cfg.Agent.AgentID = "0Xx"
	cfg.Agent.ConsumerKey = "k"
	cfg.Agent.ConsumerSecret = "s"
	cfg.Catalog.BaseURL = srv.URL
	cfg.ConvLog.Driver = "http"
	cfg.ConvLog.BaseURL = srv.URL
	cfg.Speech.Provider = "remote"

	st := CheckAll(context.Background(), cfg)
	assert.True(t, st.OK, st.String())
	assert.Len(t, st.Checks, 4)

	cfg.Speech.Provider = "deepgram"
	cfg.Agent.ConsumerSecret = ""
	st = CheckAll(context.Background(), cfg)
	assert.False(t, st.OK)
	out := st.String()
	assert.True(t, strings.HasPrefix(out, "Health: FAIL"))
	assert.Contains(t, out, "DEEPGRAM_API_KEY not set")
	assert.Contains(t, out, "AGENT_CONSUMER_SECRET")
}
