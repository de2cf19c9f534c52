package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adplayer/internal/types"
)

func TestResolve(t *testing.T) {
	raw := []RawVideo{
		{ID: "a", SourceType: "YouTube", VideoID: "dQw4w9WgXcQ", Suggestions: "Price?, Colors?"},
		{ID: "b", SourceType: "Static Resource", VideoURL: "/apex/promo_mp4", ProductCode: "P-1"},
		{ID: "c", SourceType: "Static Resource", VideoURL: "https://cdn.example.com/x.mp4"},
		{ID: "d", VideoURL: "https://cdn.example.com/y.mp4"},
	}
	got := Resolve(raw, "https://acme.my.site.com")
	require.Len(t, got, 4)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ?enablejsapi=1", got[0].VideoURL)
	assert.True(t, got[0].Embedded())
	assert.Equal(t, "Price?, Colors?", got[0].Suggestions)
	assert.Equal(t, "https://acme.lightning.force.com//resource/promo_mp4", got[1].VideoURL)
	assert.Equal(t, "P-1", got[1].ProductCode)
	assert.Equal(t, "https://cdn.example.com/x.mp4", got[2].VideoURL)
	assert.Equal(t, types.SourceDirect, got[3].Kind)
	assert.Equal(t, "https://cdn.example.com/y.mp4", got[3].VideoURL)
}

func TestLightningOrigin(t *testing.T) {
	cases := map[string]string{
		"https://acme.live-preview.salesforce-experience.com": "https://acme.lightning.force.com",
		"https://acme.my.site.com":                            "https://acme.lightning.force.com",
		"https://acme.lightning.force.com":                    "https://acme.lightning.force.com",
		"https://shop.example.com":                            "https://shop.example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, LightningOrigin(in), in)
	}
}

func TestFetchSlides(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/701xx/videos", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"v1","source_type":"YouTube","video_id":"abc"}]`))
	}))
	defer srv.Close()

	slides, err := NewHTTPClient(srv.URL, "", time.Second).FetchSlides(context.Background(), "701xx")
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, "v1", slides[0].ID)
}

func TestFetchSlidesUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, "", time.Second).FetchSlides(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}
