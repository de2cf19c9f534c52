// Package catalog fetches the video list for an owner and resolves each
// record's playback URL.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adplayer/internal/types"
)

var ErrUnavailable = errors.New("catalog unavailable")

// Service delivers the slides for one owner context.
type Service interface {
	FetchSlides(ctx context.Context, owner string) ([]types.VideoSlide, error)
}

// RawVideo is a catalog record as the service returns it.
type RawVideo struct {
	ID          string `json:"id"`
	SourceType  string `json:"source_type"`
	VideoID     string `json:"video_id"`
	VideoURL    string `json:"video_url"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Suggestions string `json:"suggestion_questions"`
}

type HTTPClient struct {
	http   *http.Client
	base   string
	origin string
}

// NewHTTPClient returns a catalog client. origin is the page origin used to
// resolve hosted assets.
func NewHTTPClient(baseURL, origin string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http:   &http.Client{Timeout: timeout},
		base:   strings.TrimSuffix(baseURL, "/"),
		origin: origin,
	}
}

func (c *HTTPClient) FetchSlides(ctx context.Context, owner string) ([]types.VideoSlide, error) {
	u := c.base + "/campaigns/" + url.PathEscape(owner) + "/videos"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	metricFetchMS.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metricFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		metricFetches.WithLabelValues("error").Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: %s", ErrUnavailable, resp.Status, string(b))
	}
	var raw []RawVideo
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		metricFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	metricFetches.WithLabelValues("ok").Inc()
	return Resolve(raw, c.origin), nil
}

// Resolve converts raw records into slides with playback URLs.
func Resolve(raw []RawVideo, origin string) []types.VideoSlide {
	out := make([]types.VideoSlide, 0, len(raw))
	for _, r := range raw {
		kind := types.SourceKind(r.SourceType)
		out = append(out, types.VideoSlide{
			ID:          r.ID,
			Kind:        kind,
			VideoURL:    playbackURL(r, kind, origin),
			ProductCode: r.ProductCode,
			ProductName: r.ProductName,
			Suggestions: r.Suggestions,
		})
	}
	return out
}

func playbackURL(r RawVideo, kind types.SourceKind, origin string) string {
	switch kind {
	case types.SourceEmbedded:
		return "https://www.youtube.com/embed/" + r.VideoID + "?enablejsapi=1"
	case types.SourceHosted:
		if name, ok := strings.CutPrefix(r.VideoURL, "/apex/"); ok {
			return LightningOrigin(origin) + "//resource/" + name
		}
	}
	return r.VideoURL
}

var siteSuffixes = []string{".live-preview.salesforce-experience.com", ".my.site.com"}

// LightningOrigin maps a community site origin to the org origin that
// serves static resources. Other origins are returned unchanged.
func LightningOrigin(origin string) string {
	for _, s := range siteSuffixes {
		if strings.Contains(origin, s) {
			return strings.Replace(origin, s, ".lightning.force.com", 1)
		}
	}
	return origin
}
