// Package quansic is a client for the Quansic enrichment service, the most
// authoritative source for ISRC→ISWC resolution and cross-platform artist
// identifiers.
package quansic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/octave-labs/catalog-cli/internal/resilience"
)

const defaultBaseURL = "https://api.quansic.com"

// Client looks up recordings and artists. A nil result with nil error is an
// authoritative "no match".
type Client interface {
	EnrichRecording(ctx context.Context, isrc string) (*Recording, error)
	EnrichArtist(ctx context.Context, isni string) (*Artist, error)
}

// Recording is Quansic's recording payload.
type Recording struct {
	ISRC       string        `json:"isrc"`
	ISWC       string        `json:"iswc,omitempty"`
	Title      string        `json:"title"`
	WorkTitle  string        `json:"work_title,omitempty"`
	DurationMS int           `json:"duration_ms,omitempty"`
	Composers  []Contributor `json:"composers,omitempty"`
}

// Artist is Quansic's artist payload.
type Artist struct {
	ISNI            string `json:"isni"`
	Name            string `json:"name"`
	MusicBrainzMBID string `json:"musicbrainz_mbid,omitempty"`
	IPN             string `json:"ipn,omitempty"`
	SpotifyArtistID string `json:"spotify_artist_id,omitempty"`
	AppleMusicID    string `json:"apple_music_id,omitempty"`
}

// Contributor is a credited writer on a work.
type Contributor struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	IPI  string `json:"ipi,omitempty"`
}

// apiResponse is the service envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Quansic client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) EnrichRecording(ctx context.Context, isrc string) (*Recording, error) {
	var rec Recording
	found, err := c.enrich(ctx, "/enrich-recording", map[string]string{"isrc": isrc}, &rec)
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}

func (c *httpClient) EnrichArtist(ctx context.Context, isni string) (*Artist, error) {
	var a Artist
	found, err := c.enrich(ctx, "/enrich", map[string]string{"isni": isni}, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func (c *httpClient) enrich(ctx context.Context, path string, req map[string]string, out any) (bool, error) {
	return resilience.DoVal(ctx, retryConfig(path), func(ctx context.Context) (bool, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}

		body, err := json.Marshal(req)
		if err != nil {
			return false, eris.Wrap(err, "quansic: marshal request")
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return false, eris.Wrap(err, "quansic: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return false, eris.Wrapf(err, "quansic: %s", path)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return false, eris.Wrap(err, "quansic: read response")
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return false, resilience.NewTransientError(
				fmt.Errorf("quansic: %s returned %d", path, resp.StatusCode), resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return false, eris.Errorf("quansic: %s returned %d: %s", path, resp.StatusCode, truncate(respBody))
		}

		var env apiResponse
		if err := json.Unmarshal(respBody, &env); err != nil {
			return false, eris.Wrap(err, "quansic: decode envelope")
		}
		if !env.Success || len(env.Data) == 0 {
			return false, nil
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return false, eris.Wrap(err, "quansic: decode data")
		}
		return true, nil
	})
}

func retryConfig(operation string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("quansic", operation)
	return cfg
}

func truncate(b []byte) string {
	if len(b) > 200 {
		b = b[:200]
	}
	return string(b)
}
