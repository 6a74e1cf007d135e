// Package musicbrainz is a client for the MusicBrainz web service. It is the
// second source in both fallback chains: freely available but slower to pick
// up new works than Quansic.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/octave-labs/catalog-cli/internal/resilience"
)

const defaultBaseURL = "https://musicbrainz.org/ws/2"

// Client queries MusicBrainz. A nil result with nil error means no match.
type Client interface {
	RecordingByISRC(ctx context.Context, isrc string) (*Recording, error)
	ArtistByISNI(ctx context.Context, isni string) (*Artist, error)
}

// Recording is the subset of a MusicBrainz recording the pipeline uses.
type Recording struct {
	MBID       string `json:"id"`
	Title      string `json:"title"`
	ISWC       string `json:"iswc,omitempty"`
	WorkTitle  string `json:"work_title,omitempty"`
	DurationMS int    `json:"length,omitempty"`
}

// Artist is the subset of a MusicBrainz artist the pipeline uses.
type Artist struct {
	MBID string `json:"id"`
	Name string `json:"name"`
	ISNI string `json:"isni,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default web service root.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second. Anonymous MusicBrainz access is
// limited to one request per second; exceeding it earns 503s.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a MusicBrainz client. userAgent must identify the
// application with contact information, per the service's API policy.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// isrcResponse is the /isrc/{code} lookup shape.
type isrcResponse struct {
	Recordings []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Length    int    `json:"length"`
		Relations []struct {
			Type string `json:"type"`
			Work struct {
				Title string   `json:"title"`
				ISWCs []string `json:"iswcs"`
			} `json:"work"`
		} `json:"relations"`
	} `json:"recordings"`
}

func (c *httpClient) RecordingByISRC(ctx context.Context, isrc string) (*Recording, error) {
	path := fmt.Sprintf("/isrc/%s?fmt=json&inc=work-rels", url.PathEscape(isrc))
	body, found, err := c.get(ctx, path)
	if err != nil || !found {
		return nil, err
	}

	var resp isrcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "musicbrainz: decode isrc response")
	}
	if len(resp.Recordings) == 0 {
		return nil, nil
	}

	r := resp.Recordings[0]
	rec := &Recording{MBID: r.ID, Title: r.Title, DurationMS: r.Length}
	for _, rel := range r.Relations {
		if rel.Type != "performance" {
			continue
		}
		rec.WorkTitle = rel.Work.Title
		if len(rel.Work.ISWCs) > 0 {
			rec.ISWC = rel.Work.ISWCs[0]
		}
		break
	}
	return rec, nil
}

// artistSearchResponse is the /artist?query= search shape.
type artistSearchResponse struct {
	Artists []struct {
		ID    string   `json:"id"`
		Name  string   `json:"name"`
		ISNIs []string `json:"isnis"`
	} `json:"artists"`
}

func (c *httpClient) ArtistByISNI(ctx context.Context, isni string) (*Artist, error) {
	path := fmt.Sprintf("/artist?fmt=json&query=%s", url.QueryEscape("isni:"+isni))
	body, found, err := c.get(ctx, path)
	if err != nil || !found {
		return nil, err
	}

	var resp artistSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "musicbrainz: decode artist response")
	}
	if len(resp.Artists) == 0 {
		return nil, nil
	}

	a := resp.Artists[0]
	artist := &Artist{MBID: a.ID, Name: a.Name}
	if len(a.ISNIs) > 0 {
		artist.ISNI = a.ISNIs[0]
	}
	return artist, nil
}

// get performs a rate-limited GET with retry. The bool is false on 404.
func (c *httpClient) get(ctx context.Context, path string) ([]byte, bool, error) {
	type result struct {
		body  []byte
		found bool
	}
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("musicbrainz", path)

	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (result, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return result{}, eris.Wrap(err, "musicbrainz: create request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return result{}, eris.Wrapf(err, "musicbrainz: get %s", path)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return result{}, eris.Wrap(err, "musicbrainz: read response")
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return result{}, nil
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return result{}, resilience.NewTransientError(
				fmt.Errorf("musicbrainz: %s returned %d", path, resp.StatusCode), resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return result{}, eris.Errorf("musicbrainz: %s returned %d", path, resp.StatusCode)
		}
		return result{body: body, found: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return res.body, res.found, nil
}
