// Package spotify is a minimal Spotify Web API client used as the last, least
// authoritative artist source: it carries platform ids but no rights
// identifiers of its own.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/octave-labs/catalog-cli/internal/resilience"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
)

// Client searches artists. A nil result with nil error means no match.
type Client interface {
	SearchArtistByISNI(ctx context.Context, isni string) (*Artist, error)
}

// Artist is the subset of a Spotify artist the pipeline uses.
type Artist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Followers int    `json:"followers"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(url string) Option {
	return func(c *httpClient) { c.tokenURL = url }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Spotify client using the client-credentials flow.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Artists struct {
		Items []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Followers struct {
				Total int `json:"total"`
			} `json:"followers"`
		} `json:"items"`
	} `json:"artists"`
}

func (c *httpClient) SearchArtistByISNI(ctx context.Context, isni string) (*Artist, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("spotify", "search artist")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Artist, error) {
		token, err := c.token(ctx)
		if err != nil {
			return nil, err
		}

		query := url.Values{
			"type":  {"artist"},
			"q":     {"isni:" + isni},
			"limit": {"1"},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/search?"+query.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "spotify: create request")
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "spotify: search")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, eris.Wrap(err, "spotify: read response")
		}

		switch {
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return nil, resilience.NewTransientError(
				fmt.Errorf("spotify: search returned %d", resp.StatusCode), resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, eris.Errorf("spotify: search returned %d", resp.StatusCode)
		}

		var sr searchResponse
		if err := json.Unmarshal(body, &sr); err != nil {
			return nil, eris.Wrap(err, "spotify: decode search response")
		}
		if len(sr.Artists.Items) == 0 {
			return nil, nil
		}
		item := sr.Artists.Items[0]
		return &Artist{ID: item.ID, Name: item.Name, Followers: item.Followers.Total}, nil
	})
}

// token returns a cached client-credentials token, refreshing when within a
// minute of expiry.
func (c *httpClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "spotify: create token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "spotify: token request")
	}
	defer resp.Body.Close()

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return "", resilience.NewTransientError(
			fmt.Errorf("spotify: token endpoint returned %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("spotify: token endpoint returned %d", resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", eris.Wrap(err, "spotify: decode token")
	}

	c.accessToken = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
