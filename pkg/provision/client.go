// Package provision wraps the downstream provisioning collaborators: identity
// minting, social-account creation, and monetization deployment. Each is an
// opaque HTTP service with the same provision(entity) contract; transaction
// construction and signing happen inside the services, not here.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/octave-labs/catalog-cli/internal/resilience"
)

// ErrNotApplicable is returned when the service rejects the entity as
// ineligible (e.g. an identity already exists outside the pipeline). Callers
// map it to a skipped task: it will not succeed on retry.
var ErrNotApplicable = errors.New("provision: entity not applicable")

// Summary is the service's report of what it created.
type Summary struct {
	Reference string          `json:"reference"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}

// Client provisions one kind of resource for catalog entities.
type Client interface {
	Provision(ctx context.Context, entityID string) (*Summary, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	service string
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for one provisioning service. The service name
// only labels logs and errors.
func NewClient(service, baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		service: service,
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 120 * time.Second, // chain transactions can be slow to confirm
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Provision(ctx context.Context, entityID string) (*Summary, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger(c.service, "provision")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Summary, error) {
		body, err := json.Marshal(map[string]string{"entity_id": entityID})
		if err != nil {
			return nil, eris.Wrapf(err, "%s: marshal request", c.service)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/provision", bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrapf(err, "%s: create request", c.service)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: provision %s", c.service, entityID)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, eris.Wrapf(err, "%s: read response", c.service)
		}

		switch {
		case resp.StatusCode == http.StatusUnprocessableEntity:
			return nil, ErrNotApplicable
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return nil, resilience.NewTransientError(
				fmt.Errorf("%s: provision returned %d", c.service, resp.StatusCode), resp.StatusCode)
		case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
			return nil, eris.Errorf("%s: provision returned %d: %s", c.service, resp.StatusCode, respBody)
		}

		var s Summary
		if err := json.Unmarshal(respBody, &s); err != nil {
			return nil, eris.Wrapf(err, "%s: decode summary", c.service)
		}
		return &s, nil
	})
}
