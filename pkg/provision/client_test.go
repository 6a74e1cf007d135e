package provision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/provision", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a1", req["entity_id"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"reference": "0xabc123",
			"detail":    map[string]string{"network": "lens"},
		})
	}))
	defer srv.Close()

	c := NewClient("mint", srv.URL, "key")
	summary, err := c.Provision(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "0xabc123", summary.Reference)
	assert.JSONEq(t, `{"network":"lens"}`, string(summary.Detail))
}

func TestProvision_NotApplicable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("mint", srv.URL, "key")
	_, err := c.Provision(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestProvision_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"reference": "0xdef"})
	}))
	defer srv.Close()

	c := NewClient("social", srv.URL, "key")
	summary, err := c.Provision(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "0xdef", summary.Reference)
	assert.EqualValues(t, 2, calls.Load())
}

func TestProvision_PermanentError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("monetize", srv.URL, "key")
	_, err := c.Provision(context.Background(), "a1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotApplicable)
	assert.EqualValues(t, 1, calls.Load())
}
