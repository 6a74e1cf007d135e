package musicbrainz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingByISRC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/isrc/USRC11707839", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Equal(t, "work-rels", r.URL.Query().Get("inc"))
		assert.Equal(t, "catalog-cli-test/1.0", r.Header.Get("User-Agent"))

		json.NewEncoder(w).Encode(map[string]any{
			"recordings": []map[string]any{{
				"id":     "mbid-rec",
				"title":  "Song",
				"length": 215000,
				"relations": []map[string]any{
					{"type": "samples material", "work": map[string]any{"title": "Other"}},
					{"type": "performance", "work": map[string]any{
						"title": "Work",
						"iswcs": []string{"T-034.524.680-1", "T-034.524.680-2"},
					}},
				},
			}},
		})
	}))
	defer srv.Close()

	c := NewClient("catalog-cli-test/1.0", WithBaseURL(srv.URL))
	rec, err := c.RecordingByISRC(context.Background(), "USRC11707839")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "mbid-rec", rec.MBID)
	assert.Equal(t, "Song", rec.Title)
	assert.Equal(t, 215000, rec.DurationMS)
	assert.Equal(t, "Work", rec.WorkTitle)
	assert.Equal(t, "T-034.524.680-1", rec.ISWC, "first ISWC of the performance relation")
}

func TestRecordingByISRC_NoWorkRelation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"recordings": []map[string]any{{"id": "mbid-rec", "title": "Song"}},
		})
	}))
	defer srv.Close()

	c := NewClient("catalog-cli-test/1.0", WithBaseURL(srv.URL))
	rec, err := c.RecordingByISRC(context.Background(), "USRC11707839")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.ISWC, "recording exists but has no linked work")
}

func TestRecordingByISRC_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("catalog-cli-test/1.0", WithBaseURL(srv.URL))
	rec, err := c.RecordingByISRC(context.Background(), "USRC10000000")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRecordingByISRC_EmptyRecordings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"recordings": []any{}})
	}))
	defer srv.Close()

	c := NewClient("catalog-cli-test/1.0", WithBaseURL(srv.URL))
	rec, err := c.RecordingByISRC(context.Background(), "USRC10000000")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestArtistByISNI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/artist", r.URL.Path)
		assert.Equal(t, "isni:0000000121212121", r.URL.Query().Get("query"))

		json.NewEncoder(w).Encode(map[string]any{
			"artists": []map[string]any{{
				"id":    "mbid-artist",
				"name":  "Artist",
				"isnis": []string{"0000000121212121"},
			}},
		})
	}))
	defer srv.Close()

	c := NewClient("catalog-cli-test/1.0", WithBaseURL(srv.URL))
	artist, err := c.ArtistByISNI(context.Background(), "0000000121212121")
	require.NoError(t, err)
	require.NotNil(t, artist)
	assert.Equal(t, "mbid-artist", artist.MBID)
	assert.Equal(t, "0000000121212121", artist.ISNI)
}

func TestArtistByISNI_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"artists": []any{}})
	}))
	defer srv.Close()

	c := NewClient("catalog-cli-test/1.0", WithBaseURL(srv.URL))
	artist, err := c.ArtistByISNI(context.Background(), "0000000000000000")
	require.NoError(t, err)
	assert.Nil(t, artist)
}
