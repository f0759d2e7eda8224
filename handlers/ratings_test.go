package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showscore/models"
)

type fakeRatingService struct {
	titleCalls   int
	episodeCalls int
	batchCalls   int
	title        models.TitleRating
	episode      models.EpisodeRating
}

func (f *fakeRatingService) TitleRating(ctx context.Context, rawID string) models.TitleRating {
	f.titleCalls++
	out := f.title
	out.IMDBID = rawID
	return out
}

func (f *fakeRatingService) EpisodeRating(ctx context.Context, rawID string, season, episode int) models.EpisodeRating {
	f.episodeCalls++
	out := f.episode
	out.IMDBID = rawID
	out.Season = season
	out.Episode = episode
	return out
}

func (f *fakeRatingService) BatchEpisodeRatings(ctx context.Context, queries []models.EpisodeQuery) []models.EpisodeRating {
	f.batchCalls++
	results := make([]models.EpisodeRating, len(queries))
	for i, q := range queries {
		results[i] = f.EpisodeRating(ctx, q.IMDBID, q.Season, q.Episode)
	}
	return results
}

func newTestRouter(svc *fakeRatingService) *mux.Router {
	h := NewRatingsHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/api/imdb/{id}/rating", h.TitleRating).Methods("GET")
	r.HandleFunc("/api/imdb/{id}/season/{season:[0-9]+}/episode/{episode:[0-9]+}/rating", h.EpisodeRating).Methods("GET")
	r.HandleFunc("/api/imdb/ratings/batch", h.Batch).Methods("POST")
	return r
}

func floatPtr(v float64) *float64 { return &v }

func TestTitleRatingHandler(t *testing.T) {
	svc := &fakeRatingService{title: models.TitleRating{
		Rating:  floatPtr(8.2),
		Votes:   errPtr("15234"),
		Title:   errPtr("Bleach"),
		Method:  errPtr("json_ld"),
		Success: true,
	}}
	r := newTestRouter(svc)

	req := httptest.NewRequest("GET", "/api/imdb/tt0434665/rating", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, svc.titleCalls)

	var body models.TitleRating
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "tt0434665", body.IMDBID)
	assert.Equal(t, 8.2, *body.Rating)
}

func TestTitleRatingHandlerRejectsInvalidID(t *testing.T) {
	svc := &fakeRatingService{}
	r := newTestRouter(svc)

	req := httptest.NewRequest("GET", "/api/imdb/tt12/rating", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, svc.titleCalls)

	var body models.TitleRating
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid IMDb id", *body.Error)
}

func TestEpisodeRatingHandler(t *testing.T) {
	svc := &fakeRatingService{episode: models.EpisodeRating{
		Rating:  floatPtr(8.6),
		Votes:   errPtr("1,234"),
		Title:   errPtr("The Shape of Life"),
		Method:  errPtr("anchor"),
		Success: true,
	}}
	r := newTestRouter(svc)

	req := httptest.NewRequest("GET", "/api/imdb/tt0434665/season/1/episode/5/rating", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.episodeCalls)

	var body models.EpisodeRating
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Season)
	assert.Equal(t, 5, body.Episode)
	assert.Equal(t, "anchor", *body.Method)
}

func TestEpisodeRatingHandlerRejectsZeroOrdinals(t *testing.T) {
	svc := &fakeRatingService{}
	r := newTestRouter(svc)

	req := httptest.NewRequest("GET", "/api/imdb/tt0434665/season/0/episode/5/rating", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, svc.episodeCalls)
	assert.Contains(t, w.Body.String(), "season and episode must be positive")
}

func TestBatchHandler(t *testing.T) {
	svc := &fakeRatingService{episode: models.EpisodeRating{
		Rating:  floatPtr(8.0),
		Success: true,
	}}
	r := newTestRouter(svc)

	payload := models.BatchRatingsRequest{Queries: []models.EpisodeQuery{
		{IMDBID: "tt0434665", Season: 1, Episode: 1},
		{IMDBID: "tt0434665", Season: 1, Episode: 2},
	}}
	buf, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/imdb/ratings/batch", bytes.NewReader(buf))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.batchCalls)

	var body models.BatchRatingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, 2, body.Results[1].Episode)
}

func TestBatchHandlerValidation(t *testing.T) {
	svc := &fakeRatingService{}
	r := newTestRouter(svc)

	// Malformed body.
	req := httptest.NewRequest("POST", "/api/imdb/ratings/batch", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Empty query list.
	req = httptest.NewRequest("POST", "/api/imdb/ratings/batch", strings.NewReader(`{"queries":[]}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "queries must not be empty")

	// Oversized batch.
	oversized := models.BatchRatingsRequest{Queries: make([]models.EpisodeQuery, maxBatchQueries+1)}
	buf, err := json.Marshal(oversized)
	require.NoError(t, err)
	req = httptest.NewRequest("POST", "/api/imdb/ratings/batch", bytes.NewReader(buf))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too many queries")

	assert.Equal(t, 0, svc.batchCalls)
}
