package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"showscore/models"
	imdbpkg "showscore/services/imdb"
)

const maxBatchQueries = 50

type ratingService interface {
	TitleRating(ctx context.Context, rawID string) models.TitleRating
	EpisodeRating(ctx context.Context, rawID string, season, episode int) models.EpisodeRating
	BatchEpisodeRatings(ctx context.Context, queries []models.EpisodeQuery) []models.EpisodeRating
}

var _ ratingService = (*imdbpkg.Service)(nil)

type RatingsHandler struct {
	Service ratingService
}

func NewRatingsHandler(s ratingService) *RatingsHandler {
	return &RatingsHandler{Service: s}
}

// TitleRating serves GET /api/imdb/{id}/rating.
func (h *RatingsHandler) TitleRating(w http.ResponseWriter, r *http.Request) {
	rawID := strings.TrimSpace(mux.Vars(r)["id"])
	if err := imdbpkg.ValidateID(rawID); err != nil {
		writeJSON(w, http.StatusBadRequest, models.TitleRating{
			IMDBID: rawID,
			Error:  errPtr("invalid IMDb id"),
		})
		return
	}

	log.Printf("[ratings] title lookup for %s", rawID)
	result := h.Service.TitleRating(r.Context(), rawID)
	writeJSON(w, http.StatusOK, result)
}

// EpisodeRating serves GET /api/imdb/{id}/season/{season}/episode/{episode}/rating.
func (h *RatingsHandler) EpisodeRating(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rawID := strings.TrimSpace(vars["id"])
	season, _ := strconv.Atoi(vars["season"])
	episode, _ := strconv.Atoi(vars["episode"])

	if err := imdbpkg.ValidateID(rawID); err != nil {
		writeJSON(w, http.StatusBadRequest, models.EpisodeRating{
			IMDBID:  rawID,
			Season:  season,
			Episode: episode,
			Error:   errPtr("invalid IMDb id"),
		})
		return
	}
	if season <= 0 || episode <= 0 {
		writeJSON(w, http.StatusBadRequest, models.EpisodeRating{
			IMDBID:  rawID,
			Season:  season,
			Episode: episode,
			Error:   errPtr("season and episode must be positive"),
		})
		return
	}

	log.Printf("[ratings] episode lookup for %s S%dE%d", rawID, season, episode)
	result := h.Service.EpisodeRating(r.Context(), rawID, season, episode)
	writeJSON(w, http.StatusOK, result)
}

// Batch serves POST /api/imdb/ratings/batch for bulk episode lookups.
func (h *RatingsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRatingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Queries) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "queries must not be empty"})
		return
	}
	if len(req.Queries) > maxBatchQueries {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "too many queries in one batch"})
		return
	}

	log.Printf("[ratings] batch lookup for %d episodes", len(req.Queries))
	results := h.Service.BatchEpisodeRatings(r.Context(), req.Queries)
	writeJSON(w, http.StatusOK, models.BatchRatingsResponse{Results: results})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errPtr(v string) *string { return &v }
