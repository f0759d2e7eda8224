package handlers

import (
	"net/http"
	"time"
)

const serviceVersion = "1.0.0"

// HealthHandler serves the root, health and info endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "showscore",
		"version": serviceVersion,
		"status":  "running",
		"endpoints": []string{
			"GET /api/health",
			"GET /api/info",
			"GET /api/imdb/{id}/rating",
			"GET /api/imdb/{id}/season/{season}/episode/{episode}/rating",
			"POST /api/imdb/ratings/batch",
		},
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "showscore",
		"version":     serviceVersion,
		"description": "Best-effort IMDb rating extraction for titles and episodes",
		"examples": []string{
			"GET /api/imdb/tt0434665/rating",
			"GET /api/imdb/tt0434665/season/1/episode/5/rating",
		},
	})
}
