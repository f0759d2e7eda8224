package api

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"showscore/handlers"
)

// corsMiddleware handles CORS for API routes.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware stamps every response with an X-Request-ID, reusing the
// caller's id when one is supplied.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware converts any panic during request processing into the
// uniform failure JSON shape instead of letting the fault reach the
// transport layer.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[api] panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"success":false,"error":"internal error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(r *mux.Router, ratingsHandler *handlers.RatingsHandler, healthHandler *handlers.HealthHandler) {
	r.Use(requestIDMiddleware)

	r.HandleFunc("/", healthHandler.Root).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)
	api.Use(recoverMiddleware)

	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/info", healthHandler.Info).Methods(http.MethodGet)

	api.HandleFunc("/imdb/{id}/rating", ratingsHandler.TitleRating).Methods(http.MethodGet)
	api.HandleFunc("/imdb/{id}/rating", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/imdb/{id}/season/{season:[0-9]+}/episode/{episode:[0-9]+}/rating", ratingsHandler.EpisodeRating).Methods(http.MethodGet)
	api.HandleFunc("/imdb/{id}/season/{season:[0-9]+}/episode/{episode:[0-9]+}/rating", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/imdb/ratings/batch", ratingsHandler.Batch).Methods(http.MethodPost)
	api.HandleFunc("/imdb/ratings/batch", handleOptions).Methods(http.MethodOptions)
}
