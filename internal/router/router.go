package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"lexora-backend/internal/handlers"
	"lexora-backend/internal/middleware"
	"lexora-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	submitLimiter *middleware.RateLimiter,
	vocabularyHandler *handlers.VocabularyHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health)

		// ──── Vocabulary Routes ────
		r.Route("/vocabulary", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/batch", vocabularyHandler.NextBatch)
			r.With(submitLimiter.Middleware).Post("/batch/submit", vocabularyHandler.Submit)
			r.Get("/stats", vocabularyHandler.Stats)
			r.Get("/export", vocabularyHandler.Export)
			r.Get("/words", vocabularyHandler.ListWords)
			r.Get("/words/{id}/progress", vocabularyHandler.Progress)
			r.Get("/words/{id}/quiz", vocabularyHandler.Quiz)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
