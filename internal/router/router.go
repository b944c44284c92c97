package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"stwipe-backend/internal/handlers"
	"stwipe-backend/internal/middleware"
	"stwipe-backend/internal/websocket"
)

type Deps struct {
	Auth            *middleware.Auth
	UserHandler     *handlers.UserHandler
	PlaylistHandler *handlers.PlaylistHandler
	ProgressHandler *handlers.ProgressHandler
	Hub             *websocket.Hub
	FrontendURL     string
}

func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(deps.FrontendURL))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/ws", deps.Hub.HandleWebSocket)

	// Processing kicks off downloads and AI calls, so it gets its own limiter.
	processLimiter := middleware.NewRateLimiter(5, time.Minute)

	r.Route("/api/v1", func(r chi.Router) {
		// The processing screen polls playlist status before sign-in
		// completes, so single-playlist reads skip auth.
		r.Get("/playlists/{id}", deps.PlaylistHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Middleware)

			r.Post("/users/sync", deps.UserHandler.Sync)
			r.Get("/users/stats", deps.UserHandler.Stats)

			r.Get("/playlists", deps.PlaylistHandler.List)
			r.Get("/playlists/{id}/videos", deps.PlaylistHandler.Videos)
			r.Get("/playlists/{id}/shorts", deps.PlaylistHandler.Shorts)

			r.Group(func(r chi.Router) {
				r.Use(processLimiter.Middleware)
				r.Post("/playlists/process", deps.PlaylistHandler.Process)
			})

			r.Post("/progress/update", deps.ProgressHandler.Update)
			r.Post("/shorts/{id}/bookmark", deps.ProgressHandler.ToggleBookmark)
		})
	})

	return r
}
