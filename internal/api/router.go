package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the chi router with all routes configured.
// Every lookup route is public. Rate limiting is applied globally:
// 60 requests per minute per IP, which keeps a misbehaving client from
// burning through the free-tier provider quotas.
func NewRouter(handlers *Handlers, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/health", HealthHandlerFunc(db, redisClient, log))

	r.Get("/location", handlers.GetLocation)
	r.Get("/weather", handlers.GetWeather)
	r.Get("/movies", handlers.GetMovies)
	r.Get("/yelp", handlers.GetYelp)
	r.Get("/meetups", handlers.GetMeetups)
	r.Get("/trails", handlers.GetTrails)

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
