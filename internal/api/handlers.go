package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// faultBody is the fixed plain-text body sent with every 500. Callers get
// no detail; the log does.
const faultBody = "Sorry, something went wrong"

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	locations LocationResolver
	weather   WeatherResolver
	movies    MovieSearcher
	reviews   ReviewFinder
	meetups   MeetupFinder
	trails    TrailFinder
	log       *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(
	locations LocationResolver,
	weather WeatherResolver,
	movies MovieSearcher,
	reviews ReviewFinder,
	meetups MeetupFinder,
	trails TrailFinder,
	log *slog.Logger,
) *Handlers {
	return &Handlers{
		locations: locations,
		weather:   weather,
		movies:    movies,
		reviews:   reviews,
		meetups:   meetups,
		trails:    trails,
		log:       log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serverFault writes the uniform 500 response.
func serverFault(w http.ResponseWriter) {
	http.Error(w, faultBody, http.StatusInternalServerError)
}

// badRequest rejects invalid input before any outbound call is attempted.
func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

// The client sends all parameters inside a structured "data" query
// parameter: bare `data` for free text, `data[field]` for fields.

func dataText(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("data"))
}

func dataField(r *http.Request, field string) string {
	return strings.TrimSpace(r.URL.Query().Get("data[" + field + "]"))
}

// coordinates parses data[latitude] and data[longitude], failing on
// missing or non-numeric values.
func coordinates(r *http.Request) (lat, lon float64, ok bool) {
	lat, latErr := strconv.ParseFloat(dataField(r, "latitude"), 64)
	lon, lonErr := strconv.ParseFloat(dataField(r, "longitude"), 64)
	return lat, lon, latErr == nil && lonErr == nil
}

// GetLocation handles GET /location?data=<free text>.
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	query := dataText(r)
	if query == "" {
		badRequest(w, "missing location query")
		return
	}

	loc, err := h.locations.Resolve(r.Context(), query)
	if err != nil {
		h.log.Error("location resolve failed", "query", query, "err", err)
		serverFault(w)
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

// GetWeather handles GET /weather?data[latitude]=..&data[longitude]=..&data[id]=..
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordinates(r)
	if !ok {
		badRequest(w, "missing or invalid coordinates")
		return
	}
	locationID, err := strconv.Atoi(dataField(r, "id"))
	if err != nil || locationID <= 0 {
		badRequest(w, "missing or invalid location id")
		return
	}

	batch, err := h.weather.Resolve(r.Context(), locationID, lat, lon)
	if err != nil {
		h.log.Error("weather resolve failed", "location_id", locationID, "err", err)
		serverFault(w)
		return
	}

	writeJSON(w, http.StatusOK, batch)
}

// GetMovies handles GET /movies?data[search_query]=..
func (h *Handlers) GetMovies(w http.ResponseWriter, r *http.Request) {
	query := dataField(r, "search_query")
	if query == "" {
		badRequest(w, "missing search query")
		return
	}

	movies, err := h.movies.Search(r.Context(), query)
	if err != nil {
		h.log.Error("movie search failed", "query", query, "err", err)
		serverFault(w)
		return
	}

	writeJSON(w, http.StatusOK, movies)
}

// GetYelp handles GET /yelp?data[latitude]=..&data[longitude]=..
func (h *Handlers) GetYelp(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordinates(r)
	if !ok {
		badRequest(w, "missing or invalid coordinates")
		return
	}

	reviews, err := h.reviews.Fetch(r.Context(), lat, lon)
	if err != nil {
		h.log.Error("yelp fetch failed", "err", err)
		serverFault(w)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

// GetMeetups handles GET /meetups?data[latitude]=..&data[longitude]=..
func (h *Handlers) GetMeetups(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordinates(r)
	if !ok {
		badRequest(w, "missing or invalid coordinates")
		return
	}

	meetups, err := h.meetups.Fetch(r.Context(), lat, lon)
	if err != nil {
		h.log.Error("meetup fetch failed", "err", err)
		serverFault(w)
		return
	}

	writeJSON(w, http.StatusOK, meetups)
}

// GetTrails handles GET /trails?data[latitude]=..&data[longitude]=..
func (h *Handlers) GetTrails(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordinates(r)
	if !ok {
		badRequest(w, "missing or invalid coordinates")
		return
	}

	trails, err := h.trails.Fetch(r.Context(), lat, lon)
	if err != nil {
		h.log.Error("trail fetch failed", "err", err)
		serverFault(w)
		return
	}

	writeJSON(w, http.StatusOK, trails)
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis
// connectivity. Returns 200 if both are reachable, 503 otherwise.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
