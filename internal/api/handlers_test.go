package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/cityscout/internal/api"
	"github.com/kestrelhq/cityscout/internal/place"
)

// ---- mock implementations ----

type mockLocations struct {
	resolveFn func(ctx context.Context, query string) (*place.Location, error)
}

func (m *mockLocations) Resolve(ctx context.Context, query string) (*place.Location, error) {
	return m.resolveFn(ctx, query)
}

type mockWeather struct {
	resolveFn func(ctx context.Context, locationID int, lat, lon float64) ([]place.Forecast, error)
}

func (m *mockWeather) Resolve(ctx context.Context, locationID int, lat, lon float64) ([]place.Forecast, error) {
	return m.resolveFn(ctx, locationID, lat, lon)
}

type mockMovies struct {
	searchFn func(ctx context.Context, query string) ([]place.Movie, error)
}

func (m *mockMovies) Search(ctx context.Context, query string) ([]place.Movie, error) {
	return m.searchFn(ctx, query)
}

type mockReviews struct {
	fetchFn func(ctx context.Context, lat, lon float64) ([]place.Review, error)
}

func (m *mockReviews) Fetch(ctx context.Context, lat, lon float64) ([]place.Review, error) {
	return m.fetchFn(ctx, lat, lon)
}

type mockMeetups struct {
	fetchFn func(ctx context.Context, lat, lon float64) ([]place.Meetup, error)
}

func (m *mockMeetups) Fetch(ctx context.Context, lat, lon float64) ([]place.Meetup, error) {
	return m.fetchFn(ctx, lat, lon)
}

type mockTrails struct {
	fetchFn func(ctx context.Context, lat, lon float64) ([]place.Trail, error)
}

func (m *mockTrails) Fetch(ctx context.Context, lat, lon float64) ([]place.Trail, error) {
	return m.fetchFn(ctx, lat, lon)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

type deps struct {
	locations api.LocationResolver
	weather   api.WeatherResolver
	movies    api.MovieSearcher
	reviews   api.ReviewFinder
	meetups   api.MeetupFinder
	trails    api.TrailFinder
	db        *mockPinger
	redis     *mockPinger
}

func buildRouter(d deps) http.Handler {
	if d.db == nil {
		d.db = &mockPinger{}
	}
	if d.redis == nil {
		d.redis = &mockPinger{}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(d.locations, d.weather, d.movies, d.reviews, d.meetups, d.trails, log)
	return api.NewRouter(handlers, d.db, d.redis, log)
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleLocation() *place.Location {
	return &place.Location{
		ID:             7,
		SearchQuery:    "Seattle, WA",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	}
}

// coordQuery builds the structured data[...] query string for coordinate
// endpoints.
func coordQuery(extra map[string]string) string {
	v := url.Values{}
	v.Set("data[latitude]", "47.6062")
	v.Set("data[longitude]", "-122.3321")
	for k, val := range extra {
		v.Set(k, val)
	}
	return v.Encode()
}

// ---- GET /location ----

func TestGetLocation_OK(t *testing.T) {
	router := buildRouter(deps{
		locations: &mockLocations{resolveFn: func(_ context.Context, query string) (*place.Location, error) {
			assert.Equal(t, "Seattle, WA", query)
			return sampleLocation(), nil
		}},
	})

	w := get(t, router, "/location?data="+url.QueryEscape("Seattle, WA"))
	assert.Equal(t, http.StatusOK, w.Code)

	var got place.Location
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "Seattle, WA, USA", got.FormattedQuery)
	assert.Equal(t, 47.6062, got.Latitude)
}

func TestGetLocation_MissingQuery(t *testing.T) {
	router := buildRouter(deps{
		locations: &mockLocations{resolveFn: func(_ context.Context, _ string) (*place.Location, error) {
			t.Fatal("resolver must not be called for empty input")
			return nil, nil
		}},
	})

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/location").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/location?data=%20%20").Code)
}

func TestGetLocation_ResolverError(t *testing.T) {
	router := buildRouter(deps{
		locations: &mockLocations{resolveFn: func(_ context.Context, _ string) (*place.Location, error) {
			return nil, fmt.Errorf("geocoder down")
		}},
	})

	w := get(t, router, "/location?data=Seattle")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Sorry, something went wrong", strings.TrimSpace(w.Body.String()))
}

// ---- GET /weather ----

func TestGetWeather_OK(t *testing.T) {
	router := buildRouter(deps{
		weather: &mockWeather{resolveFn: func(_ context.Context, locationID int, lat, lon float64) ([]place.Forecast, error) {
			assert.Equal(t, 7, locationID)
			assert.Equal(t, 47.6062, lat)
			assert.Equal(t, -122.3321, lon)
			return []place.Forecast{
				{Forecast: "Clear skies", Time: "Mon Jan 05 2026"},
				{Forecast: "Light rain", Time: "Tue Jan 06 2026"},
			}, nil
		}},
	})

	w := get(t, router, "/weather?"+coordQuery(map[string]string{"data[id]": "7"}))
	assert.Equal(t, http.StatusOK, w.Code)

	var got []map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "Clear skies", got[0]["forecast"])
	assert.Equal(t, "Mon Jan 05 2026", got[0]["time"])
	// Internal columns never leak onto the wire.
	assert.NotContains(t, got[0], "location_id")
	assert.NotContains(t, got[0], "created_at")
}

func TestGetWeather_MissingInputs(t *testing.T) {
	router := buildRouter(deps{
		weather: &mockWeather{resolveFn: func(_ context.Context, _ int, _, _ float64) ([]place.Forecast, error) {
			t.Fatal("resolver must not be called for invalid input")
			return nil, nil
		}},
	})

	// No coordinates at all.
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/weather").Code)
	// Coordinates but no location id.
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/weather?"+coordQuery(nil)).Code)
	// Non-numeric latitude.
	assert.Equal(t, http.StatusBadRequest,
		get(t, router, "/weather?data[latitude]=abc&data[longitude]=1&data[id]=7").Code)
}

func TestGetWeather_ResolverError(t *testing.T) {
	router := buildRouter(deps{
		weather: &mockWeather{resolveFn: func(_ context.Context, _ int, _, _ float64) ([]place.Forecast, error) {
			return nil, fmt.Errorf("store unreachable")
		}},
	})

	w := get(t, router, "/weather?"+coordQuery(map[string]string{"data[id]": "7"}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Sorry, something went wrong", strings.TrimSpace(w.Body.String()))
}

// ---- GET /movies ----

func TestGetMovies_OK(t *testing.T) {
	router := buildRouter(deps{
		movies: &mockMovies{searchFn: func(_ context.Context, query string) ([]place.Movie, error) {
			assert.Equal(t, "Seattle", query)
			return []place.Movie{{Title: "Sleepless in Seattle"}}, nil
		}},
	})

	w := get(t, router, "/movies?data[search_query]=Seattle")
	assert.Equal(t, http.StatusOK, w.Code)

	var got []place.Movie
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Sleepless in Seattle", got[0].Title)
}

func TestGetMovies_MissingQuery(t *testing.T) {
	router := buildRouter(deps{
		movies: &mockMovies{searchFn: func(_ context.Context, _ string) ([]place.Movie, error) {
			t.Fatal("searcher must not be called for empty input")
			return nil, nil
		}},
	})

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/movies").Code)
}

// ---- GET /yelp, /meetups, /trails ----

func TestGetYelp_OK(t *testing.T) {
	router := buildRouter(deps{
		reviews: &mockReviews{fetchFn: func(_ context.Context, lat, lon float64) ([]place.Review, error) {
			return []place.Review{{Name: "Pike Place Chowder", Rating: 4.5}}, nil
		}},
	})

	w := get(t, router, "/yelp?"+coordQuery(nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var got []place.Review
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Pike Place Chowder", got[0].Name)
}

func TestGetYelp_UpstreamError(t *testing.T) {
	router := buildRouter(deps{
		reviews: &mockReviews{fetchFn: func(_ context.Context, _, _ float64) ([]place.Review, error) {
			return nil, fmt.Errorf("yelp 401")
		}},
	})

	w := get(t, router, "/yelp?"+coordQuery(nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetMeetups_OK(t *testing.T) {
	router := buildRouter(deps{
		meetups: &mockMeetups{fetchFn: func(_ context.Context, _, _ float64) ([]place.Meetup, error) {
			return []place.Meetup{{Name: "Go Night", Host: "Seattle Gophers"}}, nil
		}},
	})

	w := get(t, router, "/meetups?"+coordQuery(nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetMeetups_MissingCoordinates(t *testing.T) {
	router := buildRouter(deps{
		meetups: &mockMeetups{fetchFn: func(_ context.Context, _, _ float64) ([]place.Meetup, error) {
			t.Fatal("finder must not be called for invalid input")
			return nil, nil
		}},
	})

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/meetups?data[latitude]=47.6").Code)
}

func TestGetTrails_OK(t *testing.T) {
	router := buildRouter(deps{
		trails: &mockTrails{fetchFn: func(_ context.Context, _, _ float64) ([]place.Trail, error) {
			return []place.Trail{{Name: "Rattlesnake Ledge", Rating: 4.6}}, nil
		}},
	})

	w := get(t, router, "/trails?"+coordQuery(nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var got []place.Trail
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Rattlesnake Ledge", got[0].Name)
}

// ---- GET /health ----

func TestHealth_OK(t *testing.T) {
	router := buildRouter(deps{db: &mockPinger{}, redis: &mockPinger{}})

	w := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	assert.Equal(t, "ok", body["redis"])
}

func TestHealth_DBDown(t *testing.T) {
	router := buildRouter(deps{db: &mockPinger{err: fmt.Errorf("db unreachable")}})

	w := get(t, router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error", body["db"])
}

func TestHealth_RedisDown(t *testing.T) {
	router := buildRouter(deps{redis: &mockPinger{err: fmt.Errorf("redis unreachable")}})

	w := get(t, router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
