// Package resolve implements the cache-aside coordinators: serve a lookup
// from durable storage when possible, fall back to a live provider fetch on
// a miss or a stale batch, and write the fresh result back before
// responding.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kestrelhq/cityscout/internal/place"
)

// ErrUpstream marks a provider failure: unreachable, non-success status, or
// a malformed body. Not retried.
var ErrUpstream = errors.New("upstream provider failure")

// ErrStorage marks a durable store failure. Not retried.
var ErrStorage = errors.New("storage failure")

// LocationStore is the durable storage needed to resolve locations.
type LocationStore interface {
	GetLocation(ctx context.Context, query string) (*place.Location, error)
	InsertLocation(ctx context.Context, loc *place.Location) (*place.Location, error)
}

// ForecastStore is the durable storage needed to resolve weather.
type ForecastStore interface {
	GetForecasts(ctx context.Context, locationID int) ([]place.Forecast, error)
	ReplaceForecasts(ctx context.Context, locationID int, batch []place.Forecast) ([]place.Forecast, error)
}

// LocationCache is the hot-cache surface used by the location resolver.
// Cache failures are never fatal; they degrade to a storage read.
type LocationCache interface {
	GetLocation(ctx context.Context, query string) (*place.Location, error)
	SetLocation(ctx context.Context, query string, loc *place.Location) error
}

// ForecastCache is the hot-cache surface used by the weather resolver.
type ForecastCache interface {
	GetForecasts(ctx context.Context, locationID int) ([]place.Forecast, error)
	SetForecasts(ctx context.Context, locationID int, batch []place.Forecast) error
	DeleteForecasts(ctx context.Context, locationID int) error
}

// Geocoder is the upstream geocoding provider.
type Geocoder interface {
	Fetch(ctx context.Context, query string) (*place.Location, error)
}

// ForecastFetcher is the upstream weather provider.
type ForecastFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) ([]place.Forecast, error)
}

// LocationResolver serves geocoding lookups cache-aside. Stored locations
// are immutable, so a storage hit is always final: there is no staleness
// check and no refetch.
type LocationResolver struct {
	store LocationStore
	cache LocationCache
	geo   Geocoder
	group singleflight.Group
	log   *slog.Logger
}

// NewLocationResolver constructs a LocationResolver.
func NewLocationResolver(store LocationStore, cache LocationCache, geo Geocoder, log *slog.Logger) *LocationResolver {
	return &LocationResolver{store: store, cache: cache, geo: geo, log: log}
}

// Resolve returns the location for a free-text query, fetching and
// persisting it on first sight. Concurrent misses for the same query are
// coalesced into one provider call; the no-op-on-conflict insert covers
// the window the flight cannot (two replicas, or a flight that completed
// between check and join).
func (r *LocationResolver) Resolve(ctx context.Context, query string) (*place.Location, error) {
	cached, err := r.cache.GetLocation(ctx, query)
	if err != nil {
		r.log.Warn("location cache get failed", "query", query, "err", err)
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := r.group.Do(flightKey(query), func() (any, error) {
		loc, err := r.store.GetLocation(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		if loc != nil {
			r.warmLocation(ctx, query, loc)
			return loc, nil
		}

		fresh, err := r.geo.Fetch(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		stored, err := r.store.InsertLocation(ctx, fresh)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}

		r.warmLocation(ctx, query, stored)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*place.Location), nil
}

func (r *LocationResolver) warmLocation(ctx context.Context, query string, loc *place.Location) {
	if err := r.cache.SetLocation(ctx, query, loc); err != nil {
		r.log.Warn("location cache set failed", "query", query, "err", err)
	}
}

// flightKey normalizes a query the same way the hot cache does, so the two
// layers agree on identity.
func flightKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// WeatherResolver serves forecast lookups cache-aside with a time-based
// staleness policy: a stored batch older than maxAge is dropped and
// replaced as a unit.
type WeatherResolver struct {
	store   ForecastStore
	cache   ForecastCache
	fetcher ForecastFetcher
	maxAge  time.Duration
	group   singleflight.Group
	log     *slog.Logger
}

// NewWeatherResolver constructs a WeatherResolver with the given staleness
// threshold.
func NewWeatherResolver(store ForecastStore, cache ForecastCache, fetcher ForecastFetcher, maxAge time.Duration, log *slog.Logger) *WeatherResolver {
	return &WeatherResolver{
		store:   store,
		cache:   cache,
		fetcher: fetcher,
		maxAge:  maxAge,
		log:     log,
	}
}

// Resolve returns the forecast batch for a location. A fresh stored batch
// is served as-is; a missing or stale batch triggers one provider fetch and
// a transactional replace, coalesced per location id so concurrent misses
// produce a single upstream call and a single write.
func (r *WeatherResolver) Resolve(ctx context.Context, locationID int, lat, lon float64) ([]place.Forecast, error) {
	cached, err := r.cache.GetForecasts(ctx, locationID)
	if err != nil {
		r.log.Warn("forecast cache get failed", "location_id", locationID, "err", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	v, err, _ := r.group.Do(strconv.Itoa(locationID), func() (any, error) {
		stored, err := r.store.GetForecasts(ctx, locationID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		if len(stored) > 0 && time.Since(stored[0].CreatedAt) <= r.maxAge {
			r.warmForecasts(ctx, locationID, stored)
			return stored, nil
		}

		// Miss, or a stale batch about to be invalidated. Fetch before
		// touching the store so a provider failure leaves the old rows
		// intact and nothing partial is ever persisted.
		fresh, err := r.fetcher.Fetch(ctx, lat, lon)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		replaced, err := r.store.ReplaceForecasts(ctx, locationID, fresh)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}

		if err := r.cache.DeleteForecasts(ctx, locationID); err != nil {
			r.log.Warn("forecast cache delete failed", "location_id", locationID, "err", err)
		}
		r.warmForecasts(ctx, locationID, replaced)
		return replaced, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]place.Forecast), nil
}

func (r *WeatherResolver) warmForecasts(ctx context.Context, locationID int, batch []place.Forecast) {
	if err := r.cache.SetForecasts(ctx, locationID, batch); err != nil {
		r.log.Warn("forecast cache set failed", "location_id", locationID, "err", err)
	}
}
