package api

import (
	"context"

	"github.com/kestrelhq/cityscout/internal/place"
)

// LocationResolver resolves free-text queries cache-aside.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (*place.Location, error)
}

// WeatherResolver resolves forecast batches cache-aside.
type WeatherResolver interface {
	Resolve(ctx context.Context, locationID int, lat, lon float64) ([]place.Forecast, error)
}

// MovieSearcher finds movies for a search text. Fetch-and-normalize only,
// nothing is persisted.
type MovieSearcher interface {
	Search(ctx context.Context, query string) ([]place.Movie, error)
}

// ReviewFinder finds business reviews near coordinates.
type ReviewFinder interface {
	Fetch(ctx context.Context, lat, lon float64) ([]place.Review, error)
}

// MeetupFinder finds upcoming meetups near coordinates.
type MeetupFinder interface {
	Fetch(ctx context.Context, lat, lon float64) ([]place.Meetup, error)
}

// TrailFinder finds trails near coordinates.
type TrailFinder interface {
	Fetch(ctx context.Context, lat, lon float64) ([]place.Trail, error)
}
