// Package cache is a redis hot layer in front of the durable store. It only
// shortcuts repeat lookups; the source of truth for staleness is Postgres,
// so forecast entries expire no later than the staleness threshold.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kestrelhq/cityscout/internal/place"
)

// locationTTL bounds memory for location entries. The rows themselves are
// immutable, so the value is purely an eviction knob.
const locationTTL = 24 * time.Hour

// Cache wraps a redis client with typed accessors for resolved locations
// and forecast batches.
type Cache struct {
	client      *redis.Client
	forecastTTL time.Duration
}

// New constructs a Cache. forecastTTL should not exceed the weather
// staleness threshold, otherwise redis could serve rows Postgres already
// considers stale.
func New(client *redis.Client, forecastTTL time.Duration) *Cache {
	return &Cache{client: client, forecastTTL: forecastTTL}
}

// locationKey returns the redis key for a search query.
func locationKey(query string) string {
	return "location:" + strings.ToLower(strings.TrimSpace(query))
}

// forecastKey returns the redis key for a location's forecast batch.
func forecastKey(locationID int) string {
	return "forecast:" + strconv.Itoa(locationID)
}

// GetLocation retrieves a resolved location from cache.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetLocation(ctx context.Context, query string) (*place.Location, error) {
	val, err := c.client.Get(ctx, locationKey(query)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for query %q: %w", query, err)
	}

	var loc place.Location
	if err := json.Unmarshal([]byte(val), &loc); err != nil {
		return nil, fmt.Errorf("unmarshaling cached location for %q: %w", query, err)
	}

	return &loc, nil
}

// SetLocation stores a resolved location.
func (c *Cache) SetLocation(ctx context.Context, query string, loc *place.Location) error {
	if loc == nil {
		return nil
	}

	b, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshaling location for %q: %w", query, err)
	}

	if err := c.client.Set(ctx, locationKey(query), b, locationTTL).Err(); err != nil {
		return fmt.Errorf("cache set for query %q: %w", query, err)
	}

	return nil
}

// GetForecasts retrieves a cached forecast batch.
// Returns nil, nil on a cache miss.
func (c *Cache) GetForecasts(ctx context.Context, locationID int) ([]place.Forecast, error) {
	val, err := c.client.Get(ctx, forecastKey(locationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for location %d: %w", locationID, err)
	}

	var batch []place.Forecast
	if err := json.Unmarshal([]byte(val), &batch); err != nil {
		return nil, fmt.Errorf("unmarshaling cached forecasts for location %d: %w", locationID, err)
	}

	return batch, nil
}

// SetForecasts stores a forecast batch with the configured TTL.
func (c *Cache) SetForecasts(ctx context.Context, locationID int, batch []place.Forecast) error {
	if len(batch) == 0 {
		return nil
	}

	b, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshaling forecasts for location %d: %w", locationID, err)
	}

	if err := c.client.Set(ctx, forecastKey(locationID), b, c.forecastTTL).Err(); err != nil {
		return fmt.Errorf("cache set for location %d: %w", locationID, err)
	}

	return nil
}

// DeleteForecasts drops the cached batch for a location. Called when the
// durable batch is invalidated so redis never outlives a stale set.
func (c *Cache) DeleteForecasts(ctx context.Context, locationID int) error {
	if err := c.client.Del(ctx, forecastKey(locationID)).Err(); err != nil {
		return fmt.Errorf("cache delete for location %d: %w", locationID, err)
	}
	return nil
}
