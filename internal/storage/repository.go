package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrelhq/cityscout/internal/place"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides database access for location and forecast records.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// GetLocation retrieves a location by its raw search text.
// Returns nil, nil when no row exists for the query.
func (r *Repository) GetLocation(ctx context.Context, query string) (*place.Location, error) {
	const q = `
		SELECT id, search_query, formatted_query, latitude, longitude, created_at
		FROM locations
		WHERE search_query = $1
	`

	var loc place.Location
	err := r.q.QueryRow(ctx, q, query).Scan(
		&loc.ID,
		&loc.SearchQuery,
		&loc.FormattedQuery,
		&loc.Latitude,
		&loc.Longitude,
		&loc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying location for %q: %w", query, err)
	}

	return &loc, nil
}

// InsertLocation stores a freshly geocoded location. Inserts race under
// concurrent misses for the same query, so the insert is a no-op on a
// conflicting search_query; whichever row won is read back and returned.
func (r *Repository) InsertLocation(ctx context.Context, loc *place.Location) (*place.Location, error) {
	const q = `
		INSERT INTO locations (search_query, formatted_query, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (search_query) DO NOTHING
		RETURNING id, created_at
	`

	stored := *loc
	err := r.q.QueryRow(ctx, q,
		loc.SearchQuery,
		loc.FormattedQuery,
		loc.Latitude,
		loc.Longitude,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict: another request inserted this query first.
			existing, getErr := r.GetLocation(ctx, loc.SearchQuery)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, fmt.Errorf("inserting location for %q: conflicting row vanished", loc.SearchQuery)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("inserting location for %q: %w", loc.SearchQuery, err)
	}

	return &stored, nil
}

// GetForecasts retrieves the stored forecast batch for a location, oldest
// day first. Returns an empty slice when nothing is stored.
func (r *Repository) GetForecasts(ctx context.Context, locationID int) ([]place.Forecast, error) {
	const q = `
		SELECT id, location_id, forecast, time, created_at
		FROM forecasts
		WHERE location_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, q, locationID)
	if err != nil {
		return nil, fmt.Errorf("querying forecasts for location %d: %w", locationID, err)
	}
	defer rows.Close()

	var batch []place.Forecast
	for rows.Next() {
		var f place.Forecast
		if err := rows.Scan(&f.ID, &f.LocationID, &f.Forecast, &f.Time, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning forecast row: %w", err)
		}
		batch = append(batch, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating forecast rows: %w", err)
	}

	return batch, nil
}

// ReplaceForecasts swaps the entire forecast batch for a location in one
// transaction: delete whatever is stored, insert the fresh batch. A reader
// therefore never sees a mix of old and new rows.
func (r *Repository) ReplaceForecasts(ctx context.Context, locationID int, batch []place.Forecast) ([]place.Forecast, error) {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning forecast replace for location %d: %w", locationID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const del = `DELETE FROM forecasts WHERE location_id = $1`
	if _, err := tx.Exec(ctx, del, locationID); err != nil {
		return nil, fmt.Errorf("deleting forecasts for location %d: %w", locationID, err)
	}

	const ins = `
		INSERT INTO forecasts (location_id, forecast, time)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	stored := make([]place.Forecast, 0, len(batch))
	for _, f := range batch {
		row := place.Forecast{LocationID: locationID, Forecast: f.Forecast, Time: f.Time}
		if err := tx.QueryRow(ctx, ins, locationID, f.Forecast, f.Time).Scan(&row.ID, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("inserting forecast for location %d: %w", locationID, err)
		}
		stored = append(stored, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing forecast replace for location %d: %w", locationID, err)
	}

	return stored, nil
}

// DeleteForecasts removes the stored batch for a location and reports how
// many rows went away.
func (r *Repository) DeleteForecasts(ctx context.Context, locationID int) (int64, error) {
	const q = `DELETE FROM forecasts WHERE location_id = $1`

	tag, err := r.q.Exec(ctx, q, locationID)
	if err != nil {
		return 0, fmt.Errorf("deleting forecasts for location %d: %w", locationID, err)
	}

	return tag.RowsAffected(), nil
}
