package storage

import (
	"context"
	"fmt"
	"log/slog"

	"apod/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ Storage = (*PostgresListingDB)(nil)
	_ DBPool  = (*pgxpool.Pool)(nil)
)

// DBPool is the part of *pgxpool.Pool the archive uses.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

type PostgresListingDB struct {
	pool         DBPool
	log          *slog.Logger
	defaultLimit int
}

func NewPostgresListingDB(pool DBPool, defaultLimit int, log *slog.Logger) *PostgresListingDB {
	log = log.With(slog.String("component", "storage"))
	log.Debug("Initializing Postgres listing archive")
	return &PostgresListingDB{
		pool:         pool,
		log:          log,
		defaultLimit: defaultLimit,
	}
}

func (db *PostgresListingDB) Close() {
	db.log.Debug("Closing database connection pool")
	db.pool.Close()
}

// SaveListing upserts the listing keyed by its date.
func (db *PostgresListingDB) SaveListing(ctx context.Context, listing *domain.Listing) error {
	const op = "storage.postgres.SaveListing"
	query := `
	INSERT INTO apod_listings (day, title, explanation, media_type, url, copyright, save_name, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (day) DO UPDATE SET
		title = EXCLUDED.title,
		explanation = EXCLUDED.explanation,
		media_type = EXCLUDED.media_type,
		url = EXCLUDED.url,
		copyright = EXCLUDED.copyright,
		save_name = EXCLUDED.save_name,
		fetched_at = EXCLUDED.fetched_at;
	`
	_, err := db.pool.Exec(ctx, query,
		listing.Date,
		listing.Title,
		listing.Explanation,
		listing.MediaType,
		listing.URL,
		listing.Copyright,
		listing.SaveName(),
	)
	if err != nil {
		db.log.Error("Failed to save listing",
			slog.String("op", op),
			slog.String("date", listing.Date),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecentListings returns up to n listings, newest day first. A non-positive
// n falls back to the configured default.
func (db *PostgresListingDB) RecentListings(ctx context.Context, n int) ([]domain.Listing, error) {
	limit := n
	if limit <= 0 {
		limit = db.defaultLimit
	}
	const op = "storage.postgres.RecentListings"
	log := db.log.With(slog.String("op", op), slog.Int("limit", limit))
	query := `
	SELECT day, title, explanation, media_type, url, copyright
	FROM apod_listings
	ORDER BY day DESC
	LIMIT $1;
	`
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()
	listings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Listing, error) {
		var l domain.Listing
		err := row.Scan(
			&l.Date,
			&l.Title,
			&l.Explanation,
			&l.MediaType,
			&l.URL,
			&l.Copyright,
		)
		return l, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	log.Debug("Retrieved listings", slog.Int("count", len(listings)))
	return listings, nil
}
