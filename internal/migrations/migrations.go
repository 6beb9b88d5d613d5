package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	ID    string
	UpSQL string
}

var allMigrations = []Migration{
	{
		ID: "20241001120000_create_apod_listings_table",
		UpSQL: `
		CREATE TABLE apod_listings(
		day TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		explanation TEXT NOT NULL,
		media_type TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	{
		ID: "20241015090000_add_copyright_and_save_name",
		UpSQL: `
		ALTER TABLE apod_listings
		ADD COLUMN copyright TEXT NOT NULL DEFAULT '',
		ADD COLUMN save_name TEXT NOT NULL DEFAULT '';`,
	},
}

// Apply runs every migration not yet recorded in schema_migrations,
// in ID order, inside one transaction.
func Apply(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	log = log.With(slog.String("component", "migrations"))
	log.Debug("Checking database migrations")
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (id TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	rows, err := pool.Query(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to scan migration ids: %w", err)
	}
	todo := pending(allMigrations, ids)
	if len(todo) == 0 {
		log.Debug("Database is up to date")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	for _, m := range todo {
		log.Info("Applying migration", slog.String("id", m.ID))
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (id) VALUES ($1)", m.ID); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations transaction: %w", err)
	}
	log.Info("Database migrations applied", slog.Int("count", len(todo)))
	return nil
}

// pending returns the migrations whose IDs are not in applied, sorted by ID.
func pending(all []Migration, applied []string) []Migration {
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}
	var todo []Migration
	for _, m := range all {
		if !done[m.ID] {
			todo = append(todo, m)
		}
	}
	sort.Slice(todo, func(i, j int) bool {
		return todo[i].ID < todo[j].ID
	})
	return todo
}
