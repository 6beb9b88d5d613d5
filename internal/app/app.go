package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"apod/internal/adapter/fetcher"
	"apod/internal/adapter/imagestore"
	"apod/internal/adapter/parser"
	"apod/internal/adapter/wallpaper"
	"apod/internal/config"
	"apod/internal/logger"
	"apod/internal/migrations"
	"apod/internal/usecase"
	"apod/internal/worker"
	"apod/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrArchiveDisabled is returned by History when no database is configured.
var ErrArchiveDisabled = errors.New("listing archive is disabled, set database.enabled to use history")

// App wires configuration, logging, adapters and the optional listing
// archive, and exposes the run, watch and history entry points.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	closeLog func() error
	dbPool   *pgxpool.Pool
	archive  *storage.PostgresListingDB
	fetcher  *fetcher.HTTPFetcher
	parser   *parser.JSONParser
	store    *imagestore.Store
	setter   *wallpaper.ScriptSetter
	stdout   io.Writer
}

// New builds the application. Logs go to stderr; the wallpaper script
// and the history table write to stdout. The listing archive is connected
// lazily, after the run preconditions hold, so New does no network I/O.
func New(cfg *config.Config, stdout, stderr io.Writer) (*App, error) {
	appLogger, closeLog, err := logger.New(cfg.Logger, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	a := &App{
		config:   cfg,
		logger:   appLogger,
		closeLog: closeLog,
		fetcher:  fetcher.NewHTTPFetcher(appLogger, cfg.API.TimeoutDuration()),
		parser:   parser.NewJSONParser(appLogger),
		store: imagestore.New(
			config.ExpandHome(cfg.Paths.ImagesDir),
			config.ExpandHome(cfg.Paths.LinksDir),
			appLogger,
		),
		setter: wallpaper.NewScriptSetter(config.ExpandHome(cfg.Paths.Script), stdout, stderr, appLogger),
		stdout: stdout,
	}
	return a, nil
}

// openArchive connects and migrates the archive database once. It is a
// no-op when the archive is disabled or already open.
func (a *App) openArchive(ctx context.Context) error {
	if !a.config.Database.Enabled || a.archive != nil {
		return nil
	}
	log := a.logger.With(slog.String("component", "database"))
	dbPool, err := pgxpool.New(ctx, a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := migrations.Apply(ctx, a.logger, dbPool); err != nil {
		dbPool.Close()
		return fmt.Errorf("migrations failed: %w", err)
	}
	a.dbPool = dbPool
	a.archive = storage.NewPostgresListingDB(dbPool, a.config.History.Limit, a.logger)
	log.Debug("Listing archive ready")
	return nil
}

// checkPreconditions fails before any network activity when the API key
// or the wallpaper script is missing.
func (a *App) checkPreconditions() (string, error) {
	apiKey, err := a.config.ResolveAPIKey()
	if err != nil {
		return "", err
	}
	if err := a.setter.Check(); err != nil {
		return "", err
	}
	return apiKey, nil
}

// pipeline builds the use case for one run with its own run_id.
func (a *App) pipeline(ctx context.Context) (*usecase.WallpaperUseCase, error) {
	apiKey, err := a.checkPreconditions()
	if err != nil {
		return nil, err
	}
	if err := a.openArchive(ctx); err != nil {
		return nil, err
	}
	var archive usecase.ListingArchive
	if a.archive != nil {
		archive = a.archive
	}
	runLogger := a.logger.With(slog.String("run_id", uuid.NewString()))
	return usecase.NewWallpaperUseCase(
		a.fetcher,
		a.parser,
		a.store,
		a.setter,
		archive,
		runLogger,
		usecase.Options{
			APIURL: a.config.API.URL,
			APIKey: apiKey,
			Date:   a.config.API.Date,
		},
	), nil
}

// RunOnce fetches the listing and sets the wallpaper.
func (a *App) RunOnce(ctx context.Context) (*usecase.Result, error) {
	uc, err := a.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	return uc.Run(ctx)
}

// Watch runs the pipeline every watch.interval until ctx is cancelled.
// Preconditions are checked once up front so a broken setup fails fast.
func (a *App) Watch(ctx context.Context) error {
	if _, err := a.checkPreconditions(); err != nil {
		return err
	}
	if err := a.openArchive(ctx); err != nil {
		return err
	}
	w := worker.New(worker.JobFunc(func(ctx context.Context) error {
		_, err := a.RunOnce(ctx)
		return err
	}), a.config.Watch.IntervalDuration(), a.logger)
	return w.Run(ctx)
}

// History prints the most recent archived listings to stdout.
func (a *App) History(ctx context.Context, limit int) error {
	if !a.config.Database.Enabled {
		return ErrArchiveDisabled
	}
	if err := a.openArchive(ctx); err != nil {
		return err
	}
	listings, err := usecase.NewHistoryUseCase(a.archive).Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMEDIA\tTITLE\tSAVED AS")
	for _, l := range listings {
		saved := "-"
		if l.IsImage() && l.SaveName() != "" {
			saved = a.store.LinkPath(l.SaveName())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Date, l.MediaType, l.Title, saved)
	}
	return tw.Flush()
}

// Close releases the database pool and log files.
func (a *App) Close() error {
	if a.archive != nil {
		a.archive.Close()
	} else if a.dbPool != nil {
		a.dbPool.Close()
	}
	if a.closeLog != nil {
		return a.closeLog()
	}
	return nil
}
