package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"apod/internal/domain"
)

// Options selects which listing is requested.
type Options struct {
	APIURL string
	APIKey string
	// Date is an optional YYYY-MM-DD day; empty means today.
	Date   string
}

// Result describes a completed run.
type Result struct {
	Listing    *domain.Listing
	LinkPath   string
	Downloaded bool
}

// WallpaperUseCase runs the fetch, check, download, persist and invoke
// pipeline once per call to Run.
type WallpaperUseCase struct {
	fetcher Fetcher
	parser  ListingParser
	store   ImageStore
	setter  WallpaperSetter
	archive ListingArchive
	log     *slog.Logger
	opts    Options
}

// NewWallpaperUseCase wires the pipeline. archive may be nil.
func NewWallpaperUseCase(
	fetcher Fetcher,
	parser ListingParser,
	store ImageStore,
	setter WallpaperSetter,
	archive ListingArchive,
	log *slog.Logger,
	opts Options,
) *WallpaperUseCase {
	return &WallpaperUseCase{
		fetcher: fetcher,
		parser:  parser,
		store:   store,
		setter:  setter,
		archive: archive,
		log:     log.With(slog.String("component", "pipeline")),
		opts:    opts,
	}
}

// ListingURL builds the metadata request URL.
func (uc *WallpaperUseCase) ListingURL() (string, error) {
	u, err := url.Parse(uc.opts.APIURL)
	if err != nil {
		return "", fmt.Errorf("invalid api url %q: %w", uc.opts.APIURL, err)
	}
	q := u.Query()
	q.Set("api_key", uc.opts.APIKey)
	if uc.opts.Date != "" {
		q.Set("date", uc.opts.Date)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchListing requests the metadata once. An error object in the body,
// including one sent with a non-200 status, is returned as *domain.APIError.
func (uc *WallpaperUseCase) FetchListing(ctx context.Context) (*domain.Listing, error) {
	listingURL, err := uc.ListingURL()
	if err != nil {
		return nil, err
	}
	reader, err := uc.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		var bodyErr responseBodyError
		if errors.As(err, &bodyErr) && len(bodyErr.ResponseBody()) > 0 {
			_, parseErr := uc.parser.Parse(ctx, bytes.NewReader(bodyErr.ResponseBody()))
			var apiErr *domain.APIError
			if errors.As(parseErr, &apiErr) {
				return nil, apiErr
			}
		}
		return nil, fmt.Errorf("failed to hit apod endpoint: %w", err)
	}
	defer reader.Close()

	listing, err := uc.parser.Parse(ctx, reader)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// Run executes the pipeline. Every failure ends the run.
func (uc *WallpaperUseCase) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := uc.log

	if uc.opts.APIKey == "" {
		return nil, domain.ErrNoAPIKey
	}
	if err := uc.setter.Check(); err != nil {
		log.Error("Precondition failed", slog.String("stage", "check-script"), slog.Any("error", err))
		return nil, err
	}

	log.Info("Getting daily-image listing", slog.String("stage", "fetch"))
	listing, err := uc.FetchListing(ctx)
	if err != nil {
		log.Error("Listing fetch failed", slog.String("stage", "fetch"), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get image listing: %w", err)
	}
	log = log.With(slog.String("date", listing.Date))
	log.Info("Listing fetched", slog.String("title", listing.Title), slog.String("media_type", listing.MediaType))

	// Non-image days are archived too, history lists them without a link.
	uc.archiveListing(ctx, log, listing)

	if !listing.IsImage() {
		log.Error("Listing is not an image", slog.String("stage", "fetch"), slog.String("media_type", listing.MediaType))
		return nil, fmt.Errorf("%w (media type %q)", domain.ErrNotImage, listing.MediaType)
	}
	if listing.URL == "" {
		log.Error("Listing has no image url", slog.String("stage", "fetch"))
		return nil, fmt.Errorf("%w (no hdurl in listing)", domain.ErrNotImage)
	}

	saveName := listing.SaveName()
	log = log.With(slog.String("save_name", saveName))
	result := &Result{Listing: listing, LinkPath: uc.store.LinkPath(saveName)}

	exists, err := uc.store.Exists(saveName)
	if err != nil {
		log.Error("Cache check failed", slog.String("stage", "check"), slog.Any("error", err))
		return nil, err
	}
	if exists {
		log.Info("The image does not need to be downloaded", slog.String("stage", "check"))
	} else {
		linkPath, err := uc.download(ctx, log, listing)
		if err != nil {
			return nil, err
		}
		result.LinkPath = linkPath
		result.Downloaded = true
	}

	log.Info("Setting wallpaper", slog.String("stage", "invoke"), slog.String("path", result.LinkPath))
	if err := uc.setter.Set(ctx, result.LinkPath); err != nil {
		log.Error("Wallpaper invocation failed", slog.String("stage", "invoke"), slog.Any("error", err))
		return nil, err
	}

	log.Info("Run completed",
		slog.Bool("downloaded", result.Downloaded),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// download creates the save directory before fetching, so a failed download
// leaves a directory behind that later runs treat as cached.
func (uc *WallpaperUseCase) download(ctx context.Context, log *slog.Logger, listing *domain.Listing) (string, error) {
	saveName := listing.SaveName()
	if err := uc.store.Create(saveName); err != nil {
		log.Error("Save directory creation failed", slog.String("stage", "persist"), slog.Any("error", err))
		return "", err
	}

	log.Info("Downloading image", slog.String("stage", "download"), slog.String("url", listing.URL))
	image, err := uc.fetcher.Fetch(ctx, listing.URL)
	if err != nil {
		log.Error("Image download failed", slog.String("stage", "download"), slog.Any("error", err))
		return "", fmt.Errorf("failed to hit image endpoint: %w", err)
	}
	defer image.Close()

	linkPath, err := uc.store.Save(listing, image)
	if err != nil {
		log.Error("Image save failed", slog.String("stage", "persist"), slog.Any("error", err))
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return linkPath, nil
}

func (uc *WallpaperUseCase) archiveListing(ctx context.Context, log *slog.Logger, listing *domain.Listing) {
	if uc.archive == nil {
		return
	}
	if err := uc.archive.SaveListing(ctx, listing); err != nil {
		log.Warn("Listing archive failed", slog.String("stage", "archive"), slog.Any("error", err))
	}
}
