package usecase

import (
	"context"
	"io"

	"apod/internal/domain"
)

// Fetcher performs a single GET and returns the body, which the caller closes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// ListingParser turns a metadata response into a Listing.
type ListingParser interface {
	Parse(ctx context.Context, reader io.Reader) (*domain.Listing, error)
}

// ImageStore is the local cache of downloaded pictures.
type ImageStore interface {
	Exists(saveName string) (bool, error)
	Create(saveName string) error
	Save(listing *domain.Listing, image io.Reader) (string, error)
	LinkPath(saveName string) string
}

// WallpaperSetter applies a picture as the desktop wallpaper.
type WallpaperSetter interface {
	Check() error
	Set(ctx context.Context, imagePath string) error
}

// ListingArchive records fetched listings.
type ListingArchive interface {
	SaveListing(ctx context.Context, listing *domain.Listing) error
}

// ListingHistory reads archived listings, newest first.
type ListingHistory interface {
	RecentListings(ctx context.Context, limit int) ([]domain.Listing, error)
}

// responseBodyError is implemented by transport errors that kept the
// response body of a failed request.
type responseBodyError interface {
	error
	ResponseBody() []byte
}
