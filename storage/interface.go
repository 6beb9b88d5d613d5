package storage

import (
	"context"

	"apod/internal/domain"
)

// Storage is the listing archive used for the history of fetched days.
type Storage interface {
	SaveListing(ctx context.Context, listing *domain.Listing) error
	RecentListings(ctx context.Context, limit int) ([]domain.Listing, error)
	Close()
}
