package usecase

import (
	"context"

	"apod/internal/domain"
)

// HistoryUseCase lists previously fetched days.
type HistoryUseCase struct {
	history ListingHistory
}

func NewHistoryUseCase(h ListingHistory) *HistoryUseCase {
	return &HistoryUseCase{history: h}
}

func (uc *HistoryUseCase) Recent(ctx context.Context, limit int) ([]domain.Listing, error) {
	return uc.history.RecentListings(ctx, limit)
}
