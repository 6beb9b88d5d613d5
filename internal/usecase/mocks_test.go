package usecase

import (
	"context"
	"io"

	"apod/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockParser struct{ mock.Mock }

func (m *mockParser) Parse(ctx context.Context, reader io.Reader) (*domain.Listing, error) {
	args := m.Called(ctx, reader)
	if l, ok := args.Get(0).(*domain.Listing); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Exists(saveName string) (bool, error) {
	args := m.Called(saveName)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Create(saveName string) error {
	return m.Called(saveName).Error(0)
}

func (m *mockStore) Save(listing *domain.Listing, image io.Reader) (string, error) {
	args := m.Called(listing, image)
	return args.String(0), args.Error(1)
}

func (m *mockStore) LinkPath(saveName string) string {
	return m.Called(saveName).String(0)
}

type mockSetter struct{ mock.Mock }

func (m *mockSetter) Check() error {
	return m.Called().Error(0)
}

func (m *mockSetter) Set(ctx context.Context, imagePath string) error {
	return m.Called(ctx, imagePath).Error(0)
}

type mockArchive struct{ mock.Mock }

func (m *mockArchive) SaveListing(ctx context.Context, listing *domain.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *mockArchive) RecentListings(ctx context.Context, limit int) ([]domain.Listing, error) {
	args := m.Called(ctx, limit)
	if l, ok := args.Get(0).([]domain.Listing); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}
