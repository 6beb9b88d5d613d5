package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListing_SaveName(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		want    string
	}{
		{
			name:    "regular hd url",
			listing: Listing{Date: "2024-01-01", URL: "http://x/y/pic.jpg"},
			want:    "2024-01-01_pic.jpg",
		},
		{
			name:    "nested path",
			listing: Listing{Date: "2023-12-31", URL: "https://apod.nasa.gov/apod/image/2312/Moon_Full_2048.png"},
			want:    "2023-12-31_Moon_Full_2048.png",
		},
		{
			name:    "empty url",
			listing: Listing{Date: "2024-01-01"},
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.listing.SaveName())
		})
	}
}

func TestListing_ImageExt(t *testing.T) {
	assert.Equal(t, ".jpg", (&Listing{URL: "http://x/y/pic.jpg"}).ImageExt())
	assert.Equal(t, ".png", (&Listing{URL: "http://x.org/a.b/pic.png"}).ImageExt())
	assert.Equal(t, "", (&Listing{URL: "http://x/y/pic"}).ImageExt())
	assert.Equal(t, "", (&Listing{}).ImageExt())
}

func TestListing_IsImage(t *testing.T) {
	assert.True(t, (&Listing{MediaType: "image"}).IsImage())
	assert.False(t, (&Listing{MediaType: "video"}).IsImage())
	assert.False(t, (&Listing{}).IsImage())
}

func TestListing_Description(t *testing.T) {
	l := Listing{Title: "T", Explanation: "E"}
	assert.Equal(t, "T\n\nE\n", l.Description())
}

func TestAPIError_ContainsCode(t *testing.T) {
	err := &APIError{Code: "API_KEY_INVALID", Message: "An invalid api_key was supplied."}
	assert.Contains(t, err.Error(), "[API_KEY_INVALID]")
	assert.Contains(t, (&APIError{Code: "403"}).Error(), "[403]")
}
