package domain

import (
	"fmt"
	"path"
	"strings"
)

// MediaTypeImage is the only media type that can be used as a wallpaper.
const MediaTypeImage = "image"

// Listing describes one day's Astronomy Picture of the Day.
// URL holds the high-definition image location and may be empty
// (for example on video days).
type Listing struct {
	Date        string
	Title       string
	Explanation string
	MediaType   string
	URL         string
	Copyright   string
}

// IsImage reports whether the listing points at a picture.
func (l *Listing) IsImage() bool {
	return l.MediaType == MediaTypeImage
}

// RemoteFileName returns the last path segment of the image URL.
func (l *Listing) RemoteFileName() string {
	if l.URL == "" {
		return ""
	}
	parts := strings.Split(l.URL, "/")
	return parts[len(parts)-1]
}

// SaveName returns the local identifier "{date}_{remote file name}".
// It is empty when the listing has no URL.
func (l *Listing) SaveName() string {
	if l.URL == "" {
		return ""
	}
	return fmt.Sprintf("%s_%s", l.Date, l.RemoteFileName())
}

// ImageExt returns the extension of the remote file name including the dot.
func (l *Listing) ImageExt() string {
	return path.Ext(l.RemoteFileName())
}

// Description is the content of the description file saved next to the image.
func (l *Listing) Description() string {
	return fmt.Sprintf("%s\n\n%s\n", l.Title, l.Explanation)
}
