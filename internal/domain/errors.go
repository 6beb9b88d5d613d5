package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoAPIKey       = errors.New("no API key provided")
	ErrScriptNotFound = errors.New("wallpaper setting script not found")
	ErrNotImage       = errors.New("not an image today")
)

// APIError is returned when the APOD endpoint answers with an error object.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API call was invalid but to the correct endpoint. error returned [%s]", e.Code)
	}
	return fmt.Sprintf("API call was invalid but to the correct endpoint. error returned [%s]: %s", e.Code, e.Message)
}
