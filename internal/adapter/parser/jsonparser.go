package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"apod/internal/domain"
)

type listingJSON struct {
	Date        string          `json:"date"`
	Explanation string          `json:"explanation"`
	MediaType   string          `json:"media_type"`
	Title       string          `json:"title"`
	HDURL       string          `json:"hdurl"`
	Copyright   string          `json:"copyright"`
	Error       json.RawMessage `json:"error"`

	// The APOD service itself reports bad requests as {"code": 400, "msg": "..."}.
	Code json.RawMessage `json:"code"`
	Msg  string          `json:"msg"`
}

type errorJSON struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
}

// JSONParser decodes APOD metadata responses.
type JSONParser struct {
	log *slog.Logger
}

func NewJSONParser(log *slog.Logger) *JSONParser {
	return &JSONParser{
		log: log.With(slog.String("component", "parser")),
	}
}

// Parse decodes a metadata response into a Listing. A body carrying an
// error object yields *domain.APIError.
func (p *JSONParser) Parse(ctx context.Context, reader io.Reader) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var dto listingJSON
	if err := json.NewDecoder(reader).Decode(&dto); err != nil {
		p.log.Error("Error decoding JSON", slog.Any("error", err))
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if apiErr := dto.apiError(); apiErr != nil {
		p.log.Warn("API returned an error",
			slog.String("code", apiErr.Code),
			slog.String("message", apiErr.Message),
		)
		return nil, apiErr
	}
	return &domain.Listing{
		Date:        dto.Date,
		Title:       dto.Title,
		Explanation: dto.Explanation,
		MediaType:   dto.MediaType,
		URL:         dto.HDURL,
		Copyright:   dto.Copyright,
	}, nil
}

func (dto *listingJSON) apiError() *domain.APIError {
	if len(dto.Error) > 0 && !bytes.Equal(dto.Error, []byte("null")) {
		var obj errorJSON
		if err := json.Unmarshal(dto.Error, &obj); err == nil {
			return &domain.APIError{Code: rawString(obj.Code), Message: obj.Message}
		}
		return &domain.APIError{Code: rawString(dto.Error)}
	}
	if dto.Date == "" && len(dto.Code) > 0 && dto.Msg != "" {
		return &domain.APIError{Code: rawString(dto.Code), Message: dto.Msg}
	}
	return nil
}

// rawString renders a JSON scalar as plain text, dropping string quotes.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
