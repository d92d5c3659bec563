// Package geocode turns map coordinates into human-readable place names.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/config"
	"github.com/spec-kit/bless-tracker/internal/domain"
)

// placeholderToken is the value shipped in sample env files.
const placeholderToken = "YOUR_MAPBOX_TOKEN_HERE"

// Geocoder reverse-geocodes through the Mapbox places API.
type Geocoder struct {
	token   string
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a Geocoder from config.
func New(cfg config.GeocodingConfig, logger *zap.Logger) *Geocoder {
	return &Geocoder{
		token:   strings.TrimSpace(cfg.MapboxToken),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout(),
		logger:  logger,
	}
}

// FallbackLabel formats a coordinate the way it is shown when no place name
// is available.
func FallbackLabel(coord domain.Coordinate) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", coord.Latitude, coord.Longitude)
}

type placesResponse struct {
	Features []struct {
		PlaceName string `json:"place_name"`
	} `json:"features"`
}

// Reverse returns the place name for coord. Any failure yields FallbackLabel.
func (g *Geocoder) Reverse(ctx context.Context, coord domain.Coordinate) string {
	fallback := FallbackLabel(coord)
	if g.token == "" || g.token == placeholderToken {
		return fallback
	}
	if err := ctx.Err(); err != nil {
		return fallback
	}

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s,%s.json",
		g.baseURL,
		strconv.FormatFloat(coord.Longitude, 'f', -1, 64),
		strconv.FormatFloat(coord.Latitude, 'f', -1, 64),
	)

	agent := fiber.Get(endpoint)
	agent.QueryString("access_token=" + url.QueryEscape(g.token))
	if timeout := g.requestTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		g.logger.Warn("geocoding request failed", zap.Errors("errors", errs))
		return fallback
	}
	if code != http.StatusOK {
		g.logger.Warn("geocoding request rejected", zap.Int("status", code))
		return fallback
	}

	var resp placesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		g.logger.Warn("geocoding response malformed", zap.Error(err))
		return fallback
	}
	if len(resp.Features) == 0 || resp.Features[0].PlaceName == "" {
		return fallback
	}
	return resp.Features[0].PlaceName
}

func (g *Geocoder) requestTimeout(ctx context.Context) time.Duration {
	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}
