package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/config"
	"github.com/spec-kit/bless-tracker/internal/domain"
)

var kansas = domain.Coordinate{Longitude: -98.5, Latitude: 39.8}

func TestFallbackLabel(t *testing.T) {
	assert.Equal(t, "Lat: 39.8000, Lng: -98.5000", FallbackLabel(kansas))
}

func TestReverseWithoutTokenFallsBack(t *testing.T) {
	for _, token := range []string{"", placeholderToken} {
		g := New(config.GeocodingConfig{MapboxToken: token, TimeoutSeconds: 1}, zap.NewNop())
		assert.Equal(t, "Lat: 39.8000, Lng: -98.5000", g.Reverse(context.Background(), kansas))
	}
}

func TestReverseUsesFirstFeature(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"place_name":"Lebanon, Kansas"},{"place_name":"Kansas"}]}`))
	}))
	defer srv.Close()

	g := New(config.GeocodingConfig{MapboxToken: "tok", BaseURL: srv.URL, TimeoutSeconds: 2}, zap.NewNop())

	assert.Equal(t, "Lebanon, Kansas", g.Reverse(context.Background(), kansas))
	assert.Equal(t, "/geocoding/v5/mapbox.places/-98.5,39.8.json", gotPath)
	assert.Equal(t, "tok", gotToken)
}

func TestReverseFallsBackOnBadResponses(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"no features": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"features":[]}`))
		},
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			g := New(config.GeocodingConfig{MapboxToken: "tok", BaseURL: srv.URL, TimeoutSeconds: 2}, zap.NewNop())
			assert.Equal(t, FallbackLabel(kansas), g.Reverse(context.Background(), kansas))
		})
	}
}
