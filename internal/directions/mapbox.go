// Package directions looks up walking routes from the Mapbox Directions API.
package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/briangreenhill/runtracker/internal/run"
)

const (
	DefaultBaseURL = "https://api.mapbox.com"
	DefaultProfile = "walking"
)

type Config struct {
	Token   string
	BaseURL string
	Profile string
	Timeout time.Duration
}

type Client struct {
	token   string
	baseURL string
	profile string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(logger *slog.Logger, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = run.DefaultDirectionsTimeout
	}

	return &Client{
		token:   cfg.Token,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		profile: cfg.Profile,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route returns the first route Mapbox suggests between start and finish.
// Every failure wraps run.ErrDirectionsUnavailable.
func (c *Client) Route(ctx context.Context, start, finish run.Coordinate) ([]run.Coordinate, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: MAPBOX_TOKEN not set", run.ErrDirectionsUnavailable)
	}

	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s;%s",
		c.baseURL, c.profile, lonLat(start), lonLat(finish))

	params := url.Values{}
	params.Set("geometries", "geojson")
	params.Set("overview", "full")
	params.Set("access_token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", run.ErrDirectionsUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", run.ErrDirectionsUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", run.ErrDirectionsUnavailable, err)
	}

	var result directionsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decoding response (status %d): %v", run.ErrDirectionsUnavailable, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || result.Code != "Ok" {
		return nil, fmt.Errorf("%w: %s %s", run.ErrDirectionsUnavailable, result.Code, result.Message)
	}
	if len(result.Routes) == 0 {
		return nil, fmt.Errorf("%w: no routes", run.ErrDirectionsUnavailable)
	}

	route := result.Routes[0]
	path := make([]run.Coordinate, 0, len(route.Geometry.Coordinates))
	for _, pair := range route.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		path = append(path, run.Coordinate{Latitude: pair[1], Longitude: pair[0]})
	}

	c.logger.Debug("Route found",
		slog.Int("points", len(path)),
		slog.Float64("distance_m", route.Distance),
		slog.Float64("duration_s", route.Duration))
	return path, nil
}

func lonLat(c run.Coordinate) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}
