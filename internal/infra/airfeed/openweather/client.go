// Package openweather fetches live air pollution readings from the
// OpenWeatherMap Air Pollution API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/respiguard/backend/internal/domain/airquality"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/air_pollution"

// Client fetches PM2.5 readings from OpenWeatherMap.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Reading retrieves the current air pollution reading for a coordinate.
func (c *Client) Reading(ctx context.Context, lat, lon float64) (airquality.Reading, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%g", lat))
	params.Set("lon", fmt.Sprintf("%g", lon))
	params.Set("appid", c.apiKey)
	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return airquality.Reading{}, fmt.Errorf("build air pollution request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return airquality.Reading{}, fmt.Errorf("air pollution request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return airquality.Reading{}, fmt.Errorf("air pollution request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return airquality.Reading{}, fmt.Errorf("read air pollution response: %w", err)
	}

	var raw apiResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return airquality.Reading{}, fmt.Errorf("decode air pollution response: %w", err)
	}

	if len(raw.List) == 0 {
		return airquality.Reading{}, fmt.Errorf("air pollution response has no entries")
	}

	entry := raw.List[0]
	return airquality.Reading{
		PM25:        entry.Components.PM25,
		SourceIndex: entry.Main.AQI,
	}, nil
}

type apiResponse struct {
	List []apiEntry `json:"list"`
}

type apiEntry struct {
	Main       apiMain       `json:"main"`
	Components apiComponents `json:"components"`
}

type apiMain struct {
	AQI int `json:"aqi"`
}

type apiComponents struct {
	PM25 float64 `json:"pm2_5"`
}
