// Package weather provides a current-weather tool backed by the Open-Meteo
// geocoding and forecast APIs. No API key is required.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/beeflow/tool"
)

// Default endpoints.
const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// Name is the tool name exposed to models.
const Name = "get_current_weather"

// Options configures the Open-Meteo client.
type Options struct {
	HTTPClient   *http.Client
	GeocodingURL string
	ForecastURL  string
	Language     string
}

// Client looks up current conditions for a place name.
type Client struct {
	opts Options
}

// NewClient creates a client with default endpoints.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
		GeocodingURL: DefaultGeocodingURL,
		ForecastURL:  DefaultForecastURL,
		Language:     "en",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{opts: opts}
}

// Report is the current weather at a location.
type Report struct {
	Location     string  `json:"location"`
	Country      string  `json:"country,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	TemperatureC float64 `json:"temperature_c"`
	ApparentC    float64 `json:"apparent_temperature_c"`
	HumidityPct  float64 `json:"relative_humidity_pct"`
	WindKmh      float64 `json:"wind_speed_kmh"`
	Condition    string  `json:"condition"`
	ObservedAt   string  `json:"observed_at"`
}

// Current resolves location and fetches its current conditions. It fails
// with a NOT_FOUND *tool.ToolError when the place is unknown.
func (c *Client) Current(ctx context.Context, location string) (*Report, error) {
	q := url.Values{}
	q.Set("name", location)
	q.Set("count", "1")
	q.Set("language", c.opts.Language)
	q.Set("format", "json")

	geo, err := c.get(ctx, c.opts.GeocodingURL, q)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", location, err)
	}
	place := gjson.GetBytes(geo, "results.0")
	if !place.Exists() {
		return nil, tool.NewToolError(Name, fmt.Sprintf("location %q not found", location), tool.CodeNotFound)
	}

	report := &Report{
		Location:  place.Get("name").String(),
		Country:   place.Get("country").String(),
		Latitude:  place.Get("latitude").Float(),
		Longitude: place.Get("longitude").Float(),
	}

	q = url.Values{}
	q.Set("latitude", strconv.FormatFloat(report.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(report.Longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code")
	q.Set("timezone", "auto")

	forecast, err := c.get(ctx, c.opts.ForecastURL, q)
	if err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", report.Location, err)
	}
	current := gjson.GetBytes(forecast, "current")
	if !current.Exists() {
		return nil, fmt.Errorf("forecast for %q: response has no current conditions", report.Location)
	}

	report.TemperatureC = current.Get("temperature_2m").Float()
	report.ApparentC = current.Get("apparent_temperature").Float()
	report.HumidityPct = current.Get("relative_humidity_2m").Float()
	report.WindKmh = current.Get("wind_speed_10m").Float()
	report.Condition = Condition(int(current.Get("weather_code").Int()))
	report.ObservedAt = current.Get("time").String()

	return report, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		reason := gjson.GetBytes(body, "reason").String()
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("open-meteo returned %d: %s", resp.StatusCode, reason)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("open-meteo returned invalid JSON")
	}
	return body, nil
}

// Args are the tool arguments.
type Args struct {
	Location string `json:"location" jsonschema:"description=City or place name, e.g. Berlin or San Francisco"`
}

// New returns the weather tool backed by client. A nil client uses defaults.
func New(client *Client) (*tool.FunctionTool, error) {
	if client == nil {
		client = NewClient()
	}
	return tool.NewTypedTool(Name,
		"Get the current weather (temperature, wind, humidity, conditions) for a location.",
		func(ctx context.Context, args Args) (any, error) {
			return client.Current(ctx, args.Location)
		})
}

// Condition maps a WMO weather interpretation code to text.
func Condition(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code >= 1 && code <= 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code >= 85 && code <= 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
