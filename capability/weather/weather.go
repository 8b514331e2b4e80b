// Package weather reports current conditions for a city via the
// OpenWeatherMap API. Unlike the other capabilities it needs an API key;
// without one the capability is simply not registered.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ecastro/convobot/core"
)

// DefaultBaseURL is the public OpenWeatherMap endpoint; tests override it.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Descriptor declares the weather capability contract.
func Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:        "weather",
		Description: "Get the current weather for a city, e.g. 'weather Madrid' or 'what is the weather like in Tokyo'.",
		Args: []core.ArgSpec{
			{Name: "city", Type: core.ArgString, Required: true, Description: "City name"},
		},
	}
}

// Options configure the Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the OpenWeatherMap current weather endpoint. It implements
// core.Invoker.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient constructs a weather client with the given API key.
func NewClient(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{baseURL: opts.BaseURL, apiKey: apiKey, httpc: opts.HTTPClient}
}

type weatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
}

// Invoke fetches current conditions for args["city"].
func (c *Client) Invoke(ctx context.Context, args core.Args) (string, error) {
	city := args.String("city")

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/weather?%s", c.baseURL, q.Encode()), nil)
	if err != nil {
		return "", fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("call weather service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", core.NewValidationError("weather", "city %q not found, check the spelling", city)
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("weather service rejected the API key")
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("weather service returned status %d", resp.StatusCode)
	}

	var data weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode weather response: %w", err)
	}

	condition := ""
	if len(data.Weather) > 0 {
		condition = data.Weather[0].Description
	}

	return fmt.Sprintf("%s, %s: %.1f°C (feels like %.1f°C), %s, humidity %d%%, wind %.1f km/h %s",
		data.Name, data.Sys.Country,
		data.Main.Temp, data.Main.FeelsLike,
		condition, data.Main.Humidity,
		data.Wind.Speed*3.6, windDirection(data.Wind.Deg)), nil
}

// windDirection converts degrees to an eight-point compass direction.
func windDirection(deg int) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := ((deg + 22) / 45) % 8
	return directions[idx]
}
