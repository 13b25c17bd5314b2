package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"flywatch/internal/forecast"
)

// OpenWeatherClient fetches the 5-day/3-hour forecast from OpenWeatherMap
// and normalizes it into hourly records.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	policy  retryPolicy
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		client:  client,
		policy:  defaultRetryPolicy(),
		circuit: newBreaker("openweather"),
	}
}

func (c *OpenWeatherClient) Name() string {
	return string(forecast.SourceOpenWeather)
}

// FetchHourly returns the forecast for the given coordinates as normalized
// records. The free-tier endpoint reports 3-hour steps; each entry becomes
// one record at its own timestamp.
func (c *OpenWeatherClient) FetchHourly(ctx context.Context, lat, lon float64) ([]forecast.HourlyRecord, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Set("lon", fmt.Sprintf("%f", lon))
		values.Set("cnt", "40")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.policy, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp      float64 `json:"temp"`
				FeelsLike float64 `json:"feels_like"`
				Humidity  float64 `json:"humidity"`
				Pressure  float64 `json:"pressure"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
				Gust  float64 `json:"gust"`
				Deg   int     `json:"deg"`
			} `json:"wind"`
			Pop        float64 `json:"pop"`
			Visibility float64 `json:"visibility"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openweather response: %w", err)
	}

	records := make([]forecast.HourlyRecord, 0, len(payload.List))
	for _, item := range payload.List {
		if item.Dt == 0 {
			continue
		}

		dew := dewPoint(item.Main.Temp, item.Main.Humidity)
		gust := item.Wind.Gust
		if gust == 0 {
			gust = item.Wind.Speed
		}
		visibility := item.Visibility
		if visibility == 0 {
			visibility = 10000
		}

		records = append(records, forecast.HourlyRecord{
			Timestamp:     time.Unix(item.Dt, 0).UTC(),
			Temperature:   item.Main.Temp,
			FeelsLike:     item.Main.FeelsLike,
			Humidity:      item.Main.Humidity,
			DewPoint:      dew,
			WindSpeed:     item.Wind.Speed,
			WindGust:      gust,
			WindDirection: item.Wind.Deg,
			CloudBaseM:    cloudBase(item.Main.Temp, dew),
			PrecipProb:    item.Pop * 100,
			Visibility:    visibility / 1000,
			Pressure:      item.Main.Pressure,
			Source:        forecast.SourceOpenWeather,
		})
	}

	return records, nil
}

// dewPoint approximates the dew point from temperature and relative
// humidity using the Magnus formula. OpenWeather's forecast endpoint does
// not report it directly.
func dewPoint(tempC, humidityPct float64) float64 {
	if humidityPct <= 0 {
		return tempC
	}
	const a, b = 17.27, 237.7
	alpha := (a*tempC)/(b+tempC) + math.Log(humidityPct/100)
	return (b * alpha) / (a - alpha)
}
