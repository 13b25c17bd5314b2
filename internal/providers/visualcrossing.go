package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"flywatch/internal/forecast"
)

// VisualCrossingClient fetches the timeline forecast from Visual Crossing
// and normalizes it into hourly records. The free tier covers up to 15
// days of hourly data.
type VisualCrossingClient struct {
	apiKey  string
	baseURL string
	days    int
	client  *http.Client
	policy  retryPolicy
	circuit *gobreaker.CircuitBreaker
}

func NewVisualCrossingClient(client *http.Client, apiKey string) *VisualCrossingClient {
	return &VisualCrossingClient{
		apiKey:  apiKey,
		baseURL: "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline",
		days:    15,
		client:  client,
		policy:  defaultRetryPolicy(),
		circuit: newBreaker("visualcrossing"),
	}
}

func (c *VisualCrossingClient) Name() string {
	return string(forecast.SourceVisualCrossing)
}

func (c *VisualCrossingClient) FetchHourly(ctx context.Context, lat, lon float64) ([]forecast.HourlyRecord, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("visualcrossing api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		now := time.Now().UTC()
		from := now.Format("2006-01-02")
		to := now.AddDate(0, 0, c.days).Format("2006-01-02")

		values := url.Values{}
		values.Set("key", c.apiKey)
		values.Set("unitGroup", "metric")
		values.Set("include", "hours")
		values.Set("contentType", "json")

		u := fmt.Sprintf("%s/%f,%f/%s/%s?%s", c.baseURL, lat, lon, from, to, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.policy, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Days []struct {
			Datetime string `json:"datetime"`
			Hours    []struct {
				Datetime      string  `json:"datetime"`
				DatetimeEpoch int64   `json:"datetimeEpoch"`
				Temp          float64 `json:"temp"`
				FeelsLike     float64 `json:"feelslike"`
				Humidity      float64 `json:"humidity"`
				Dew           float64 `json:"dew"`
				WindSpeed     float64 `json:"windspeed"`
				WindGust      float64 `json:"windgust"`
				WindDir       float64 `json:"winddir"`
				PrecipProb    float64 `json:"precipprob"`
				Visibility    float64 `json:"visibility"`
				Pressure      float64 `json:"pressure"`
				Conditions    string  `json:"conditions"`
			} `json:"hours"`
		} `json:"days"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode visualcrossing response: %w", err)
	}

	var records []forecast.HourlyRecord
	for _, day := range payload.Days {
		for _, hour := range day.Hours {
			ts := time.Unix(hour.DatetimeEpoch, 0).UTC()
			if hour.DatetimeEpoch == 0 {
				parsed, err := time.Parse("2006-01-02 15:04:05", day.Datetime+" "+hour.Datetime)
				if err != nil {
					continue
				}
				ts = parsed.UTC()
			}

			visibility := hour.Visibility
			if visibility == 0 {
				visibility = 10
			}
			pressure := hour.Pressure
			if pressure == 0 {
				pressure = 1013
			}

			records = append(records, forecast.HourlyRecord{
				Timestamp:     ts,
				Temperature:   hour.Temp,
				FeelsLike:     hour.FeelsLike,
				Humidity:      hour.Humidity,
				DewPoint:      hour.Dew,
				WindSpeed:     hour.WindSpeed / 3.6, // API reports kph
				WindGust:      hour.WindGust / 3.6,
				WindDirection: int(hour.WindDir),
				CloudBaseM:    cloudBase(hour.Temp, hour.Dew),
				FogProb:       fogProbability(hour.Conditions, visibility),
				PrecipProb:    hour.PrecipProb,
				Visibility:    visibility,
				Pressure:      pressure,
				Source:        forecast.SourceVisualCrossing,
			})
		}
	}

	return records, nil
}

// cloudBase estimates the cloud base height in meters from the dew point
// spread, roughly 125 m per degree of spread.
func cloudBase(tempC, dewC float64) float64 {
	if tempC <= dewC {
		return 0
	}
	return 125 * (tempC - dewC)
}

// fogProbability derives a 0-100 fog likelihood from the conditions text
// and visibility.
func fogProbability(conditions string, visibilityKm float64) float64 {
	cond := strings.ToLower(conditions)
	for _, marker := range []string{"fog", "mist", "haze"} {
		if strings.Contains(cond, marker) {
			return 100
		}
	}
	switch {
	case visibilityKm > 0 && visibilityKm < 1:
		return 80
	case visibilityKm > 0 && visibilityKm < 2:
		return 50
	default:
		return 0
	}
}
