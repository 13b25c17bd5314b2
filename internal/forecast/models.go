package forecast

import (
	"fmt"
	"time"
)

// Source identifies which provider(s) back an hourly record or a window.
type Source string

const (
	SourceOpenWeather    Source = "openweather"
	SourceVisualCrossing Source = "visualcrossing"
	SourceBoth           Source = "both"
	SourceMixed          Source = "mixed"
)

// HourlyRecord is the normalized per-hour snapshot produced by a provider
// client. Immutable once constructed; the analyzer only reads it.
// Missing numeric fields default to zero.
type HourlyRecord struct {
	Timestamp time.Time `json:"timestamp"`

	Temperature   float64 `json:"temperature"` // Celsius
	FeelsLike     float64 `json:"feelsLike"`
	Humidity      float64 `json:"humidityPercent"`
	DewPoint      float64 `json:"dewPoint"`
	WindSpeed     float64 `json:"windSpeed"` // m/s
	WindGust      float64 `json:"windGust"`  // m/s
	WindDirection int     `json:"windDirection"` // degrees
	CloudBaseM    float64 `json:"cloudBaseM"`
	FogProb       float64 `json:"fogProbability"`    // 0-100
	PrecipProb    float64 `json:"precipProbability"` // 0-100
	Visibility    float64 `json:"visibilityKm"`
	Pressure      float64 `json:"pressureHpa"`

	Source Source `json:"source"`
}

// FlyableWindowInfo is a maximal run of contiguous flyable hours within one
// day, with aggregate statistics over every record covering its hours.
type FlyableWindowInfo struct {
	Date          string `json:"date"` // YYYY-MM-DD
	StartHour     int    `json:"startHour"`
	EndHour       int    `json:"endHour"`
	DurationHours int    `json:"durationHours"`
	Source        Source `json:"source"`

	AvgTemp       float64 `json:"avgTemp"`
	MinTemp       float64 `json:"minTemp"`
	MaxTemp       float64 `json:"maxTemp"`
	AvgWindSpeed  float64 `json:"avgWindSpeed"`
	MaxWindSpeed  float64 `json:"maxWindSpeed"`
	AvgHumidity   float64 `json:"avgHumidity"`
	MaxPrecipProb float64 `json:"maxPrecipProb"`
	AvgCloudBaseM float64 `json:"avgCloudBaseM"`
	MaxFogProb    float64 `json:"maxFogProb"`
}

// WindowKey is the structural identity used for diffing: two windows are
// the same announcement iff their keys are equal.
type WindowKey struct {
	Date      string
	StartHour int
	EndHour   int
	Source    Source
}

// Key returns the window's diff identity.
func (w FlyableWindowInfo) Key() WindowKey {
	return WindowKey{Date: w.Date, StartHour: w.StartHour, EndHour: w.EndHour, Source: w.Source}
}

// String formats the window for display, e.g. "2024-05-01 09:00-14:00 (6h)".
func (w FlyableWindowInfo) String() string {
	return fmt.Sprintf("%s %02d:00-%02d:00 (%dh)", w.Date, w.StartHour, w.EndHour, w.DurationHours)
}

// CurrentConditions is the nearest-hour snapshot attached to an analysis.
type CurrentConditions struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection int     `json:"windDirection"`
	Humidity      float64 `json:"humidity"`
	CloudBaseM    float64 `json:"cloudBaseM"`
	FogProb       float64 `json:"fogProbability"`
}

// FullForecastAnalysis is the result of one analysis run for one location.
// It lives for one call: handed to the diff engine and to the persistence
// and notification collaborators, then discarded.
type FullForecastAnalysis struct {
	AnalysisTime  time.Time `json:"analysisTime"`
	ForecastStart time.Time `json:"forecastStart"`
	ForecastEnd   time.Time `json:"forecastEnd"`

	Windows              []FlyableWindowInfo `json:"windows"`
	TotalFlyableHours    int                 `json:"totalFlyableHours"`
	TotalHoursAnalyzed   int                 `json:"totalHoursAnalyzed"`
	HasFlyableConditions bool                `json:"hasFlyableConditions"`

	RejectionReasons []string `json:"rejectionReasons,omitempty"`

	OpenWeatherAvailable    bool `json:"openweatherAvailable"`
	VisualCrossingAvailable bool `json:"visualcrossingAvailable"`
	OpenWeatherHours        int  `json:"openweatherHours"`
	VisualCrossingHours     int  `json:"visualcrossingHours"`

	Current *CurrentConditions `json:"current,omitempty"`
}

// WindowsForDate returns the analysis windows falling on the given date.
func (a FullForecastAnalysis) WindowsForDate(date string) []FlyableWindowInfo {
	var out []FlyableWindowInfo
	for _, w := range a.Windows {
		if w.Date == date {
			out = append(out, w)
		}
	}
	return out
}

// NextWindow returns the earliest upcoming window, or false if none exist.
// Windows are kept sorted by date then start hour.
func (a FullForecastAnalysis) NextWindow() (FlyableWindowInfo, bool) {
	if len(a.Windows) == 0 {
		return FlyableWindowInfo{}, false
	}
	return a.Windows[0], true
}

// NotifiedWindow is the diff engine's view of a previously announced window.
// The record itself is owned by the persistence collaborator; the engine
// only reads the key fields and reports decisions.
type NotifiedWindow struct {
	Date       string    `json:"date"`
	StartHour  int       `json:"startHour"`
	EndHour    int       `json:"endHour"`
	Source     Source    `json:"source"`
	NotifiedAt time.Time `json:"notifiedAt"`
}

// Key returns the record's diff identity.
func (n NotifiedWindow) Key() WindowKey {
	return WindowKey{Date: n.Date, StartHour: n.StartHour, EndHour: n.EndHour, Source: n.Source}
}

// String formats the notified window the same way as FlyableWindowInfo.
func (n NotifiedWindow) String() string {
	return fmt.Sprintf("%s %02d:00-%02d:00 (%dh)", n.Date, n.StartHour, n.EndHour, n.EndHour-n.StartHour+1)
}
