package forecast

import "fmt"

// RuleSet holds the flyability thresholds for one location. It is an
// explicit immutable value passed into every analysis call; the core keeps
// no ambient configuration.
type RuleSet struct {
	// Daily window of hours to consider, inclusive on both ends.
	TimeWindowStart int `json:"timeWindowStart" validate:"min=0,max=23"`
	TimeWindowEnd   int `json:"timeWindowEnd" validate:"min=0,max=23,gtfield=TimeWindowStart"`

	TempMin     float64 `json:"tempMin"`
	HumidityMax float64 `json:"humidityMax" validate:"min=0,max=100"`

	WindSpeedMax float64 `json:"windSpeedMax" validate:"min=0"` // m/s
	// WindGustMax of zero means "not configured": the limit defaults to
	// 1.5x WindSpeedMax.
	WindGustMax float64 `json:"windGustMax,omitempty" validate:"min=0"`

	// Allowed wind directions in degrees [0,360). Empty means any
	// direction is acceptable.
	WindDirections         []int `json:"windDirections,omitempty" validate:"dive,min=0,max=359"`
	WindDirectionTolerance int   `json:"windDirectionTolerance" validate:"min=0,max=180"`

	DewPointSpreadMin float64 `json:"dewPointSpreadMin" validate:"min=0"`

	RequiredDurationHours int `json:"requiredDurationHours" validate:"min=1"`

	PrecipProbMax float64 `json:"precipProbMax" validate:"min=0,max=100"`
}

// DefaultRules mirrors the defaults applied when a location is created
// without explicit thresholds.
func DefaultRules() RuleSet {
	return RuleSet{
		TimeWindowStart:        8,
		TimeWindowEnd:          18,
		TempMin:                5,
		HumidityMax:            85,
		WindSpeedMax:           8,
		WindDirectionTolerance: 45,
		DewPointSpreadMin:      2,
		RequiredDurationHours:  4,
		PrecipProbMax:          20,
	}
}

// GustLimit returns the effective wind gust threshold.
func (r RuleSet) GustLimit() float64 {
	if r.WindGustMax > 0 {
		return r.WindGustMax
	}
	return r.WindSpeedMax * 1.5
}

// Validate reports programming-contract violations. Data-quality problems
// never surface here; only rule sets that make analysis meaningless do.
func (r RuleSet) Validate() error {
	if r.TimeWindowStart < 0 || r.TimeWindowStart > 23 || r.TimeWindowEnd < 0 || r.TimeWindowEnd > 23 {
		return fmt.Errorf("time window hours must be in [0,23], got %d-%d", r.TimeWindowStart, r.TimeWindowEnd)
	}
	if r.TimeWindowStart >= r.TimeWindowEnd {
		return fmt.Errorf("time window start %d must be before end %d", r.TimeWindowStart, r.TimeWindowEnd)
	}
	if r.RequiredDurationHours <= 0 {
		return fmt.Errorf("required duration must be positive, got %d", r.RequiredDurationHours)
	}
	if r.HumidityMax < 0 || r.WindSpeedMax < 0 || r.WindGustMax < 0 ||
		r.DewPointSpreadMin < 0 || r.PrecipProbMax < 0 || r.WindDirectionTolerance < 0 {
		return fmt.Errorf("numeric limits must be non-negative")
	}
	for _, d := range r.WindDirections {
		if d < 0 || d >= 360 {
			return fmt.Errorf("wind direction %d out of range [0,360)", d)
		}
	}
	return nil
}

// AllowsDirection reports whether the given wind direction is within
// tolerance of at least one allowed direction. An empty allow list accepts
// everything. Distance is circular: 350 and 10 are 20 degrees apart.
func (r RuleSet) AllowsDirection(degrees int) bool {
	if len(r.WindDirections) == 0 {
		return true
	}
	for _, allowed := range r.WindDirections {
		d := degrees - allowed
		if d < 0 {
			d = -d
		}
		if d > 180 {
			d = 360 - d
		}
		if d <= r.WindDirectionTolerance {
			return true
		}
	}
	return false
}
