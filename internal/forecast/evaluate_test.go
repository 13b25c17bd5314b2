package forecast

import "testing"

// goodRecord returns a record that passes DefaultRules.
func goodRecord() HourlyRecord {
	return HourlyRecord{
		Temperature:   12,
		Humidity:      60,
		DewPoint:      6,
		WindSpeed:     4,
		WindGust:      6,
		WindDirection: 180,
		PrecipProb:    10,
	}
}

func TestFlyableThresholds(t *testing.T) {
	rules := DefaultRules()

	cases := []struct {
		name   string
		mutate func(*HourlyRecord)
		want   bool
	}{
		{"all within limits", func(r *HourlyRecord) {}, true},
		{"temperature below minimum", func(r *HourlyRecord) { r.Temperature = 4; r.DewPoint = -2 }, false},
		{"no upper temperature bound", func(r *HourlyRecord) { r.Temperature = 38 }, true},
		{"humidity above maximum", func(r *HourlyRecord) { r.Humidity = 90 }, false},
		{"wind speed above maximum", func(r *HourlyRecord) { r.WindSpeed = 8.5 }, false},
		{"gust above default 1.5x limit", func(r *HourlyRecord) { r.WindGust = 12.5 }, false},
		{"gust exactly at default limit", func(r *HourlyRecord) { r.WindGust = 12 }, true},
		{"dew point spread too small", func(r *HourlyRecord) { r.DewPoint = 11 }, false},
		{"precipitation probability too high", func(r *HourlyRecord) { r.PrecipProb = 35 }, false},
		{"zero gust from missing field is fine", func(r *HourlyRecord) { r.WindGust = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := goodRecord()
			tc.mutate(&rec)
			if got := Flyable(rec, rules); got != tc.want {
				t.Fatalf("Flyable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFlyableConfiguredGustLimit(t *testing.T) {
	rules := DefaultRules()
	rules.WindGustMax = 10

	rec := goodRecord()
	rec.WindGust = 11
	if Flyable(rec, rules) {
		t.Fatal("gust above configured limit should fail")
	}
	rec.WindGust = 10
	if !Flyable(rec, rules) {
		t.Fatal("gust at configured limit should pass")
	}
}

func TestFlyableWindDirection(t *testing.T) {
	rules := DefaultRules()
	rules.WindDirections = []int{0} // north only
	rules.WindDirectionTolerance = 30

	cases := []struct {
		degrees int
		want    bool
	}{
		{0, true},
		{25, true},
		{340, true}, // circular distance 20
		{45, false},
		{180, false},
	}
	for _, tc := range cases {
		rec := goodRecord()
		rec.WindDirection = tc.degrees
		if got := Flyable(rec, rules); got != tc.want {
			t.Errorf("direction %d: Flyable() = %v, want %v", tc.degrees, got, tc.want)
		}
	}

	// Empty allow list accepts every direction.
	rules.WindDirections = nil
	rec := goodRecord()
	rec.WindDirection = 273
	if !Flyable(rec, rules) {
		t.Fatal("empty direction list should accept any direction")
	}
}

func TestRuleSetValidate(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules should validate: %v", err)
	}

	bad := DefaultRules()
	bad.RequiredDurationHours = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero required duration should fail validation")
	}

	bad = DefaultRules()
	bad.TimeWindowStart = 18
	bad.TimeWindowEnd = 8
	if err := bad.Validate(); err == nil {
		t.Fatal("inverted time window should fail validation")
	}

	bad = DefaultRules()
	bad.WindDirections = []int{360}
	if err := bad.Validate(); err == nil {
		t.Fatal("direction 360 should fail validation")
	}
}
