package forecast

import (
	"reflect"
	"testing"
)

// dayRecords builds an hour-indexed record map where the listed hours are
// flyable under DefaultRules and every other hour of the day fails on wind.
func dayRecords(src Source, flyable ...int) map[int]HourlyRecord {
	isFlyable := make(map[int]bool, len(flyable))
	for _, h := range flyable {
		isFlyable[h] = true
	}
	out := make(map[int]HourlyRecord)
	for h := 0; h < 24; h++ {
		rec := goodRecord()
		rec.Source = src
		if !isFlyable[h] {
			rec.WindSpeed = 20
		}
		out[h] = rec
	}
	return out
}

func TestFindDayWindowsUnionAndMixedSource(t *testing.T) {
	// Spec scenario 1: OpenWeather flyable 9-14, VisualCrossing 10-13.
	rules := DefaultRules()
	ow := dayRecords(SourceOpenWeather, 9, 10, 11, 12, 13, 14)
	vc := dayRecords(SourceVisualCrossing, 10, 11, 12, 13)

	windows, union := findDayWindows("2024-05-01", ow, vc, rules)

	if want := []int{9, 10, 11, 12, 13, 14}; !reflect.DeepEqual(union, want) {
		t.Fatalf("union = %v, want %v", union, want)
	}
	if len(windows) != 1 {
		t.Fatalf("expected one window, got %d", len(windows))
	}
	w := windows[0]
	if w.StartHour != 9 || w.EndHour != 14 || w.DurationHours != 6 {
		t.Fatalf("window = %s, want 09:00-14:00 (6h)", w)
	}
	// Hours 9 and 14 are OpenWeather-only but 10-13 were confirmed by both,
	// so no hour is VisualCrossing-only: the window belongs to OpenWeather.
	if w.Source != SourceOpenWeather {
		t.Fatalf("source = %q, want %q", w.Source, SourceOpenWeather)
	}
}

func TestFindDayWindowsBothSource(t *testing.T) {
	// Spec scenario 2: both providers agree on exactly 8-11.
	rules := DefaultRules()
	ow := dayRecords(SourceOpenWeather, 8, 9, 10, 11)
	vc := dayRecords(SourceVisualCrossing, 8, 9, 10, 11)

	windows, _ := findDayWindows("2024-05-01", ow, vc, rules)
	if len(windows) != 1 {
		t.Fatalf("expected one window, got %d", len(windows))
	}
	w := windows[0]
	if w.StartHour != 8 || w.EndHour != 11 || w.DurationHours != 4 || w.Source != SourceBoth {
		t.Fatalf("got %s source=%q, want 08:00-11:00 (4h) source=both", w, w.Source)
	}
}

func TestFindDayWindowsTrueMixed(t *testing.T) {
	rules := DefaultRules()
	rules.RequiredDurationHours = 3
	// Hour 9 OpenWeather-only, 10 both, 11 VisualCrossing-only.
	ow := dayRecords(SourceOpenWeather, 9, 10)
	vc := dayRecords(SourceVisualCrossing, 10, 11)

	windows, _ := findDayWindows("2024-05-01", ow, vc, rules)
	if len(windows) != 1 {
		t.Fatalf("expected one window, got %d", len(windows))
	}
	if windows[0].Source != SourceMixed {
		t.Fatalf("source = %q, want %q", windows[0].Source, SourceMixed)
	}
}

func TestFindDayWindowsMinimumDuration(t *testing.T) {
	// Spec scenario 3: {8,9} and {12,13} with required 3 -> no windows.
	rules := DefaultRules()
	rules.RequiredDurationHours = 3
	ow := dayRecords(SourceOpenWeather, 8, 9, 12, 13)
	vc := dayRecords(SourceVisualCrossing, 8, 9, 12, 13)

	windows, union := findDayWindows("2024-05-01", ow, vc, rules)
	if len(windows) != 0 {
		t.Fatalf("expected no windows, got %v", windows)
	}
	if len(union) != 4 {
		t.Fatalf("union should still report 4 flyable hours, got %d", len(union))
	}
}

func TestFindDayWindowsSplitsOnGap(t *testing.T) {
	rules := DefaultRules()
	rules.RequiredDurationHours = 2
	ow := dayRecords(SourceOpenWeather, 8, 9, 12, 13, 14)
	vc := dayRecords(SourceVisualCrossing, 8, 9, 12, 13, 14)

	windows, _ := findDayWindows("2024-05-01", ow, vc, rules)
	if len(windows) != 2 {
		t.Fatalf("expected two windows, got %d", len(windows))
	}
	if windows[0].StartHour != 8 || windows[0].EndHour != 9 {
		t.Errorf("first window = %s", windows[0])
	}
	if windows[1].StartHour != 12 || windows[1].EndHour != 14 {
		t.Errorf("second window = %s", windows[1])
	}
	// P3: duration always matches the hour span.
	for _, w := range windows {
		if w.DurationHours != w.EndHour-w.StartHour+1 {
			t.Errorf("window %s duration mismatch", w)
		}
	}
}

func TestFindDayWindowsRespectsTimeWindow(t *testing.T) {
	rules := DefaultRules() // 8-18
	rules.RequiredDurationHours = 2
	// Flyable 5-9: hours 5-7 fall outside the daily window.
	ow := dayRecords(SourceOpenWeather, 5, 6, 7, 8, 9)
	vc := dayRecords(SourceVisualCrossing, 5, 6, 7, 8, 9)

	windows, union := findDayWindows("2024-05-01", ow, vc, rules)
	if want := []int{8, 9}; !reflect.DeepEqual(union, want) {
		t.Fatalf("union = %v, want %v", union, want)
	}
	if len(windows) != 1 || windows[0].StartHour != 8 || windows[0].EndHour != 9 {
		t.Fatalf("windows = %v, want one 08:00-09:00", windows)
	}
}

func TestFindDayWindowsNoRecords(t *testing.T) {
	rules := DefaultRules()
	windows, union := findDayWindows("2024-05-01", nil, nil, rules)
	if windows != nil || union != nil {
		t.Fatalf("empty day should yield nothing, got %v / %v", windows, union)
	}

	// One provider missing entirely: nothing can be "both", hours remain
	// single-source (P1: union still contains them).
	ow := dayRecords(SourceOpenWeather, 9, 10, 11, 12)
	windows, union = findDayWindows("2024-05-01", ow, nil, rules)
	if len(union) != 4 {
		t.Fatalf("union = %v, want 4 hours", union)
	}
	if len(windows) != 1 || windows[0].Source != SourceOpenWeather {
		t.Fatalf("windows = %v, want one openweather window", windows)
	}
}

func TestWindowStatistics(t *testing.T) {
	rules := DefaultRules()
	rules.RequiredDurationHours = 2

	ow := map[int]HourlyRecord{}
	vc := map[int]HourlyRecord{}
	for h := 10; h <= 11; h++ {
		owRec := goodRecord()
		owRec.Temperature = 10
		owRec.WindSpeed = 2
		owRec.Humidity = 50
		owRec.PrecipProb = 5
		owRec.CloudBaseM = 1000
		owRec.FogProb = 0
		ow[h] = owRec

		vcRec := goodRecord()
		vcRec.Temperature = 14
		vcRec.WindSpeed = 4
		vcRec.Humidity = 70
		vcRec.PrecipProb = 15
		vcRec.CloudBaseM = 2000
		vcRec.FogProb = 40
		vc[h] = vcRec
	}

	windows, _ := findDayWindows("2024-05-01", ow, vc, rules)
	if len(windows) != 1 {
		t.Fatalf("expected one window, got %d", len(windows))
	}
	w := windows[0]

	if w.AvgTemp != 12 || w.MinTemp != 10 || w.MaxTemp != 14 {
		t.Errorf("temps avg/min/max = %v/%v/%v, want 12/10/14", w.AvgTemp, w.MinTemp, w.MaxTemp)
	}
	if w.AvgWindSpeed != 3 || w.MaxWindSpeed != 4 {
		t.Errorf("wind avg/max = %v/%v, want 3/4", w.AvgWindSpeed, w.MaxWindSpeed)
	}
	if w.AvgHumidity != 60 {
		t.Errorf("avg humidity = %v, want 60", w.AvgHumidity)
	}
	if w.MaxPrecipProb != 15 {
		t.Errorf("max precip prob = %v, want 15", w.MaxPrecipProb)
	}
	if w.AvgCloudBaseM != 1500 {
		t.Errorf("avg cloud base = %v, want 1500", w.AvgCloudBaseM)
	}
	if w.MaxFogProb != 40 {
		t.Errorf("max fog prob = %v, want 40", w.MaxFogProb)
	}
}
