package forecast

import (
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Analyzer turns two providers' hourly forecasts into a flyability verdict
// for one location. It is stateless apart from the timezone used to bucket
// timestamps into local dates and hours; calls are independent and safe to
// run concurrently.
type Analyzer struct {
	tz  *time.Location
	now func() time.Time
}

// NewAnalyzer creates an Analyzer interpreting timestamps in the given
// timezone. A nil timezone falls back to UTC.
func NewAnalyzer(tz *time.Location) *Analyzer {
	if tz == nil {
		tz = time.UTC
	}
	return &Analyzer{tz: tz, now: time.Now}
}

// Analyze evaluates the full forecast horizon shared by both providers and
// returns every flyable window found. Data-quality problems (missing
// provider, no overlapping dates) come back as a well-formed empty result
// with rejection reasons; only an invalid rule set is an error.
func (a *Analyzer) Analyze(rules RuleSet, owHourly, vcHourly []HourlyRecord) (FullForecastAnalysis, error) {
	if err := rules.Validate(); err != nil {
		return FullForecastAnalysis{}, fmt.Errorf("invalid rule set: %w", err)
	}

	now := a.now().In(a.tz)
	result := FullForecastAnalysis{
		AnalysisTime:            now,
		ForecastStart:           now,
		ForecastEnd:             now,
		OpenWeatherAvailable:    len(owHourly) > 0,
		VisualCrossingAvailable: len(vcHourly) > 0,
		OpenWeatherHours:        len(owHourly),
		VisualCrossingHours:     len(vcHourly),
	}

	// Both sources must be present; a single source cannot confirm a window.
	if len(owHourly) == 0 || len(vcHourly) == 0 {
		if len(owHourly) == 0 {
			result.RejectionReasons = append(result.RejectionReasons, "no data from openweather")
		}
		if len(vcHourly) == 0 {
			result.RejectionReasons = append(result.RejectionReasons, "no data from visualcrossing")
		}
		return result, nil
	}

	owByDate := a.groupByDate(owHourly)
	vcByDate := a.groupByDate(vcHourly)

	dates := intersectDates(owByDate, vcByDate)
	if len(dates) == 0 {
		result.RejectionReasons = append(result.RejectionReasons, "no overlapping dates between forecasts")
		return result, nil
	}

	result.ForecastStart = a.parseDate(dates[0])
	result.ForecastEnd = a.parseDate(dates[len(dates)-1])

	totalHours := 0
	for _, date := range dates {
		windows, union := findDayWindows(date, owByDate[date], vcByDate[date], rules)
		result.Windows = append(result.Windows, windows...)
		totalHours += len(union)
		result.TotalHoursAnalyzed += len(owByDate[date])
	}

	sort.SliceStable(result.Windows, func(i, j int) bool {
		if result.Windows[i].Date != result.Windows[j].Date {
			return result.Windows[i].Date < result.Windows[j].Date
		}
		return result.Windows[i].StartHour < result.Windows[j].StartHour
	})

	result.TotalFlyableHours = totalHours
	result.HasFlyableConditions = len(result.Windows) > 0

	if !result.HasFlyableConditions {
		result.RejectionReasons = append(result.RejectionReasons,
			fmt.Sprintf("no continuous window of at least %dh found", rules.RequiredDurationHours))
		if totalHours > 0 {
			result.RejectionReasons = append(result.RejectionReasons,
				fmt.Sprintf("%d flyable hours found, but not contiguous", totalHours))
		}
	}

	result.Current = a.currentConditions(now, owByDate, vcByDate)

	return result, nil
}

// groupByDate buckets records per local date, indexed by local hour. When a
// provider reports the same hour twice the later record wins.
func (a *Analyzer) groupByDate(records []HourlyRecord) map[string]map[int]HourlyRecord {
	byDate := make(map[string]map[int]HourlyRecord)
	for _, rec := range records {
		local := rec.Timestamp.In(a.tz)
		date := local.Format(dateLayout)
		if byDate[date] == nil {
			byDate[date] = make(map[int]HourlyRecord)
		}
		byDate[date][local.Hour()] = rec
	}
	return byDate
}

func (a *Analyzer) parseDate(date string) time.Time {
	t, err := time.ParseInLocation(dateLayout, date, a.tz)
	if err != nil {
		return a.now().In(a.tz)
	}
	return t
}

// intersectDates returns the sorted dates present in both groupings.
func intersectDates(ow, vc map[string]map[int]HourlyRecord) []string {
	var dates []string
	for date := range ow {
		if _, ok := vc[date]; ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// currentConditions picks the record matching the current local date and
// hour, preferring OpenWeather and falling back to VisualCrossing. Nil when
// neither provider covers the current hour.
func (a *Analyzer) currentConditions(now time.Time, owByDate, vcByDate map[string]map[int]HourlyRecord) *CurrentConditions {
	today := now.Format(dateLayout)
	hour := now.Hour()

	for _, byDate := range []map[string]map[int]HourlyRecord{owByDate, vcByDate} {
		if rec, ok := byDate[today][hour]; ok {
			return &CurrentConditions{
				Temperature:   rec.Temperature,
				WindSpeed:     rec.WindSpeed,
				WindDirection: rec.WindDirection,
				Humidity:      rec.Humidity,
				CloudBaseM:    rec.CloudBaseM,
				FogProb:       rec.FogProb,
			}
		}
	}
	return nil
}
