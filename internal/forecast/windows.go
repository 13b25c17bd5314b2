package forecast

import "sort"

// dayHours buckets each hour of a day by which provider(s) found it
// flyable. An hour a provider has no record for contributes nothing.
type dayHours struct {
	both   map[int]bool
	owOnly map[int]bool
	vcOnly map[int]bool
}

// classifyDayHours evaluates every hour of the configured daily window
// against both providers' records for one date.
func classifyDayHours(ow, vc map[int]HourlyRecord, rules RuleSet) dayHours {
	buckets := dayHours{
		both:   make(map[int]bool),
		owOnly: make(map[int]bool),
		vcOnly: make(map[int]bool),
	}

	for hour := rules.TimeWindowStart; hour <= rules.TimeWindowEnd; hour++ {
		owRec, owOK := ow[hour]
		vcRec, vcOK := vc[hour]

		owFlyable := owOK && Flyable(owRec, rules)
		vcFlyable := vcOK && Flyable(vcRec, rules)

		switch {
		case owFlyable && vcFlyable:
			buckets.both[hour] = true
		case owFlyable:
			buckets.owOnly[hour] = true
		case vcFlyable:
			buckets.vcOnly[hour] = true
		}
	}
	return buckets
}

// union returns the sorted union of flyable hours across all buckets.
func (d dayHours) union() []int {
	hours := make([]int, 0, len(d.both)+len(d.owOnly)+len(d.vcOnly))
	for h := range d.both {
		hours = append(hours, h)
	}
	for h := range d.owOnly {
		hours = append(hours, h)
	}
	for h := range d.vcOnly {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}

// sourceFor labels a run of hours by which provider(s) cover every hour:
// "both" when both providers independently confirmed each hour, a single
// provider when no hour was confirmed only by the other one, and "mixed"
// otherwise.
func (d dayHours) sourceFor(run []int) Source {
	allBoth := true
	hasOWOnly := false
	hasVCOnly := false
	for _, h := range run {
		if !d.both[h] {
			allBoth = false
		}
		if d.owOnly[h] {
			hasOWOnly = true
		}
		if d.vcOnly[h] {
			hasVCOnly = true
		}
	}
	switch {
	case allBoth:
		return SourceBoth
	case !hasVCOnly:
		return SourceOpenWeather
	case !hasOWOnly:
		return SourceVisualCrossing
	default:
		return SourceMixed
	}
}

// findDayWindows computes the flyable windows for a single date: the union
// of per-provider flyable hours, partitioned into maximal contiguous runs,
// with runs shorter than the required duration discarded. The returned
// union holds every hour at least one provider flagged flyable, windowed
// or not.
func findDayWindows(date string, ow, vc map[int]HourlyRecord, rules RuleSet) ([]FlyableWindowInfo, []int) {
	buckets := classifyDayHours(ow, vc, rules)
	hours := buckets.union()
	if len(hours) == 0 {
		return nil, nil
	}

	var windows []FlyableWindowInfo
	run := []int{hours[0]}

	flush := func() {
		if len(run) >= rules.RequiredDurationHours {
			w := buildWindow(date, run, ow, vc)
			w.Source = buckets.sourceFor(run)
			windows = append(windows, w)
		}
	}

	for _, h := range hours[1:] {
		if h == run[len(run)-1]+1 {
			run = append(run, h)
			continue
		}
		flush()
		run = []int{h}
	}
	flush()

	return windows, hours
}

// buildWindow assembles a window over the given contiguous run and computes
// aggregate statistics from the merged records of both providers whose hour
// falls inside the run. Plain means and extrema, no interpolation.
func buildWindow(date string, run []int, ow, vc map[int]HourlyRecord) FlyableWindowInfo {
	w := FlyableWindowInfo{
		Date:          date,
		StartHour:     run[0],
		EndHour:       run[len(run)-1],
		DurationHours: len(run),
	}

	var records []HourlyRecord
	for _, h := range run {
		if rec, ok := ow[h]; ok {
			records = append(records, rec)
		}
		if rec, ok := vc[h]; ok {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return w
	}

	w.MinTemp = records[0].Temperature
	w.MaxTemp = records[0].Temperature

	var sumTemp, sumWind, sumHumidity, sumCloudBase float64
	for _, rec := range records {
		sumTemp += rec.Temperature
		sumWind += rec.WindSpeed
		sumHumidity += rec.Humidity
		sumCloudBase += rec.CloudBaseM

		if rec.Temperature < w.MinTemp {
			w.MinTemp = rec.Temperature
		}
		if rec.Temperature > w.MaxTemp {
			w.MaxTemp = rec.Temperature
		}
		if rec.WindSpeed > w.MaxWindSpeed {
			w.MaxWindSpeed = rec.WindSpeed
		}
		if rec.PrecipProb > w.MaxPrecipProb {
			w.MaxPrecipProb = rec.PrecipProb
		}
		if rec.FogProb > w.MaxFogProb {
			w.MaxFogProb = rec.FogProb
		}
	}

	n := float64(len(records))
	w.AvgTemp = sumTemp / n
	w.AvgWindSpeed = sumWind / n
	w.AvgHumidity = sumHumidity / n
	w.AvgCloudBaseM = sumCloudBase / n

	return w
}
