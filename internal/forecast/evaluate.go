package forecast

// Flyable reports whether a single hourly record satisfies every threshold
// in the rule set. All checks must pass; there is no upper temperature
// bound. Pure function of its inputs.
func Flyable(rec HourlyRecord, rules RuleSet) bool {
	if rec.Temperature < rules.TempMin {
		return false
	}
	if rec.Humidity > rules.HumidityMax {
		return false
	}
	if rec.WindSpeed > rules.WindSpeedMax {
		return false
	}
	if rec.WindGust > rules.GustLimit() {
		return false
	}
	if !rules.AllowsDirection(rec.WindDirection) {
		return false
	}
	if rec.Temperature-rec.DewPoint < rules.DewPointSpreadMin {
		return false
	}
	if rec.PrecipProb > rules.PrecipProbMax {
		return false
	}
	return true
}
