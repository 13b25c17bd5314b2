package monitor

import (
	"context"
	"log"
	"time"

	"flywatch/internal/forecast"
	"flywatch/internal/notify"
	"flywatch/internal/store"
)

// ForecastSource is a weather provider client returning normalized hourly
// records for a coordinate pair.
type ForecastSource interface {
	Name() string
	FetchHourly(ctx context.Context, lat, lon float64) ([]forecast.HourlyRecord, error)
}

// Store is the persistence contract the monitor drives: it reads the
// previously announced windows and applies the diff engine's decisions.
type Store interface {
	ListActiveLocations() []store.Location
	SaveAnalysis(locationID string, analysis forecast.FullForecastAnalysis)
	ActiveWindows(locationID string) []forecast.NotifiedWindow
	MarkNotified(locationID string, windows []forecast.FlyableWindowInfo, at time.Time)
	MarkCancelled(locationID string, keys []forecast.WindowKey, at time.Time)
	GetStatus(locationID string) (store.Status, error)
	UpsertStatus(st store.Status)
}

// Service runs the full check cycle for monitored locations: fetch both
// providers, analyze, diff against announced windows, persist the
// decisions, notify.
type Service struct {
	store          Store
	openweather    ForecastSource
	visualcrossing ForecastSource
	analyzer       *forecast.Analyzer
	dispatcher     *notify.Dispatcher

	// fixed delay between the two provider calls, rate-limit policy
	providerDelay time.Duration
}

// NewService creates a Service. providerDelay of zero disables the pause
// between provider calls.
func NewService(st Store, ow, vc ForecastSource, analyzer *forecast.Analyzer, dispatcher *notify.Dispatcher, providerDelay time.Duration) *Service {
	return &Service{
		store:          st,
		openweather:    ow,
		visualcrossing: vc,
		analyzer:       analyzer,
		dispatcher:     dispatcher,
		providerDelay:  providerDelay,
	}
}

// CheckAll runs a check cycle over every active location sequentially,
// pausing between locations to respect provider rate limits.
func (s *Service) CheckAll(ctx context.Context) {
	locations := s.store.ListActiveLocations()
	log.Printf("monitor: checking %d active locations", len(locations))

	for _, loc := range locations {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.CheckLocation(ctx, loc); err != nil {
			log.Printf("monitor: check failed for %s: %v", loc.Name, err)
		}
		s.pause(ctx)
	}
}

// CheckLocation fetches both forecasts, analyzes them and applies the
// window diff for one location. A provider failure degrades to the
// missing-provider analysis path rather than aborting the check.
func (s *Service) CheckLocation(ctx context.Context, loc store.Location) (forecast.FullForecastAnalysis, error) {
	owHourly, err := s.openweather.FetchHourly(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		log.Printf("monitor: %s fetch failed for %s: %v", s.openweather.Name(), loc.Name, err)
		owHourly = nil
	}

	s.pause(ctx)

	vcHourly, err := s.visualcrossing.FetchHourly(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		log.Printf("monitor: %s fetch failed for %s: %v", s.visualcrossing.Name(), loc.Name, err)
		vcHourly = nil
	}

	analysis, err := s.analyzer.Analyze(loc.Rules, owHourly, vcHourly)
	if err != nil {
		return forecast.FullForecastAnalysis{}, err
	}

	s.store.SaveAnalysis(loc.ID, analysis)

	newWindows, cancelled := forecast.Diff(analysis.Windows, s.store.ActiveWindows(loc.ID))

	now := analysis.AnalysisTime
	if len(newWindows) > 0 {
		s.store.MarkNotified(loc.ID, newWindows, now)
	}
	if len(cancelled) > 0 {
		keys := make([]forecast.WindowKey, 0, len(cancelled))
		for _, n := range cancelled {
			keys = append(keys, n.Key())
		}
		s.store.MarkCancelled(loc.ID, keys, now)
	}

	s.updateStatus(loc.ID, analysis, now)

	if err := s.dispatcher.WindowsChanged(ctx, loc, newWindows, cancelled, analysis.Current); err != nil {
		log.Printf("monitor: notification failed for %s: %v", loc.Name, err)
	}

	return analysis, nil
}

// updateStatus keeps the per-location counter of consecutive checks without
// flyable windows; it resets whenever any window exists.
func (s *Service) updateStatus(locationID string, analysis forecast.FullForecastAnalysis, now time.Time) {
	st, err := s.store.GetStatus(locationID)
	if err != nil {
		st = store.Status{LocationID: locationID}
	}

	st.LastCheckAt = now
	st.IsFlyable = analysis.HasFlyableConditions
	if analysis.HasFlyableConditions {
		st.ConsecutiveNotFlyable = 0
	} else {
		st.ConsecutiveNotFlyable++
	}

	s.store.UpsertStatus(st)
}

func (s *Service) pause(ctx context.Context) {
	if s.providerDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.providerDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
