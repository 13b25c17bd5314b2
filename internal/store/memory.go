package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"flywatch/internal/forecast"
)

var (
	// ErrNotFound is returned when no record exists for the given key.
	ErrNotFound = errors.New("record not found")
)

// Location is a monitored site with its flyability rule set.
type Location struct {
	ID        string           `json:"id"`
	ChatID    int64            `json:"chatId"`
	Name      string           `json:"name"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Rules     forecast.RuleSet `json:"rules"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// WindowRecord materializes one announced flyable window and its
// notification lifecycle. The diff engine decides; this record remembers.
type WindowRecord struct {
	ID         string                     `json:"id"`
	LocationID string                     `json:"locationId"`
	Window     forecast.FlyableWindowInfo `json:"window"`

	Notified    bool      `json:"notified"`
	NotifiedAt  time.Time `json:"notifiedAt"`
	Cancelled   bool      `json:"cancelled"`
	CancelledAt time.Time `json:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Status tracks per-location check state across polling cycles.
type Status struct {
	LocationID            string    `json:"locationId"`
	IsFlyable             bool      `json:"isFlyable"`
	ConsecutiveNotFlyable int       `json:"consecutiveNotFlyable"`
	LastCheckAt           time.Time `json:"lastCheckAt"`
}

type analysisEntry struct {
	At       time.Time
	Analysis forecast.FullForecastAnalysis
}

// MemoryStore is a concurrency-safe in-memory implementation of the
// persistence collaborator: locations, analysis history, window records
// and statuses.
type MemoryStore struct {
	mu sync.RWMutex

	locations map[string]Location
	analyses  map[string][]analysisEntry // keyed by location ID
	windows   map[string][]WindowRecord  // keyed by location ID
	statuses  map[string]Status

	// retention for analysis history per location
	maxHistory int
	maxAge     time.Duration
}

// NewMemoryStore creates a MemoryStore. maxHistory <= 0 means unlimited
// analysis history; maxAge <= 0 disables age-based trimming.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		locations:  make(map[string]Location),
		analyses:   make(map[string][]analysisEntry),
		windows:    make(map[string][]WindowRecord),
		statuses:   make(map[string]Status),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveLocation inserts or updates a location, assigning an ID on first
// save, and returns the stored value.
func (s *MemoryStore) SaveLocation(loc Location) Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if loc.ID == "" {
		loc.ID = uuid.NewString()
		loc.CreatedAt = now
	}
	loc.UpdatedAt = now
	s.locations[loc.ID] = loc
	return loc
}

// GetLocation returns the location with the given ID.
func (s *MemoryStore) GetLocation(id string) (Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return Location{}, ErrNotFound
	}
	return loc, nil
}

// ListLocations returns all locations sorted by name.
func (s *MemoryStore) ListLocations() []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListActiveLocations returns the locations currently being monitored.
func (s *MemoryStore) ListActiveLocations() []Location {
	var out []Location
	for _, loc := range s.ListLocations() {
		if loc.Active {
			out = append(out, loc)
		}
	}
	return out
}

// DeleteLocation removes a location and everything recorded for it.
func (s *MemoryStore) DeleteLocation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[id]; !ok {
		return ErrNotFound
	}
	delete(s.locations, id)
	delete(s.analyses, id)
	delete(s.windows, id)
	delete(s.statuses, id)
	return nil
}

// SaveAnalysis appends an analysis to the location's history and enforces
// retention.
func (s *MemoryStore) SaveAnalysis(locationID string, analysis forecast.FullForecastAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.analyses[locationID], analysisEntry{
		At:       analysis.AnalysisTime,
		Analysis: analysis,
	})

	if s.maxHistory > 0 && len(entries) > s.maxHistory {
		entries = entries[len(entries)-s.maxHistory:]
	}
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(entries)-1; i++ {
			if !entries[i].At.Before(cutoff) {
				break
			}
		}
		entries = entries[i:]
	}

	s.analyses[locationID] = entries
}

// LatestAnalysis returns the most recent analysis for a location.
func (s *MemoryStore) LatestAnalysis(locationID string) (forecast.FullForecastAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.analyses[locationID]
	if len(entries) == 0 {
		return forecast.FullForecastAnalysis{}, ErrNotFound
	}
	return entries[len(entries)-1].Analysis, nil
}

// ActiveWindows returns the windows announced for a location and not yet
// cancelled, as the diff engine's previously-notified input.
func (s *MemoryStore) ActiveWindows(locationID string) []forecast.NotifiedWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []forecast.NotifiedWindow
	for _, rec := range s.windows[locationID] {
		if rec.Notified && !rec.Cancelled {
			out = append(out, forecast.NotifiedWindow{
				Date:       rec.Window.Date,
				StartHour:  rec.Window.StartHour,
				EndHour:    rec.Window.EndHour,
				Source:     rec.Window.Source,
				NotifiedAt: rec.NotifiedAt,
			})
		}
	}
	return out
}

// WindowRecords returns every window record kept for a location, newest
// first.
func (s *MemoryStore) WindowRecords(locationID string) []WindowRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.windows[locationID]
	out := make([]WindowRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// MarkNotified materializes freshly announced windows as notified records.
func (s *MemoryStore) MarkNotified(locationID string, windows []forecast.FlyableWindowInfo, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range windows {
		s.windows[locationID] = append(s.windows[locationID], WindowRecord{
			ID:         uuid.NewString(),
			LocationID: locationID,
			Window:     w,
			Notified:   true,
			NotifiedAt: at,
			CreatedAt:  at,
		})
	}
}

// MarkCancelled flips the cancelled flag on the records matching the given
// window keys. Unknown keys are ignored.
func (s *MemoryStore) MarkCancelled(locationID string, keys []forecast.WindowKey, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel := make(map[forecast.WindowKey]bool, len(keys))
	for _, k := range keys {
		cancel[k] = true
	}

	records := s.windows[locationID]
	for i := range records {
		if records[i].Cancelled || !records[i].Notified {
			continue
		}
		if cancel[records[i].Window.Key()] {
			records[i].Cancelled = true
			records[i].CancelledAt = at
		}
	}
}

// GetStatus returns the check status for a location.
func (s *MemoryStore) GetStatus(locationID string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[locationID]
	if !ok {
		return Status{}, ErrNotFound
	}
	return st, nil
}

// UpsertStatus stores the check status for a location.
func (s *MemoryStore) UpsertStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.LocationID] = st
}
