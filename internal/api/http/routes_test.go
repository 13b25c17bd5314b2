package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"flywatch/internal/forecast"
	"flywatch/internal/monitor"
	"flywatch/internal/notify"
	"flywatch/internal/store"
)

type stubSource struct {
	name    string
	records []forecast.HourlyRecord
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchHourly(context.Context, float64, float64) ([]forecast.HourlyRecord, error) {
	return s.records, nil
}

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore(10, time.Hour)
	svc := monitor.NewService(
		st,
		&stubSource{name: "openweather"},
		&stubSource{name: "visualcrossing"},
		forecast.NewAnalyzer(time.UTC),
		notify.NewDispatcher(nil),
		0,
	)

	app := fiber.New()
	RegisterRoutes(app, Deps{Store: st, Monitor: svc})
	return app, st
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func TestCreateLocationValidation(t *testing.T) {
	app, _ := newTestApp(t)

	// Missing name should return 400.
	resp := postJSON(t, app, "/api/v1/locations", map[string]any{"latitude": 43.9, "longitude": 42.7})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// No coordinates and no geocoder configured should also return 400.
	resp = postJSON(t, app, "/api/v1/locations", map[string]any{"name": "Yutsa", "city": "Pyatigorsk"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Invalid rule set should return 400.
	rules := forecast.DefaultRules()
	rules.RequiredDurationHours = 0
	resp = postJSON(t, app, "/api/v1/locations", map[string]any{
		"name": "Yutsa", "latitude": 43.9, "longitude": 42.7, "rules": rules,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestLocationCRUD(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/locations", map[string]any{
		"name": "Yutsa", "chatId": 7, "latitude": 43.9, "longitude": 42.7,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	var created store.Location
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created location: %v", err)
	}
	if created.ID == "" || !created.Active {
		t.Fatalf("created location = %+v", created)
	}
	// Rules default when omitted.
	if created.Rules.RequiredDurationHours != forecast.DefaultRules().RequiredDurationHours {
		t.Fatalf("rules not defaulted: %+v", created.Rules)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/"+created.ID, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/locations/"+created.ID, nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/locations/"+created.ID, nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestAnalysisBeforeAnyCheck(t *testing.T) {
	app, st := newTestApp(t)
	loc := st.SaveLocation(store.Location{Name: "Yutsa", Rules: forecast.DefaultRules(), Active: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/"+loc.ID+"/analysis", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestManualCheck(t *testing.T) {
	app, st := newTestApp(t)
	loc := st.SaveLocation(store.Location{Name: "Yutsa", Rules: forecast.DefaultRules(), Active: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/locations/"+loc.ID+"/check", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var analysis forecast.FullForecastAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	// Stub sources return no records: missing-provider path, not an error.
	if analysis.HasFlyableConditions || len(analysis.RejectionReasons) == 0 {
		t.Fatalf("analysis = %+v", analysis)
	}

	// The check is persisted and retrievable afterwards.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/locations/"+loc.ID+"/analysis", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analysis after check: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/locations/"+loc.ID+"/status", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after check: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/locations/"+loc.ID+"/windows", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("windows: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
