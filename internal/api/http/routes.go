package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/kelvins/geocoder"

	"flywatch/internal/forecast"
	"flywatch/internal/monitor"
	"flywatch/internal/store"
)

var validate = validator.New()

// Deps bundles what the HTTP handlers need.
type Deps struct {
	Store   *store.MemoryStore
	Monitor *monitor.Service

	// GeocoderAPIKey enables address-based location creation; empty
	// disables geocoding and requires explicit coordinates.
	GeocoderAPIKey string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Post("/locations", func(c *fiber.Ctx) error {
		var req createLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		lat, lon, err := resolveCoordinates(req, deps.GeocoderAPIKey)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rules := forecast.DefaultRules()
		if req.Rules != nil {
			rules = *req.Rules
		}
		if err := rules.Validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		loc := deps.Store.SaveLocation(store.Location{
			ChatID:    req.ChatID,
			Name:      req.Name,
			Latitude:  lat,
			Longitude: lon,
			Rules:     rules,
			Active:    active,
		})
		return c.Status(fiber.StatusCreated).JSON(loc)
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"locations": deps.Store.ListLocations()})
	})

	v1.Get("/locations/:id", func(c *fiber.Ctx) error {
		loc, err := deps.Store.GetLocation(c.Params("id"))
		if err != nil {
			return locationError(err)
		}
		return c.JSON(loc)
	})

	v1.Delete("/locations/:id", func(c *fiber.Ctx) error {
		if err := deps.Store.DeleteLocation(c.Params("id")); err != nil {
			return locationError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Manual analysis run, independent of the scheduler.
	v1.Post("/locations/:id/check", func(c *fiber.Ctx) error {
		loc, err := deps.Store.GetLocation(c.Params("id"))
		if err != nil {
			return locationError(err)
		}
		analysis, err := deps.Monitor.CheckLocation(c.Context(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(analysis)
	})

	v1.Get("/locations/:id/analysis", func(c *fiber.Ctx) error {
		if _, err := deps.Store.GetLocation(c.Params("id")); err != nil {
			return locationError(err)
		}
		analysis, err := deps.Store.LatestAnalysis(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no analysis recorded for location yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load analysis")
		}
		return c.JSON(analysis)
	})

	v1.Get("/locations/:id/windows", func(c *fiber.Ctx) error {
		if _, err := deps.Store.GetLocation(c.Params("id")); err != nil {
			return locationError(err)
		}
		return c.JSON(fiber.Map{
			"active":  deps.Store.ActiveWindows(c.Params("id")),
			"records": deps.Store.WindowRecords(c.Params("id")),
		})
	})

	v1.Get("/locations/:id/status", func(c *fiber.Ctx) error {
		if _, err := deps.Store.GetLocation(c.Params("id")); err != nil {
			return locationError(err)
		}
		status, err := deps.Store.GetStatus(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "location has not been checked yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load status")
		}
		return c.JSON(status)
	})
}

func locationError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "location not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to load location")
}

// createLocationRequest accepts either explicit coordinates or a
// city/country pair to geocode.
type createLocationRequest struct {
	Name      string            `json:"name" validate:"required"`
	ChatID    int64             `json:"chatId"`
	Latitude  *float64          `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64          `json:"longitude" validate:"omitempty,min=-180,max=180"`
	City      string            `json:"city"`
	Country   string            `json:"country"`
	Rules     *forecast.RuleSet `json:"rules"`
	Active    *bool             `json:"active"`
}

func resolveCoordinates(req createLocationRequest, geocoderKey string) (float64, float64, error) {
	if req.Latitude != nil && req.Longitude != nil {
		return *req.Latitude, *req.Longitude, nil
	}
	if req.City == "" {
		return 0, 0, errors.New("either latitude/longitude or city must be provided")
	}
	if geocoderKey == "" {
		return 0, 0, errors.New("geocoding is not configured; provide latitude/longitude")
	}

	geocoder.ApiKey = geocoderKey
	location, err := geocoder.Geocoding(geocoder.Address{
		City:    req.City,
		Country: req.Country,
	})
	if err != nil {
		return 0, 0, errors.New("failed to geocode city: " + err.Error())
	}
	return location.Latitude, location.Longitude, nil
}
