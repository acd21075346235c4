package httpapi

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/lstm-weather-forecast/internal/store"
	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/", dashboardHandler(service))

	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities := service.Cities()
		out := make([]fiber.Map, 0, len(cities))
		for _, city := range cities {
			last, rows, err := service.Latest(city)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read city history")
			}
			out = append(out, fiber.Map{
				"city":         city,
				"name":         DisplayName(city),
				"rows":         rows,
				"lastObserved": last.Time,
			})
		}
		return c.JSON(fiber.Map{"cities": out})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Forecast(c.UserContext(), q.City)
		if err != nil {
			return forecastError(q.City, err)
		}

		return c.JSON(fiber.Map{
			"id":           uuid.NewString(),
			"city":         result.City,
			"name":         DisplayName(result.City),
			"lastObserved": result.LastTime,
			"full":         result.Full,
			"display":      result.Display,
		})
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := service.History(req.City.City, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"city":         req.City.City,
			"from":         req.From,
			"to":           req.To,
			"observations": rows,
		})
	})
}

// forecastError maps pipeline errors to HTTP errors. Insufficient history is
// shown verbatim; anything unexpected becomes a generic message.
func forecastError(city string, err error) error {
	var short *weather.InsufficientHistoryError
	switch {
	case errors.As(err, &short):
		return fiber.NewError(fiber.StatusUnprocessableEntity, short.Error())
	case errors.Is(err, weather.ErrGappedWindow):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, weather.ErrUnknownCity):
		return fiber.NewError(fiber.StatusNotFound, "no weather history for requested city")
	default:
		log.Printf("ERROR: forecast for %s failed: %v", city, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Error generating forecast: "+err.Error())
	}
}

// DisplayName turns a city identifier such as "new_york" into "New York".
func DisplayName(city string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(city, "_", " "))
}

// cityQuery holds the query parameter identifying a city.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	var q cityQuery

	q.City = strings.TrimSpace(c.Query("city"))

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	City cityQuery
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return err
	}
	h.City = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
