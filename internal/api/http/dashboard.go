package httpapi

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

//go:embed templates/dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"temp": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"ts":   func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}).Parse(dashboardHTML))

const (
	chartWidth  = 720.0
	chartHeight = 280.0
	chartPad    = 36.0
)

type cityOption struct {
	ID       string
	Name     string
	Selected bool
}

type chartLabel struct {
	X, Y float64
	Text string
}

type chartView struct {
	Width, Height float64
	Polyline      string
	YLabels       []chartLabel
	XLabels       []chartLabel
}

type dashboardView struct {
	Cities   []cityOption
	City     string
	CityName string
	Result   *weather.Result
	Chart    *chartView
	Error    string
}

func dashboardHandler(service *weather.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cities := service.Cities()

		view := dashboardView{City: strings.TrimSpace(c.Query("city"))}
		if view.City == "" && len(cities) > 0 {
			view.City = cities[0]
		}
		view.CityName = DisplayName(view.City)
		for _, city := range cities {
			view.Cities = append(view.Cities, cityOption{
				ID:       city,
				Name:     DisplayName(city),
				Selected: city == view.City,
			})
		}

		if c.Query("run") != "" {
			result, err := service.Forecast(c.UserContext(), view.City)
			if err != nil {
				view.Error = dashboardError(view.City, err)
			} else {
				view.Result = result
				view.Chart = buildChart(result.Full)
			}
		}

		var buf bytes.Buffer
		if err := dashboardTmpl.Execute(&buf, view); err != nil {
			return err
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}

func dashboardError(city string, err error) string {
	var fe *fiber.Error
	if errors.As(forecastError(city, err), &fe) {
		return fe.Message
	}
	return "Error generating forecast: " + err.Error()
}

// buildChart projects the hourly points into SVG coordinates.
func buildChart(points []weather.Point) *chartView {
	if len(points) == 0 {
		return nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.PredTempC)
		hi = math.Max(hi, p.PredTempC)
	}
	lo, hi = math.Floor(lo)-1, math.Ceil(hi)+1

	plotW := chartWidth - 2*chartPad
	plotH := chartHeight - 2*chartPad
	x := func(i int) float64 {
		if len(points) == 1 {
			return chartPad
		}
		return chartPad + plotW*float64(i)/float64(len(points)-1)
	}
	y := func(v float64) float64 {
		return chartPad + plotH*(hi-v)/(hi-lo)
	}

	cv := &chartView{Width: chartWidth, Height: chartHeight}

	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(p.PredTempC))
		if p.HourAhead%24 == 0 {
			cv.XLabels = append(cv.XLabels, chartLabel{
				X:    x(i),
				Y:    chartHeight - chartPad/3,
				Text: p.Time.Format("Jan 2"),
			})
		}
	}
	cv.Polyline = strings.Join(coords, " ")

	for _, v := range []float64{lo, (lo + hi) / 2, hi} {
		cv.YLabels = append(cv.YLabels, chartLabel{
			X:    chartPad - 4,
			Y:    y(v),
			Text: fmt.Sprintf("%.1f", v),
		})
	}
	return cv
}
