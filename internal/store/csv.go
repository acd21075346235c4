package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

const (
	columnTime = "time"
	columnCity = "city"
)

// timeLayouts are tried in order. Naive timestamps are read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses an ISO-8601 timestamp in any of the layouts the history
// file may carry.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

// LoadCSV reads the history file at path.
func LoadCSV(path string) ([]weather.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a history table. Columns are located by header name, so
// extra columns and any column order are accepted. Rows with an empty
// feature cell are skipped.
func ReadCSV(r io.Reader) ([]weather.Observation, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	timeCol, ok := idx[columnTime]
	if !ok {
		return nil, fmt.Errorf("missing column %q", columnTime)
	}
	cityCol, ok := idx[columnCity]
	if !ok {
		return nil, fmt.Errorf("missing column %q", columnCity)
	}
	var featCols [weather.NumFeatures]int
	for f, name := range weather.FeatureColumns {
		col, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		featCols[f] = col
	}

	var (
		out     []weather.Observation
		skipped int
		line    = 1
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := ParseTime(rec[timeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		o := weather.Observation{
			City: strings.TrimSpace(rec[cityCol]),
			Time: ts,
		}
		if o.City == "" {
			return nil, fmt.Errorf("line %d: empty city", line)
		}

		complete := true
		for f, col := range featCols {
			cell := strings.TrimSpace(rec[col])
			if cell == "" {
				complete = false
				break
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, weather.FeatureColumns[f], err)
			}
			// nan, inf and infinity parse successfully; treat them as missing.
			if math.IsNaN(v) || math.IsInf(v, 0) {
				complete = false
				break
			}
			o.Features[f] = v
		}
		if !complete {
			skipped++
			continue
		}
		out = append(out, o)
	}

	if skipped > 0 {
		log.Printf("WARN: skipped %d history rows with missing values", skipped)
	}
	return out, nil
}

// WriteCSV writes observations with the same header ReadCSV expects.
func WriteCSV(w io.Writer, obs []weather.Observation) error {
	cw := csv.NewWriter(w)

	header := append([]string{columnTime, columnCity}, weather.FeatureColumns[:]...)
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, o := range obs {
		rec[0] = o.Time.Format(time.RFC3339)
		rec[1] = o.City
		for f, v := range o.Features {
			rec[2+f] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes observations to path, replacing any existing file.
func SaveCSV(path string, obs []weather.Observation) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	if err := WriteCSV(f, obs); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write history: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
