package weather

import (
	"time"
)

// ExtractWindow returns the last length rows of a city's series together
// with the timestamp of the final row. The series must already be sorted by
// time. Rows that are not exactly one hour apart are counted in Window.Gaps;
// they are not filled or rejected here.
func ExtractWindow(series []Observation, city string, length int) (Window, error) {
	if len(series) < length {
		return Window{}, &InsufficientHistoryError{City: city, Have: len(series), Need: length}
	}

	rows := series[len(series)-length:]
	w := Window{
		City:     city,
		Rows:     rows,
		LastTime: rows[len(rows)-1].Time,
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Time.Sub(rows[i-1].Time) != time.Hour {
			w.Gaps++
		}
	}
	return w, nil
}
