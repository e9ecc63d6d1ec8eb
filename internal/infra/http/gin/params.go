package ginserver

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"homio/internal/domain/shared/daterange"
)

// flexibleDate accepts "2006-01-02" or RFC 3339 in JSON bodies and keeps
// the calendar day the caller wrote, whatever its offset.
type flexibleDate struct {
	time.Time
}

func (d *flexibleDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	day, err := daterange.Parse(raw)
	if err != nil {
		return err
	}
	d.Time = day
	return nil
}

// csvList accepts either a JSON array of strings or one comma separated string.
type csvList []string

func (l *csvList) UnmarshalJSON(data []byte) error {
	if data = []byte(strings.TrimSpace(string(data))); len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = splitCSV(raw)
	return nil
}

// splitCSV drops blank entries; an input with none left yields nil.
func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Query-string numbers are lenient: garbage and negatives read as zero,
// which the search layer treats as "no filter".
func parseInt(raw string) int { return nonNegative(raw, strconv.Atoi) }

func parseInt64(raw string) int64 {
	return nonNegative(raw, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func parseFloat(raw string) float64 {
	return nonNegative(raw, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func nonNegative[T int | int64 | float64](raw string, parse func(string) (T, error)) T {
	v, err := parse(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
