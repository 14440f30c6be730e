package model

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// LocalTimeLayout is how the backend writes date-times: no zone, second precision.
const LocalTimeLayout = "2006-01-02T15:04:05"

var localTimeLayouts = []string{
	LocalTimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.RFC3339Nano,
	"2006-01-02",
}

// LocalTime is a wall-clock timestamp without a zone, interpreted in time.Local.
type LocalTime struct {
	time.Time
}

func NewLocalTime(t time.Time) *LocalTime { return &LocalTime{Time: t} }

// ParseLocalTime accepts the backend layout, minute precision (HTML datetime-local),
// RFC 3339 and a bare date.
func ParseLocalTime(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range localTimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return LocalTime{Time: t}, nil
		}
	}
	return LocalTime{}, fmt.Errorf("parse time %q: expected YYYY-MM-DD[THH:MM[:SS]]", s)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(LocalTimeLayout) + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("local time: expected string, got %s", b)
	}
	parsed, err := ParseLocalTime(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Short formats for list rendering, e.g. "Jan 2, 2006".
func (t *LocalTime) Short() string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
