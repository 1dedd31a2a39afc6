package models

import (
	"fmt"
	"strings"
	"time"
)

// TimeInterval is a half-open [start, end) period, the unit of "when" a
// query runs over. Its wire form is two RFC3339 timestamps joined by a
// slash, e.g. "2000-01-01T00:00:00Z/2000-01-02T00:00:00Z".
type TimeInterval struct {
	start time.Time
	end   time.Time
}

func NewTimeInterval(start, end time.Time) TimeInterval {
	return TimeInterval{start: start, end: end}
}

// ParseTimeInterval parses the "<start>/<end>" wire form. Both halves must
// be valid RFC3339 timestamps or parsing fails.
func ParseTimeInterval(period string) (TimeInterval, error) {
	parts := strings.Split(period, "/")
	if len(parts) != 2 {
		return TimeInterval{}, fmt.Errorf("parse time interval %q: expected exactly one '/': %w", period, ErrInvalidInterval)
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return TimeInterval{}, fmt.Errorf("parse time interval %q: start: %v: %w", period, err, ErrInvalidInterval)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return TimeInterval{}, fmt.Errorf("parse time interval %q: end: %v: %w", period, err, ErrInvalidInterval)
	}
	return TimeInterval{start: start.UTC(), end: end.UTC()}, nil
}

func (t TimeInterval) Start() time.Time { return t.start }
func (t TimeInterval) End() time.Time   { return t.end }

func (t TimeInterval) Duration() time.Duration {
	return t.end.Sub(t.start)
}

func (t TimeInterval) String() string {
	return t.start.Format(time.RFC3339) + "/" + t.end.Format(time.RFC3339)
}

// MarshalJSON and UnmarshalJSON let TimeInterval appear as a plain JSON
// string in query request bodies, matching the wire format clients send.
func (t TimeInterval) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeInterval) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	ti, err := ParseTimeInterval(s)
	if err != nil {
		return err
	}
	*t = ti
	return nil
}

// Intersects reports whether t and o share any instant.
func (t TimeInterval) Intersects(o TimeInterval) bool {
	return t.start.Before(o.end) && o.start.Before(t.end)
}

// Union returns the interval spanning both t and o, and true, if and only
// if they intersect or touch; otherwise ok is false and the zero value is
// returned.
func (t TimeInterval) Union(o TimeInterval) (TimeInterval, bool) {
	touchesOrOverlaps := (t.start.Before(o.end) || t.start.Equal(o.end)) &&
		(o.start.Before(t.end) || o.start.Equal(t.end))
	if !touchesOrOverlaps {
		return TimeInterval{}, false
	}
	start := t.start
	if o.start.Before(start) {
		start = o.start
	}
	end := t.end
	if o.end.After(end) {
		end = o.end
	}
	return TimeInterval{start: start, end: end}, true
}
