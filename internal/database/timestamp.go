package database

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// millisecondCutoff separates unix seconds from unix milliseconds; in seconds
// it falls in the year 5138, in milliseconds in 1973.
const millisecondCutoff = 1e11

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp collapses the timestamp shapes found in legacy report
// documents into a single instant. It accepts time.Time, *time.Time,
// {seconds, nanoseconds} objects (with or without a leading underscore),
// ISO-8601 strings, and unix seconds or milliseconds. Anything else yields nil.
func NormalizeTimestamp(raw interface{}) *time.Time {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		t := v.UTC()
		return &t
	case *time.Time:
		if v == nil {
			return nil
		}
		return NormalizeTimestamp(*v)
	case string:
		return parseTimestampString(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return fromUnixNumber(f)
		}
		return nil
	case float64:
		return fromUnixNumber(v)
	case float32:
		return fromUnixNumber(float64(v))
	case int:
		return fromUnixNumber(float64(v))
	case int64:
		return fromUnixNumber(float64(v))
	case map[string]interface{}:
		return fromSecondsObject(v)
	default:
		return nil
	}
}

func parseTimestampString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromUnixNumber(f)
	}
	return nil
}

func fromUnixNumber(f float64) *time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return nil
	}
	var t time.Time
	if f >= millisecondCutoff {
		t = time.UnixMilli(int64(f)).UTC()
	} else {
		sec, frac := math.Modf(f)
		t = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return &t
}

func fromSecondsObject(m map[string]interface{}) *time.Time {
	secRaw, ok := m["seconds"]
	if !ok {
		secRaw, ok = m["_seconds"]
	}
	if !ok {
		return nil
	}
	sec, ok := toFloat(secRaw)
	if !ok {
		return nil
	}

	nanosRaw, ok := m["nanoseconds"]
	if !ok {
		nanosRaw = m["_nanoseconds"]
	}
	nanos, _ := toFloat(nanosRaw)

	t := time.Unix(int64(sec), int64(nanos)).UTC()
	return &t
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Timestamp decodes any NormalizeTimestamp shape from JSON
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if ts := NormalizeTimestamp(raw); ts != nil {
		t.Time, t.Valid = *ts, true
	} else {
		t.Time, t.Valid = time.Time{}, false
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// Ptr returns the instant or nil when invalid
func (t Timestamp) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
