package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Number accepts a JSON number, a numeric string, or null.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("dto: invalid number %q", s)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 { return float64(n) }

// Int truncates the value.
func (n Number) Int() int { return int(n) }

// pick returns the first non-empty value, used for the id/_id duality.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseTime accepts RFC3339 timestamps and plain calendar dates.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Ref is a field that holds either a bare id string or an embedded object.
type Ref struct {
	ID  string
	Raw json.RawMessage
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = Ref{}
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
	case b[0] == '{':
		*r = Ref{Raw: append(json.RawMessage(nil), b...)}
	default:
		return fmt.Errorf("dto: unexpected reference %s", string(b))
	}
	return nil
}

// IsObject reports whether the reference carried an embedded record.
func (r Ref) IsObject() bool { return len(r.Raw) > 0 }
