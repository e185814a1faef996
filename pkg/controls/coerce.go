package controls

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-mixinsform/pkg/model"
)

const decimalDigits = 2

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func toInt(value any) (int64, error) {
	switch typed := value.(type) {
	case int:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case int64:
		return typed, nil
	case float32:
		return floatToInt(float64(typed))
	case float64:
		return floatToInt(typed)
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return n, nil
		}
		f, err := typed.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	case string:
		s := strings.TrimSpace(typed)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", typed)
		}
		return floatToInt(f)
	default:
		return 0, fmt.Errorf("%T is not an integer", value)
	}
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	// 2^63 is exact in float64; anything at or beyond it overflows int64.
	if f >= 9223372036854775808 || f < -9223372036854775808 {
		return 0, fmt.Errorf("%v is out of the integer range", f)
	}
	return int64(f), nil
}

func toDecimal(value any) (float64, error) {
	var f float64
	switch typed := value.(type) {
	case int:
		f = float64(typed)
	case int64:
		f = float64(typed)
	case float32:
		f = float64(typed)
	case float64:
		f = typed
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", typed)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%T is not a number", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", f)
	}
	return roundDecimal(f), nil
}

func roundDecimal(f float64) float64 {
	scale := math.Pow10(decimalDigits)
	return math.Round(f*scale) / scale
}

func toBool(value any) (bool, error) {
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "on", "yes":
			return true, nil
		case "off", "no":
			return false, nil
		}
		return strconv.ParseBool(strings.TrimSpace(typed))
	default:
		return false, fmt.Errorf("%T is not a boolean", value)
	}
}

var (
	dateLayouts     = []string{time.RFC3339Nano, "2006-01-02"}
	dateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}
)

// parseTimestamp accepts a time.Time, an RFC 3339 string, or the value of a
// browser date / datetime-local input. Zone-less inputs are read as UTC.
func parseTimestamp(value any, kind model.FieldKind) (time.Time, error) {
	var ts time.Time
	switch typed := value.(type) {
	case time.Time:
		ts = typed
	case string:
		s := strings.TrimSpace(typed)
		layouts := dateTimeLayouts
		if kind == model.KindDate {
			layouts = dateLayouts
		}
		var err error
		for _, layout := range layouts {
			if ts, err = time.Parse(layout, s); err == nil {
				break
			}
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("%q is not a %s", typed, kind)
		}
	default:
		return time.Time{}, fmt.Errorf("%T is not a %s", value, kind)
	}
	ts = ts.UTC()
	if kind == model.KindDate {
		ts = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return ts, nil
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func displayTimestamp(ts time.Time, kind model.FieldKind) string {
	if kind == model.KindDate {
		return ts.Format("2006-01-02")
	}
	return ts.Format("2006-01-02T15:04")
}

// maskTime keeps at most four digits of s and lays them out as HH:MM,
// leaving partial input partial.
func maskTime(s string) string {
	digits := make([]rune, 0, 4)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == 4 {
				break
			}
		}
	}
	if len(digits) <= 2 {
		return string(digits)
	}
	return string(digits[:2]) + ":" + string(digits[2:])
}

func validTime(s string) bool {
	return timePattern.MatchString(s)
}
