// Package normalize turns loosely-typed client payloads into records that
// match whatever schema the live table actually has. Clients of different
// vintages send name or first_name/last_name, photo or picture_path,
// strings where numbers belong, and assorted truthy spellings of booleans.
// Everything here is a pure function over the payload plus a column
// snapshot; nothing touches storage.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dojoadmin_go/models"
	"dojoadmin_go/utils"
)

// Record is a loosely-typed payload as decoded from JSON.
type Record map[string]any

// RenewalOffsetDays is the default membership term: renewal_date defaults
// to join_date plus 28 calendar days.
const RenewalOffsetDays = 28

// DateFormat is the storage format for all date columns.
const DateFormat = "2006-01-02"

var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true,
	"dr": true, "sensei": true, "sifu": true, "coach": true,
}

// SplitName splits a full name on the first whitespace run: first token
// becomes the first name, the remainder the last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// StripHonorific removes a leading honorific ("Mr", "Mrs.", "Dr", ...)
// from a name, case-insensitively, with or without a trailing dot.
func StripHonorific(full string) string {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return strings.TrimSpace(full)
	}
	lead := strings.ToLower(strings.TrimSuffix(parts[0], "."))
	if honorifics[lead] {
		return strings.Join(parts[1:], " ")
	}
	return strings.TrimSpace(full)
}

// CoerceBool maps 1, "1", true and "true" to true and everything else,
// including absence, to false.
func CoerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || strings.EqualFold(t, "true")
	case int:
		return t == 1
	case int64:
		return t == 1
	case float64:
		return t == 1
	default:
		return false
	}
}

// CoerceInt converts a numeric payload value to *int. Empty string and
// nil become nil, a storage NULL, never zero.
func CoerceInt(v any) (*int, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, &models.ValidationError{Message: fmt.Sprintf("not a number: %q", t)}
		}
		return &n, nil
	case float64:
		n := int(t)
		return &n, nil
	case int:
		return &t, nil
	case int64:
		n := int(t)
		return &n, nil
	default:
		return nil, &models.ValidationError{Message: fmt.Sprintf("not a number: %v", v)}
	}
}

// CoerceAmount converts a payload value to a decimal amount. Empty string
// and nil yield zero with ok=false so callers can apply create defaults.
func CoerceAmount(v any) (amt decimal.Decimal, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false, &models.ValidationError{Field: "amount", Message: fmt.Sprintf("not a number: %q", t)}
		}
		return d, true, nil
	case float64:
		return decimal.NewFromFloat(t), true, nil
	case int:
		return decimal.NewFromInt(int64(t)), true, nil
	case int64:
		return decimal.NewFromInt(t), true, nil
	default:
		return decimal.Zero, false, &models.ValidationError{Field: "amount", Message: fmt.Sprintf("not a number: %v", v)}
	}
}

// AddDays applies calendar arithmetic to a YYYY-MM-DD date string. Month
// and year rollover follow the calendar, not a fixed number of seconds.
func AddDays(date string, days int) (string, error) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return "", &models.ValidationError{Message: fmt.Sprintf("bad date %q", date)}
	}
	return t.AddDate(0, 0, days).Format(DateFormat), nil
}

// validDate rejects explicit date inputs that are not real YYYY-MM-DD
// dates. Defaults never pass through here.
func validDate(field, v string) error {
	if !utils.IsValidDate(v) {
		return &models.ValidationError{Field: field, Message: fmt.Sprintf("bad date %q", v)}
	}
	return nil
}

// str renders a payload value as the string to store. JSON numbers
// arrive as float64 and must not pick up exponent notation, so numerics
// are formatted explicitly.
func str(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := utils.SanitizeString(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// firstString returns the first non-empty string among the given keys.
func firstString(raw Record, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, present := raw[k]; present {
			if s, ok := str(v); ok {
				return s, true
			}
		}
	}
	return "", false
}
