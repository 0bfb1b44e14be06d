// Package jsonutil decodes loosely-typed JSON from web clients. Rule options
// and scenario payloads arrive from several frontends that disagree on
// whether years are numbers or strings and how dates are formatted.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases
// where clients send numbers or booleans instead of strings. Returns empty
// string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleIntValue converts a json.RawMessage to an int, accepting both
// numbers and numeric strings. Returns false for null, empty, or
// non-numeric values.
func FlexibleIntValue(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return int(numVal), true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(strVal))
		if err != nil {
			return 0, false
		}
		return n, true
	}

	return 0, false
}

// FlexibleDateValue converts a json.RawMessage to a UTC date, accepting both
// "2006-01-02" and RFC 3339 strings. Returns false for null, empty, or
// unparseable values.
func FlexibleDateValue(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return time.Time{}, false
	}
	strVal = strings.TrimSpace(strVal)

	if t, err := time.Parse("2006-01-02", strVal); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, strVal); err == nil {
		return t.UTC(), true
	}

	return time.Time{}, false
}
