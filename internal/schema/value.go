package schema

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout dates are stored in change-sets and rendered with.
const DateLayout = "2006-01-02"

var (
	errNotText = errors.New("must be text")
	errNotBool = errors.New("must be true or false")
	errNotDate = errors.New("must be a date (YYYY-MM-DD)")
)

// Normalize converts a raw json value into the canonical form stored in
// change-sets. Dates become YYYY-MM-DD strings, phones lose separators.
func Normalize(fd FieldDescriptor, raw any) (any, error) {
	switch fd.Kind {
	case KindBool:
		return normalizeBool(raw)
	case KindDate:
		return normalizeDate(raw)
	}

	var s string
	switch x := raw.(type) {
	case nil:
		s = ""
	case string:
		s = x
	case float64, int, int64, bool:
		if fd.Kind != KindFK && fd.Kind != KindPhone && fd.Kind != KindString {
			return nil, errNotText
		}
		s = stringOf(x)
	default:
		return nil, errNotText
	}
	if fd.Kind == KindSecret {
		return s, nil
	}
	s = strings.TrimSpace(s)
	if fd.Kind == KindPhone {
		s = normalizePhone(s)
	}
	return s, nil
}

func normalizePhone(s string) string {
	s = strings.TrimPrefix(s, "+")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
}

func normalizeBool(raw any) (any, error) {
	switch x := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0", "":
			return false, nil
		}
	case float64:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	}
	return nil, errNotBool
}

func normalizeDate(raw any) (any, error) {
	switch x := raw.(type) {
	case nil:
		return "", nil
	case time.Time:
		return x.UTC().Format(DateLayout), nil
	case *time.Time:
		if x == nil {
			return "", nil
		}
		return x.UTC().Format(DateLayout), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "", nil
		}
		t, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		return t.Format(DateLayout), nil
	}
	return nil, errNotDate
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns a UTC midnight date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errNotDate
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ColumnValue converts a normalized value into what the column accepts.
func ColumnValue(fd FieldDescriptor, v any) (any, error) {
	if fd.Kind != KindDate {
		return v, nil
	}
	s, _ := v.(string)
	if s == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fd.Name, err)
	}
	return t, nil
}

// IsEmpty reports whether a normalized value counts as missing.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
