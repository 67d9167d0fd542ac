package store

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TimeLayouts are tried in order when a patch carries a time as a string.
var TimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func defaultHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		timeHook,
		timePointerHook,
		stringSliceHook,
	}
}

// ParseTime parses str with the first matching layout in TimeLayouts.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %s", str)
}

// timeHook handles string -> time.Time
func timeHook(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	switch v := data.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, nil
		}
		return *v, nil
	case string:
		return ParseTime(v)
	}
	return data, nil
}

// timePointerHook handles string/time.Time -> *time.Time
func timePointerHook(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf((*time.Time)(nil)) {
		return data, nil
	}

	switch v := data.(type) {
	case *time.Time:
		return v, nil
	case time.Time:
		return &v, nil
	case string:
		t, err := ParseTime(v)
		if err != nil {
			return data, err
		}
		return &t, nil
	}
	return data, nil
}

// stringSliceHook handles []any -> []string
func stringSliceHook(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf([]string{}) {
		return data, nil
	}

	slice, ok := data.([]any)
	if !ok {
		return data, nil
	}

	result := make([]string, 0, len(slice))
	for _, v := range slice {
		s, ok := v.(string)
		if !ok {
			return data, fmt.Errorf("expected string element, got %T", v)
		}
		result = append(result, s)
	}
	return result, nil
}
