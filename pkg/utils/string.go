package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

var (
	errFailedToConvertStringToType = func(t any, err error) error { return fmt.Errorf("failed to convert string to type %T: %w", t, err) }
)

// FromString parses the textual form used by environment variables and CLI
// flags. Slices are comma separated; blank items are dropped.
func FromString[T any](str string) (T, error) {
	var empty T

	str = strings.TrimSpace(str)

	switch any(empty).(type) {
	case string:
		val, _ := any(str).(T)
		return val, nil
	case bool:
		val, err := strconv.ParseBool(str)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(val).(T)

		return typeVal, nil
	case int:
		val, err := strconv.Atoi(str)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(val).(T)

		return typeVal, nil
	case float64:
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(val).(T)

		return typeVal, nil
	case time.Duration:
		val, err := time.ParseDuration(str)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(val).(T)

		return typeVal, nil
	case []string:
		items := lo.FilterMap(strings.Split(str, ","), func(item string, _ int) (string, bool) {
			item = strings.TrimSpace(item)
			return item, item != ""
		})

		typeVal, _ := any(items).(T)

		return typeVal, nil
	default:
		return empty, fmt.Errorf("unsupported type %T", empty)
	}
}
