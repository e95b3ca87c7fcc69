package langopts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// convertValue coerces the decoded shapes settings files produce into T.
// Supported targets beyond direct assertion: string, bool, float64, int,
// []string and []any.
func convertValue[T any](key Key, raw any) (T, error) {
	var zero T
	if typed, ok := raw.(T); ok {
		return typed, nil
	}
	var out any
	var err error
	switch any(zero).(type) {
	case float64:
		out, err = toFloat(key, raw)
	case int:
		out, err = toInt(key, raw)
	case []string:
		out, err = toStrings(key, raw)
	case []any:
		out, err = toAnySlice(key, raw)
	default:
		return zero, &TypeError{Key: key, Want: fmt.Sprintf("%T", zero), Got: raw}
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

func toFloat(key Key, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, &TypeError{Key: key, Want: "number", Got: raw}
		}
		return f, nil
	default:
		return 0, &TypeError{Key: key, Want: "number", Got: raw}
	}
}

func toInt(key Key, raw any) (int, error) {
	if s, ok := raw.(string); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, &TypeError{Key: key, Want: "integer", Got: raw}
		}
		return n, nil
	}
	f, err := toFloat(key, raw)
	if err != nil {
		return 0, &TypeError{Key: key, Want: "integer", Got: raw}
	}
	if f != math.Trunc(f) {
		return 0, &TypeError{Key: key, Want: "integer", Got: raw}
	}
	return int(f), nil
}

func toStrings(key Key, raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Key: key, Want: "[]string", Got: raw}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &TypeError{Key: key, Want: "[]string", Got: raw}
	}
}

func toAnySlice(key Key, raw any) ([]any, error) {
	switch v := raw.(type) {
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	default:
		return nil, &TypeError{Key: key, Want: "[]any", Got: raw}
	}
}

// truthy mirrors how the editor host coerces a setting in a boolean
// context: false, zero, NaN, the empty string and absent values are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case float32:
		return v != 0 && !math.IsNaN(float64(v))
	case int:
		return v != 0
	case int64:
		return v != 0
	case int32:
		return v != 0
	case uint64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}
