package langopts

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestConvertValue(t *testing.T) {
	if n, err := convertValue[int](KeyRegexGroup, "4"); err != nil || n != 4 {
		t.Fatalf("expected 4, got %d err=%v", n, err)
	}
	if n, err := convertValue[int](KeyRegexGroup, json.Number("2")); err != nil || n != 2 {
		t.Fatalf("expected 2, got %d err=%v", n, err)
	}
	if f, err := convertValue[float64](KeyUnfoldedOpacity, 1); err != nil || f != 1 {
		t.Fatalf("expected 1, got %v err=%v", f, err)
	}
	list, err := convertValue[[]any](KeySupportedLanguages, []string{"go"})
	if err != nil || !reflect.DeepEqual(list, []any{"go"}) {
		t.Fatalf("unexpected list %v err=%v", list, err)
	}

	failures := []func() error{
		func() error { _, err := convertValue[int](KeyRegexGroup, 1.5); return err },
		func() error { _, err := convertValue[int](KeyRegexGroup, "two"); return err },
		func() error { _, err := convertValue[float64](KeyUnfoldedOpacity, "0.5"); return err },
		func() error { _, err := convertValue[[]string](KeySupportedLanguages, []any{"go", 1}); return err },
		func() error { _, err := convertValue[bool](KeyAutoFold, "true"); return err },
	}
	for i, fn := range failures {
		var typeErr *TypeError
		if err := fn(); !errors.As(err, &typeErr) {
			t.Fatalf("case %d: expected TypeError, got %v", i, err)
		}
	}
}

func TestTruthy(t *testing.T) {
	falsy := []any{nil, false, "", 0.0, 0, math.NaN(), json.Number("0")}
	for _, value := range falsy {
		if truthy(value) {
			t.Fatalf("expected %v to be falsy", value)
		}
	}
	truthyValues := []any{true, "false", 1.0, 3, []any{}, map[string]any{}}
	for _, value := range truthyValues {
		if !truthy(value) {
			t.Fatalf("expected %v to be truthy", value)
		}
	}
}
