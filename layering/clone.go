// Package layering holds the copy helpers that keep scope layers immutable
// once a snapshot is built.
package layering

import (
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Clone returns a deep copy of value. Maps, slices, arrays, pointers and
// structs are copied recursively so the result shares no mutable state with
// value. time.Time is copied by value; other structs lose their unexported
// fields.
func Clone[T any](value T) T {
	switch v := any(value).(type) {
	case nil:
		return value
	case string, bool, float64, int, int64, time.Time:
		return value
	case map[string]any:
		return any(cloneObject(v)).(T)
	case []any:
		return any(cloneList(v)).(T)
	case []string:
		if v == nil {
			return value
		}
		return any(append([]string{}, v...)).(T)
	}

	src := reflect.ValueOf(value)
	dst := reflect.New(src.Type()).Elem()
	copyInto(dst, src)
	return dst.Interface().(T)
}

// cloneObject and cloneList cover the shapes decoded settings files produce
// without going through reflection.
func cloneObject(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = Clone(value)
	}
	return out
}

func cloneList(list []any) []any {
	if list == nil {
		return nil
	}
	out := make([]any, len(list))
	for i, value := range list {
		out[i] = Clone(value)
	}
	return out
}

// copyInto deep copies src into dst, which must be settable and of the
// same type.
func copyInto(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Interface:
		if src.IsNil() {
			return
		}
		inner := reflect.New(src.Elem().Type()).Elem()
		copyInto(inner, src.Elem())
		dst.Set(inner)
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		target := reflect.New(src.Type().Elem())
		copyInto(target.Elem(), src.Elem())
		dst.Set(target)
	case reflect.Map:
		if src.IsNil() {
			return
		}
		out := reflect.MakeMapWithSize(src.Type(), src.Len())
		entries := src.MapRange()
		for entries.Next() {
			value := reflect.New(src.Type().Elem()).Elem()
			copyInto(value, entries.Value())
			out.SetMapIndex(entries.Key(), value)
		}
		dst.Set(out)
	case reflect.Slice:
		if src.IsNil() {
			return
		}
		out := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			copyInto(out.Index(i), src.Index(i))
		}
		dst.Set(out)
	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			copyInto(dst.Index(i), src.Index(i))
		}
	case reflect.Struct:
		if src.Type() == timeType {
			dst.Set(src)
			return
		}
		for i := 0; i < src.NumField(); i++ {
			if field := dst.Field(i); field.CanSet() {
				copyInto(field, src.Field(i))
			}
		}
	default:
		dst.Set(src)
	}
}
