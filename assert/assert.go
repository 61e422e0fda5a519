// Package assert provides the small set of test assertions used across the
// module's tests. Every helper takes a message describing what is checked.
package assert

import (
	"cmp"
	"reflect"
	"strings"
	"testing"
)

func Equal(t testing.TB, expected, actual any, msg string) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("%s: expected %#v, got %#v", msg, expected, actual)
	}
}

func NotEqual(t testing.TB, expected, actual any, msg string) {
	t.Helper()
	if reflect.DeepEqual(expected, actual) {
		t.Errorf("%s: expected values to differ, both are %#v", msg, actual)
	}
}

func True(t testing.TB, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", msg)
	}
}

func False(t testing.TB, cond bool, msg string) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", msg)
	}
}

// Nil reports whether v is nil, including typed nils (nil slices, maps, pointers).
func Nil(t testing.TB, v any, msg string) {
	t.Helper()
	if !isNil(v) {
		t.Errorf("%s: expected nil, got %#v", msg, v)
	}
}

func NotNil(t testing.TB, v any, msg string) {
	t.Helper()
	if isNil(v) {
		t.Errorf("%s: expected non-nil", msg)
	}
}

func NoError(t testing.TB, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

func Error(t testing.TB, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
	}
}

// Len checks the length of a slice, map, string, array or channel.
func Len(t testing.TB, expected int, v any, msg string) {
	t.Helper()
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array, reflect.Chan:
		if rv.Len() != expected {
			t.Errorf("%s: expected length %d, got %d", msg, expected, rv.Len())
		}
	case reflect.Invalid:
		if expected != 0 {
			t.Errorf("%s: expected length %d, got nil", msg, expected)
		}
	default:
		t.Errorf("%s: Len called on unsupported kind %s", msg, rv.Kind())
	}
}

func Contains(t testing.TB, s, substr string, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: %q does not contain %q", msg, s, substr)
	}
}

func Greater[T cmp.Ordered](t testing.TB, a, b T, msg string) {
	t.Helper()
	if a <= b {
		t.Errorf("%s: expected %v > %v", msg, a, b)
	}
}

func GreaterOrEqual[T cmp.Ordered](t testing.TB, a, b T, msg string) {
	t.Helper()
	if a < b {
		t.Errorf("%s: expected %v >= %v", msg, a, b)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
