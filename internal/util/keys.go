package util

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// StorageKey namespaces a formatted user key. The "entry:<ns>:" keyspace is
// owned by cacheaside; ns must not contain ':'.
func StorageKey(ns, key string) string {
	return "entry:" + ns + ":" + key
}

// Stripe maps a storage key onto one of n lock stripes. n must be > 0.
func Stripe(key string, n int) int {
	return int(xxhash.Sum64String(key) % uint64(n))
}

var stringerType = reflect.TypeFor[fmt.Stringer]()

// KeyFormatter returns the default formatter for K. Only kinds with an
// unambiguous rendering are accepted: strings, integers, bools and
// fmt.Stringer implementations. Anything else needs an explicit KeyFunc.
func KeyFormatter[K comparable]() (func(K) string, error) {
	t := reflect.TypeFor[K]()
	if t.Implements(stringerType) {
		return FormatKey[K], nil
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return FormatKey[K], nil
	}
	return nil, fmt.Errorf("no default key format for %s; set KeyFunc", t)
}

// FormatKey renders a key accepted by KeyFormatter. Common scalar types avoid
// reflection; named scalar types fall back to it.
func FormatKey[K comparable](k K) string {
	switch v := any(k).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(k)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	panic(fmt.Sprintf("util: no default key format for %T", k))
}

// IsNilKey reports whether k is a nil interface, pointer or channel.
func IsNilKey[K comparable](k K) bool {
	rv := reflect.ValueOf(any(k))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
