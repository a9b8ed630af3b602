package internal

import (
	"reflect"
	"strconv"
)

// Scalar lists the types typed input helpers convert to.
// Named types over them (type UserID int64) convert as well.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns a value stored with Set, or the zero value of T.
func ContextValue[T any](c *Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param returns a typed route parameter. Unparsable values yield the zero value.
func Param[T Scalar](c *Context, name string) T {
	return parseOr(c.Param(name), *new(T))
}

// Query returns a typed query string value.
func Query[T Scalar](c *Context, name string) T {
	return parseOr(c.Query(name), *new(T))
}

// QueryDefault is Query with a fallback for missing or unparsable values.
func QueryDefault[T Scalar](c *Context, name string, def T) T {
	return parseOr(c.Query(name), def)
}

// Input returns a typed POST value, falling back to the query string.
// Sanitized fields are converted after sanitizing.
func Input[T Scalar](c *Context, name string) T {
	return parseOr(c.Input(name), *new(T))
}

// InputDefault is Input with a fallback for missing or unparsable values.
func InputDefault[T Scalar](c *Context, name string, def T) T {
	return parseOr(c.Input(name), def)
}

// parseOr converts raw into T by the kind of T, returning def when raw is
// empty or does not parse.
func parseOr[T Scalar](raw string, def T) T {
	if raw == "" {
		return def
	}

	var out T
	dst := reflect.ValueOf(&out).Elem()
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return def
		}
		dst.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return def
		}
		dst.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return def
		}
		dst.SetBool(b)
	default:
		return def
	}
	return out
}
