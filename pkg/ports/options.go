package ports

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Options holds plugin options. Values are nil, bool, int64, float64 or string.
type Options map[string]interface{}

// ParseOptions parses "key=value,key=value". "none" (any case) yields a
// nil value, "true"/"false" booleans, and numeric literals int64 or
// float64. Everything else is kept as a string.
func ParseOptions(s string) (Options, error) {
	opts := Options{}
	s = strings.TrimSpace(s)
	if s == "" {
		return opts, nil
	}
	for _, pair := range strings.Split(s, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", pair)
		}
		opts[key] = parseValue(strings.TrimSpace(value))
	}
	return opts, nil
}

func parseValue(v string) interface{} {
	switch strings.ToLower(v) {
	case "none":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// Merge returns a copy of o overlaid with other.
func (o Options) Merge(other Options) Options {
	out := make(Options, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Has reports whether key is present, even with a nil value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Int returns key as an int, or def when absent or nil.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return def, fmt.Errorf("option %s: %v is not an integer", key, v)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return def, fmt.Errorf("option %s: %q is not an integer", key, n)
		}
		return i, nil
	default:
		return def, fmt.Errorf("option %s: %v is not an integer", key, v)
	}
}

// Float returns key as a float64, or def when absent or nil.
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return def, fmt.Errorf("option %s: %q is not a number", key, n)
		}
		return f, nil
	default:
		return def, fmt.Errorf("option %s: %v is not a number", key, v)
	}
}

// Bool returns key as a bool, or def when absent or nil.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def, fmt.Errorf("option %s: %q is not a boolean", key, b)
		}
		return parsed, nil
	default:
		return def, fmt.Errorf("option %s: %v is not a boolean", key, v)
	}
}

// String returns key formatted as a string, or def when absent or nil.
func (o Options) String(key string, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Strings returns key split on '|' (the separator that survives the
// comma-separated option syntax), or def when absent.
func (o Options) Strings(key string, def []string) []string {
	s := o.String(key, "")
	if s == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Keys returns the option names in sorted order.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
