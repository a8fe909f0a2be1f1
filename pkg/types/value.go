package types

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// optionRefKeys are checked, in order, to read an option reference out of an
// object-shaped value.
var optionRefKeys = []string{"id", "value", "name", "label"}

// CanonicalValue validates v against the definition's type and returns the
// form that is stored. Option references are reduced to option ids, numbers
// to float64, and multi-select values to a de-duplicated []any of option ids.
// It returns an ErrValidation error when v does not fit the type.
func CanonicalValue(def *PropertyDefinition, v any) (any, error) {
	if v == nil {
		return nil, Invalidf("A value is required for %q; remove the property instead", def.Name)
	}
	switch def.Type {
	case PropertyText, PropertyPerson:
		s, ok := v.(string)
		if !ok {
			return nil, Invalidf("%q expects a text value", def.Name)
		}
		return s, nil
	case PropertyURL:
		s, ok := v.(string)
		if !ok {
			return nil, Invalidf("%q expects a URL", def.Name)
		}
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, Invalidf("%q expects an absolute URL", def.Name)
		}
		return strings.TrimSpace(s), nil
	case PropertyNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, Invalidf("%q expects a number", def.Name)
		}
		return f, nil
	case PropertyCheckbox:
		b, ok := v.(bool)
		if !ok {
			return nil, Invalidf("%q expects true or false", def.Name)
		}
		return b, nil
	case PropertyDate:
		s, ok := v.(string)
		if !ok || !validDate(strings.TrimSpace(s)) {
			return nil, Invalidf("%q expects a date (YYYY-MM-DD or RFC 3339)", def.Name)
		}
		return strings.TrimSpace(s), nil
	case PropertySelect, PropertyStatus, PropertyPriority:
		return canonicalOption(def, v)
	case PropertyMultiSelect:
		items, ok := toSlice(v)
		if !ok {
			return nil, Invalidf("%q expects a list of options", def.Name)
		}
		out := make([]any, 0, len(items))
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			id, err := canonicalOption(def, item)
			if err != nil {
				return nil, err
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		return out, nil
	}
	return nil, Invalidf("Unknown property type %q", def.Type)
}

// canonicalOption resolves an option reference to an option id. Definitions
// without options accept any non-empty string.
func canonicalOption(def *PropertyDefinition, v any) (string, error) {
	ref, ok := OptionRef(v)
	if !ok || strings.TrimSpace(ref) == "" {
		return "", Invalidf("%q expects an option", def.Name)
	}
	if len(def.Options) == 0 {
		return strings.TrimSpace(ref), nil
	}
	opt, found := def.Option(ref)
	if !found {
		return "", Invalidf("%q has no option %q", def.Name, ref)
	}
	return opt.ID, nil
}

// OptionRef extracts an option reference from a string or from an object
// carrying one of the id, value, name or label keys (checked in that order).
func OptionRef(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case map[string]any:
		for _, k := range optionRefKeys {
			if s, ok := x[k].(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// IsEmptyValue reports whether v counts as no value: nil, the empty string
// or an empty list.
func IsEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	}
	return false
}

func validDate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
