package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// matchesFilter applies one filter to a value. present is false when the
// entity has no value for the property at all.
func matchesFilter(def *types.PropertyDefinition, value any, present bool, f types.PropertyFilter) bool {
	switch f.Operator {
	case types.OpIsEmpty:
		return !present || types.IsEmptyValue(value)
	case types.OpIsNotEmpty:
		return present && !types.IsEmptyValue(value)
	case types.OpEquals:
		return present && equalsFilter(def, value, f.Value)
	case types.OpNotEquals:
		return !present || !equalsFilter(def, value, f.Value)
	case types.OpContains:
		return present && containsFilter(def, value, f.Value)
	}
	return false
}

// equalsFilter compares the value's comparable strings with the filter
// value. On option-typed definitions an option id and its label are
// interchangeable.
func equalsFilter(def *types.PropertyDefinition, value, want any) bool {
	target, ok := comparableScalar(want)
	if !ok {
		return false
	}
	targets := aliases(def, target)
	for _, c := range comparables(value) {
		for _, t := range targets {
			if c == t {
				return true
			}
		}
	}
	return false
}

// containsFilter is a case-insensitive substring match. On option-typed
// definitions a stored option id also matches through its label. Non-string
// filter values never match.
func containsFilter(def *types.PropertyDefinition, value, want any) bool {
	s, ok := want.(string)
	if !ok {
		return false
	}
	needle := normalize(s)
	for _, c := range comparables(value) {
		for _, candidate := range labelsFor(def, c) {
			if strings.Contains(candidate, needle) {
				return true
			}
		}
	}
	return false
}

// labelsFor returns c together with the normalized label of the option whose
// id is c.
func labelsFor(def *types.PropertyDefinition, c string) []string {
	out := []string{c}
	if def == nil || !def.Type.HasOptions() {
		return out
	}
	for _, o := range def.Options {
		if normalize(o.ID) == c {
			out = append(out, normalize(o.Label))
		}
	}
	return out
}

// aliases returns the normalized forms a filter value may match: itself,
// plus the id and label of the option it names.
func aliases(def *types.PropertyDefinition, target string) []string {
	out := []string{target}
	if def == nil || !def.Type.HasOptions() {
		return out
	}
	for _, o := range def.Options {
		id, label := normalize(o.ID), normalize(o.Label)
		switch target {
		case id:
			out = append(out, label)
		case label:
			out = append(out, id)
		}
	}
	return out
}

// comparables flattens a stored value into normalized strings. Lists
// contribute each element; objects contribute their first id, value, name
// or label field.
func comparables(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		var out []string
		for _, item := range x {
			out = append(out, comparables(item)...)
		}
		return out
	case []string:
		out := make([]string, 0, len(x))
		for _, s := range x {
			out = append(out, normalize(s))
		}
		return out
	case map[string]any:
		if ref, ok := types.OptionRef(x); ok {
			return []string{normalize(ref)}
		}
		return nil
	}
	if s, ok := comparableScalar(v); ok {
		return []string{s}
	}
	return nil
}

// comparableScalar renders a scalar as a normalized string.
func comparableScalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return normalize(x), true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case map[string]any:
		if ref, ok := types.OptionRef(x); ok {
			return normalize(ref), true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// groupKey renders a scalar value as a group key.
func groupKey(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any:
		if ref, ok := types.OptionRef(x); ok {
			return ref
		}
	}
	return fmt.Sprint(v)
}
