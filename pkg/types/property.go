package types

import (
	"strings"
	"time"
)

// PropertyType determines what values a property definition accepts.
type PropertyType string

// Property types.
const (
	PropertyText        PropertyType = "text"
	PropertyNumber      PropertyType = "number"
	PropertyDate        PropertyType = "date"
	PropertySelect      PropertyType = "select"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyStatus      PropertyType = "status"
	PropertyPriority    PropertyType = "priority"
	PropertyPerson      PropertyType = "person"
	PropertyCheckbox    PropertyType = "checkbox"
	PropertyURL         PropertyType = "url"
)

// validPropertyTypes is the set of recognized property types.
var validPropertyTypes = map[PropertyType]bool{
	PropertyText:        true,
	PropertyNumber:      true,
	PropertyDate:        true,
	PropertySelect:      true,
	PropertyMultiSelect: true,
	PropertyStatus:      true,
	PropertyPriority:    true,
	PropertyPerson:      true,
	PropertyCheckbox:    true,
	PropertyURL:         true,
}

// Valid reports whether t is a recognized property type.
func (t PropertyType) Valid() bool {
	return validPropertyTypes[t]
}

// HasOptions reports whether values of this type reference an option set.
func (t PropertyType) HasOptions() bool {
	switch t {
	case PropertySelect, PropertyMultiSelect, PropertyStatus, PropertyPriority:
		return true
	}
	return false
}

// PropertyOption is one entry of a definition's ordered option set.
type PropertyOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// PropertyDefinition is a workspace-scoped schema for one named, typed attribute.
type PropertyDefinition struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspace_id"`
	Name        string           `json:"name"`
	Type        PropertyType     `json:"type"`
	Options     []PropertyOption `json:"options"`
	EmptyLabel  string           `json:"empty_label"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Option finds an option by id, or by label compared after NormalizeName.
func (d *PropertyDefinition) Option(ref string) (PropertyOption, bool) {
	for _, o := range d.Options {
		if o.ID == ref {
			return o, true
		}
	}
	norm := NormalizeName(ref)
	if norm == "" {
		return PropertyOption{}, false
	}
	for _, o := range d.Options {
		if NormalizeName(o.Label) == norm {
			return o, true
		}
	}
	return PropertyOption{}, false
}

// NoValueLabel returns the label of the group holding entities without a value.
func (d *PropertyDefinition) NoValueLabel() string {
	if d.EmptyLabel != "" {
		return d.EmptyLabel
	}
	return DefaultEmptyLabel(d.Name, d.Type)
}

// PropertyDefinitionUpdate carries the mutable fields of a definition. Nil
// fields are left unchanged.
type PropertyDefinitionUpdate struct {
	Name       *string       `json:"name,omitempty"`
	Type       *PropertyType `json:"type,omitempty"`
	EmptyLabel *string       `json:"empty_label,omitempty"`
}

// DefaultEmptyLabel picks the empty-value label for a new definition from its
// declared type, falling back to "No <name>".
func DefaultEmptyLabel(name string, t PropertyType) string {
	switch t {
	case PropertyStatus:
		return "No Status"
	case PropertyPriority:
		return "No Priority"
	case PropertyPerson:
		return "Unassigned"
	case PropertyDate:
		return "No Date"
	}
	return "No " + strings.TrimSpace(name)
}

// NormalizeName lower-cases s, trims it and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SimilarNames reports whether two names are near misses of each other:
// distinct after normalization but within an edit distance of two, or one
// containing the other. Identical normalized names are a conflict, not a
// near miss, and return false.
func SimilarNames(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" || na == nb {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return editDistance(na, nb) <= 2
}

// editDistance is the Levenshtein distance between a and b over runes.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
