package types

// ScopeKind bounds a query to the whole workspace, one project or one tab.
type ScopeKind string

// Scope kinds.
const (
	ScopeAll     ScopeKind = "all"
	ScopeProject ScopeKind = "project"
	ScopeTab     ScopeKind = "tab"
)

// Scope is the resolved query boundary handed to record stores.
type Scope struct {
	Kind      ScopeKind
	ProjectID string
	TabID     string
}

// FilterOperator is the comparison applied by a PropertyFilter.
type FilterOperator string

// Filter operators.
const (
	OpEquals     FilterOperator = "equals"
	OpNotEquals  FilterOperator = "not_equals"
	OpContains   FilterOperator = "contains"
	OpIsEmpty    FilterOperator = "is_empty"
	OpIsNotEmpty FilterOperator = "is_not_empty"
)

// NeedsValue reports whether the operator compares against a filter value.
func (op FilterOperator) NeedsValue() bool {
	return op == OpEquals || op == OpNotEquals || op == OpContains
}

// Valid reports whether op is a recognized operator.
func (op FilterOperator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpIsEmpty, OpIsNotEmpty:
		return true
	}
	return false
}

// PropertyFilter is one predicate over a property value.
type PropertyFilter struct {
	PropertyDefinitionID string         `json:"property_definition_id"`
	Operator             FilterOperator `json:"operator"`
	Value                any            `json:"value,omitempty"`
}

// Validate rejects unknown operators and filters missing their operands.
func (f PropertyFilter) Validate() error {
	if f.PropertyDefinitionID == "" {
		return Invalidf("Filter is missing property_definition_id")
	}
	if !f.Operator.Valid() {
		return Invalidf("Unknown filter operator %q", f.Operator)
	}
	if f.Operator.NeedsValue() && f.Value == nil {
		return Invalidf("Filter operator %q requires a value", f.Operator)
	}
	return nil
}

// QueryEntitiesParams selects entities of a workspace by type, scope and
// property filters.
type QueryEntitiesParams struct {
	WorkspaceID      string           `json:"workspace_id"`
	EntityTypes      []EntityType     `json:"entity_types"`
	Scope            ScopeKind        `json:"scope"`
	ProjectID        string           `json:"project_id,omitempty"`
	TabID            string           `json:"tab_id,omitempty"`
	Properties       []PropertyFilter `json:"properties"`
	IncludeInherited bool             `json:"include_inherited"`
}

// Validate checks the workspace, the entity types, the scope and every filter.
func (p QueryEntitiesParams) Validate() error {
	if p.WorkspaceID == "" {
		return Invalidf("Workspace id is required")
	}
	for _, t := range p.EntityTypes {
		if !t.Valid() {
			return Invalidf("Unknown entity type %q", t)
		}
	}
	switch p.Scope {
	case "", ScopeAll:
	case ScopeProject:
		if p.ProjectID == "" {
			return Invalidf("Project scope requires project_id")
		}
	case ScopeTab:
		if p.TabID == "" {
			return Invalidf("Tab scope requires tab_id")
		}
	default:
		return Invalidf("Unknown scope %q", p.Scope)
	}
	for _, f := range p.Properties {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ResolvedScope returns the Scope record stores filter candidates by.
func (p QueryEntitiesParams) ResolvedScope() Scope {
	switch p.Scope {
	case ScopeProject:
		return Scope{Kind: ScopeProject, ProjectID: p.ProjectID}
	case ScopeTab:
		return Scope{Kind: ScopeTab, TabID: p.TabID}
	}
	return Scope{Kind: ScopeAll}
}

// Types returns the requested entity types, or all types when none were named.
func (p QueryEntitiesParams) Types() []EntityType {
	if len(p.EntityTypes) == 0 {
		return AllEntityTypes
	}
	return p.EntityTypes
}

// NoValueGroupKey is the key of the group that collects entities without a
// value for the grouping property. It is always the last group.
const NoValueGroupKey = "__no_value__"

// GroupedEntitiesResult is one bucket of a grouped query.
type GroupedEntitiesResult struct {
	GroupKey   string            `json:"group_key"`
	GroupLabel string            `json:"group_label"`
	Entities   []EntityReference `json:"entities"`
}
