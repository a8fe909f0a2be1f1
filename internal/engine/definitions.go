package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// CreateDefinitionParams describes a new property definition. EmptyLabel
// defaults from the type and name.
type CreateDefinitionParams struct {
	WorkspaceID string                 `json:"workspace_id"`
	Name        string                 `json:"name"`
	Type        types.PropertyType     `json:"type"`
	Options     []types.PropertyOption `json:"options,omitempty"`
	EmptyLabel  string                 `json:"empty_label,omitempty"`
}

// DefinitionCreated is the result of CreatePropertyDefinition. Warning is set
// when existing definitions have names close to the new one.
type DefinitionCreated struct {
	Definition   *types.PropertyDefinition `json:"definition"`
	Warning      string                    `json:"warning,omitempty"`
	SimilarNames []string                  `json:"similar_names,omitempty"`
}

// OptionUpdate carries the mutable fields of an option. Nil fields are left
// unchanged.
type OptionUpdate struct {
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CreatePropertyDefinition adds a definition to a workspace. A name equal to
// an existing one after normalization fails with ErrAlreadyExists; a near
// miss succeeds with a warning.
func (s *Service) CreatePropertyDefinition(ctx context.Context, p CreateDefinitionParams) (*DefinitionCreated, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, p.WorkspaceID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, types.Invalidf("Property name is required")
	}
	if !p.Type.Valid() {
		return nil, types.Invalidf("Unknown property type %q", p.Type)
	}
	if len(p.Options) > 0 && !p.Type.HasOptions() {
		return nil, types.Invalidf("Properties of type %q do not have options", p.Type)
	}
	options, err := cleanOptions(p.Options)
	if err != nil {
		return nil, err
	}

	existing, err := s.defs.Definitions(ctx, p.WorkspaceID)
	if err != nil {
		return nil, err
	}
	var similar []string
	for _, d := range existing {
		if types.NormalizeName(d.Name) == types.NormalizeName(name) {
			return nil, types.Errorf(types.ErrAlreadyExists, "A property named %q already exists in this workspace", d.Name)
		}
		if types.SimilarNames(d.Name, name) {
			similar = append(similar, d.Name)
		}
	}

	emptyLabel := strings.TrimSpace(p.EmptyLabel)
	if emptyLabel == "" {
		emptyLabel = types.DefaultEmptyLabel(name, p.Type)
	}
	def := &types.PropertyDefinition{
		WorkspaceID: p.WorkspaceID,
		Name:        name,
		Type:        p.Type,
		Options:     options,
		EmptyLabel:  emptyLabel,
	}
	if err := s.defs.CreateDefinition(ctx, def); err != nil {
		return nil, err
	}

	out := &DefinitionCreated{Definition: def, SimilarNames: similar}
	if len(similar) > 0 {
		out.Warning = fmt.Sprintf("Similar properties already exist: %s", strings.Join(similar, ", "))
	}
	s.logger.Debug("property definition created",
		zap.String("workspace_id", def.WorkspaceID),
		zap.String("property_id", def.ID),
		zap.Int("similar", len(similar)),
	)
	return out, nil
}

// GetPropertyDefinition returns one definition with its options.
func (s *Service) GetPropertyDefinition(ctx context.Context, id string) (*types.PropertyDefinition, error) {
	return s.authorizeDefinition(ctx, id)
}

// GetPropertyDefinitions lists a workspace's definitions, oldest first.
func (s *Service) GetPropertyDefinitions(ctx context.Context, workspaceID string) ([]types.PropertyDefinition, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.defs.Definitions(ctx, workspaceID)
}

// UpdatePropertyDefinition renames a definition, changes its type or its
// empty label. The type can only change while no entity holds a value for
// the definition. Changing to a type without options drops the option set.
func (s *Service) UpdatePropertyDefinition(ctx context.Context, id string, u types.PropertyDefinitionUpdate) (*types.PropertyDefinition, error) {
	def, err := s.authorizeDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, types.Invalidf("Property name is required")
		}
		def.Name = name
	}
	if u.Type != nil {
		if !u.Type.Valid() {
			return nil, types.Invalidf("Unknown property type %q", *u.Type)
		}
		if *u.Type != def.Type {
			n, err := s.props.CountValues(ctx, def.ID)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				return nil, types.Invalidf("Cannot change the type of %q while %d entities have a value for it", def.Name, n)
			}
		}
		def.Type = *u.Type
	}
	if u.EmptyLabel != nil {
		label := strings.TrimSpace(*u.EmptyLabel)
		if label == "" {
			label = types.DefaultEmptyLabel(def.Name, def.Type)
		}
		def.EmptyLabel = label
	}
	if err := s.defs.UpdateDefinition(ctx, def); err != nil {
		return nil, err
	}
	if !def.Type.HasOptions() && len(def.Options) > 0 {
		def.Options = []types.PropertyOption{}
		if err := s.defs.SaveOptions(ctx, def.ID, def.Options); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("property definition updated", zap.String("property_id", def.ID))
	return def, nil
}

// DeletePropertyDefinition removes a definition together with its options,
// stored values and visibility flags.
func (s *Service) DeletePropertyDefinition(ctx context.Context, id string) error {
	def, err := s.authorizeDefinition(ctx, id)
	if err != nil {
		return err
	}
	if err := s.defs.DeleteDefinition(ctx, def.ID); err != nil {
		return err
	}
	s.logger.Debug("property definition deleted",
		zap.String("workspace_id", def.WorkspaceID),
		zap.String("property_id", def.ID),
	)
	return nil
}

// MergePropertyOptions folds options into the definition's option set.
// Each incoming option matches an existing one by id, else by normalized
// label; matches take the incoming label and color, the rest are appended
// in order. Existing options not mentioned are kept.
func (s *Service) MergePropertyOptions(ctx context.Context, id string, options []types.PropertyOption) (*types.PropertyDefinition, error) {
	def, err := s.optionDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := append([]types.PropertyOption(nil), def.Options...)
	for _, in := range options {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, types.Invalidf("Option label is required")
		}
		idx := indexOfOption(merged, in.ID, label)
		if idx < 0 {
			merged = append(merged, types.PropertyOption{ID: in.ID, Label: label, Color: in.Color})
			continue
		}
		merged[idx].Label = label
		if in.Color != "" {
			merged[idx].Color = in.Color
		}
	}
	return s.saveOptions(ctx, def, merged)
}

// AddPropertyOption appends one option.
func (s *Service) AddPropertyOption(ctx context.Context, id string, option types.PropertyOption) (*types.PropertyDefinition, error) {
	def, err := s.optionDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	label := strings.TrimSpace(option.Label)
	if label == "" {
		return nil, types.Invalidf("Option label is required")
	}
	if indexOfOption(def.Options, "", label) >= 0 {
		return nil, types.Errorf(types.ErrAlreadyExists, "Option %q already exists", label)
	}
	opts := append(append([]types.PropertyOption(nil), def.Options...),
		types.PropertyOption{Label: label, Color: option.Color})
	return s.saveOptions(ctx, def, opts)
}

// UpdatePropertyOption relabels or recolors one option.
func (s *Service) UpdatePropertyOption(ctx context.Context, id, optionID string, u OptionUpdate) (*types.PropertyDefinition, error) {
	def, err := s.optionDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	opts := append([]types.PropertyOption(nil), def.Options...)
	idx := indexOfOption(opts, optionID, "")
	if idx < 0 || optionID == "" {
		return nil, types.NotFoundf("Option not found")
	}
	if u.Label != nil {
		label := strings.TrimSpace(*u.Label)
		if label == "" {
			return nil, types.Invalidf("Option label is required")
		}
		if other := indexOfOption(opts, "", label); other >= 0 && other != idx {
			return nil, types.Errorf(types.ErrAlreadyExists, "Option %q already exists", label)
		}
		opts[idx].Label = label
	}
	if u.Color != nil {
		opts[idx].Color = *u.Color
	}
	return s.saveOptions(ctx, def, opts)
}

// RemovePropertyOption deletes one option. Values that still reference it
// are kept and group under their raw value.
func (s *Service) RemovePropertyOption(ctx context.Context, id, optionID string) (*types.PropertyDefinition, error) {
	def, err := s.optionDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := indexOfOption(def.Options, optionID, "")
	if idx < 0 || optionID == "" {
		return nil, types.NotFoundf("Option not found")
	}
	opts := append(append([]types.PropertyOption(nil), def.Options[:idx]...), def.Options[idx+1:]...)
	return s.saveOptions(ctx, def, opts)
}

// optionDefinition authorizes and loads a definition whose type has options.
func (s *Service) optionDefinition(ctx context.Context, id string) (*types.PropertyDefinition, error) {
	def, err := s.authorizeDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	if !def.Type.HasOptions() {
		return nil, types.Invalidf("Properties of type %q do not have options", def.Type)
	}
	return def, nil
}

func (s *Service) saveOptions(ctx context.Context, def *types.PropertyDefinition, opts []types.PropertyOption) (*types.PropertyDefinition, error) {
	opts, err := cleanOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := s.defs.SaveOptions(ctx, def.ID, opts); err != nil {
		return nil, err
	}
	s.logger.Debug("property options saved",
		zap.String("property_id", def.ID),
		zap.Int("options", len(opts)),
	)
	return s.defs.Definition(ctx, def.ID)
}

// cleanOptions trims labels and rejects empty or duplicate labels.
func cleanOptions(in []types.PropertyOption) ([]types.PropertyOption, error) {
	out := make([]types.PropertyOption, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, o := range in {
		o.Label = strings.TrimSpace(o.Label)
		if o.Label == "" {
			return nil, types.Invalidf("Option label is required")
		}
		norm := types.NormalizeName(o.Label)
		if seen[norm] {
			return nil, types.Errorf(types.ErrAlreadyExists, "Option %q already exists", o.Label)
		}
		seen[norm] = true
		out = append(out, o)
	}
	return out, nil
}

// indexOfOption finds an option by id, else by normalized label.
func indexOfOption(opts []types.PropertyOption, id, label string) int {
	if id != "" {
		for i, o := range opts {
			if o.ID == id {
				return i
			}
		}
	}
	if norm := types.NormalizeName(label); norm != "" {
		for i, o := range opts {
			if types.NormalizeName(o.Label) == norm {
				return i
			}
		}
	}
	return -1
}
