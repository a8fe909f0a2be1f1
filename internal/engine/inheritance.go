package engine

import (
	"context"
	"sort"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// resolvedValues holds the values of a batch of entities, keyed by entity id
// then property id. inherited never contains a property the entity has a
// direct value for.
type resolvedValues struct {
	direct    map[string]map[string]any
	inherited map[string]map[string]any
}

// value returns the effective value of propertyID on id.
func (r resolvedValues) value(id, propertyID string) (any, bool) {
	if v, ok := r.direct[id][propertyID]; ok {
		return v, true
	}
	v, ok := r.inherited[id][propertyID]
	return v, ok
}

// resolveValues loads the direct values of ids (of targetType) restricted to
// propertyIDs, nil meaning all. With includeInherited it also follows
// incoming links one hop: every linking entity contributes its direct
// values for properties the target has no direct value for. A single
// contribution is taken as is; several contributions accumulate into one
// list in link order, with list values flattened into it.
func (s *Service) resolveValues(ctx context.Context, targetType types.EntityType, ids []string, propertyIDs []string, includeInherited bool) (resolvedValues, error) {
	direct, err := s.props.BatchValues(ctx, targetType, ids, propertyIDs)
	if err != nil {
		return resolvedValues{}, err
	}
	out := resolvedValues{direct: direct, inherited: map[string]map[string]any{}}
	if !includeInherited || len(ids) == 0 {
		return out, nil
	}

	links, err := s.links.IncomingBatch(ctx, targetType, ids)
	if err != nil {
		return resolvedValues{}, err
	}
	if len(links) == 0 {
		return out, nil
	}

	// Batch the sources per type, in first-seen order.
	var sourceTypes []types.EntityType
	sourceIDs := make(map[types.EntityType][]string)
	seen := make(map[types.EntityKey]bool)
	for _, l := range links {
		src := l.Source()
		if seen[src] {
			continue
		}
		seen[src] = true
		if _, ok := sourceIDs[src.Type]; !ok {
			sourceTypes = append(sourceTypes, src.Type)
		}
		sourceIDs[src.Type] = append(sourceIDs[src.Type], src.ID)
	}
	sourceValues := make(map[types.EntityType]map[string]map[string]any, len(sourceTypes))
	for _, t := range sourceTypes {
		vals, err := s.props.BatchValues(ctx, t, sourceIDs[t], propertyIDs)
		if err != nil {
			return resolvedValues{}, err
		}
		sourceValues[t] = vals
	}

	contributions := make(map[string]map[string][]any)
	for _, l := range links {
		target := l.TargetEntityID
		vals := sourceValues[l.SourceEntityType][l.SourceEntityID]
		for _, pid := range sortedKeys(vals) {
			if _, ok := direct[target][pid]; ok {
				continue
			}
			if contributions[target] == nil {
				contributions[target] = make(map[string][]any)
			}
			contributions[target][pid] = append(contributions[target][pid], vals[pid])
		}
	}

	for target, props := range contributions {
		merged := make(map[string]any, len(props))
		for pid, values := range props {
			if len(values) == 1 {
				merged[pid] = values[0]
				continue
			}
			acc := []any{}
			for _, v := range values {
				if list, ok := v.([]any); ok {
					acc = append(acc, list...)
					continue
				}
				acc = append(acc, v)
			}
			merged[pid] = acc
		}
		out.inherited[target] = merged
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
