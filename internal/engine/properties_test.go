package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/internal/access"
	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestSetEntityProperty(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, e *testEnv)
	}{
		{
			name: "number canonicalized and last write wins",
			check: func(t *testing.T, e *testEnv) {
				def := e.definition(t, "Estimate", types.PropertyNumber)
				task := e.task(t, "Ship it")
				_, err := e.svc.SetEntityProperty(e.ctx, task, def.ID, "2")
				require.NoError(t, err)
				got, err := e.svc.SetEntityProperty(e.ctx, task, def.ID, 5)
				require.NoError(t, err)
				assert.Equal(t, 5.0, got.Value)

				vals, err := e.svc.GetEntityProperties(e.ctx, task)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{def.ID: 5.0}, vals)
			},
		},
		{
			name: "select stores the option id",
			check: func(t *testing.T, e *testEnv) {
				def := e.definition(t, "Priority", types.PropertySelect, "low", "high")
				task := e.task(t, "Ship it")
				got, err := e.svc.SetEntityProperty(e.ctx, task, def.ID, map[string]any{"label": "High"})
				require.NoError(t, err)
				assert.Equal(t, optionID(t, def, "high"), got.Value)
			},
		},
		{
			name: "mismatched value rejected",
			check: func(t *testing.T, e *testEnv) {
				def := e.definition(t, "Done", types.PropertyCheckbox)
				task := e.task(t, "Ship it")
				_, err := e.svc.SetEntityProperty(e.ctx, task, def.ID, "yes")
				assert.ErrorIs(t, err, types.ErrValidation)
			},
		},
		{
			name: "unknown entity not found",
			check: func(t *testing.T, e *testEnv) {
				def := e.definition(t, "Done", types.PropertyCheckbox)
				_, err := e.svc.SetEntityProperty(e.ctx, types.EntityKey{Type: types.EntityTask, ID: "missing"}, def.ID, true)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "definition of another workspace not found",
			check: func(t *testing.T, e *testEnv) {
				otherWS, _ := e.otherWorkspace(t)
				created, err := e.svc.CreatePropertyDefinition(e.ctx, CreateDefinitionParams{
					WorkspaceID: otherWS, Name: "Done", Type: types.PropertyCheckbox,
				})
				require.NoError(t, err)
				_, err = e.svc.SetEntityProperty(e.ctx, e.task(t, "Ship it"), created.Definition.ID, true)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "non-member denied before any write",
			check: func(t *testing.T, e *testEnv) {
				def := e.definition(t, "Done", types.PropertyCheckbox)
				task := e.task(t, "Ship it")
				ctx := access.WithCaller(context.Background(), outsider)
				_, err := e.svc.SetEntityProperty(ctx, task, def.ID, true)
				assert.ErrorIs(t, err, types.ErrAccessDenied)

				vals, err := e.svc.GetEntityProperties(e.ctx, task)
				require.NoError(t, err)
				assert.Empty(t, vals)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupEngine(t))
		})
	}
}

func TestRemoveEntityPropertyIsIdempotent(t *testing.T) {
	e := setupEngine(t)
	def := e.definition(t, "Estimate", types.PropertyNumber)
	task := e.task(t, "Ship it")
	_, err := e.svc.SetEntityProperty(e.ctx, task, def.ID, 1)
	require.NoError(t, err)

	require.NoError(t, e.svc.RemoveEntityProperty(e.ctx, task, def.ID))
	require.NoError(t, e.svc.RemoveEntityProperty(e.ctx, task, def.ID))
	require.NoError(t, e.svc.RemoveEntityProperty(e.ctx, task, "never-set"))

	vals, err := e.svc.GetEntityProperties(e.ctx, task)
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestGetEntitiesProperties(t *testing.T) {
	e := setupEngine(t)
	def := e.definition(t, "Estimate", types.PropertyNumber)
	a := e.task(t, "A")
	b := e.task(t, "B")
	_, err := e.svc.SetEntityProperty(e.ctx, a, def.ID, 1)
	require.NoError(t, err)

	got, err := e.svc.GetEntitiesProperties(e.ctx, types.EntityTask, []string{a.ID, b.ID, "gone"})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]any{
		a.ID: {def.ID: 1.0},
		b.ID: {},
	}, got)

	_, foreign := e.otherWorkspace(t)
	ctx := access.WithCaller(context.Background(), outsider)
	_, err = e.svc.GetEntitiesProperties(ctx, types.EntityTask, []string{foreign.ID})
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestGetEntityPropertiesWithInheritance(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, e *testEnv, def *types.PropertyDefinition)
	}{
		{
			name: "inherits from a linking entity",
			check: func(t *testing.T, e *testEnv, def *types.PropertyDefinition) {
				block, task := e.block(t, "Notes"), e.task(t, "Build")
				_, err := e.svc.SetEntityProperty(e.ctx, block, def.ID, "blocked")
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, block, task)
				require.NoError(t, err)

				got, err := e.svc.GetEntityPropertiesWithInheritance(e.ctx, task)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{def.ID: "blocked"}, got)
			},
		},
		{
			name: "direct value wins",
			check: func(t *testing.T, e *testEnv, def *types.PropertyDefinition) {
				block, task := e.block(t, "Notes"), e.task(t, "Build")
				_, err := e.svc.SetEntityProperty(e.ctx, block, def.ID, "blocked")
				require.NoError(t, err)
				_, err = e.svc.SetEntityProperty(e.ctx, task, def.ID, "done")
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, block, task)
				require.NoError(t, err)

				got, err := e.svc.GetEntityPropertiesWithInheritance(e.ctx, task)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{def.ID: "done"}, got)
			},
		},
		{
			name: "several sources accumulate in link order",
			check: func(t *testing.T, e *testEnv, def *types.PropertyDefinition) {
				first, second, task := e.block(t, "One"), e.block(t, "Two"), e.task(t, "Build")
				_, err := e.svc.SetEntityProperty(e.ctx, first, def.ID, "blocked")
				require.NoError(t, err)
				_, err = e.svc.SetEntityProperty(e.ctx, second, def.ID, "review")
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, first, task)
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, second, task)
				require.NoError(t, err)

				got, err := e.svc.GetEntityPropertiesWithInheritance(e.ctx, task)
				require.NoError(t, err)
				assert.Equal(t, []any{"blocked", "review"}, got[def.ID])
			},
		},
		{
			name: "single hop only",
			check: func(t *testing.T, e *testEnv, def *types.PropertyDefinition) {
				root, middle, leaf := e.block(t, "Root"), e.task(t, "Middle"), e.task(t, "Leaf")
				_, err := e.svc.SetEntityProperty(e.ctx, root, def.ID, "blocked")
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, root, middle)
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, middle, leaf)
				require.NoError(t, err)

				got, err := e.svc.GetEntityPropertiesWithInheritance(e.ctx, leaf)
				require.NoError(t, err)
				assert.Empty(t, got)
			},
		},
		{
			name: "hidden inherited value omitted",
			check: func(t *testing.T, e *testEnv, def *types.PropertyDefinition) {
				block, task := e.block(t, "Notes"), e.task(t, "Build")
				_, err := e.svc.SetEntityProperty(e.ctx, block, def.ID, "blocked")
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, block, task)
				require.NoError(t, err)

				require.NoError(t, e.svc.SetInheritedPropertyVisibility(e.ctx, task, def.ID, false))
				got, err := e.svc.GetEntityPropertiesWithInheritance(e.ctx, task)
				require.NoError(t, err)
				assert.Empty(t, got)

				_, err = e.svc.SetEntityProperty(e.ctx, task, def.ID, "done")
				require.NoError(t, err)
				got, err = e.svc.GetEntityPropertiesWithInheritance(e.ctx, task)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{def.ID: "done"}, got, "direct values are never hidden")

				require.NoError(t, e.svc.RemoveEntityProperty(e.ctx, task, def.ID))
				require.NoError(t, e.svc.SetInheritedPropertyVisibility(e.ctx, task, def.ID, true))
				got, err = e.svc.GetEntityPropertiesWithInheritance(e.ctx, task)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{def.ID: "blocked"}, got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setupEngine(t)
			tt.check(t, e, e.definition(t, "Status", types.PropertyStatus))
		})
	}
}
