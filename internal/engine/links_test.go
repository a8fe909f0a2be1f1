package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/internal/access"
	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestCreateEntityLink(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, e *testEnv)
	}{
		{
			name: "links entities of one workspace",
			check: func(t *testing.T, e *testEnv) {
				block, task := e.block(t, "Notes"), e.task(t, "Build")
				link, err := e.svc.CreateEntityLink(e.ctx, block, task)
				require.NoError(t, err)
				assert.NotEmpty(t, link.ID)
				assert.Equal(t, e.workspaceID, link.WorkspaceID)
				assert.Equal(t, block, link.Source())
				assert.Equal(t, task, link.Target())
			},
		},
		{
			name: "self link rejected even for unknown entities",
			check: func(t *testing.T, e *testEnv) {
				for _, typ := range types.AllEntityTypes {
					key := types.EntityKey{Type: typ, ID: "nowhere"}
					_, err := e.svc.CreateEntityLink(e.ctx, key, key)
					assert.ErrorIs(t, err, types.ErrSelfReference, string(typ))
					assert.Equal(t, "Cannot link an entity to itself", types.Message(err))
				}
			},
		},
		{
			name: "cross workspace rejected",
			check: func(t *testing.T, e *testEnv) {
				_, foreign := e.otherWorkspace(t)
				_, err := e.svc.CreateEntityLink(e.ctx, e.task(t, "Local"), foreign)
				assert.ErrorIs(t, err, types.ErrCrossWorkspace)
				assert.Equal(t, "Cannot link entities from different workspaces", types.Message(err))
			},
		},
		{
			name: "duplicate rejected and stored once",
			check: func(t *testing.T, e *testEnv) {
				block, task := e.block(t, "Notes"), e.task(t, "Build")
				_, err := e.svc.CreateEntityLink(e.ctx, block, task)
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, block, task)
				assert.ErrorIs(t, err, types.ErrAlreadyExists)
				assert.Equal(t, "This link already exists", types.Message(err))

				links, err := e.svc.GetEntityLinks(e.ctx, block)
				require.NoError(t, err)
				assert.Len(t, links.Outgoing, 1)
			},
		},
		{
			name: "reverse direction is a separate link",
			check: func(t *testing.T, e *testEnv) {
				block, task := e.block(t, "Notes"), e.task(t, "Build")
				_, err := e.svc.CreateEntityLink(e.ctx, block, task)
				require.NoError(t, err)
				_, err = e.svc.CreateEntityLink(e.ctx, task, block)
				require.NoError(t, err)
			},
		},
		{
			name: "missing target not found",
			check: func(t *testing.T, e *testEnv) {
				_, err := e.svc.CreateEntityLink(e.ctx, e.task(t, "Build"), types.EntityKey{Type: types.EntityBlock, ID: "gone"})
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "non-member denied",
			check: func(t *testing.T, e *testEnv) {
				ctx := access.WithCaller(context.Background(), outsider)
				_, err := e.svc.CreateEntityLink(ctx, e.block(t, "Notes"), e.task(t, "Build"))
				assert.ErrorIs(t, err, types.ErrAccessDenied)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupEngine(t))
		})
	}
}

func TestCreateEntityLinkConcurrentDuplicates(t *testing.T) {
	e := setupEngine(t)
	block, task := e.block(t, "Notes"), e.task(t, "Build")

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.svc.CreateEntityLink(e.ctx, block, task)
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, types.ErrAlreadyExists)
	}
	assert.Equal(t, 1, created)
}

func TestRemoveEntityLinkIsIdempotent(t *testing.T) {
	e := setupEngine(t)
	block, task := e.block(t, "Notes"), e.task(t, "Build")
	_, err := e.svc.CreateEntityLink(e.ctx, block, task)
	require.NoError(t, err)

	require.NoError(t, e.svc.RemoveEntityLink(e.ctx, block, task))
	require.NoError(t, e.svc.RemoveEntityLink(e.ctx, block, task))

	links, err := e.svc.GetEntityLinks(e.ctx, block)
	require.NoError(t, err)
	assert.Empty(t, links.Outgoing)
	assert.Empty(t, links.Incoming)
}

func TestLinkedAndLinkingEntities(t *testing.T) {
	e := setupEngine(t)
	block := e.block(t, "Notes")
	first, second := e.task(t, "First"), e.task(t, "Second")
	for _, target := range []types.EntityKey{first, second} {
		_, err := e.svc.CreateEntityLink(e.ctx, block, target)
		require.NoError(t, err)
	}

	linked, err := e.svc.GetLinkedEntities(e.ctx, block)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, "First", linked[0].Title)
	assert.Equal(t, "Plan", linked[0].Context)
	assert.Equal(t, "Second", linked[1].Title)

	linking, err := e.svc.GetLinkingEntities(e.ctx, first)
	require.NoError(t, err)
	require.Len(t, linking, 1)
	assert.Equal(t, types.EntityReference{Type: types.EntityBlock, ID: block.ID, Title: "Notes", Context: "Plan"}, linking[0])

	require.NoError(t, e.backend.Records().DeleteRecord(context.Background(), second))
	linked, err = e.svc.GetLinkedEntities(e.ctx, block)
	require.NoError(t, err)
	require.Len(t, linked, 1, "deleted targets are dropped")
	assert.Equal(t, first.ID, linked[0].ID)
}

func TestSearchLinkableEntities(t *testing.T) {
	e := setupEngine(t)
	for i := range 3 {
		e.block(t, fmt.Sprintf("Alpha note %d", i))
		e.task(t, fmt.Sprintf("Alpha task %d", i))
	}
	e.task(t, "Unrelated")

	tests := []struct {
		name   string
		params SearchParams
		want   []string
	}{
		{
			name:   "earlier types consume the budget",
			params: SearchParams{Query: "alpha", Limit: 4},
			want:   []string{"Alpha note 0", "Alpha note 1", "Alpha note 2", "Alpha task 0"},
		},
		{
			name:   "prolific first type starves the rest",
			params: SearchParams{Query: "ALPHA", Limit: 3},
			want:   []string{"Alpha note 0", "Alpha note 1", "Alpha note 2"},
		},
		{
			name:   "explicit type order",
			params: SearchParams{Query: "alpha", EntityTypes: []types.EntityType{types.EntityTask, types.EntityBlock}, Limit: 2},
			want:   []string{"Alpha task 0", "Alpha task 1"},
		},
		{
			name:   "no match",
			params: SearchParams{Query: "zulu"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.WorkspaceID = e.workspaceID
			got, err := e.svc.SearchLinkableEntities(e.ctx, tt.params)
			require.NoError(t, err)
			titles := []string{}
			for _, r := range got {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	_, err := e.svc.SearchLinkableEntities(access.WithCaller(context.Background(), outsider), SearchParams{WorkspaceID: e.workspaceID})
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}
