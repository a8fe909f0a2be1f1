package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/internal/access"
	"github.com/mesh-intelligence/facets/internal/store"
	"github.com/mesh-intelligence/facets/pkg/types"
)

const (
	owner    = "user-owner"
	outsider = "user-outsider"
)

// testEnv is a service over a fresh SQLite backend with one seeded
// workspace. ctx carries the workspace owner as caller.
type testEnv struct {
	backend     *store.Backend
	svc         *Service
	ctx         context.Context
	workspaceID string
	projectID   string
	tabID       string
}

func setupEngine(t *testing.T) *testEnv {
	t.Helper()
	b := store.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	svc := New(Stores{
		Definitions: b.Definitions(),
		Properties:  b.Properties(),
		Links:       b.Links(),
		Members:     b.Members(),
		Records:     b.Records(),
	})

	ctx := context.Background()
	ws, err := b.Records().CreateWorkspace(ctx, "Acme", owner)
	require.NoError(t, err)
	p, err := b.Records().CreateProject(ctx, ws.ID, "Launch")
	require.NoError(t, err)
	tab, err := b.Records().CreateTab(ctx, p.ID, "Plan")
	require.NoError(t, err)

	return &testEnv{
		backend:     b,
		svc:         svc,
		ctx:         access.WithCaller(ctx, owner),
		workspaceID: ws.ID,
		projectID:   p.ID,
		tabID:       tab.ID,
	}
}

func (e *testEnv) task(t *testing.T, title string) types.EntityKey {
	t.Helper()
	id, err := e.backend.Records().CreateTask(context.Background(), e.tabID, title)
	require.NoError(t, err)
	return types.EntityKey{Type: types.EntityTask, ID: id}
}

func (e *testEnv) taskOn(t *testing.T, tabID, title string) types.EntityKey {
	t.Helper()
	id, err := e.backend.Records().CreateTask(context.Background(), tabID, title)
	require.NoError(t, err)
	return types.EntityKey{Type: types.EntityTask, ID: id}
}

func (e *testEnv) block(t *testing.T, text string) types.EntityKey {
	t.Helper()
	id, err := e.backend.Records().CreateBlock(context.Background(), e.tabID, "text", map[string]any{"text": text})
	require.NoError(t, err)
	return types.EntityKey{Type: types.EntityBlock, ID: id}
}

// tableRow creates a row in a fresh table whose primary field holds title.
func (e *testEnv) tableRow(t *testing.T, title string) types.EntityKey {
	t.Helper()
	ctx := context.Background()
	table, err := e.backend.Records().CreateTable(ctx, e.workspaceID, e.projectID, "", "Backlog")
	require.NoError(t, err)
	field, err := e.backend.Records().CreateTableField(ctx, table.ID, "Name", "text", true)
	require.NoError(t, err)
	id, err := e.backend.Records().CreateTableRow(ctx, table.ID, map[string]any{field.ID: title})
	require.NoError(t, err)
	return types.EntityKey{Type: types.EntityTableRow, ID: id}
}

// definition creates a definition in the test workspace.
func (e *testEnv) definition(t *testing.T, name string, typ types.PropertyType, labels ...string) *types.PropertyDefinition {
	t.Helper()
	var opts []types.PropertyOption
	for _, l := range labels {
		opts = append(opts, types.PropertyOption{Label: l})
	}
	created, err := e.svc.CreatePropertyDefinition(e.ctx, CreateDefinitionParams{
		WorkspaceID: e.workspaceID,
		Name:        name,
		Type:        typ,
		Options:     opts,
	})
	require.NoError(t, err)
	return created.Definition
}

// otherWorkspace creates a second workspace owned by the same user and
// returns a task in it.
func (e *testEnv) otherWorkspace(t *testing.T) (string, types.EntityKey) {
	t.Helper()
	ctx := context.Background()
	ws, err := e.backend.Records().CreateWorkspace(ctx, "Other", owner)
	require.NoError(t, err)
	p, err := e.backend.Records().CreateProject(ctx, ws.ID, "Elsewhere")
	require.NoError(t, err)
	tab, err := e.backend.Records().CreateTab(ctx, p.ID, "Notes")
	require.NoError(t, err)
	return ws.ID, e.taskOn(t, tab.ID, "Foreign task")
}

func optionID(t *testing.T, def *types.PropertyDefinition, label string) string {
	t.Helper()
	o, ok := def.Option(label)
	require.True(t, ok, "option %q", label)
	return o.ID
}
