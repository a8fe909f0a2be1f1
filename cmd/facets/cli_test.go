package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/internal/engine"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// cliEnv runs commands in-process against a private config and data dir.
type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
}

// resetFlags restores every command flag variable to its default so runs do
// not leak state into each other.
func resetFlags() {
	flagConfigDir, flagDataDir, flagUser, flagJSON = "", "", "", false
	memberRole = "member"
	recordProject, recordTab, recordStart, recordEnd, recordPrimary = "", "", "", "", false
	defType, defEmptyLabel, defName, optionLabel, optionColor = string(types.PropertyText), "", "", "", ""
	searchTypes, searchLimit = "", engine.DefaultSearchLimit
	queryTypes, queryScope, queryProject, queryTab = "", string(types.ScopeAll), "", ""
	queryFilters, queryInherited, queryGroupBy = nil, false, ""
}

// run executes the CLI as user and returns stdout.
func (e *cliEnv) run(t *testing.T, user string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "--json", "--user", user}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	return out.String(), err
}

// data runs a command that must succeed and decodes its data payload.
func data[T any](t *testing.T, e *cliEnv, user string, args ...string) T {
	t.Helper()
	out, err := e.run(t, user, args...)
	require.NoError(t, err, out)
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env.Data
}

func TestCLIPropertiesAndLinks(t *testing.T) {
	e := newCLIEnv(t)

	ws := data[types.Workspace](t, e, "alice", "workspace", "create", "Acme")
	project := data[types.Project](t, e, "alice", "record", "project", ws.ID, "Launch")
	tab := data[types.Tab](t, e, "alice", "record", "tab", project.ID, "Plan")
	taskID := data[string](t, e, "alice", "record", "task", tab.ID, "Ship it")
	blockID := data[string](t, e, "alice", "record", "block", tab.ID, "text", `{"text":"Release notes"}`)

	created := data[engine.DefinitionCreated](t, e, "alice", "def", "create", ws.ID, "Priority", "--type", "select", "low", "high=red")
	def := created.Definition
	require.Len(t, def.Options, 2)
	assert.Equal(t, "red", def.Options[1].Color)

	task, block := "task:"+taskID, "block:"+blockID
	data[engine.EntityProperty](t, e, "alice", "prop", "set", block, def.ID, "high")

	link := data[types.EntityLink](t, e, "alice", "link", "create", block, task)
	assert.Equal(t, blockID, link.SourceEntityID)

	inherited := data[map[string]any](t, e, "alice", "prop", "inherited", task)
	assert.Equal(t, def.Options[1].ID, inherited[def.ID])

	matches := data[[]types.EntityReference](t, e, "alice", "query", ws.ID,
		"--types", "task", "--inherited", "--filter", def.ID+":equals:high")
	require.Len(t, matches, 1)
	assert.Equal(t, "Ship it", matches[0].Title)

	groups := data[[]types.GroupedEntitiesResult](t, e, "alice", "query", ws.ID, "--types", "block,task", "--group-by", def.ID)
	require.Len(t, groups, 3)
	assert.Equal(t, "high", groups[1].GroupLabel)
	assert.Len(t, groups[1].Entities, 1)
	assert.Len(t, groups[2].Entities, 1)

	found := data[[]types.EntityReference](t, e, "alice", "link", "search", ws.ID, "ship", "--types", "task")
	require.Len(t, found, 1)
	assert.Equal(t, taskID, found[0].ID)
}

func TestCLIFailedResults(t *testing.T) {
	e := newCLIEnv(t)
	ws := data[types.Workspace](t, e, "alice", "workspace", "create", "Acme")

	out, err := e.run(t, "mallory", "def", "list", ws.ID)
	require.ErrorIs(t, err, errResultFailed)
	assert.JSONEq(t, `{"error":"You do not have access to this workspace"}`, out)
	assert.Equal(t, exitUserError, exitCode(err))

	out, err = e.run(t, "alice", "link", "create", "task:x", "task:x")
	require.ErrorIs(t, err, errResultFailed)
	assert.JSONEq(t, `{"error":"Cannot link an entity to itself"}`, out)

	_, err = e.run(t, "alice", "prop", "get", "nocolon")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errResultFailed))
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCLIMembership(t *testing.T) {
	e := newCLIEnv(t)
	ws := data[types.Workspace](t, e, "alice", "workspace", "create", "Acme")

	_, err := e.run(t, "bob", "workspace", "add-member", ws.ID, "bob")
	require.ErrorIs(t, err, errResultFailed)

	assert.True(t, data[bool](t, e, "alice", "workspace", "add-member", ws.ID, "bob"))
	list := data[[]types.Workspace](t, e, "bob", "workspace", "list")
	require.Len(t, list, 1)
	assert.Equal(t, ws.ID, list[0].ID)
}

func TestCLIExportImport(t *testing.T) {
	e := newCLIEnv(t)
	data[types.Workspace](t, e, "alice", "workspace", "create", "Acme")

	dir := t.TempDir()
	stats := data[map[string]int](t, e, "alice", "export", dir)
	assert.Equal(t, 1, stats["workspaces"])

	restored := newCLIEnv(t)
	stats = data[map[string]int](t, restored, "alice", "import", dir)
	assert.Equal(t, 1, stats["workspaces"])
	list := data[[]types.Workspace](t, restored, "alice", "workspace", "list")
	assert.Len(t, list, 1)
}
