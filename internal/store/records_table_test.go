package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestRecordsTable(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend, f fixture)
	}{
		{
			name: "block carries workspace and tab name",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				id, err := b.Records().CreateBlock(ctx, f.tabID, "text", map[string]any{"text": "Hello"})
				require.NoError(t, err)
				blk, err := b.Records().Block(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, f.workspaceID, blk.WorkspaceID)
				assert.Equal(t, "Plan", blk.TabName)
				assert.Equal(t, "text", blk.Type)
				assert.Equal(t, "Hello", blk.Content["text"])
			},
		},
		{
			name: "subtask carries its task title",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				taskID, err := b.Records().CreateTask(ctx, f.tabID, "Ship it")
				require.NoError(t, err)
				subID, err := b.Records().CreateSubtask(ctx, taskID, "Write notes")
				require.NoError(t, err)
				sub, err := b.Records().Subtask(ctx, subID)
				require.NoError(t, err)
				assert.Equal(t, "Ship it", sub.TaskTitle)
				assert.Equal(t, f.workspaceID, sub.WorkspaceID)
			},
		},
		{
			name: "timeline event keeps optional dates",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				id, err := b.Records().CreateTimelineEvent(ctx, f.tabID, "Kickoff", "2026-01-05", "")
				require.NoError(t, err)
				ev, err := b.Records().TimelineEvent(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, "2026-01-05", ev.StartDate)
				assert.Empty(t, ev.EndDate)
				assert.Equal(t, "Plan", ev.TabName)
			},
		},
		{
			name: "table rows and fields",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				tbl, err := b.Records().CreateTable(ctx, f.workspaceID, f.projectID, "", "Leads")
				require.NoError(t, err)
				name, err := b.Records().CreateTableField(ctx, tbl.ID, "Name", "text", true)
				require.NoError(t, err)
				email, err := b.Records().CreateTableField(ctx, tbl.ID, "Email", "text", false)
				require.NoError(t, err)
				assert.Equal(t, 0, name.Ordinal)
				assert.Equal(t, 1, email.Ordinal)

				rowID, err := b.Records().CreateTableRow(ctx, tbl.ID, map[string]any{name.ID: "Ada"})
				require.NoError(t, err)
				row, err := b.Records().TableRow(ctx, rowID)
				require.NoError(t, err)
				assert.Equal(t, "Leads", row.TableName)
				assert.Equal(t, "Ada", row.Data[name.ID])

				fields, err := b.Records().TableFields(ctx, tbl.ID)
				require.NoError(t, err)
				require.Len(t, fields, 2)
				assert.True(t, fields[0].IsPrimary)
				assert.False(t, fields[1].IsPrimary)
			},
		},
		{
			name: "missing records are not found",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				_, err := b.Records().Block(ctx, "nope")
				assert.ErrorIs(t, err, types.ErrNotFound)
				_, err = b.Records().TableRow(ctx, "")
				assert.ErrorIs(t, err, types.ErrNotFound)
				_, err = b.Records().CreateTask(ctx, "no-tab", "x")
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "scope narrows lists",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				otherTab, err := b.Records().CreateTab(ctx, f.projectID, "Retro")
				require.NoError(t, err)
				otherProject, err := b.Records().CreateProject(ctx, f.workspaceID, "Ops")
				require.NoError(t, err)
				farTab, err := b.Records().CreateTab(ctx, otherProject.ID, "Runbook")
				require.NoError(t, err)

				for _, tab := range []string{f.tabID, otherTab.ID, farTab.ID} {
					_, err := b.Records().CreateTask(ctx, tab, "task on "+tab)
					require.NoError(t, err)
				}

				all, err := b.Records().Tasks(ctx, f.workspaceID, types.Scope{Kind: types.ScopeAll})
				require.NoError(t, err)
				assert.Len(t, all, 3)

				project, err := b.Records().Tasks(ctx, f.workspaceID, types.Scope{Kind: types.ScopeProject, ProjectID: f.projectID})
				require.NoError(t, err)
				assert.Len(t, project, 2)

				tab, err := b.Records().Tasks(ctx, f.workspaceID, types.Scope{Kind: types.ScopeTab, TabID: farTab.ID})
				require.NoError(t, err)
				require.Len(t, tab, 1)
				assert.Equal(t, "Runbook", tab[0].TabName)

				tbl, err := b.Records().CreateTable(ctx, f.workspaceID, "", otherTab.ID, "Budget")
				require.NoError(t, err)
				_, err = b.Records().CreateTableRow(ctx, tbl.ID, nil)
				require.NoError(t, err)
				rows, err := b.Records().TableRows(ctx, f.workspaceID, types.Scope{Kind: types.ScopeProject, ProjectID: f.projectID})
				require.NoError(t, err)
				assert.Len(t, rows, 1, "tables placed on a project tab are in the project scope")
				rows, err = b.Records().TableRows(ctx, f.workspaceID, types.Scope{Kind: types.ScopeProject, ProjectID: otherProject.ID})
				require.NoError(t, err)
				assert.Empty(t, rows)
			},
		},
		{
			name: "delete record cascades values and links",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				taskID, err := b.Records().CreateTask(ctx, f.tabID, "Doomed")
				require.NoError(t, err)
				blockID, err := b.Records().CreateBlock(ctx, f.tabID, "text", nil)
				require.NoError(t, err)
				task := types.EntityKey{Type: types.EntityTask, ID: taskID}
				block := types.EntityKey{Type: types.EntityBlock, ID: blockID}
				require.NoError(t, b.Properties().SetValue(ctx, task, "p", "v"))
				require.NoError(t, b.Links().CreateLink(ctx, newLink(f.workspaceID, block, task)))

				require.NoError(t, b.Records().DeleteRecord(ctx, task))
				_, err = b.Records().Task(ctx, taskID)
				assert.ErrorIs(t, err, types.ErrNotFound)
				out, err := b.Links().Outgoing(ctx, block)
				require.NoError(t, err)
				assert.Empty(t, out)
				vals, err := b.Properties().Values(ctx, task)
				require.NoError(t, err)
				assert.Empty(t, vals)

				assert.ErrorIs(t, b.Records().DeleteRecord(ctx, task), types.ErrNotFound)
			},
		},
		{
			name: "membership",
			check: func(t *testing.T, b *Backend, f fixture) {
				ctx := context.Background()
				ok, err := b.Members().IsMember(ctx, f.workspaceID, "u1")
				require.NoError(t, err)
				assert.True(t, ok, "creator is the owner")

				ok, err = b.Members().IsMember(ctx, f.workspaceID, "u9")
				require.NoError(t, err)
				assert.False(t, ok)

				require.NoError(t, b.Members().AddMember(ctx, f.workspaceID, "u9", ""))
				ok, err = b.Members().IsMember(ctx, f.workspaceID, "u9")
				require.NoError(t, err)
				assert.True(t, ok)

				wss, err := b.Members().Workspaces(ctx, "u9")
				require.NoError(t, err)
				require.Len(t, wss, 1)
				assert.Equal(t, f.workspaceID, wss[0].ID)

				require.NoError(t, b.Members().RemoveMember(ctx, f.workspaceID, "u9"))
				ok, err = b.Members().IsMember(ctx, f.workspaceID, "u9")
				require.NoError(t, err)
				assert.False(t, ok)

				assert.ErrorIs(t, b.Members().AddMember(ctx, "missing", "u9", ""), types.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, b *Backend) {
				tt.check(t, b, seedWorkspace(t, b, "u1"))
			})
		})
	}
}
