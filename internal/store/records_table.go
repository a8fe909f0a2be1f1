// This file implements the record tables: workspaces, projects, tabs,
// blocks, tasks, subtasks, timeline events and user tables. The engine reads
// them through types.RecordStore; the Create methods seed them for the CLI
// and tests.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var _ types.RecordStore = (*RecordsTable)(nil)

// RecordsTable reads and writes the record tables.
type RecordsTable struct {
	backend *Backend
}

// CreateWorkspace inserts a workspace and makes ownerID its owner.
func (rt *RecordsTable) CreateWorkspace(ctx context.Context, name, ownerID string) (*types.Workspace, error) {
	if name == "" {
		return nil, types.Invalidf("Workspace name is required")
	}
	ws := &types.Workspace{ID: newID(), Name: name, CreatedAt: time.Now().UTC()}
	err := rt.backend.withTx(ctx, func(r runner) error {
		_, err := r.exec(ctx,
			"INSERT INTO workspaces (workspace_id, name, created_at) VALUES (?, ?, ?)",
			ws.ID, ws.Name, formatTime(ws.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting workspace: %w", err)
		}
		if ownerID == "" {
			return nil
		}
		_, err = r.exec(ctx,
			"INSERT INTO workspace_members (workspace_id, user_id, role, created_at) VALUES (?, ?, ?, ?)",
			ws.ID, ownerID, RoleOwner, formatTime(ws.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// CreateProject inserts a project into a workspace.
func (rt *RecordsTable) CreateProject(ctx context.Context, workspaceID, name string) (*types.Project, error) {
	p := &types.Project{ID: newID(), WorkspaceID: workspaceID, Name: name}
	err := rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "workspaces", "workspace_id", workspaceID, "Workspace"); err != nil {
			return err
		}
		return insert(ctx, r, "projects", "project_id, workspace_id, name", p.ID, workspaceID, name)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateTab inserts a tab into a project.
func (rt *RecordsTable) CreateTab(ctx context.Context, projectID, name string) (*types.Tab, error) {
	t := &types.Tab{ID: newID(), ProjectID: projectID, Name: name}
	err := rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "projects", "project_id", projectID, "Project"); err != nil {
			return err
		}
		return insert(ctx, r, "tabs", "tab_id, project_id, name", t.ID, projectID, name)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateBlock inserts a block of blockType with the given content document.
func (rt *RecordsTable) CreateBlock(ctx context.Context, tabID, blockType string, content map[string]any) (string, error) {
	if content == nil {
		content = map[string]any{}
	}
	doc, err := json.Marshal(content)
	if err != nil {
		return "", types.Invalidf("Block content cannot be stored: %v", err)
	}
	id := newID()
	err = rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "tabs", "tab_id", tabID, "Tab"); err != nil {
			return err
		}
		return insert(ctx, r, "blocks", "block_id, tab_id, block_type, content", id, tabID, blockType, string(doc))
	})
	return id, err
}

// CreateTask inserts a task on a tab.
func (rt *RecordsTable) CreateTask(ctx context.Context, tabID, title string) (string, error) {
	id := newID()
	err := rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "tabs", "tab_id", tabID, "Tab"); err != nil {
			return err
		}
		return insert(ctx, r, "tasks", "task_id, tab_id, title", id, tabID, title)
	})
	return id, err
}

// CreateSubtask inserts a subtask under a task.
func (rt *RecordsTable) CreateSubtask(ctx context.Context, taskID, title string) (string, error) {
	id := newID()
	err := rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "tasks", "task_id", taskID, "Task"); err != nil {
			return err
		}
		return insert(ctx, r, "subtasks", "subtask_id, task_id, title", id, taskID, title)
	})
	return id, err
}

// CreateTimelineEvent inserts a timeline event on a tab.
func (rt *RecordsTable) CreateTimelineEvent(ctx context.Context, tabID, title, startDate, endDate string) (string, error) {
	id := newID()
	err := rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "tabs", "tab_id", tabID, "Tab"); err != nil {
			return err
		}
		return insert(ctx, r, "timeline_events", "event_id, tab_id, title, start_date, end_date",
			id, tabID, title, nullString(startDate), nullString(endDate))
	})
	return id, err
}

// CreateTable inserts a user table. projectID and tabID are optional.
func (rt *RecordsTable) CreateTable(ctx context.Context, workspaceID, projectID, tabID, name string) (*types.Table, error) {
	t := &types.Table{ID: newID(), WorkspaceID: workspaceID, ProjectID: projectID, TabID: tabID, Name: name}
	err := rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "workspaces", "workspace_id", workspaceID, "Workspace"); err != nil {
			return err
		}
		return insert(ctx, r, "user_tables", "table_id, workspace_id, project_id, tab_id, name",
			t.ID, workspaceID, nullString(projectID), nullString(tabID), name)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTableField appends a column to a table.
func (rt *RecordsTable) CreateTableField(ctx context.Context, tableID, name, fieldType string, isPrimary bool) (*types.TableField, error) {
	f := &types.TableField{ID: newID(), TableID: tableID, Name: name, Type: fieldType, IsPrimary: isPrimary}
	err := rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "user_tables", "table_id", tableID, "Table"); err != nil {
			return err
		}
		err := r.queryRow(ctx, "SELECT COUNT(*) FROM table_fields WHERE table_id = ?", tableID).Scan(&f.Ordinal)
		if err != nil {
			return fmt.Errorf("counting table fields: %w", err)
		}
		primary := 0
		if isPrimary {
			primary = 1
		}
		_, err = r.exec(ctx,
			"INSERT INTO table_fields (field_id, table_id, name, field_type, is_primary, ordinal) VALUES (?, ?, ?, ?, ?, ?)",
			f.ID, tableID, name, fieldType, primary, f.Ordinal,
		)
		if err != nil {
			return fmt.Errorf("inserting table field: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateTableRow inserts a row whose data is keyed by field id.
func (rt *RecordsTable) CreateTableRow(ctx context.Context, tableID string, data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	doc, err := json.Marshal(data)
	if err != nil {
		return "", types.Invalidf("Row data cannot be stored: %v", err)
	}
	id := newID()
	err = rt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "user_tables", "table_id", tableID, "Table"); err != nil {
			return err
		}
		return insert(ctx, r, "table_rows", "row_id, table_id, data", id, tableID, string(doc))
	})
	return id, err
}

// recordTables maps an entity type to its table and id column.
var recordTables = map[types.EntityType][2]string{
	types.EntityBlock:         {"blocks", "block_id"},
	types.EntityTask:          {"tasks", "task_id"},
	types.EntitySubtask:       {"subtasks", "subtask_id"},
	types.EntityTimelineEvent: {"timeline_events", "event_id"},
	types.EntityTableRow:      {"table_rows", "row_id"},
}

// DeleteRecord removes one entity record together with its property values,
// visibility rows and every link that touches it.
func (rt *RecordsTable) DeleteRecord(ctx context.Context, key types.EntityKey) error {
	tbl, ok := recordTables[key.Type]
	if !ok {
		return types.Invalidf("Unknown entity type %q", key.Type)
	}
	return rt.backend.withTx(ctx, func(r runner) error {
		res, err := r.exec(ctx, "DELETE FROM "+tbl[0]+" WHERE "+tbl[1]+" = ?", key.ID)
		if err != nil {
			return fmt.Errorf("deleting %s: %w", key.Type, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return types.NotFoundf("Entity not found")
		}
		for _, table := range []string{"entity_properties", "inherited_visibility"} {
			_, err := r.exec(ctx, "DELETE FROM "+table+" WHERE entity_type = ? AND entity_id = ?", string(key.Type), key.ID)
			if err != nil {
				return fmt.Errorf("deleting %s rows: %w", table, err)
			}
		}
		_, err = r.exec(ctx,
			`DELETE FROM entity_links WHERE (source_entity_type = ? AND source_entity_id = ?)
OR (target_entity_type = ? AND target_entity_id = ?)`,
			string(key.Type), key.ID, string(key.Type), key.ID,
		)
		if err != nil {
			return fmt.Errorf("deleting links: %w", err)
		}
		return nil
	})
}

// Record reads. Each query joins up to the project (or user table) to carry
// the workspace id and the display context.
const (
	blockSelect = `SELECT b.block_id, p.workspace_id, b.tab_id, t.name, b.block_type, b.content
FROM blocks b JOIN tabs t ON t.tab_id = b.tab_id JOIN projects p ON p.project_id = t.project_id`

	taskSelect = `SELECT k.task_id, p.workspace_id, k.tab_id, t.name, k.title
FROM tasks k JOIN tabs t ON t.tab_id = k.tab_id JOIN projects p ON p.project_id = t.project_id`

	subtaskSelect = `SELECT s.subtask_id, p.workspace_id, s.task_id, k.title, s.title
FROM subtasks s JOIN tasks k ON k.task_id = s.task_id JOIN tabs t ON t.tab_id = k.tab_id
JOIN projects p ON p.project_id = t.project_id`

	eventSelect = `SELECT e.event_id, p.workspace_id, e.tab_id, t.name, e.title, e.start_date, e.end_date
FROM timeline_events e JOIN tabs t ON t.tab_id = e.tab_id JOIN projects p ON p.project_id = t.project_id`

	rowSelect = `SELECT r.row_id, u.workspace_id, r.table_id, u.name, r.data
FROM table_rows r JOIN user_tables u ON u.table_id = r.table_id`
)

// Block returns one block.
func (rt *RecordsTable) Block(ctx context.Context, id string) (*types.Block, error) {
	return getOne(ctx, rt, blockSelect+" WHERE b.block_id = ?", id, "Block", hydrateBlock)
}

// Task returns one task.
func (rt *RecordsTable) Task(ctx context.Context, id string) (*types.Task, error) {
	return getOne(ctx, rt, taskSelect+" WHERE k.task_id = ?", id, "Task", hydrateTask)
}

// Subtask returns one subtask.
func (rt *RecordsTable) Subtask(ctx context.Context, id string) (*types.Subtask, error) {
	return getOne(ctx, rt, subtaskSelect+" WHERE s.subtask_id = ?", id, "Subtask", hydrateSubtask)
}

// TimelineEvent returns one timeline event.
func (rt *RecordsTable) TimelineEvent(ctx context.Context, id string) (*types.TimelineEvent, error) {
	return getOne(ctx, rt, eventSelect+" WHERE e.event_id = ?", id, "Timeline event", hydrateEvent)
}

// TableRow returns one table row.
func (rt *RecordsTable) TableRow(ctx context.Context, id string) (*types.TableRow, error) {
	return getOne(ctx, rt, rowSelect+" WHERE r.row_id = ?", id, "Table row", hydrateRow)
}

// TableFields returns the columns of a table in ordinal order.
func (rt *RecordsTable) TableFields(ctx context.Context, tableID string) ([]types.TableField, error) {
	return listAll(ctx, rt,
		"SELECT field_id, table_id, name, field_type, is_primary, ordinal FROM table_fields WHERE table_id = ? ORDER BY ordinal, field_id",
		[]any{tableID}, hydrateField)
}

// Blocks lists the blocks of a workspace within scope.
func (rt *RecordsTable) Blocks(ctx context.Context, workspaceID string, scope types.Scope) ([]types.Block, error) {
	where, args := tabScope(workspaceID, scope)
	return listAll(ctx, rt, blockSelect+where+" ORDER BY b.created_at, b.block_id", args, hydrateBlock)
}

// Tasks lists the tasks of a workspace within scope.
func (rt *RecordsTable) Tasks(ctx context.Context, workspaceID string, scope types.Scope) ([]types.Task, error) {
	where, args := tabScope(workspaceID, scope)
	return listAll(ctx, rt, taskSelect+where+" ORDER BY k.created_at, k.task_id", args, hydrateTask)
}

// Subtasks lists the subtasks of a workspace within scope; a subtask is in
// scope when its parent task is.
func (rt *RecordsTable) Subtasks(ctx context.Context, workspaceID string, scope types.Scope) ([]types.Subtask, error) {
	where, args := tabScope(workspaceID, scope)
	return listAll(ctx, rt, subtaskSelect+where+" ORDER BY s.created_at, s.subtask_id", args, hydrateSubtask)
}

// TimelineEvents lists the timeline events of a workspace within scope.
func (rt *RecordsTable) TimelineEvents(ctx context.Context, workspaceID string, scope types.Scope) ([]types.TimelineEvent, error) {
	where, args := tabScope(workspaceID, scope)
	return listAll(ctx, rt, eventSelect+where+" ORDER BY e.created_at, e.event_id", args, hydrateEvent)
}

// TableRows lists the rows of a workspace's tables within scope. A table is
// in a project scope when placed in the project directly or on one of its
// tabs.
func (rt *RecordsTable) TableRows(ctx context.Context, workspaceID string, scope types.Scope) ([]types.TableRow, error) {
	where := " WHERE u.workspace_id = ?"
	args := []any{workspaceID}
	switch scope.Kind {
	case types.ScopeProject:
		where += " AND (u.project_id = ? OR u.tab_id IN (SELECT tab_id FROM tabs WHERE project_id = ?))"
		args = append(args, scope.ProjectID, scope.ProjectID)
	case types.ScopeTab:
		where += " AND u.tab_id = ?"
		args = append(args, scope.TabID)
	}
	return listAll(ctx, rt, rowSelect+where+" ORDER BY r.created_at, r.row_id", args, hydrateRow)
}

// tabScope builds the WHERE clause for records that hang off a tab, aliased
// t (tabs) and p (projects).
func tabScope(workspaceID string, scope types.Scope) (string, []any) {
	where := " WHERE p.workspace_id = ?"
	args := []any{workspaceID}
	switch scope.Kind {
	case types.ScopeProject:
		where += " AND p.project_id = ?"
		args = append(args, scope.ProjectID)
	case types.ScopeTab:
		where += " AND t.tab_id = ?"
		args = append(args, scope.TabID)
	}
	return where, args
}

func getOne[T any](ctx context.Context, rt *RecordsTable, query, id, label string, hydrate func(scanner) (*T, error)) (*T, error) {
	if id == "" {
		return nil, types.NotFoundf("%s not found", label)
	}
	r, err := rt.backend.conn()
	if err != nil {
		return nil, err
	}
	rec, err := hydrate(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NotFoundf("%s not found", label)
		}
		return nil, fmt.Errorf("getting %s %s: %w", label, id, err)
	}
	return rec, nil
}

func listAll[T any](ctx context.Context, rt *RecordsTable, query string, args []any, hydrate func(scanner) (*T, error)) ([]T, error) {
	r, err := rt.backend.conn()
	if err != nil {
		return nil, err
	}
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		rec, err := hydrate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

func hydrateBlock(s scanner) (*types.Block, error) {
	var b types.Block
	var content string
	if err := s.Scan(&b.ID, &b.WorkspaceID, &b.TabID, &b.TabName, &b.Type, &content); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &b.Content); err != nil {
		return nil, fmt.Errorf("decoding block content: %w", err)
	}
	if b.Content == nil {
		b.Content = map[string]any{}
	}
	return &b, nil
}

func hydrateTask(s scanner) (*types.Task, error) {
	var t types.Task
	if err := s.Scan(&t.ID, &t.WorkspaceID, &t.TabID, &t.TabName, &t.Title); err != nil {
		return nil, err
	}
	return &t, nil
}

func hydrateSubtask(s scanner) (*types.Subtask, error) {
	var st types.Subtask
	if err := s.Scan(&st.ID, &st.WorkspaceID, &st.TaskID, &st.TaskTitle, &st.Title); err != nil {
		return nil, err
	}
	return &st, nil
}

func hydrateEvent(s scanner) (*types.TimelineEvent, error) {
	var e types.TimelineEvent
	var start, end sql.NullString
	if err := s.Scan(&e.ID, &e.WorkspaceID, &e.TabID, &e.TabName, &e.Title, &start, &end); err != nil {
		return nil, err
	}
	e.StartDate = start.String
	e.EndDate = end.String
	return &e, nil
}

func hydrateRow(s scanner) (*types.TableRow, error) {
	var row types.TableRow
	var data string
	if err := s.Scan(&row.ID, &row.WorkspaceID, &row.TableID, &row.TableName, &data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &row.Data); err != nil {
		return nil, fmt.Errorf("decoding row data: %w", err)
	}
	if row.Data == nil {
		row.Data = map[string]any{}
	}
	return &row, nil
}

func hydrateField(s scanner) (*types.TableField, error) {
	var f types.TableField
	var primary int
	if err := s.Scan(&f.ID, &f.TableID, &f.Name, &f.Type, &primary, &f.Ordinal); err != nil {
		return nil, err
	}
	f.IsPrimary = primary != 0
	return &f, nil
}

// insert writes one record row, appending created_at to columns.
func insert(ctx context.Context, r runner, table, columns string, args ...any) error {
	args = append(args, formatTime(time.Now()))
	_, err := r.exec(ctx,
		"INSERT INTO "+table+" ("+columns+", created_at) VALUES ("+placeholders(len(args))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
