package types

import "time"

// The record projections below are what the engine reads from the record
// stores it does not own. Each carries the denormalized names the resolver
// needs for display context.

// Workspace is a tenant boundary.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Project groups tabs inside a workspace.
type Project struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
}

// Tab is a page inside a project.
type Tab struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// Block is a content block on a tab.
type Block struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	TabID       string         `json:"tab_id"`
	TabName     string         `json:"tab_name"`
	Type        string         `json:"type"`
	Content     map[string]any `json:"content"`
}

// Task is a task item on a tab.
type Task struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	TabID       string `json:"tab_id"`
	TabName     string `json:"tab_name"`
	Title       string `json:"title"`
}

// Subtask belongs to a task.
type Subtask struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	TaskID      string `json:"task_id"`
	TaskTitle   string `json:"task_title"`
	Title       string `json:"title"`
}

// TimelineEvent is an event on a tab's timeline.
type TimelineEvent struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	TabID       string `json:"tab_id"`
	TabName     string `json:"tab_name"`
	Title       string `json:"title"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// Table is a user table; ProjectID and TabID are optional placements.
type Table struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	ProjectID   string `json:"project_id,omitempty"`
	TabID       string `json:"tab_id,omitempty"`
	Name        string `json:"name"`
}

// TableField is a column of a table.
type TableField struct {
	ID        string `json:"id"`
	TableID   string `json:"table_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsPrimary bool   `json:"is_primary"`
	Ordinal   int    `json:"ordinal"`
}

// TableRow is a row of a table. Data is keyed by field id.
type TableRow struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	TableID     string         `json:"table_id"`
	TableName   string         `json:"table_name"`
	Data        map[string]any `json:"data"`
}
