package store

// Schema DDL. The statements are valid on both SQLite and PostgreSQL: ids,
// JSON documents and timestamps are TEXT, and every statement is idempotent
// so Attach can run them against an existing database.
const (
	createWorkspaces = `CREATE TABLE IF NOT EXISTS workspaces (
    workspace_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createWorkspaceMembers = `CREATE TABLE IF NOT EXISTS workspace_members (
    workspace_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (workspace_id, user_id)
)`

	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    project_id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createTabs = `CREATE TABLE IF NOT EXISTS tabs (
    tab_id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createBlocks = `CREATE TABLE IF NOT EXISTS blocks (
    block_id TEXT PRIMARY KEY,
    tab_id TEXT NOT NULL,
    block_type TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    task_id TEXT PRIMARY KEY,
    tab_id TEXT NOT NULL,
    title TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createSubtasks = `CREATE TABLE IF NOT EXISTS subtasks (
    subtask_id TEXT PRIMARY KEY,
    task_id TEXT NOT NULL,
    title TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createTimelineEvents = `CREATE TABLE IF NOT EXISTS timeline_events (
    event_id TEXT PRIMARY KEY,
    tab_id TEXT NOT NULL,
    title TEXT NOT NULL,
    start_date TEXT,
    end_date TEXT,
    created_at TEXT NOT NULL
)`

	createUserTables = `CREATE TABLE IF NOT EXISTS user_tables (
    table_id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL,
    project_id TEXT,
    tab_id TEXT,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createTableFields = `CREATE TABLE IF NOT EXISTS table_fields (
    field_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    name TEXT NOT NULL,
    field_type TEXT NOT NULL,
    is_primary INTEGER NOT NULL,
    ordinal INTEGER NOT NULL
)`

	createTableRows = `CREATE TABLE IF NOT EXISTS table_rows (
    row_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	createPropertyDefinitions = `CREATE TABLE IF NOT EXISTS property_definitions (
    property_id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL,
    name TEXT NOT NULL,
    normalized_name TEXT NOT NULL,
    property_type TEXT NOT NULL,
    empty_label TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

	createPropertyOptions = `CREATE TABLE IF NOT EXISTS property_options (
    option_id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    label TEXT NOT NULL,
    color TEXT NOT NULL,
    ordinal INTEGER NOT NULL
)`

	createEntityProperties = `CREATE TABLE IF NOT EXISTS entity_properties (
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_id, property_id)
)`

	createInheritedVisibility = `CREATE TABLE IF NOT EXISTS inherited_visibility (
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_id, property_id)
)`

	createEntityLinks = `CREATE TABLE IF NOT EXISTS entity_links (
    link_id TEXT PRIMARY KEY,
    source_entity_type TEXT NOT NULL,
    source_entity_id TEXT NOT NULL,
    target_entity_type TEXT NOT NULL,
    target_entity_id TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    created_at TEXT NOT NULL
)`
)

// Index DDL for common queries.
const (
	idxProjectsWorkspace = `CREATE INDEX IF NOT EXISTS idx_projects_workspace ON projects(workspace_id)`
	idxTabsProject       = `CREATE INDEX IF NOT EXISTS idx_tabs_project ON tabs(project_id)`
	idxBlocksTab         = `CREATE INDEX IF NOT EXISTS idx_blocks_tab ON blocks(tab_id)`
	idxTasksTab          = `CREATE INDEX IF NOT EXISTS idx_tasks_tab ON tasks(tab_id)`
	idxSubtasksTask      = `CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id)`
	idxTimelineEventsTab = `CREATE INDEX IF NOT EXISTS idx_timeline_events_tab ON timeline_events(tab_id)`
	idxTableFieldsTable  = `CREATE INDEX IF NOT EXISTS idx_table_fields_table ON table_fields(table_id)`
	idxTableRowsTable    = `CREATE INDEX IF NOT EXISTS idx_table_rows_table ON table_rows(table_id)`
	idxDefinitionsName   = `CREATE UNIQUE INDEX IF NOT EXISTS idx_property_definitions_name ON property_definitions(workspace_id, normalized_name)`
	idxOptionsProperty   = `CREATE INDEX IF NOT EXISTS idx_property_options_property ON property_options(property_id)`
	idxValuesProperty    = `CREATE INDEX IF NOT EXISTS idx_entity_properties_property ON entity_properties(property_id)`
	idxLinksUnique       = `CREATE UNIQUE INDEX IF NOT EXISTS idx_entity_links_unique ON entity_links(source_entity_type, source_entity_id, target_entity_type, target_entity_id)`
	idxLinksTarget       = `CREATE INDEX IF NOT EXISTS idx_entity_links_target ON entity_links(target_entity_type, target_entity_id)`
)

// schemaDDL lists every statement Attach runs, tables before indexes.
var schemaDDL = []string{
	createWorkspaces,
	createWorkspaceMembers,
	createProjects,
	createTabs,
	createBlocks,
	createTasks,
	createSubtasks,
	createTimelineEvents,
	createUserTables,
	createTableFields,
	createTableRows,
	createPropertyDefinitions,
	createPropertyOptions,
	createEntityProperties,
	createInheritedVisibility,
	createEntityLinks,

	idxProjectsWorkspace,
	idxTabsProject,
	idxBlocksTab,
	idxTasksTab,
	idxSubtasksTask,
	idxTimelineEventsTab,
	idxTableFieldsTable,
	idxTableRowsTable,
	idxDefinitionsName,
	idxOptionsProperty,
	idxValuesProperty,
	idxLinksUnique,
	idxLinksTarget,
}

// snapshotTables maps each table to its JSONL file, columns and primary key
// columns. Export and Import walk it in order.
var snapshotTables = []struct {
	file    string
	table   string
	columns []string
	keys    []string
}{
	{"workspaces.jsonl", "workspaces", []string{"workspace_id", "name", "created_at"}, []string{"workspace_id"}},
	{"workspace_members.jsonl", "workspace_members", []string{"workspace_id", "user_id", "role", "created_at"}, []string{"workspace_id", "user_id"}},
	{"projects.jsonl", "projects", []string{"project_id", "workspace_id", "name", "created_at"}, []string{"project_id"}},
	{"tabs.jsonl", "tabs", []string{"tab_id", "project_id", "name", "created_at"}, []string{"tab_id"}},
	{"blocks.jsonl", "blocks", []string{"block_id", "tab_id", "block_type", "content", "created_at"}, []string{"block_id"}},
	{"tasks.jsonl", "tasks", []string{"task_id", "tab_id", "title", "created_at"}, []string{"task_id"}},
	{"subtasks.jsonl", "subtasks", []string{"subtask_id", "task_id", "title", "created_at"}, []string{"subtask_id"}},
	{"timeline_events.jsonl", "timeline_events", []string{"event_id", "tab_id", "title", "start_date", "end_date", "created_at"}, []string{"event_id"}},
	{"user_tables.jsonl", "user_tables", []string{"table_id", "workspace_id", "project_id", "tab_id", "name", "created_at"}, []string{"table_id"}},
	{"table_fields.jsonl", "table_fields", []string{"field_id", "table_id", "name", "field_type", "is_primary", "ordinal"}, []string{"field_id"}},
	{"table_rows.jsonl", "table_rows", []string{"row_id", "table_id", "data", "created_at"}, []string{"row_id"}},
	{"property_definitions.jsonl", "property_definitions", []string{"property_id", "workspace_id", "name", "normalized_name", "property_type", "empty_label", "created_at", "updated_at"}, []string{"property_id"}},
	{"property_options.jsonl", "property_options", []string{"option_id", "property_id", "label", "color", "ordinal"}, []string{"option_id"}},
	{"entity_properties.jsonl", "entity_properties", []string{"entity_type", "entity_id", "property_id", "value", "updated_at"}, []string{"entity_type", "entity_id", "property_id"}},
	{"inherited_visibility.jsonl", "inherited_visibility", []string{"entity_type", "entity_id", "property_id"}, []string{"entity_type", "entity_id", "property_id"}},
	{"entity_links.jsonl", "entity_links", []string{"link_id", "source_entity_type", "source_entity_id", "target_entity_type", "target_entity_id", "workspace_id", "created_at"}, []string{"link_id"}},
}
