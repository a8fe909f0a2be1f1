package resolver

import (
	"context"

	"github.com/mesh-intelligence/facets/pkg/types"
)

type blockHandler struct{ records types.RecordStore }

func (blockHandler) Type() types.EntityType { return types.EntityBlock }

func (h blockHandler) Lookup(ctx context.Context, id string) (Entity, error) {
	b, err := h.records.Block(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	return blockEntity(*b), nil
}

func (h blockHandler) ListCandidates(ctx context.Context, workspaceID string, scope types.Scope) ([]Entity, error) {
	blocks, err := h.records.Blocks(ctx, workspaceID, scope)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, len(blocks))
	for i, b := range blocks {
		out[i] = blockEntity(b)
	}
	return out, nil
}

func blockEntity(b types.Block) Entity {
	return Entity{
		EntityReference: types.EntityReference{
			Type: types.EntityBlock, ID: b.ID, Title: BlockTitle(b.Type, b.Content), Context: b.TabName,
		},
		WorkspaceID: b.WorkspaceID,
	}
}

type taskHandler struct{ records types.RecordStore }

func (taskHandler) Type() types.EntityType { return types.EntityTask }

func (h taskHandler) Lookup(ctx context.Context, id string) (Entity, error) {
	t, err := h.records.Task(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	return taskEntity(*t), nil
}

func (h taskHandler) ListCandidates(ctx context.Context, workspaceID string, scope types.Scope) ([]Entity, error) {
	tasks, err := h.records.Tasks(ctx, workspaceID, scope)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, len(tasks))
	for i, t := range tasks {
		out[i] = taskEntity(t)
	}
	return out, nil
}

func taskEntity(t types.Task) Entity {
	return Entity{
		EntityReference: types.EntityReference{
			Type: types.EntityTask, ID: t.ID, Title: titleOr(t.Title, "Untitled task"), Context: t.TabName,
		},
		WorkspaceID: t.WorkspaceID,
	}
}

type subtaskHandler struct{ records types.RecordStore }

func (subtaskHandler) Type() types.EntityType { return types.EntitySubtask }

func (h subtaskHandler) Lookup(ctx context.Context, id string) (Entity, error) {
	s, err := h.records.Subtask(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	return subtaskEntity(*s), nil
}

func (h subtaskHandler) ListCandidates(ctx context.Context, workspaceID string, scope types.Scope) ([]Entity, error) {
	subtasks, err := h.records.Subtasks(ctx, workspaceID, scope)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, len(subtasks))
	for i, s := range subtasks {
		out[i] = subtaskEntity(s)
	}
	return out, nil
}

func subtaskEntity(s types.Subtask) Entity {
	return Entity{
		EntityReference: types.EntityReference{
			Type: types.EntitySubtask, ID: s.ID, Title: titleOr(s.Title, "Untitled subtask"), Context: s.TaskTitle,
		},
		WorkspaceID: s.WorkspaceID,
	}
}

type timelineEventHandler struct{ records types.RecordStore }

func (timelineEventHandler) Type() types.EntityType { return types.EntityTimelineEvent }

func (h timelineEventHandler) Lookup(ctx context.Context, id string) (Entity, error) {
	e, err := h.records.TimelineEvent(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	return timelineEventEntity(*e), nil
}

func (h timelineEventHandler) ListCandidates(ctx context.Context, workspaceID string, scope types.Scope) ([]Entity, error) {
	events, err := h.records.TimelineEvents(ctx, workspaceID, scope)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, len(events))
	for i, e := range events {
		out[i] = timelineEventEntity(e)
	}
	return out, nil
}

func timelineEventEntity(e types.TimelineEvent) Entity {
	return Entity{
		EntityReference: types.EntityReference{
			Type: types.EntityTimelineEvent, ID: e.ID, Title: titleOr(e.Title, "Untitled event"), Context: e.TabName,
		},
		WorkspaceID: e.WorkspaceID,
	}
}

type tableRowHandler struct{ records types.RecordStore }

func (tableRowHandler) Type() types.EntityType { return types.EntityTableRow }

func (h tableRowHandler) Lookup(ctx context.Context, id string) (Entity, error) {
	row, err := h.records.TableRow(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	fields, err := h.records.TableFields(ctx, row.TableID)
	if err != nil {
		return Entity{}, err
	}
	return tableRowEntity(*row, fields), nil
}

// ListCandidates loads each table's fields once for all of its rows.
func (h tableRowHandler) ListCandidates(ctx context.Context, workspaceID string, scope types.Scope) ([]Entity, error) {
	rows, err := h.records.TableRows(ctx, workspaceID, scope)
	if err != nil {
		return nil, err
	}
	fieldsByTable := make(map[string][]types.TableField)
	out := make([]Entity, len(rows))
	for i, row := range rows {
		fields, ok := fieldsByTable[row.TableID]
		if !ok {
			fields, err = h.records.TableFields(ctx, row.TableID)
			if err != nil {
				return nil, err
			}
			fieldsByTable[row.TableID] = fields
		}
		out[i] = tableRowEntity(row, fields)
	}
	return out, nil
}

func tableRowEntity(row types.TableRow, fields []types.TableField) Entity {
	return Entity{
		EntityReference: types.EntityReference{
			Type: types.EntityTableRow, ID: row.ID, Title: TableRowTitle(row.Data, fields), Context: row.TableName,
		},
		WorkspaceID: row.WorkspaceID,
	}
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}
