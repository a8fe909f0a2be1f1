package engine_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mesh-intelligence/facets/internal/access"
	"github.com/mesh-intelligence/facets/internal/engine"
	"github.com/mesh-intelligence/facets/internal/store"
	"github.com/mesh-intelligence/facets/pkg/types"
)

var _ = Describe("Actions", func() {
	var (
		backend *store.Backend
		actions *engine.Actions
		ctx     context.Context
		ws      string
		tabID   string
	)

	newTask := func(title string) types.EntityKey {
		id, err := backend.Records().CreateTask(context.Background(), tabID, title)
		Expect(err).NotTo(HaveOccurred())
		return types.EntityKey{Type: types.EntityTask, ID: id}
	}

	newBlock := func(text string) types.EntityKey {
		id, err := backend.Records().CreateBlock(context.Background(), tabID, "text", map[string]any{"text": text})
		Expect(err).NotTo(HaveOccurred())
		return types.EntityKey{Type: types.EntityBlock, ID: id}
	}

	newDefinition := func(name string, typ types.PropertyType, labels ...string) *types.PropertyDefinition {
		var opts []types.PropertyOption
		for _, l := range labels {
			opts = append(opts, types.PropertyOption{Label: l})
		}
		res := actions.CreatePropertyDefinition(ctx, engine.CreateDefinitionParams{
			WorkspaceID: ws, Name: name, Type: typ, Options: opts,
		})
		Expect(res.Error).To(BeEmpty())
		return res.Data.Definition
	}

	setValue := func(key types.EntityKey, def *types.PropertyDefinition, v any) {
		res := actions.SetEntityProperty(ctx, key, def.ID, v)
		Expect(res.Error).To(BeEmpty())
	}

	BeforeEach(func() {
		backend = store.NewBackend()
		Expect(backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: GinkgoT().TempDir()})).To(Succeed())
		DeferCleanup(backend.Detach)

		base := context.Background()
		workspace, err := backend.Records().CreateWorkspace(base, "Acme", "alice")
		Expect(err).NotTo(HaveOccurred())
		project, err := backend.Records().CreateProject(base, workspace.ID, "Launch")
		Expect(err).NotTo(HaveOccurred())
		tab, err := backend.Records().CreateTab(base, project.ID, "Plan")
		Expect(err).NotTo(HaveOccurred())
		ws, tabID = workspace.ID, tab.ID

		svc := engine.New(engine.Stores{
			Definitions: backend.Definitions(),
			Properties:  backend.Properties(),
			Links:       backend.Links(),
			Members:     backend.Members(),
			Records:     backend.Records(),
		})
		actions = engine.NewActions(svc)
		ctx = access.WithCaller(base, "alice")
	})

	Describe("inheritance along a link", func() {
		It("shows the linking block's status until the task sets its own", func() {
			status := newDefinition("Status", types.PropertyStatus)
			t1 := newTask("T1")
			b1 := newBlock("B1")
			setValue(b1, status, "blocked")

			Expect(actions.CreateEntityLink(ctx, b1, t1).Error).To(BeEmpty())

			got := actions.GetEntityPropertiesWithInheritance(ctx, t1)
			Expect(got.Error).To(BeEmpty())
			Expect(got.Data).To(Equal(map[string]any{status.ID: "blocked"}))

			setValue(t1, status, "done")
			got = actions.GetEntityPropertiesWithInheritance(ctx, t1)
			Expect(got.Data).To(Equal(map[string]any{status.ID: "done"}))
		})
	})

	Describe("grouping tasks and table rows by priority", func() {
		It("returns option groups in definition order then the no-value group", func() {
			priority := newDefinition("Priority", types.PropertySelect, "low", "high")
			for i := range 3 {
				setValue(newTask(fmt.Sprintf("Task %d", i)), priority, "high")
			}

			base := context.Background()
			table, err := backend.Records().CreateTable(base, ws, "", "", "Backlog")
			Expect(err).NotTo(HaveOccurred())
			field, err := backend.Records().CreateTableField(base, table.ID, "Name", "text", true)
			Expect(err).NotTo(HaveOccurred())
			_, err = backend.Records().CreateTableRow(base, table.ID, map[string]any{field.ID: "Row"})
			Expect(err).NotTo(HaveOccurred())

			res := actions.QueryEntitiesGroupedBy(ctx, types.QueryEntitiesParams{
				WorkspaceID: ws,
				EntityTypes: []types.EntityType{types.EntityTask, types.EntityTableRow},
			}, priority.ID)
			Expect(res.Error).To(BeEmpty())

			groups := res.Data
			Expect(groups).To(HaveLen(3))
			Expect(groups[0].GroupLabel).To(Equal("low"))
			Expect(groups[0].Entities).To(BeEmpty())
			Expect(groups[1].GroupLabel).To(Equal("high"))
			Expect(groups[1].Entities).To(HaveLen(3))
			Expect(groups[2].GroupKey).To(Equal(types.NoValueGroupKey))
			Expect(groups[2].Entities).To(ConsistOf(HaveField("Title", "Row")))
		})
	})

	Describe("link invariants", func() {
		It("rejects self links for every entity type", func() {
			for _, typ := range types.AllEntityTypes {
				key := types.EntityKey{Type: typ, ID: "x"}
				Expect(actions.CreateEntityLink(ctx, key, key).Error).To(Equal("Cannot link an entity to itself"))
			}
		})

		It("keeps links inside one workspace", func() {
			base := context.Background()
			other, err := backend.Records().CreateWorkspace(base, "Other", "alice")
			Expect(err).NotTo(HaveOccurred())
			project, err := backend.Records().CreateProject(base, other.ID, "P")
			Expect(err).NotTo(HaveOccurred())
			tab, err := backend.Records().CreateTab(base, project.ID, "T")
			Expect(err).NotTo(HaveOccurred())
			id, err := backend.Records().CreateTask(base, tab.ID, "Foreign")
			Expect(err).NotTo(HaveOccurred())

			res := actions.CreateEntityLink(ctx, newTask("Local"), types.EntityKey{Type: types.EntityTask, ID: id})
			Expect(res.Error).To(Equal("Cannot link entities from different workspaces"))
		})

		It("stores a link once", func() {
			src, dst := newBlock("Notes"), newTask("Build")
			Expect(actions.CreateEntityLink(ctx, src, dst).Ok()).To(BeTrue())
			Expect(actions.CreateEntityLink(ctx, src, dst).Error).To(Equal("This link already exists"))

			links := actions.GetEntityLinks(ctx, src)
			Expect(links.Data.Outgoing).To(HaveLen(1))
		})

		It("treats removal of absent links and values as success", func() {
			src, dst := newBlock("Notes"), newTask("Build")
			def := newDefinition("Estimate", types.PropertyNumber)
			for range 2 {
				Expect(actions.RemoveEntityLink(ctx, src, dst).Ok()).To(BeTrue())
				Expect(actions.RemoveEntityProperty(ctx, dst, def.ID).Ok()).To(BeTrue())
			}
		})
	})

	Describe("filter conjunction", func() {
		It("keeps only entities matching every filter", func() {
			status := newDefinition("Status", types.PropertyStatus, "todo", "done")
			priority := newDefinition("Priority", types.PropertySelect, "low", "high")
			statusOnly, priorityOnly, both := newTask("Status only"), newTask("Priority only"), newTask("Both")
			setValue(statusOnly, status, "done")
			setValue(priorityOnly, priority, "high")
			setValue(both, status, "done")
			setValue(both, priority, "high")

			res := actions.QueryEntities(ctx, types.QueryEntitiesParams{
				WorkspaceID: ws,
				EntityTypes: []types.EntityType{types.EntityTask},
				Properties: []types.PropertyFilter{
					{PropertyDefinitionID: status.ID, Operator: types.OpEquals, Value: "done"},
					{PropertyDefinitionID: priority.ID, Operator: types.OpEquals, Value: "high"},
				},
			})
			Expect(res.Error).To(BeEmpty())
			Expect(res.Data).To(ConsistOf(HaveField("ID", both.ID)))
		})
	})

	Describe("access", func() {
		It("refuses callers outside the workspace", func() {
			outsider := access.WithCaller(context.Background(), "mallory")
			res := actions.GetPropertyDefinitions(outsider, ws)
			Expect(res.Error).To(Equal("You do not have access to this workspace"))
		})
	})
})
