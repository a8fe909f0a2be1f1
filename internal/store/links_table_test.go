package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func newLink(ws string, source, target types.EntityKey) *types.EntityLink {
	return &types.EntityLink{
		SourceEntityType: source.Type,
		SourceEntityID:   source.ID,
		TargetEntityType: target.Type,
		TargetEntityID:   target.ID,
		WorkspaceID:      ws,
	}
}

func TestLinksTable(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "create then list both directions",
			check: func(t *testing.T, b *Backend) {
				ctx := context.Background()
				src := types.EntityKey{Type: types.EntityBlock, ID: uuid.NewString()}
				dst := types.EntityKey{Type: types.EntityTask, ID: uuid.NewString()}
				link := newLink("ws", src, dst)
				require.NoError(t, b.Links().CreateLink(ctx, link))
				assert.NotEmpty(t, link.ID)

				out, err := b.Links().Outgoing(ctx, src)
				require.NoError(t, err)
				require.Len(t, out, 1)
				assert.Equal(t, link.ID, out[0].ID)
				assert.Equal(t, dst, out[0].Target())

				in, err := b.Links().Incoming(ctx, dst)
				require.NoError(t, err)
				require.Len(t, in, 1)
				assert.Equal(t, src, in[0].Source())

				none, err := b.Links().Incoming(ctx, src)
				require.NoError(t, err)
				assert.Empty(t, none)
			},
		},
		{
			name: "duplicate pair is rejected, reverse direction is not",
			check: func(t *testing.T, b *Backend) {
				ctx := context.Background()
				a := types.EntityKey{Type: types.EntityTask, ID: uuid.NewString()}
				c := types.EntityKey{Type: types.EntityTask, ID: uuid.NewString()}
				require.NoError(t, b.Links().CreateLink(ctx, newLink("ws", a, c)))
				assert.ErrorIs(t, b.Links().CreateLink(ctx, newLink("ws", a, c)), types.ErrAlreadyExists)
				assert.NoError(t, b.Links().CreateLink(ctx, newLink("ws", c, a)))
			},
		},
		{
			name: "delete is idempotent and allows relinking",
			check: func(t *testing.T, b *Backend) {
				ctx := context.Background()
				a := types.EntityKey{Type: types.EntityBlock, ID: uuid.NewString()}
				c := types.EntityKey{Type: types.EntitySubtask, ID: uuid.NewString()}
				require.NoError(t, b.Links().CreateLink(ctx, newLink("ws", a, c)))
				require.NoError(t, b.Links().DeleteLink(ctx, a, c))
				require.NoError(t, b.Links().DeleteLink(ctx, a, c))
				out, err := b.Links().Outgoing(ctx, a)
				require.NoError(t, err)
				assert.Empty(t, out)
				assert.NoError(t, b.Links().CreateLink(ctx, newLink("ws", a, c)))
			},
		},
		{
			name: "incoming batch is ordered by creation",
			check: func(t *testing.T, b *Backend) {
				ctx := context.Background()
				t1 := types.EntityKey{Type: types.EntityTask, ID: uuid.NewString()}
				t2 := types.EntityKey{Type: types.EntityTask, ID: uuid.NewString()}
				var want []string
				for _, target := range []types.EntityKey{t2, t1, t2} {
					src := types.EntityKey{Type: types.EntityBlock, ID: uuid.NewString()}
					link := newLink("ws", src, target)
					require.NoError(t, b.Links().CreateLink(ctx, link))
					want = append(want, link.ID)
				}

				got, err := b.Links().IncomingBatch(ctx, types.EntityTask, []string{t1.ID, t2.ID})
				require.NoError(t, err)
				var ids []string
				for _, l := range got {
					ids = append(ids, l.ID)
				}
				assert.Equal(t, want, ids)

				empty, err := b.Links().IncomingBatch(ctx, types.EntityTask, nil)
				require.NoError(t, err)
				assert.Empty(t, empty)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachBackend(t, tt.check)
		})
	}
}
