package keystone_test

import (
	"context"
	"testing"

	"github.com/aretw0/keystone"
	"github.com/aretw0/keystone/pkg/adapters/memory"
	"github.com/aretw0/keystone/pkg/model"
	"github.com/aretw0/keystone/pkg/observability"
	"github.com/aretw0/keystone/pkg/session"
	"github.com/aretw0/keystone/pkg/undo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setName(ctx context.Context, n *model.Node, name string) error {
	return model.Run(ctx, n, "setName", func(ctx context.Context) error {
		return n.Set(ctx, "name", name)
	}, name)
}

func TestTrackNilRoot(t *testing.T) {
	_, err := keystone.Track(context.Background(), nil)
	assert.Error(t, err)
}

func TestTrackInMemory(t *testing.T) {
	ctx := context.Background()
	tree := model.MustNewTree(map[string]any{"name": "a"})
	sess, err := keystone.Track(ctx, tree.Root())
	require.NoError(t, err)

	require.NoError(t, setName(ctx, tree.Root(), "b"))
	assert.Empty(t, sess.ID())
	assert.True(t, sess.CanUndo())
	require.NoError(t, sess.Save(ctx), "save without persistence is a no-op")

	sess.Close()
	require.NoError(t, setName(ctx, tree.Root(), "c"))
	assert.Equal(t, 1, sess.Manager().UndoLevels(), "closed sessions stop recording")

	require.NoError(t, sess.Undo(ctx))
	v, _ := tree.Root().Get("name")
	assert.Equal(t, "c", v, "undo only reverts the recorded event")
}

func TestTrackSharedStore(t *testing.T) {
	ctx := context.Background()
	store := undo.NewStore()
	tree := model.MustNewTree(map[string]any{"name": "a"})

	sess, err := keystone.Track(ctx, tree.Root(), keystone.WithStore(store), keystone.WithEmptyEvents(false))
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, model.Run(ctx, tree.Root(), "noop", func(context.Context) error { return nil }))
	require.NoError(t, setName(ctx, tree.Root(), "b"))

	assert.Len(t, store.UndoEvents(), 1)
	assert.Same(t, store, sess.Manager().Store())
}

func TestTrackWithPersistence(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	sessions := session.NewManager(backend)

	tree := model.MustNewTree(map[string]any{"name": "a"})
	sess, err := keystone.Track(ctx, tree.Root(), keystone.WithPersistence(sessions, ""))
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID(), "an ID is generated")

	require.NoError(t, setName(ctx, tree.Root(), "b"))
	require.NoError(t, setName(ctx, tree.Root(), "c"))
	require.NoError(t, sess.Undo(ctx))

	saved, err := backend.Load(ctx, sess.ID())
	require.NoError(t, err)
	assert.Len(t, saved.UndoEvents, 1)
	assert.Len(t, saved.RedoEvents, 1)
	sess.Close()

	// A second process picks the history up and keeps undoing.
	reopened, err := keystone.Track(ctx, tree.Root(), keystone.WithPersistence(sessions, sess.ID()))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Manager().UndoLevels())
	require.NoError(t, reopened.Undo(ctx))
	v, _ := tree.Root().Get("name")
	assert.Equal(t, "a", v)
}

func TestTrackWithMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	tree := model.MustNewTree(map[string]any{"name": "a"})
	sess, err := keystone.Track(ctx, tree.Root(), keystone.WithMetrics(metrics))
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, setName(ctx, tree.Root(), "b"))
	require.NoError(t, sess.Undo(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActionsStarted.WithLabelValues("setName")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOps.WithLabelValues("undo")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.QueueDepth.WithLabelValues("undo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueueDepth.WithLabelValues("redo")))
}
