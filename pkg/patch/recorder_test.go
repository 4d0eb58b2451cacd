package patch_test

import (
	"context"
	"testing"

	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/model"
	"github.com/aretw0/keystone/pkg/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mutate(t *testing.T, n *model.Node, fn func(ctx context.Context) error) {
	t.Helper()
	require.NoError(t, model.Run(context.Background(), n, "mutate", fn))
}

func TestRecorder(t *testing.T) {
	tree := model.MustNewTree(map[string]any{"counter": 0, "tags": []any{}})
	root := tree.Root()
	tags := root.Child("tags")

	rec := patch.NewRecorder(root)
	defer rec.Dispose()

	mutate(t, root, func(ctx context.Context) error {
		if err := root.Set(ctx, "counter", 1); err != nil {
			return err
		}
		if err := tags.Append(ctx, "a"); err != nil {
			return err
		}
		return root.Set(ctx, "counter", 2)
	})

	assert.Equal(t, 3, rec.Len())
	assert.Equal(t, []domain.Patch{
		{Op: domain.OpReplace, Path: domain.Path{"counter"}, Value: 1},
		{Op: domain.OpAdd, Path: domain.Path{"tags", "0"}, Value: "a"},
		{Op: domain.OpReplace, Path: domain.Path{"counter"}, Value: 2},
	}, rec.Patches())
	assert.Equal(t, []domain.Patch{
		{Op: domain.OpReplace, Path: domain.Path{"counter"}, Value: 1},
		{Op: domain.OpRemove, Path: domain.Path{"tags", "0"}},
		{Op: domain.OpReplace, Path: domain.Path{"counter"}, Value: 0},
	}, rec.InversePatches())

	require.NoError(t, model.ApplyPatches(context.Background(), root, rec.InversePatches()))
	assert.Equal(t, map[string]any{"counter": 0, "tags": []any{}}, tree.Snapshot())
}

func TestRecorderPauseAndDispose(t *testing.T) {
	tree := model.MustNewTree(map[string]any{"a": 0})
	root := tree.Root()

	rec := patch.NewRecorder(root, patch.WithRecording(false))
	assert.False(t, rec.Recording())

	mutate(t, root, func(ctx context.Context) error { return root.Set(ctx, "a", 1) })
	assert.Equal(t, 0, rec.Len())

	rec.SetRecording(true)
	mutate(t, root, func(ctx context.Context) error { return root.Set(ctx, "a", 2) })
	rec.SetRecording(false)
	mutate(t, root, func(ctx context.Context) error { return root.Set(ctx, "a", 3) })
	assert.Equal(t, 1, rec.Len())

	rec.SetRecording(true)
	rec.Dispose()
	rec.Dispose()
	mutate(t, root, func(ctx context.Context) error { return root.Set(ctx, "a", 4) })
	assert.Equal(t, []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"a"}, Value: 2}}, rec.Patches())
}
