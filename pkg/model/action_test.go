package model_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleLog struct {
	mu     sync.Mutex
	events []string
}

func (l *lifecycleLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *lifecycleLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *lifecycleLog) hooks() model.Hooks {
	return model.Hooks{
		Start:   func(ac *model.ActionContext) { l.add("start:%s", ac.Name()) },
		Resume:  func(ac *model.ActionContext) { l.add("resume:%s", ac.Name()) },
		Suspend: func(ac *model.ActionContext) { l.add("suspend:%s", ac.Name()) },
		Finish: func(ac *model.ActionContext, err error) {
			if err != nil {
				l.add("finish:%s:err", ac.Name())
				return
			}
			l.add("finish:%s", ac.Name())
		},
	}
}

func TestRunNestedLifecycle(t *testing.T) {
	tree := model.MustNewTree(todoSnapshot())
	root := tree.Root()
	log := &lifecycleLog{}
	defer tree.Use(log.hooks())()

	var outer, inner *model.ActionContext
	err := model.Run(context.Background(), root, "outer", func(ctx context.Context) error {
		outer, _ = model.FromContext(ctx)
		return model.Run(ctx, root.Child("list"), "inner", func(ctx context.Context) error {
			inner, _ = model.FromContext(ctx)
			return nil
		})
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start:outer", "resume:outer",
		"suspend:outer", "start:inner", "resume:inner",
		"suspend:inner", "finish:inner", "resume:outer",
		"suspend:outer", "finish:outer",
	}, log.snapshot())

	assert.True(t, outer.IsRoot())
	assert.False(t, inner.IsRoot())
	assert.Same(t, outer, inner.Root())
	assert.Same(t, outer, inner.Parent())
	assert.NotEqual(t, outer.ID(), inner.ID())
	assert.Nil(t, tree.Active())
}

func TestRunSideTableIsPerTransaction(t *testing.T) {
	tree := model.MustNewTree(todoSnapshot())
	root := tree.Root()
	type key struct{}

	var seen []any
	defer tree.Use(model.Hooks{
		Start: func(ac *model.ActionContext) {
			if ac.IsRoot() {
				ac.SetData(key{}, ac.Name())
			}
		},
		Finish: func(ac *model.ActionContext, _ error) {
			v, _ := ac.Data(key{})
			seen = append(seen, v)
			if ac.IsRoot() {
				ac.DeleteData(key{})
			}
		},
	})()

	err := model.Run(context.Background(), root, "a", func(ctx context.Context) error {
		return model.Run(ctx, root, "b", func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	run(t, root, "c", func(ctx context.Context) error { return nil })

	assert.Equal(t, []any{"a", "a", "c"}, seen)
}

func TestRunFinishesOnErrorAndPanic(t *testing.T) {
	tree := model.MustNewTree(todoSnapshot())
	root := tree.Root()
	log := &lifecycleLog{}
	defer tree.Use(log.hooks())()

	boom := errors.New("boom")
	err := model.Run(context.Background(), root, "fails", func(ctx context.Context) error {
		require.NoError(t, root.Set(ctx, "partial", true))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	v, ok := root.Get("partial")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = model.Run(context.Background(), root, "panics", func(ctx context.Context) error {
			panic("kaboom")
		})
	})

	events := log.snapshot()
	assert.Contains(t, events, "finish:fails:err")
	assert.Contains(t, events, "finish:panics:err")

	// The scheduling lock must have been released by the panicking action.
	run(t, root, "after", func(ctx context.Context) error { return nil })
	assert.Nil(t, tree.Active())
}

func TestAwaitInterleaving(t *testing.T) {
	tree := model.MustNewTree(map[string]any{"x": 0, "y": 0})
	root := tree.Root()
	log := &lifecycleLog{}
	defer tree.Use(log.hooks())()

	suspended := make(chan struct{})
	yDone := make(chan struct{})
	xDone := make(chan error, 1)

	go func() {
		xDone <- model.Run(context.Background(), root, "x", func(ctx context.Context) error {
			if err := root.Set(ctx, "x", 1); err != nil {
				return err
			}
			err := model.Await(ctx, func(inner context.Context) error {
				_, inAction := model.FromContext(inner)
				assert.False(t, inAction)
				close(suspended)
				<-yDone
				return nil
			})
			if err != nil {
				return err
			}
			return root.Set(ctx, "x", 2)
		})
	}()

	<-suspended
	run(t, root, "y", func(ctx context.Context) error { return root.Set(ctx, "y", 1) })
	close(yDone)
	require.NoError(t, <-xDone)

	assert.Equal(t, map[string]any{"x": 2, "y": 1}, tree.Snapshot())
	assert.Equal(t, []string{
		"start:x", "resume:x", "suspend:x",
		"start:y", "resume:y", "suspend:y", "finish:y",
		"resume:x", "suspend:x", "finish:x",
	}, log.snapshot())
}

func TestAwaitRejectsMutationWhileSuspended(t *testing.T) {
	tree := model.MustNewTree(map[string]any{})
	root := tree.Root()

	err := model.Run(context.Background(), root, "outer", func(ctx context.Context) error {
		return model.Await(ctx, func(inner context.Context) error {
			err := root.Set(inner, "k", "v")
			assert.ErrorIs(t, err, model.ErrNotInAction)

			err = root.Set(ctx, "k", "v")
			assert.ErrorIs(t, err, model.ErrActionSuspended)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, tree.Snapshot())

	v, err := model.AwaitValue(context.Background(), func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestAwaitRejectsMutationWhileOtherActionRuns(t *testing.T) {
	tree := model.MustNewTree(map[string]any{"x": "x0", "y": "y0"})
	root := tree.Root()

	var yPatches []domain.Patch
	dispose := tree.OnPatches(root, func(p, _ domain.Patch) {
		if ac := tree.Active(); ac != nil && ac.Name() == "y" {
			yPatches = append(yPatches, p)
		}
	})
	defer dispose()

	parked := make(chan struct{})
	yRunning := make(chan struct{})
	xTried := make(chan struct{})
	var insideErr, throughXErr error

	xDone := make(chan error, 1)
	go func() {
		xDone <- model.Run(context.Background(), root, "x", func(ctx context.Context) error {
			return model.Await(ctx, func(inner context.Context) error {
				close(parked)
				<-yRunning
				insideErr = root.Set(inner, "x", "leak")
				throughXErr = root.Set(ctx, "x", "leak")
				close(xTried)
				return nil
			})
		})
	}()

	// y holds the tree while the parked x tries to write.
	<-parked
	run(t, root, "y", func(ctx context.Context) error {
		close(yRunning)
		<-xTried
		return root.Set(ctx, "y", "y1")
	})
	require.NoError(t, <-xDone)

	assert.ErrorIs(t, insideErr, model.ErrNotInAction)
	assert.ErrorIs(t, throughXErr, model.ErrActionSuspended)
	assert.Equal(t, map[string]any{"x": "x0", "y": "y1"}, tree.Snapshot())
	assert.Equal(t, []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"y"}, Value: "y1"}}, yPatches)
}

func TestRunThroughSuspendedContext(t *testing.T) {
	tree := model.MustNewTree(map[string]any{})
	root := tree.Root()

	var captured context.Context
	err := model.Run(context.Background(), root, "outer", func(ctx context.Context) error {
		captured = ctx
		return model.Run(ctx, root, "inner", func(context.Context) error {
			err := model.Run(captured, root, "through-parent", func(context.Context) error { return nil })
			assert.ErrorIs(t, err, model.ErrActionSuspended)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestApplyPatchesRollsBack(t *testing.T) {
	tree := model.MustNewTree(todoSnapshot())
	root := tree.Root()
	before := tree.Snapshot()

	err := model.ApplyPatches(context.Background(), root, []domain.Patch{
		{Op: domain.OpReplace, Path: domain.Path{"list", "0", "done"}, Value: true},
		{Op: domain.OpAdd, Path: domain.Path{"list", "-"}, Value: map[string]any{"text": "new"}},
		{Op: domain.OpRemove, Path: domain.Path{"missing", "key"}},
	})

	var perr *domain.PatchError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Index)
	assert.ErrorIs(t, err, domain.ErrPatchApplication)
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
	assert.Equal(t, before, tree.Snapshot())
}

func TestApplyPatchesRunsAsAction(t *testing.T) {
	tree := model.MustNewTree(map[string]any{"a": 1})
	root := tree.Root()

	var names []string
	defer tree.Use(model.Hooks{Start: func(ac *model.ActionContext) { names = append(names, ac.Name()) }})()

	require.NoError(t, model.ApplyPatches(context.Background(), root, []domain.Patch{
		{Op: domain.OpReplace, Path: domain.Path{"a"}, Value: 2},
	}))
	assert.Equal(t, []string{model.ApplyPatchesAction}, names)
	assert.Equal(t, map[string]any{"a": 2}, tree.Snapshot())
}
