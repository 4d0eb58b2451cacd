package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/keystone"
	"github.com/aretw0/keystone/examples/todolist"
	"github.com/aretw0/keystone/internal/presentation/tui"
	"github.com/aretw0/keystone/pkg/model"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted todo list session with undo and redo",
	Long: `Creates a sample todo list, runs a few actions on it, undoes and redoes some of them,
and persists the resulting history in the configured store under a new session ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		list, err := todolist.Sample(model.WithLogger(logger))
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		sess, err := keystone.Track(ctx, list.Node(),
			keystone.WithLogger(logger),
			keystone.WithPersistence(b.Sessions(cfg.Store, logger), ""),
		)
		if err != nil {
			return err
		}
		defer sess.Close()

		return runDemo(ctx, cmd.OutOrStdout(), list, sess)
	},
}

func runDemo(ctx context.Context, out io.Writer, list *todolist.TodoList, sess *keystone.Session) error {
	p := newPalette(out)
	tui.PrintBanner(out, p.profile, keystone.Version)
	show := func(title string) {
		fmt.Fprintln(out, p.title(title))
		for _, t := range list.Todos() {
			mark := "[ ]"
			if t.Done() {
				mark = "[x]"
			}
			fmt.Fprintf(out, "  %s %s\n", mark, t.Text())
		}
		fmt.Fprintln(out, p.faint(fmt.Sprintf("  undo=%d redo=%d", sess.Manager().UndoLevels(), sess.Manager().RedoLevels())))
	}
	step := func(name string, fn func() error) error {
		fmt.Fprintf(out, "%s %s\n", p.action(">"), name)
		return fn()
	}

	show("Initial list")

	todos := list.Todos()
	steps := []struct {
		name string
		fn   func() error
	}{
		{"finish the first todo", func() error { return todos[0].SetDone(ctx, true) }},
		{"rename the second todo", func() error { return todos[1].SetText(ctx, "spread the word far and wide") }},
		{"add a todo", func() error {
			_, err := list.Add(ctx, "try undo/redo")
			return err
		}},
		{"clear finished todos", func() error { return list.ClearDone(ctx) }},
	}
	for _, s := range steps {
		if err := step(s.name, s.fn); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	show("After actions")

	for i := 0; i < 2; i++ {
		if err := step(p.undo("undo"), func() error { return sess.Undo(ctx) }); err != nil {
			return err
		}
	}
	show("After two undos")

	if err := step(p.redo("redo"), func() error { return sess.Redo(ctx) }); err != nil {
		return err
	}
	show("After one redo")

	fmt.Fprintf(out, "\nHistory saved as session %s\n", p.title(sess.ID()))
	fmt.Fprintf(out, "Inspect it with: keystone history inspect %s\n", sess.ID())
	return nil
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
