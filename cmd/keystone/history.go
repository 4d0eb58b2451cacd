package main

import (
	"fmt"
	"io"

	"github.com/aretw0/keystone/internal/cli"
	"github.com/aretw0/keystone/pkg/domain"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage persisted undo histories",
	Long:  `List, inspect, and remove the undo/redo histories stored by the configured backend.`,
}

type sessionSummary struct {
	ID         string `json:"id"`
	UndoLevels int    `json:"undo_levels"`
	RedoLevels int    `json:"redo_levels"`
}

var historyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		ids, err := b.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		summaries := make([]sessionSummary, 0, len(ids))
		for _, id := range ids {
			h, err := b.Store.Load(cmd.Context(), id)
			if err != nil {
				logger.Warn("skipping unreadable session", "session_id", id, "err", err)
				continue
			}
			summaries = append(summaries, sessionSummary{ID: id, UndoLevels: len(h.UndoEvents), RedoLevels: len(h.RedoEvents)})
		}

		out := cmd.OutOrStdout()
		format, _ := cmd.Flags().GetString("output")
		if format != formatText {
			return writeStructured(out, format, summaries)
		}
		if len(summaries) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		p := newPalette(out)
		fmt.Fprintln(out, p.title("Sessions:"))
		for _, s := range summaries {
			fmt.Fprintf(out, "- %s  %s %s\n", s.ID,
				p.undo(fmt.Sprintf("undo=%d", s.UndoLevels)),
				p.redo(fmt.Sprintf("redo=%d", s.RedoLevels)))
		}
		return nil
	},
}

var historyInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the undo and redo events of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		h, err := b.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load session %q: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		format, _ := cmd.Flags().GetString("output")
		stack, _ := cmd.Flags().GetString("stack")
		var v any = h
		switch stack {
		case "":
		case "undo":
			v = h.UndoEvents
		case "redo":
			v = h.RedoEvents
		default:
			return fmt.Errorf("unknown stack %q (want undo or redo)", stack)
		}
		if format != formatText {
			return writeStructured(out, format, v)
		}

		p := newPalette(out)
		if stack != "redo" {
			printEvents(out, p, p.undo("Undo queue")+p.faint(" (oldest first)"), h.UndoEvents)
		}
		if stack != "undo" {
			printEvents(out, p, p.redo("Redo queue")+p.faint(" (oldest first)"), h.RedoEvents)
		}
		return nil
	},
}

func printEvents(w io.Writer, p palette, title string, events []domain.UndoEvent) {
	fmt.Fprintln(w, p.title(title))
	if len(events) == 0 {
		fmt.Fprintln(w, p.faint("  (empty)"))
		return
	}
	for i, ev := range events {
		fmt.Fprintf(w, "  %2d. %s on %s %s\n", i+1, p.action(ev.ActionName), ev.TargetPath.Pointer(),
			p.faint(fmt.Sprintf("(%d patches)", len(ev.Patches))))
		for _, patch := range ev.Patches {
			fmt.Fprintf(w, "      %-7s %s", patch.Op, patch.Path.Pointer())
			if patch.Op != domain.OpRemove {
				fmt.Fprintf(w, " = %v", patch.Value)
			}
			fmt.Fprintln(w)
		}
	}
}

var historyRmCmd = &cobra.Command{
	Use:   "rm [session-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("requires at least one session id or --all")
		}

		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if all {
			args, err = b.Store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
		}
		return removeSessions(cmd, b, args)
	},
}

func removeSessions(cmd *cobra.Command, b *cli.Backend, ids []string) error {
	failed := 0
	for _, id := range ids {
		if err := b.Store.Delete(cmd.Context(), id); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions could not be removed", failed, len(ids))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyLsCmd)
	historyCmd.AddCommand(historyInspectCmd)
	historyCmd.AddCommand(historyRmCmd)

	historyLsCmd.Flags().StringP("output", "o", formatText, "Output format: text, json or yaml")
	historyInspectCmd.Flags().StringP("output", "o", formatText, "Output format: text, json or yaml")
	historyInspectCmd.Flags().String("stack", "", "Only show one stack: undo or redo")
	historyRmCmd.Flags().Bool("all", false, "Remove every stored session")
}
