package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeStructured prints v as indented JSON or YAML. YAML keys follow the JSON tags.
func writeStructured(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case formatJSON:
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

// palette colours terminal output. It is plain when stdout is not a terminal.
type palette struct {
	profile termenv.Profile
}

func newPalette(w io.Writer) palette {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return palette{profile: termenv.Ascii}
	}
	return palette{profile: termenv.ColorProfile()}
}

func (p palette) paint(s, hex string) string {
	return p.profile.String(s).Foreground(p.profile.Color(hex)).String()
}

func (p palette) title(s string) string  { return p.profile.String(s).Bold().String() }
func (p palette) action(s string) string { return p.paint(s, "#818cf8") }
func (p palette) undo(s string) string   { return p.paint(s, "#f472b6") }
func (p palette) redo(s string) string   { return p.paint(s, "#34d399") }
func (p palette) faint(s string) string  { return p.paint(s, "#9ca3af") }
