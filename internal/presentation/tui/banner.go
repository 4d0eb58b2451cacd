package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{" _  __         _                   ", "#818cf8"},
	{"| |/ /___ _  _| |_ ___ _ _  ___    ", "#a78bfa"},
	{"| ' </ -_) || (_-<  _/ _ \\ ' \\/ -_)", "#c084fc"},
	{"|_|\\_\\___|\\_, /__/\\__\\___/_||_\\___|", "#e879f9"},
	{"          |__/                     ", "#f472b6"},
}

// PrintBanner writes the keystone banner followed by the version.
// Colours are dropped when profile is termenv.Ascii.
func PrintBanner(w io.Writer, profile termenv.Profile, version string) {
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, profile.String(l.text).Foreground(profile.Color(l.color)))
	}
	fmt.Fprintln(w, profile.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
