package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"      _ _                 _       _     ", "#38bdf8"},
	{"   __| (_)___ _ __   __ _| |_ ___| |__  ", "#818cf8"},
	{"  / _` | / __| '_ \\ / _` | __/ __| '_ \\ ", "#a78bfa"},
	{" | (_| | \\__ \\ |_) | (_| | || (__| | | |", "#c084fc"},
	{"  \\__,_|_|___/ .__/ \\__,_|\\__\\___|_| |_|", "#e879f9"},
	{"             |_|                        ", "#f472b6"},
}

// PrintBanner writes the dispatch banner and version to w. Colors follow the
// terminal profile and are dropped when color is false.
func PrintBanner(w io.Writer, version string, color bool) {
	p := termenv.ColorProfile()
	if !color {
		p = termenv.Ascii
	}

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", p.String("v"+version).Faint())
}
