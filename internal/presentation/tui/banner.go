package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/emberly/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintBanner writes the emberly banner and version to w.
// Colors follow the terminal profile; plain text on dumb outputs.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"                 _             _", "#fdba74"},
		{"   ___ _ __ ___ | |__   ___ _ __| |_   _", "#fb923c"},
		{"  / _ \\ '_ ` _ \\| '_ \\ / _ \\ '__| | | | |", "#f97316"},
		{" |  __/ | | | | | |_) |  __/ |  | | |_| |", "#ea580c"},
		{"  \\___|_| |_| |_|_.__/ \\___|_|  |_|\\__, |", "#c2410c"},
		{"                                   |___/", "#9a3412"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintf(w, "  v%s\n\n", strings.TrimSpace(version))
}

var stateColors = map[domain.State]string{
	domain.StateIdle:      "#94a3b8",
	domain.StateListening: "#38bdf8",
	domain.StateThinking:  "#a78bfa",
	domain.StateSpeaking:  "#4ade80",
	domain.StateError:     "#f87171",
	domain.StateCanceled:  "#fbbf24",
}

// StateLabel renders a state name in its color for the given output.
func StateLabel(out *termenv.Output, state domain.State) string {
	s := out.String(string(state)).Bold()
	if c, ok := stateColors[state]; ok {
		s = s.Foreground(out.Color(c))
	}
	return s.String()
}
