package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/emberly/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Visited []domain.State
	Current domain.State
}

// GenerateMermaid produces a Mermaid flowchart of the transition rules.
// It applies semantic styling:
// - idle: ((Circle))
// - thinking: [[Subroutine]], the only state with a request in flight
// - error and canceled: ([Stadium])
// - Default: [Rectangle]
// Self loops (REPLAY) are drawn dotted. Overlay styles are added if provided.
func GenerateMermaid(rules []domain.Rule, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[domain.State]bool)
	declare := func(s domain.State) {
		if seen[s] {
			return
		}
		seen[s] = true
		opener, closer := "[", "]"
		switch s {
		case domain.StateIdle:
			opener, closer = "((", "))"
		case domain.StateThinking:
			opener, closer = "[[", "]]"
		case domain.StateError, domain.StateCanceled:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", s, opener, s, closer)
	}

	for _, r := range rules {
		declare(r.From)
		declare(r.To)
	}

	for _, r := range rules {
		arrow := fmt.Sprintf("-- %s -->", r.Event)
		if r.From == r.To {
			arrow = fmt.Sprintf("-. %s .->", r.Event)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", r.From, arrow, r.To)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[domain.State]bool)
		for _, s := range overlay.Visited {
			if s == overlay.Current || styled[s] || !seen[s] {
				continue
			}
			styled[s] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", s)
		}
		if seen[overlay.Current] {
			fmt.Fprintf(&sb, "    class %s current;\n", overlay.Current)
		}
	}

	return sb.String()
}
