package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/emberly/internal/presentation/graph"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation state machine",
	Long:  `Outputs a Mermaid diagram (graph TD) of the transition table, optionally highlighting a current state and a path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := cmd.Flags().GetString("current")
		visited, _ := cmd.Flags().GetStringSlice("visited")

		var overlay *graph.GraphOverlay
		if current != "" || len(visited) > 0 {
			overlay = &graph.GraphOverlay{Current: domain.State(strings.ToLower(current))}
			if current != "" && !overlay.Current.Valid() {
				return fmt.Errorf("unknown state %q", current)
			}
			for _, v := range visited {
				s := domain.State(strings.ToLower(strings.TrimSpace(v)))
				if !s.Valid() {
					return fmt.Errorf("unknown state %q", v)
				}
				overlay.Visited = append(overlay.Visited, s)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(domain.Rules(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("current", "", "State to highlight as current")
	graphCmd.Flags().StringSlice("visited", nil, "States to highlight as visited")
}
