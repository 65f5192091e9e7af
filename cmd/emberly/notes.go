package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List saved notes",
	Long:  `Lists saved conversation notes. Persistence is not implemented yet; the store serves demonstration notes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, debug := commonFlags(cmd)
		jsonMode, _ := cmd.Flags().GetBool("json")

		logger := logging.NewNop()
		if debug {
			logger = logging.New(logging.ParseLevel("debug"))
		}
		notes, err := memory.NewNoteStore(logger).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing notes: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}
		for _, n := range notes {
			fmt.Fprintf(out, "%s  %s  [%s]\n    %s\n", n.ID, n.Title, strings.Join(n.Tags, ", "), n.Note)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.Flags().Bool("json", false, "Print notes as JSON")
}
