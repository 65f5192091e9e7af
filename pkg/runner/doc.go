/*
Package runner drives one conversation from a terminal or a JSON-lines pipe.

The Runner reads lines through a pluggable IOHandler, maps them to events for
the current state and re-renders after every committed change. Ctrl+C cancels
a pending or composing turn instead of killing the process.

# Key Components

  - Runner: the input loop. It owns signal handling and UI telemetry.
  - IOHandler: how snapshots are shown and lines are read.
  - TextHandler: interactive CLI usage.
  - JSONHandler: headless usage, one JSON frame per line.

# Usage

	eng, _ := emberly.New(baseURL)
	defer eng.Close()

	r := runner.NewRunner(runner.WithRenderer(tui.NewRenderer()))
	if err := r.Run(ctx, eng); err != nil {
		log.Fatal(err)
	}
*/
package runner
