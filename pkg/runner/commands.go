package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/emberly/pkg/domain"
)

// ErrUnknownCommand is returned for a slash command that names no user event.
var ErrUnknownCommand = errors.New("unknown command")

// HelpText lists the commands understood by ParseCommand.
const HelpText = `Commands:
  /begin     open the composer
  /cancel    cancel the draft or the pending request
  /continue  write another message
  /replay    show the last response again
  /back      leave an error or canceled turn
  /quit      exit
Plain text is sent as a message. An empty line takes the next step.`

// Command is the parsed form of one input line.
type Command struct {
	// Events are dispatched in order.
	Events []domain.Event
	// Submit, when non-empty, is sent as a message after Events.
	Submit string
	Quit   bool
	Help   bool
}

// RESOLVE and FAIL are synthesized by the controller; SUBMIT needs text.
var slashEvents = map[string]domain.Event{
	"begin":    domain.EventBegin,
	"cancel":   domain.EventCancel,
	"back":     domain.EventBack,
	"continue": domain.EventContinue,
	"replay":   domain.EventReplay,
}

// ParseCommand maps an input line to a Command for the given state.
func ParseCommand(state domain.State, line string) (Command, error) {
	line = strings.TrimSpace(line)

	switch strings.ToLower(line) {
	case "exit", "quit", "/quit", "/exit":
		return Command{Quit: true}, nil
	case "/help", "?":
		return Command{Help: true}, nil
	}

	if strings.HasPrefix(line, "/") {
		ev, ok := slashEvents[strings.ToLower(line[1:])]
		if !ok {
			return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, line)
		}
		return Command{Events: []domain.Event{ev}}, nil
	}

	switch state {
	case domain.StateIdle:
		return Command{Events: []domain.Event{domain.EventBegin}, Submit: line}, nil
	case domain.StateListening:
		return Command{Submit: line}, nil
	case domain.StateSpeaking:
		return Command{Events: []domain.Event{domain.EventContinue}, Submit: line}, nil
	case domain.StateError, domain.StateCanceled:
		if line == "" {
			return Command{Events: []domain.Event{domain.EventBack}}, nil
		}
		return Command{Events: []domain.Event{domain.EventBack, domain.EventBegin}, Submit: line}, nil
	}
	// Thinking: text waits for the reply.
	return Command{}, nil
}
