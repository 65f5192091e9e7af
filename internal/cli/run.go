package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/emberly"
	"github.com/aretw0/emberly/internal/config"
	"github.com/aretw0/emberly/internal/presentation/tui"
	"github.com/aretw0/emberly/pkg/runner"
	"golang.org/x/term"
)

// ChatOptions contains all the configuration for the chat command.
type ChatOptions struct {
	ConfigPath string
	// BaseURL, when set, talks to this API directly and skips the proxy.
	BaseURL  string
	JSON     bool
	Debug    bool
	NoBanner bool
}

// RunChat runs one interactive conversation on Stdin/Stdout until the user quits.
func RunChat(ctx context.Context, opts ChatOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.BaseURL != "" {
		cfg.API.BaseURL = opts.BaseURL
		cfg.API.UseProxy = false
	}

	logger := createLogger(cfg.Logging.Level, opts.Debug)
	engine, cleanup, err := createEngine(cfg, logger, nil, opts.Debug)
	if err != nil {
		return err
	}
	defer cleanup()

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.JSON),
	}
	if !opts.JSON && isTerminal(os.Stdout) {
		if !opts.NoBanner {
			tui.PrintBanner(os.Stdout, emberly.Version)
			printSystemMessage(os.Stdout, "Talking to %s", cfg.ClientBaseURL())
		}
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		runnerOpts = append(runnerOpts, runner.WithRenderer(tui.NewRenderer(width)))
	}

	err = runner.NewRunner(runnerOpts...).Run(ctx, engine)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("chat ended: %w", err)
	}
	return nil
}
