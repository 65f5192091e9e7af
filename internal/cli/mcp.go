package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/emberly/internal/config"
	"github.com/aretw0/emberly/pkg/adapters/mcp"
)

// Supported MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// MCPOptions contains the configuration for the mcp command.
type MCPOptions struct {
	ConfigPath string
	Transport  string
	Addr       string
	// PublicURL is the base URL SSE clients use to reach Addr.
	PublicURL string
	Debug     bool
}

// RunMCP exposes one conversation as an MCP server.
func RunMCP(ctx context.Context, opts MCPOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
	log.SetOutput(os.Stderr)
	logger := createLogger(cfg.Logging.Level, opts.Debug)

	engine, cleanup, err := createEngine(cfg, logger, nil, opts.Debug)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mcp.NewServer(engine, mcp.WithLogger(logger))

	switch opts.Transport {
	case TransportStdio, "":
		logger.Info("Starting emberly MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		return srv.ServeSSE(ctx, opts.Addr, opts.PublicURL)
	default:
		return fmt.Errorf("unknown transport: %s. Supported: %s, %s", opts.Transport, TransportStdio, TransportSSE)
	}
}
