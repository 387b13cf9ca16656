// server is the NovaPort context server binary. It exposes the
// workspace context tools over an MCP stdio transport (default) or an
// HTTP API mirroring the tool set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"novaport-mcp/internal/api"
	"novaport-mcp/internal/config"
	"novaport-mcp/internal/embeddings"
	"novaport-mcp/internal/logging"
	"novaport-mcp/internal/tools"
	"novaport-mcp/internal/workspace"
)

const version = "1.0.0"

func main() {
	var (
		mode        = flag.String("mode", "stdio", "Server mode: stdio or http")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config when mode=http)")
		showVersion = flag.Bool("version", false, "Print the version and exit")
	)
	flag.BoolVar(showVersion, "v", false, "Print the version and exit (shorthand)")
	flag.Parse()

	if *showVersion {
		// stdout carries the MCP stream in stdio mode, so informational
		// output goes to stderr.
		color.New(color.FgCyan).Fprintf(os.Stderr, "novaport-mcp %s\n", version)
		return
	}

	// "start" is the default and only subcommand.
	if args := flag.Args(); len(args) > 0 && args[0] != "start" {
		fmt.Fprintf(os.Stderr, "unknown command %q (expected 'start')\n", args[0])
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logging.New(logging.ParseLevel(cfg.Log.Level)))
	logger := logging.WithComponent("main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "stdio":
		if err := runStdio(ctx, cfg); err != nil {
			logger.Error("stdio server failed", "error", err.Error())
			os.Exit(1)
		}
	case "http":
		listen := *addr
		if listen == "" {
			listen = cfg.HTTP.Addr()
		}
		if err := runHTTP(ctx, cfg, listen); err != nil {
			logger.Error("http server failed", "error", err.Error())
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "invalid mode %q: use 'stdio' or 'http'\n", *mode)
		os.Exit(2)
	}
}

func runStdio(ctx context.Context, cfg *config.Config) error {
	cs, err := tools.NewContextServer(cfg)
	if err != nil {
		return err
	}
	defer cs.Close()

	if err := cs.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runHTTP(ctx context.Context, cfg *config.Config, addr string) error {
	logger := logging.WithComponent("http")
	registry := workspace.NewRegistry(cfg.Database, cfg.Embeddings.Dimensions)
	defer registry.Close()

	router := api.NewRouter(registry, embeddings.NewLazy(cfg.Embeddings), cfg.HTTP.MaxRequestBytes)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
