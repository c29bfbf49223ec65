package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/adapter/mcp"
	"github.com/JovaniPink/mcp-browser-use/internal/di"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run_browser_agent tool over stdio or HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	addConfigFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := di.NewContainer(di.Config{LogLevel: cfg.LogLevel, LogFile: cfg.LogFile, Version: Version})
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Logger.Info("Starting MCP server", "transport", cfg.Transport, "version", Version)

	if cfg.Transport == TransportHTTP {
		return serveHTTP(ctx, c, cfg)
	}

	err = mcp.NewStdioTransport(c.Server, os.Stdin, os.Stdout, c.Logger).Serve(ctx)
	if errors.Is(err, context.Canceled) {
		c.Logger.Info("MCP server stopped")
		return nil
	}
	return err
}

func serveHTTP(ctx context.Context, c *di.Container, cfg *Config) error {
	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: mcp.NewHTTPHandler(c.Server, mcp.HTTPOptions{
			Metrics:   c.Metrics.Handler(),
			AccessLog: os.Stderr,
			Logger:    c.Logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("Shutting down HTTP server")
	c.Server.CancelAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
