package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JovaniPink/mcp-browser-use/internal/di"

	"github.com/spf13/cobra"
)

var runHints string

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run one browser agent task and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTask,
}

func init() {
	runCmd.Flags().StringVar(&runHints, "hints", "", "additional information for the agent")
	runCmd.Flags().String("log-level", "info", "log level: debug, info, warn or error")
	runCmd.Flags().String("log-file", "", "also write JSON logs to this file, rotated")
	rootCmd.AddCommand(runCmd)
}

func runTask(cmd *cobra.Command, args []string) error {
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

	result, err := c.Coordinator.StartRun(ctx, strings.Join(args, " "), runHints)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
