package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the process-level settings. Agent and browser settings are
// resolved from the environment per run.
type Config struct {
	Transport       string
	HTTPAddr        string
	LogLevel        string
	LogFile         string
	ShutdownTimeout time.Duration
}

var configKeys = []struct {
	key, flag, env string
}{
	{"transport", "transport", "MCP_TRANSPORT"},
	{"http_addr", "addr", "MCP_HTTP_ADDR"},
	{"log_level", "log-level", "LOG_LEVEL"},
	{"log_file", "log-file", "MCP_LOG_FILE"},
	{"shutdown_timeout", "shutdown-timeout", "MCP_SHUTDOWN_TIMEOUT"},
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("transport", TransportStdio, "transport to serve on: stdio or http")
	f.String("addr", ":8080", "listen address for the http transport")
	f.String("log-level", "info", "log level: debug, info, warn or error")
	f.String("log-file", "", "also write JSON logs to this file, rotated")
	f.Duration("shutdown-timeout", 15*time.Second, "grace period for in-flight requests on shutdown")
}

// LoadConfig merges flags, environment and defaults, in that order of
// precedence. Flags only count when set explicitly.
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("shutdown_timeout", "15s")

	for _, k := range configKeys {
		if err := v.BindEnv(k.key, k.env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k.env, err)
		}
		if fl := cmd.Flags().Lookup(k.flag); fl != nil {
			if err := v.BindPFlag(k.key, fl); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", k.flag, err)
			}
		}
	}

	cfg := &Config{
		Transport:       v.GetString("transport"),
		HTTPAddr:        v.GetString("http_addr"),
		LogLevel:        v.GetString("log_level"),
		LogFile:         v.GetString("log_file"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return nil, fmt.Errorf("unknown transport %q (want %s or %s)", cfg.Transport, TransportStdio, TransportHTTP)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	return cfg, nil
}
