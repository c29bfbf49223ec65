package mcp

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const endpointPath = "/mcp"

type HTTPOptions struct {
	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
	// AccessLog receives the JSON request log. Defaults to stdout.
	AccessLog io.Writer
	// Logger receives protocol errors from the streamable transport.
	Logger output.LoggerPort
}

// NewHTTPHandler exposes the server as a stateless streamable HTTP endpoint
// on /mcp together with health and metrics endpoints.
func NewHTTPHandler(server *Server, opts HTTPOptions) http.Handler {
	accessLog := httplog.NewLogger("mcp-browser-use", httplog.Options{
		JSON:    true,
		Concise: true,
	})
	if opts.AccessLog != nil {
		accessLog = accessLog.Output(opts.AccessLog)
	}
	log := opts.Logger
	if log == nil {
		log = server.logger
	}

	streamable := mcpserver.NewStreamableHTTPServer(server.MCP(),
		mcpserver.WithEndpointPath(endpointPath),
		mcpserver.WithStateLess(true),
		mcpserver.WithDisableStreaming(true),
		mcpserver.WithLogger(protocolLogger{log: log.WithField("transport", "http")}),
	)

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)

	r.Handle(endpointPath, streamable)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"running": server.Running(),
		})
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
