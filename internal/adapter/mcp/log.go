package mcp

import (
	"fmt"
	"log"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
)

// protocolLogger routes mcp-go transport logs into the application logger.
type protocolLogger struct {
	log output.LoggerPort
}

func (l protocolLogger) Infof(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l protocolLogger) Errorf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l protocolLogger) Write(p []byte) (int, error) {
	l.log.Error(strings.TrimSpace(string(p)))
	return len(p), nil
}

func (l protocolLogger) stdLogger() *log.Logger {
	return log.New(l, "", 0)
}
