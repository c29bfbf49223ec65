package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

	"github.com/joho/godotenv"
)

type EnvService struct {
	appEnv string
}

// NewEnvService loads .env and then .env.$APP_ENV on top of the process
// environment. Missing files are not an error.
func NewEnvService(log output.LoggerPort) *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Debug("No .env file found", "error", err)
	}

	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err != nil {
		log.Debug("Could not load env overlay", "file", envFile, "error", err)
	}

	log.Debug("Environment loaded", "app_env", appEnv)

	return &EnvService{appEnv: appEnv}
}

func (e *EnvService) AppEnv() string {
	return e.appEnv
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

// Environ snapshots the current process environment. Resolvers read only
// from the snapshot so a run sees a consistent view.
func (e *EnvService) Environ() map[string]string {
	return ParseEnviron(os.Environ())
}

func ParseEnviron(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
