package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAPIURL      = "GROCER_API_URL"
	envDatabaseURL = "GROCER_DATABASE_URL"
	envMinInterval = "GROCER_HTTP_MIN_INTERVAL_MS"
	envListenAddr  = "GROCER_LISTEN_ADDR"

	defaultListenAddr = ":8080"
)

// Runtime holds process settings read from the environment.
type Runtime struct {
	APIURL      string
	DatabaseURL string
	MinInterval time.Duration
	ListenAddr  string
}

// LoadDotEnv loads .env files into the process environment. Missing files are
// skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ResolveRuntime reads runtime settings through getenv.
func ResolveRuntime(getenv func(string) string) (Runtime, error) {
	runtime := Runtime{
		APIURL:      strings.TrimSpace(getenv(envAPIURL)),
		DatabaseURL: strings.TrimSpace(getenv(envDatabaseURL)),
		ListenAddr:  strings.TrimSpace(getenv(envListenAddr)),
	}
	if runtime.ListenAddr == "" {
		runtime.ListenAddr = defaultListenAddr
	}
	if raw := strings.TrimSpace(getenv(envMinInterval)); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			return Runtime{}, fmt.Errorf("%s must be a non-negative integer, got %q", envMinInterval, raw)
		}
		runtime.MinInterval = time.Duration(ms) * time.Millisecond
	}
	return runtime, nil
}
