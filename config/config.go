// Package config loads the settings of the orderkit binaries from the
// environment, after an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wudi/orderkit/observability"
)

// Environment variable names.
const (
	EnvListenAddr     = "ORDERKIT_LISTEN_ADDR"
	EnvLogLevel       = "ORDERKIT_LOG_LEVEL"
	EnvAssetDirs      = "ORDERKIT_ASSET_DIRS"
	EnvRenderTimeout  = "ORDERKIT_RENDER_TIMEOUT"
	EnvPaginateTables = "ORDERKIT_PAGINATE_TABLES"
)

// Config holds the binary settings.
type Config struct {
	ListenAddr     string
	LogLevel       string
	AssetDirs      []string
	RenderTimeout  time.Duration
	PaginateTables bool
}

// Default returns the settings used when nothing is set.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		LogLevel:       "INFO",
		RenderTimeout:  30 * time.Second,
		PaginateTables: true,
	}
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. A missing .env file is not an error; variables already set in
// the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvListenAddr); ok {
		cfg.ListenAddr = v
	}
	if v, ok := get(EnvLogLevel); ok {
		if _, err := observability.ParseLevel(v); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = strings.ToUpper(v)
	}
	if v, ok := get(EnvAssetDirs); ok {
		for _, dir := range filepath.SplitList(v) {
			if dir = strings.TrimSpace(dir); dir != "" {
				cfg.AssetDirs = append(cfg.AssetDirs, dir)
			}
		}
	}
	if v, ok := get(EnvRenderTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRenderTimeout, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("%s: must be positive, got %s", EnvRenderTimeout, v)
		}
		cfg.RenderTimeout = d
	}
	if v, ok := get(EnvPaginateTables); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvPaginateTables, err)
		}
		cfg.PaginateTables = b
	}
	return cfg, nil
}
