package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func lookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestFromEnv_Values(t *testing.T) {
	dirs := strings.Join([]string{"/srv/assets", " ", "/opt/fonts"}, string(os.PathListSeparator))
	cfg, err := FromEnv(lookup(map[string]string{
		EnvListenAddr:     "127.0.0.1:9000",
		EnvLogLevel:       "debug",
		EnvAssetDirs:      dirs,
		EnvRenderTimeout:  "5s",
		EnvPaginateTables: "false",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := Config{
		ListenAddr:     "127.0.0.1:9000",
		LogLevel:       "DEBUG",
		AssetDirs:      []string{"/srv/assets", "/opt/fonts"},
		RenderTimeout:  5 * time.Second,
		PaginateTables: false,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		EnvLogLevel:       "loud",
		EnvRenderTimeout:  "soon",
		EnvPaginateTables: "maybe",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			if _, err := FromEnv(lookup(map[string]string{key: val})); err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("err = %v, want an error naming %s", err, key)
			}
		})
	}
	if _, err := FromEnv(lookup(map[string]string{EnvRenderTimeout: "-1s"})); err == nil {
		t.Fatalf("negative timeout must be rejected")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderkit.env")
	if err := os.WriteFile(path, []byte("ORDERKIT_LISTEN_ADDR=:7070\nORDERKIT_RENDER_TIMEOUT=2m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvListenAddr, "")
	os.Unsetenv(EnvListenAddr)
	t.Setenv(EnvRenderTimeout, "10s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("ListenAddr = %q, want the .env value", cfg.ListenAddr)
	}
	if cfg.RenderTimeout != 10*time.Second {
		t.Fatalf("RenderTimeout = %s, the environment must win", cfg.RenderTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing .env must be ignored: %v", err)
	}
}
