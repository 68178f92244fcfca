package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return p
}

func TestConfig_LoadAndAddr(t *testing.T) {
	p := writeConfig(t, `server:
  address: 127.0.0.1
  port: 9090
store:
  file: /tmp/messages.json
security:
  cors:
    allowed_origin: https://shop.example.com
retention:
  enabled: true
  cron: "0 3 * * *"
  period: 720h
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Addr() != "127.0.0.1:9090" {
		t.Fatalf("unexpected addr: %s", c.Addr())
	}
	if c.Store.File != "/tmp/messages.json" {
		t.Fatalf("unexpected store file: %s", c.Store.File)
	}
	if c.Security.CORS.AllowedOrigin != "https://shop.example.com" {
		t.Fatalf("unexpected origin: %s", c.Security.CORS.AllowedOrigin)
	}
	if !c.Retention.Enabled || c.Retention.Period.Duration() != 720*time.Hour {
		t.Fatalf("unexpected retention: %+v", c.Retention)
	}
}

func TestConfig_AddrDefaults(t *testing.T) {
	var c Config
	if c.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected default addr: %s", c.Addr())
	}
}

func TestDuration_NumericSeconds(t *testing.T) {
	p := writeConfig(t, "retention:\n  period: 3600\n")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Retention.Period.Duration() != time.Hour {
		t.Fatalf("expected 1h, got %s", c.Retention.Period.Duration())
	}
}

func TestParseConfigEnvs(t *testing.T) {
	t.Setenv("FEEDBACKRELAY_ADDR", "127.0.0.1:7070")
	t.Setenv("FEEDBACKRELAY_STORE_FILE", "/srv/messages.json")
	t.Setenv("FEEDBACKRELAY_CORS_ORIGIN", "https://shop.example.com")
	t.Setenv("FEEDBACKRELAY_RETENTION_ENABLED", "true")
	t.Setenv("FEEDBACKRELAY_RETENTION_PERIOD", "168h")

	cfg, res := ParseConfigEnvs()
	if !res.EnvUsed {
		t.Fatal("expected env to be marked used")
	}
	if cfg.Addr() != "127.0.0.1:7070" {
		t.Fatalf("unexpected addr: %s", cfg.Addr())
	}
	if cfg.Store.File != "/srv/messages.json" {
		t.Fatalf("unexpected store file: %s", cfg.Store.File)
	}
	if !cfg.Retention.Enabled || cfg.Retention.Period.Duration() != 168*time.Hour {
		t.Fatalf("unexpected retention: %+v", cfg.Retention)
	}
}

func TestLoadEffectiveConfig_FlagsWin(t *testing.T) {
	flags := Flags{Addr: ":9999", File: "./x.json", Set: map[string]bool{"addr": true, "file": true}}
	eff, err := LoadEffectiveConfig(flags, &Config{}, false, &Config{}, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig failed: %v", err)
	}
	if eff.Source != "flags" || eff.Addr != ":9999" || eff.FilePath != "./x.json" {
		t.Fatalf("unexpected effective config: %+v", eff)
	}
}

func TestLoadEffectiveConfig_ExplicitConfigRequiresFile(t *testing.T) {
	flags := Flags{Config: "/nope.yaml", Set: map[string]bool{"config": true}}
	if _, err := LoadEffectiveConfig(flags, &Config{}, false, &Config{}, EnvResult{}); err == nil {
		t.Fatal("explicit --config with a missing file must fail")
	}
}

func TestLoadEffectiveConfig_FileThenEnv(t *testing.T) {
	fileCfg := &Config{}
	fileCfg.Server.Port = 9090
	fileCfg.Store.File = "/from/file.json"

	envCfg := &Config{}
	envCfg.Server.Port = 7070
	envCfg.Store.File = "/from/env.json"

	flags := Flags{Set: map[string]bool{}}

	eff, err := LoadEffectiveConfig(flags, fileCfg, true, envCfg, EnvResult{EnvUsed: true})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig failed: %v", err)
	}
	if eff.Source != "config" || eff.FilePath != "/from/file.json" {
		t.Fatalf("config file should win over env: %+v", eff)
	}

	eff, err = LoadEffectiveConfig(flags, &Config{}, false, envCfg, EnvResult{EnvUsed: true})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig failed: %v", err)
	}
	if eff.Source != "env" || eff.FilePath != "/from/env.json" {
		t.Fatalf("env should be the fallback: %+v", eff)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("FEEDBACKRELAY_CONFIG", "/from/env.yaml")
	if got := ResolveConfigPath("/flag.yaml", true); got != "/flag.yaml" {
		t.Fatalf("explicit flag must win, got %q", got)
	}
	if got := ResolveConfigPath("/default.yaml", false); got != "/from/env.yaml" {
		t.Fatalf("env must win over default, got %q", got)
	}
}
