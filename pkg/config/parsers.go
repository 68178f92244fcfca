package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	File   string
	Config string
	Set    map[string]bool
}

// EnvResult describes what the environment contributed.
type EnvResult struct {
	EnvUsed bool
}

// EffectiveConfigResult is the merged result of LoadEffectiveConfig.
type EffectiveConfigResult struct {
	Config   *Config
	Addr     string
	FilePath string
	Source   string // "flags", "config", or "env"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP+websocket listen address")
	filePtr := flag.String("file", "./messages.json", "Backing message file path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, File: *filePtr, Config: *cfgPtr, Set: setFlags}
}

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseConfigFile resolves the config path and loads the YAML file. It
// returns the parsed config, whether the file was present, and an error
// for fatal parsing problems.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseConfigEnvs reads environment variables into a fresh Config. It does
// not mutate any caller-provided config.
func ParseConfigEnvs() (*Config, EnvResult) {
	envCfg := &Config{}
	envUsed := false

	if v := os.Getenv("FEEDBACKRELAY_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else {
		if host := os.Getenv("FEEDBACKRELAY_ADDRESS"); host != "" {
			envUsed = true
			envCfg.Server.Address = host
		}
		if port := os.Getenv("FEEDBACKRELAY_PORT"); port != "" {
			envUsed = true
			if pi, err := strconv.Atoi(port); err == nil {
				envCfg.Server.Port = pi
			}
		}
	}

	if v := os.Getenv("FEEDBACKRELAY_STORE_FILE"); v != "" {
		envUsed = true
		envCfg.Store.File = v
	}
	if v := os.Getenv("FEEDBACKRELAY_DATA_DIR"); v != "" {
		envUsed = true
		envCfg.Store.DataDir = v
	}
	if v := os.Getenv("FEEDBACKRELAY_CORS_ORIGIN"); v != "" {
		envUsed = true
		envCfg.Security.CORS.AllowedOrigin = strings.TrimSpace(v)
	}
	if v := os.Getenv("FEEDBACKRELAY_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			envCfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("FEEDBACKRELAY_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			envCfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("FEEDBACKRELAY_LOG_LEVEL"); v != "" {
		envUsed = true
		envCfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("FEEDBACKRELAY_RETENTION_ENABLED"); v != "" {
		envUsed = true
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			envCfg.Retention.Enabled = true
		}
	}
	if v := os.Getenv("FEEDBACKRELAY_RETENTION_CRON"); v != "" {
		envUsed = true
		envCfg.Retention.Cron = strings.TrimSpace(v)
	}
	if v := os.Getenv("FEEDBACKRELAY_RETENTION_PERIOD"); v != "" {
		envUsed = true
		var d Duration
		node := yaml.Node{Kind: yaml.ScalarNode, Value: strings.TrimSpace(v)}
		if err := d.UnmarshalYAML(&node); err == nil {
			envCfg.Retention.Period = d
		}
	}

	return envCfg, EnvResult{EnvUsed: envUsed}
}

// LoadEffectiveConfig decides which single source to use: an explicit
// --config requires the file; other flags win next; then a present config
// file; env is the fallback.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envRes EnvResult) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.FilePath = fileCfg.Store.File
		res.Source = "config"
		return res, nil
	}

	if flags.Set["addr"] || flags.Set["file"] {
		addr := flags.Addr
		if !flags.Set["addr"] {
			addr = envCfg.Addr()
			if addr == "" {
				addr = fileCfg.Addr()
			}
		}
		filePath := flags.File
		if !flags.Set["file"] {
			if p := strings.TrimSpace(envCfg.Store.File); p != "" {
				filePath = p
			} else if p := strings.TrimSpace(fileCfg.Store.File); p != "" {
				filePath = p
			}
		}
		out := &Config{}
		out.Server.Address = addr
		out.Server.Port = parsePortFromAddr(addr)
		out.Store.File = filePath
		res.Config = out
		res.Addr = addr
		res.FilePath = filePath
		res.Source = "flags"
		return res, nil
	}

	if fileExists {
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.FilePath = fileCfg.Store.File
		res.Source = "config"
		return res, nil
	}
	res.Config = envCfg
	res.Addr = envCfg.Addr()
	res.FilePath = envCfg.Store.File
	res.Source = "env"
	return res, nil
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and FEEDBACKRELAY_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("FEEDBACKRELAY_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// parsePortFromAddr extracts the port integer from a host:port string.
func parsePortFromAddr(a string) int {
	if a == "" {
		return 0
	}
	if _, p, err := net.SplitHostPort(a); err == nil {
		if pi, err := strconv.Atoi(p); err == nil {
			return pi
		}
	}
	return 0
}
