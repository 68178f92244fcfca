package app

import (
	"fmt"
	"net/url"
	"strings"

	"feedbackrelay/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Config == nil {
		return fmt.Errorf("no effective configuration")
	}

	if eff.Addr == "" && eff.Config.Addr() == "" {
		return fmt.Errorf("listen address is empty: set --addr flag, FEEDBACKRELAY_ADDR env, or server.address in config")
	}

	// the allowed origin, when set, must be a bare origin (scheme://host[:port])
	if o := strings.TrimSpace(eff.Config.Security.CORS.AllowedOrigin); o != "" && o != "*" {
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid security.cors.allowed_origin %q: expected scheme://host[:port]", o)
		}
		if u.Path != "" && u.Path != "/" {
			return fmt.Errorf("invalid security.cors.allowed_origin %q: must not include a path", o)
		}
	}

	rl := eff.Config.Security.RateLimit
	if rl.RPS < 0 {
		return fmt.Errorf("security.rate_limit.rps must not be negative")
	}
	if rl.Burst < 0 {
		return fmt.Errorf("security.rate_limit.burst must not be negative")
	}

	if eff.Config.Retention.Enabled && eff.Config.Retention.Period.Duration() <= 0 {
		return fmt.Errorf("retention enabled but retention.period is not set")
	}

	return nil
}
