package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names.
const (
	ConfigEnv = "ROLLCALL_CONFIG"
	envPrefix = "ROLLCALL_"
)

// legacyEnv maps unprefixed names kept for compatibility with older scripts.
var legacyEnv = map[string]string{ //nolint:gochecknoglobals // fixed lookup table
	"CONGRESS_API_KEY": "congress_api_key",
	"FEC_API_KEY":      "fec_api_key",
	"CYCLE":            "cycle",
	"CONCURRENCY":      "concurrency",
	"FROM":             "from",
	"TO":               "to",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if ROLLCALL_CONFIG is set
//  3. legacy env names (CONGRESS_API_KEY, FEC_API_KEY, CYCLE, ...)
//  4. env (prefix ROLLCALL_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(ConfigEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Unknown names map to "" and are skipped by the provider.
	legacy := env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// ROLLCALL_DATA_DIR -> data_dir; underscores are kept to match the
	// koanf tags on the struct.
	prefixed := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Slices decode into existing backing arrays, so defaults are restored
	// only when no layer set them.
	cfg := *base
	cfg.Chambers = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if len(cfg.Chambers) == 0 {
		cfg.Chambers = base.Chambers
	}
	cfg.Chambers = splitList(cfg.Chambers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList flattens comma-separated entries, e.g. from "house,senate".
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
