package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix maps ENVBOOT_ENV_DIR to env_dir and so on.
const envPrefix = "ENVBOOT_"

// findConfigFile returns the config file to use: an explicit path wins,
// otherwise envboot.yaml then envboot.yml in the project root.
func findConfigFile(explicit, projectRoot string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"envboot.yaml", "envboot.yml"} {
		candidate := filepath.Join(projectRoot, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load builds the Config with precedence (highest to lowest):
// flags > env vars > config file > defaults.
//
// projectRoot must be absolute; cfgFile may be empty.
func Load(projectRoot, cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if !filepath.IsAbs(projectRoot) {
		return nil, fmt.Errorf("project root must be absolute (got %q)", projectRoot)
	}

	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"env_dir":            DefaultEnvDir,
		"manifest":           DefaultManifest,
		"python":             "",
		"min_python_version": DefaultMinPythonVersion,
		"verify_modules":     DefaultVerifyModules(),
		"skip_verify":        false,
		"no_color":           false,
		"verbose":            false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Config file, if present.
	if used := findConfigFile(cfgFile, projectRoot); used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", used, err)
		}
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	// 3. Environment variables: ENVBOOT_ENV_DIR -> env_dir.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// 4. Flags, only those explicitly set; kebab-case becomes snake_case.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.EnvDir = resolveUnder(projectRoot, cfg.EnvDir)
	cfg.Manifest = resolveUnder(projectRoot, cfg.Manifest)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.EnvDir == "" {
		return fmt.Errorf("env_dir must not be empty")
	}
	if c.Manifest == "" {
		return fmt.Errorf("manifest must not be empty")
	}
	if strings.TrimSpace(c.MinPythonVersion) == "" {
		return fmt.Errorf("min_python_version must not be empty")
	}
	if !c.SkipVerify && len(c.VerifyModules) == 0 {
		return fmt.Errorf("verify_modules must not be empty unless skip_verify is set")
	}
	return nil
}

func resolveUnder(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}
