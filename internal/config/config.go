package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/jsh-team/precache/internal/bundler"
	"github.com/jsh-team/precache/internal/precache"
	"github.com/jsh-team/precache/internal/utils/files"
	"github.com/jsh-team/precache/internal/utils/logger"
)

//go:embed config_schema.cue
var configSchema string

// Find returns the first known config file in dir.
func Find(dir string) (string, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if err := files.IsValidPath(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no config file found in %s (looked for %s)", dir, strings.Join(ConfigFileNames, ", "))
}

// LoadSelected loads the file given with --config, or the first known file
// in the working directory. The file's log level applies unless one was set
// on the command line.
func LoadSelected() (*Config, error) {
	path := ConfigFile
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path, err = Find(wd); err != nil {
			return nil, err
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if LogLevel == "" && !Quiet {
		if err := ApplyLogLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyLogLevel sets the level of every logger created afterwards.
func ApplyLogLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q", name)
	}
	logger.SetLevel(level)
	return nil
}

// Load reads, validates and decodes a config file. Environment variables
// prefixed with PRECACHE_ override top-level settings.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	configType := "yaml"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	case ".json":
		configType = "json"
	case ".jsonc":
		configType = "json"
		data = jsonc.ToJSON(data)
	default:
		return nil, fmt.Errorf("unsupported config format %s", filepath.Ext(path))
	}

	// YAML is a superset of JSON, so one decoder keeps the key case for
	// schema validation.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := Validate(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.SetDefault("logLevel", DefaultLogLevel)
	v.SetDefault("verify.concurrency", DefaultVerifyConcurrency)
	v.SetDefault("verify.requestsPerSecond", DefaultRequestsPerSecond)
	v.SetDefault("verify.timeout", DefaultVerifyTimeout)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(abs)

	rawBuilds, _ := raw["configurations"].([]any)
	for i := range cfg.Configurations {
		if i >= len(rawBuilds) {
			break
		}
		build, _ := rawBuilds[i].(map[string]any)
		if _, ok := build["html"]; !ok {
			cfg.Configurations[i].DefaultHTML = true
		}
		if options, ok := build["precache"]; ok {
			cfg.Configurations[i].Precache, _ = options.(map[string]any)
			if cfg.Configurations[i].Precache == nil {
				cfg.Configurations[i].Precache = map[string]any{}
			}
		}
	}

	logger.Debug("Loaded %d configurations from %s", len(cfg.Configurations), path)
	return &cfg, nil
}

// Validate checks a decoded document against #Config.
func Validate(raw map[string]any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema + "\n" + precache.OptionsSchema)
	if schema.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schema.Err())
	}

	doc := ctx.CompileBytes(data, cue.Filename("config"))
	if doc.Err() != nil {
		return fmt.Errorf("invalid config: %w", doc.Err())
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}

	first := errs[0]
	path := strings.TrimPrefix(strings.Join(cueerrors.Path(first), "."), "#Config.")
	format, args := first.Msg()
	return fmt.Errorf("invalid config at %s: %s", path, fmt.Sprintf(format, args...))
}

// WriteDefault writes a starter config file. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	if err := files.IsValidPath(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	out, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	return files.WriteFile(path, out)
}

// Default returns the config written by WriteDefault.
func Default() Config {
	options := map[string]any{}
	data, _ := json.Marshal(precache.DefaultOptions())
	json.Unmarshal(data, &options)

	return Config{
		LogLevel: DefaultLogLevel,
		Verify: VerifyConfig{
			Concurrency:       DefaultVerifyConcurrency,
			RequestsPerSecond: DefaultRequestsPerSecond,
			Timeout:           DefaultVerifyTimeout,
		},
		Configurations: []BuildConfig{{
			Name: "app",
			Entry: []bundler.EntryPoint{
				{Name: "main", Import: "./src/index.js"},
			},
			Output: bundler.Output{Path: "dist", Filename: "[name].[contenthash].js"},
			Mode:   "production",
			HTML: []HTMLConfig{
				{Filename: "index.html", Title: "App"},
			},
			Precache: options,
		}},
	}
}
