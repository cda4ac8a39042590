package config

import "github.com/jsh-team/precache/internal/bundler"

const (
	DefaultConfigFile = "precache.yaml"
	EnvPrefix         = "PRECACHE"

	DefaultLogLevel          = "info"
	DefaultVerifyConcurrency = 4
	DefaultRequestsPerSecond = 10
	DefaultVerifyTimeout     = 30
)

var (
	// ConfigFile is the path given with --config. Empty means search the
	// working directory.
	ConfigFile string
	Quiet      bool
	LogLevel   string
)

// ConfigFileNames are searched in order when no file is given.
var ConfigFileNames = []string{"precache.yaml", "precache.yml", "precache.json", "precache.jsonc"}

// Config is a decoded configuration file.
type Config struct {
	LogLevel       string        `mapstructure:"logLevel" yaml:"logLevel"`
	Verify         VerifyConfig  `mapstructure:"verify" yaml:"verify"`
	Configurations []BuildConfig `mapstructure:"configurations" yaml:"configurations"`

	// Dir is the directory of the file; relative contexts resolve against it.
	Dir string `mapstructure:"-" yaml:"-"`
}

type VerifyConfig struct {
	Concurrency       int `mapstructure:"concurrency" yaml:"concurrency"`
	RequestsPerSecond int `mapstructure:"requestsPerSecond" yaml:"requestsPerSecond"`
	// Timeout per request in seconds.
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
}

// BuildConfig is one bundler configuration.
type BuildConfig struct {
	Name    string               `mapstructure:"name" yaml:"name,omitempty"`
	Context string               `mapstructure:"context" yaml:"context,omitempty"`
	Entry   []bundler.EntryPoint `mapstructure:"entry" yaml:"entry,omitempty"`
	Output  bundler.Output       `mapstructure:"output" yaml:"output"`
	Mode    string               `mapstructure:"mode" yaml:"mode,omitempty"`

	HTML []HTMLConfig `mapstructure:"html" yaml:"html,omitempty"`
	// DefaultHTML is set when the html key is absent.
	DefaultHTML bool `mapstructure:"-" yaml:"-"`

	// Precache holds the raw plugin options; nil when the key is absent.
	Precache map[string]any `mapstructure:"-" yaml:"precache,omitempty"`
}

type HTMLConfig struct {
	Filename      string   `mapstructure:"filename" yaml:"filename,omitempty"`
	Title         string   `mapstructure:"title" yaml:"title,omitempty"`
	ExcludeChunks []string `mapstructure:"excludeChunks" yaml:"excludeChunks,omitempty"`
}
