package precache

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/jsh-team/precache/internal/precache/injector"
	"github.com/jsh-team/precache/internal/precache/matcher"
)

const (
	DefaultFile           = "./service-worker.js"
	DefaultInjectionPoint = "self.INJECT_MANIFEST_PLUGIN"
	DefaultChunkName      = "service-worker"
)

// OptionsSchema is the CUE definition (#Options) options are validated
// against. Other schemas embedding plugin options reference it.
//
//go:embed options_schema.cue
var OptionsSchema string

// Options configures a Plugin.
type Options struct {
	File           string   `json:"file" mapstructure:"file" yaml:"file"`
	InjectionPoint string   `json:"injectionPoint" mapstructure:"injectionPoint" yaml:"injectionPoint"`
	Exclude        []string `json:"exclude" mapstructure:"exclude" yaml:"exclude"`
	RemoveHash     bool     `json:"removeHash" mapstructure:"removeHash" yaml:"removeHash"`
	ChunkName      string   `json:"chunkName" mapstructure:"chunkName" yaml:"chunkName"`
}

// DefaultOptions returns the options used for every key left unset.
func DefaultOptions() Options {
	return Options{
		File:           DefaultFile,
		InjectionPoint: DefaultInjectionPoint,
		Exclude:        []string{},
		RemoveHash:     false,
		ChunkName:      DefaultChunkName,
	}
}

// OutputFilename is the stable name the worker asset is emitted under.
func (o Options) OutputFilename() string {
	return o.ChunkName + ".js"
}

// withDefaults fills empty fields and copies the exclude list.
func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.File == "" {
		o.File = defaults.File
	}
	if o.InjectionPoint == "" {
		o.InjectionPoint = defaults.InjectionPoint
	}
	if o.ChunkName == "" {
		o.ChunkName = defaults.ChunkName
	}

	exclude := make([]string, len(o.Exclude))
	copy(exclude, o.Exclude)
	o.Exclude = exclude
	return o
}

// validate checks what the Go types cannot express.
func (o Options) validate() error {
	if strings.ContainsAny(o.ChunkName, `\`) || strings.HasSuffix(o.ChunkName, "/") {
		return &ConfigurationError{Option: "chunkName", Reason: fmt.Sprintf("%q is not a valid entry name", o.ChunkName)}
	}
	if _, err := injector.New(o.InjectionPoint); err != nil {
		return &ConfigurationError{Option: "injectionPoint", Reason: err.Error()}
	}
	if err := matcher.ValidatePatterns(o.Exclude); err != nil {
		return &ConfigurationError{Option: "exclude", Reason: err.Error()}
	}
	return nil
}

// DecodeOptions validates a loosely typed option set, such as one read from a
// configuration file, against the options schema and decodes it on top of
// the defaults. Unknown keys and wrong types yield a ConfigurationError
// naming the offending option.
func DecodeOptions(raw map[string]any) (Options, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return Options{}, &ConfigurationError{Reason: err.Error()}
	}

	if err := ValidateSchema(data); err != nil {
		return Options{}, err
	}

	opts := DefaultOptions()
	if err := json.Unmarshal(data, &opts); err != nil {
		return Options{}, &ConfigurationError{Reason: err.Error()}
	}

	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// ValidateSchema checks a JSON options document against #Options.
func ValidateSchema(data []byte) error {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(OptionsSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile options schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename("options"))
	if userValue.Err() != nil {
		return schemaError(userValue.Err())
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Options")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError converts the first CUE error into a ConfigurationError.
func schemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ConfigurationError{Reason: err.Error()}
	}

	first := errs[0]
	path := cueerrors.Path(first)
	option := strings.Join(path, ".")
	option = strings.TrimPrefix(option, "#Options.")
	option = strings.TrimPrefix(option, "#Options")

	reason := first.Error()
	if option != "" {
		reason = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(reason, strings.Join(path, ".")), ":"))
	}

	return &ConfigurationError{Option: option, Reason: reason}
}
