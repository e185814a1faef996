// Package config loads the YAML configuration of the mixinsform CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/schema"
)

// Config is the root of the configuration file.
type Config struct {
	Server    Server    `yaml:"server"`
	Language  string    `yaml:"language"`
	LogLevel  string    `yaml:"log_level"`
	Renderer  string    `yaml:"renderer"`
	Templates string    `yaml:"templates_dir"`
	Catalog   Catalog   `yaml:"catalog"`
	Loader    Loader    `yaml:"loader"`
	Persister Persister `yaml:"persister"`
	Forms     Forms     `yaml:"forms"`
	// Messages holds chrome translations: locale -> message key -> text.
	Messages map[string]map[string]string `yaml:"messages"`
}

// Server configures the preview/save HTTP API.
type Server struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Catalog locates schema documents. URL templates may point at http(s)
// endpoints or, with Root set, at paths below that directory.
type Catalog struct {
	mixins.CatalogConfig `yaml:",inline"`
	Root                 string        `yaml:"root"`
	Timeout              time.Duration `yaml:"timeout"`
	MaxDocumentBytes     int64         `yaml:"max_document_bytes"`
}

// Loader tunes the schema tree loader.
type Loader struct {
	Concurrency int `yaml:"concurrency"`
	MaxRefDepth int `yaml:"max_ref_depth"`
}

// Persister configures where saved values are sent. An empty endpoint
// disables saving.
type Persister struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Forms selects what gets loaded.
type Forms struct {
	mixins.Sources `yaml:",inline"`
	// ValuesFile is a JSON document of persisted mixins values.
	ValuesFile string `yaml:"values_file"`
	// NamesFile is a YAML or JSON document of localized property names.
	NamesFile string `yaml:"names_file"`
	// PresetsFile holds per-form field overrides.
	PresetsFile  string `yaml:"presets_file"`
	SkipDefaults bool   `yaml:"skip_defaults"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
		},
		Language: "en",
		LogLevel: "info",
		Renderer: "html",
		Catalog: Catalog{
			Timeout: 10 * time.Second,
		},
		Loader: Loader{
			Concurrency: 4,
			MaxRefDepth: 32,
		},
		Persister: Persister{
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(string(data))) > 0 {
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("config: server.addr is required"))
	}
	if strings.TrimSpace(c.Language) == "" {
		errs = append(errs, errors.New("config: language is required"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Renderer) == "" {
		errs = append(errs, errors.New("config: renderer is required"))
	}
	if c.Catalog.SchemaURL == "" {
		errs = append(errs, errors.New("config: catalog.schema_url is required"))
	} else if !strings.Contains(c.Catalog.SchemaURL, "{id}") {
		errs = append(errs, errors.New("config: catalog.schema_url must contain {id}"))
	}
	if c.Loader.Concurrency < 0 {
		errs = append(errs, errors.New("config: loader.concurrency must not be negative"))
	}
	if c.Loader.MaxRefDepth < 0 {
		errs = append(errs, errors.New("config: loader.max_ref_depth must not be negative"))
	}
	if endpoint := strings.TrimSpace(c.Persister.Endpoint); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("config: persister.endpoint %q is not an http(s) URL", endpoint))
		}
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// LoaderOptions builds the schema fetcher options for the catalog.
func (c Config) LoaderOptions() schema.LoaderOptions {
	options := []schema.LoaderOption{
		schema.WithHTTPFallback(c.Catalog.Timeout),
	}
	if c.Catalog.Root != "" {
		options = append(options, schema.WithFileSystem(os.DirFS(c.Catalog.Root)))
	}
	if c.Catalog.MaxDocumentBytes > 0 {
		options = append(options, schema.WithMaxDocumentBytes(c.Catalog.MaxDocumentBytes))
	}
	return schema.NewLoaderOptions(options...)
}

// Request reads the configured refs, values and names into a load request.
func (c Config) Request() (mixins.Request, error) {
	refs, err := c.Forms.Refs()
	if err != nil {
		return mixins.Request{}, fmt.Errorf("config: forms: %w", err)
	}
	req := mixins.Request{Existing: refs, SkipDefaults: c.Forms.SkipDefaults}

	if c.Forms.ValuesFile != "" {
		data, err := os.ReadFile(c.Forms.ValuesFile)
		if err != nil {
			return mixins.Request{}, fmt.Errorf("config: read values: %w", err)
		}
		values, err := mixins.DecodeValues(data)
		if err != nil {
			return mixins.Request{}, fmt.Errorf("config: %s: %w", c.Forms.ValuesFile, err)
		}
		req.Values = values
	}

	if c.Forms.NamesFile != "" {
		data, err := os.ReadFile(c.Forms.NamesFile)
		if err != nil {
			return mixins.Request{}, fmt.Errorf("config: read names: %w", err)
		}
		var names mixins.Names
		if err := yaml.Unmarshal(data, &names); err != nil {
			return mixins.Request{}, fmt.Errorf("config: %s: %w", c.Forms.NamesFile, err)
		}
		req.Names = names
	}
	return req, nil
}

// Translator serves Messages as chrome translations.
func (c Config) Translator() Messages {
	out := make(Messages, len(c.Messages))
	for locale, table := range c.Messages {
		out[strings.ToLower(strings.TrimSpace(locale))] = table
	}
	return out
}

// Messages is a static translation table keyed by locale then message key.
// Lookups fall back from "de-ch" to "de".
type Messages map[string]map[string]string

// ErrNoMessage is returned for keys missing from every candidate locale.
var ErrNoMessage = errors.New("config: message not found")

// Translate implements render.Translator.
func (m Messages) Translate(locale, key string, args ...any) (string, error) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	candidates := []string{locale}
	if base, _, ok := strings.Cut(locale, "-"); ok {
		candidates = append(candidates, base)
	}
	for _, candidate := range candidates {
		if text, ok := m[candidate][key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(text, args...), nil
			}
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrNoMessage, locale, key)
}
