package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/stoewer/go-strcase"
	"gopkg.in/yaml.v3"

	"vizarcade.dev/pkg/utils"
)

const (
	EnvPrefix = "VIZARCADE"

	ThemeProviderAnthropic = "anthropic"
	ThemeProviderOpenAI    = "openai"

	LogFormatText = "text"
	LogFormatJSON = "json"

	redactedValue = "******"
)

type LogConfig struct {
	Format string `yaml:"format" json:"format"`
	// File enables a size-rotated copy of the log output, stdout is always written.
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" json:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" json:"maxAgeDays"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

type CORSConfig struct {
	// AllowedOrigins are doublestar patterns, "*" answers every origin with a wildcard.
	AllowedOrigins []string `yaml:"allowedOrigins" json:"allowedOrigins"`
}

type ListenerConfig struct {
	Addr      string        `yaml:"addr" json:"addr"`
	AdminAddr string        `yaml:"adminAddr" json:"adminAddr"`
	AccessLog bool          `yaml:"accessLog" json:"accessLog"`
	DrainWait time.Duration `yaml:"drainWait" json:"drainWait"`
	CORS      CORSConfig    `yaml:"cors" json:"cors"`
}

type ACRCloudConfig struct {
	Host         string        `yaml:"host" json:"host"`
	AccessKey    string        `yaml:"accessKey" json:"accessKey"`
	AccessSecret string        `yaml:"accessSecret" json:"accessSecret"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

type ThemeConfig struct {
	Provider         string        `yaml:"provider" json:"provider"`
	APIKey           string        `yaml:"apiKey" json:"apiKey"`
	BaseURL          string        `yaml:"baseURL" json:"baseURL"`
	Model            string        `yaml:"model" json:"model"`
	MaxTokens        int           `yaml:"maxTokens" json:"maxTokens"`
	AnthropicVersion string        `yaml:"anthropicVersion" json:"anthropicVersion"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	// OverrideParams is merged into the outbound Anthropic request body.
	OverrideParams map[string]any `yaml:"overrideParams" json:"overrideParams,omitempty"`
}

type Config struct {
	Debug    bool           `yaml:"debug" json:"debug"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Listener ListenerConfig `yaml:"listener" json:"listener"`
	ACRCloud ACRCloudConfig `yaml:"acrcloud" json:"acrcloud"`
	Theme    ThemeConfig    `yaml:"theme" json:"theme"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Format:     LogFormatText,
			MaxSizeMB:  100, //nolint:mnd
			MaxBackups: 3,   //nolint:mnd
			MaxAgeDays: 28,  //nolint:mnd
		},
		Listener: ListenerConfig{
			Addr:      ":8080",
			AdminAddr: "127.0.0.1:9080",
			AccessLog: true,
			DrainWait: time.Second * 5, //nolint:mnd
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
			},
		},
		ACRCloud: ACRCloudConfig{
			Timeout: time.Second * 10, //nolint:mnd
		},
		Theme: ThemeConfig{
			Provider:         ThemeProviderAnthropic,
			MaxTokens:        600, //nolint:mnd
			AnthropicVersion: "2023-06-01",
			Timeout:          time.Second * 30, //nolint:mnd
		},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		err := decodeFile(path, cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	err := cfg.applyEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

// EnvName maps a dotted config key such as "theme.maxTokens" to
// VIZARCADE_THEME_MAX_TOKENS.
func EnvName(key string) string {
	segments := lo.Map(strings.Split(key, "."), func(segment string, _ int) string {
		return strcase.UpperSnakeCase(segment)
	})

	return EnvPrefix + "_" + strings.Join(segments, "_")
}

type envOverride struct {
	key   string
	apply func(cfg *Config, value string) error
}

func stringOverride(key string, field func(cfg *Config) *string) envOverride {
	return envOverride{key: key, apply: func(cfg *Config, value string) error {
		*field(cfg) = strings.TrimSpace(value)
		return nil
	}}
}

func parsedOverride[T any](key string, field func(cfg *Config) *T) envOverride {
	return envOverride{key: key, apply: func(cfg *Config, value string) error {
		parsed, err := utils.FromString[T](value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}

		*field(cfg) = parsed

		return nil
	}}
}

var envOverrides = []envOverride{
	parsedOverride("debug", func(cfg *Config) *bool { return &cfg.Debug }),
	stringOverride("log.format", func(cfg *Config) *string { return &cfg.Log.Format }),
	stringOverride("log.file", func(cfg *Config) *string { return &cfg.Log.File }),
	stringOverride("listener.addr", func(cfg *Config) *string { return &cfg.Listener.Addr }),
	stringOverride("listener.adminAddr", func(cfg *Config) *string { return &cfg.Listener.AdminAddr }),
	parsedOverride("listener.accessLog", func(cfg *Config) *bool { return &cfg.Listener.AccessLog }),
	parsedOverride("listener.drainWait", func(cfg *Config) *time.Duration { return &cfg.Listener.DrainWait }),
	parsedOverride("listener.cors.allowedOrigins", func(cfg *Config) *[]string { return &cfg.Listener.CORS.AllowedOrigins }),
	parsedOverride("acrcloud.timeout", func(cfg *Config) *time.Duration { return &cfg.ACRCloud.Timeout }),
	stringOverride("theme.provider", func(cfg *Config) *string { return &cfg.Theme.Provider }),
	stringOverride("theme.baseURL", func(cfg *Config) *string { return &cfg.Theme.BaseURL }),
	stringOverride("theme.model", func(cfg *Config) *string { return &cfg.Theme.Model }),
	parsedOverride("theme.maxTokens", func(cfg *Config) *int { return &cfg.Theme.MaxTokens }),
	parsedOverride("theme.timeout", func(cfg *Config) *time.Duration { return &cfg.Theme.Timeout }),
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs *multierror.Error

	for _, override := range envOverrides {
		value, ok := lookup(EnvName(override.key))
		if !ok {
			continue
		}

		errs = multierror.Append(errs, override.apply(c, value))
	}

	// Secrets keep the names the front end deployment already uses.
	if value, ok := lookup("ACR_HOST"); ok {
		c.ACRCloud.Host = strings.TrimSpace(value)
	}

	if value, ok := lookup("ACR_ACCESS_KEY"); ok {
		c.ACRCloud.AccessKey = value
	}

	if value, ok := lookup("ACR_ACCESS_SECRET"); ok {
		c.ACRCloud.AccessSecret = value
	}

	apiKeyEnv := "ANTHROPIC_API_KEY"
	if c.Theme.Provider == ThemeProviderOpenAI {
		apiKeyEnv = "OPENAI_API_KEY"
	}

	if value, ok := lookup(apiKeyEnv); ok {
		c.Theme.APIKey = value
	}

	return errs.ErrorOrNil()
}

// Validate reports every invalid setting at once. Missing secrets are not
// errors: the handlers answer with a configuration error instead.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.Listener.Addr == "" {
		errs = multierror.Append(errs, errors.New("listener.addr must not be empty"))
	}

	if c.Listener.DrainWait < 0 {
		errs = multierror.Append(errs, errors.New("listener.drainWait must not be negative"))
	}

	if !lo.Contains([]string{LogFormatText, LogFormatJSON}, c.Log.Format) {
		errs = multierror.Append(errs, fmt.Errorf("log.format must be one of %q or %q, got %q", LogFormatText, LogFormatJSON, c.Log.Format))
	}

	if c.ACRCloud.Timeout <= 0 {
		errs = multierror.Append(errs, errors.New("acrcloud.timeout must be positive"))
	}

	if !lo.Contains([]string{ThemeProviderAnthropic, ThemeProviderOpenAI}, c.Theme.Provider) {
		errs = multierror.Append(errs, fmt.Errorf("theme.provider must be one of %q or %q, got %q", ThemeProviderAnthropic, ThemeProviderOpenAI, c.Theme.Provider))
	}

	if c.Theme.MaxTokens <= 0 {
		errs = multierror.Append(errs, errors.New("theme.maxTokens must be positive"))
	}

	if c.Theme.Timeout <= 0 {
		errs = multierror.Append(errs, errors.New("theme.timeout must be positive"))
	}

	return errs.ErrorOrNil()
}

func redact(value string) string {
	return lo.Ternary(value == "", "", redactedValue)
}

// Redacted returns a copy that is safe to expose on the admin listener.
func (c *Config) Redacted() *Config {
	redacted := *c
	redacted.ACRCloud.AccessKey = redact(c.ACRCloud.AccessKey)
	redacted.ACRCloud.AccessSecret = redact(c.ACRCloud.AccessSecret)
	redacted.Theme.APIKey = redact(c.Theme.APIKey)
	redacted.Listener.CORS.AllowedOrigins = utils.Clone(c.Listener.CORS.AllowedOrigins)

	return &redacted
}
