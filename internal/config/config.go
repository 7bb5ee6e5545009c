// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	LLM      LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
	Specs    SpecsConfig     `mapstructure:"specs" yaml:"specs"`
	Scaffold ScaffoldConfig  `mapstructure:"scaffold" yaml:"scaffold"`
	Build    BuildConfig     `mapstructure:"build" yaml:"build"`
	Repair   RepairConfig    `mapstructure:"repair" yaml:"repair"`
	Supabase SupabaseConfig  `mapstructure:"supabase" yaml:"supabase"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMRouterConfig configures the model routing logic. Each pipeline role
// requests a tier, not a concrete model, so models can be swapped per role
// from configuration alone.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// SpecsConfig locates the durable specification documents.
type SpecsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// ScaffoldConfig identifies the boilerplate project template cloned on
// project creation.
type ScaffoldConfig struct {
	TemplateURL string `mapstructure:"template_url" yaml:"template_url"`
}

// BuildConfig tunes the build verifier.
type BuildConfig struct {
	Command []string      `mapstructure:"command" yaml:"command"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RepairConfig bounds the repair loop.
type RepairConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts" yaml:"max_attempts"`
	MaxStepActions int `mapstructure:"max_step_actions" yaml:"max_step_actions"`
}

// SupabaseConfig holds credentials for the managed backend platform. Keys are
// bound from the environment, never written back to disk by the CLI itself.
type SupabaseConfig struct {
	ProjectRef string `mapstructure:"project_ref" yaml:"project_ref"`
	AnonKey    string `mapstructure:"anon_key" yaml:"-"`
	ServiceKey string `mapstructure:"service_key" yaml:"-"`
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "berry")
	v.SetDefault("logger.log_file", "berry.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- LLM --
	v.SetDefault("llm.default_fast_model", "fast")
	v.SetDefault("llm.default_powerful_model", "powerful")
	v.SetDefault("llm.models.fast.provider", "gemini")
	v.SetDefault("llm.models.fast.model", "gemini-2.5-flash")
	v.SetDefault("llm.models.fast.api_timeout", "90s")
	v.SetDefault("llm.models.fast.temperature", 0.2)
	v.SetDefault("llm.models.powerful.provider", "gemini")
	v.SetDefault("llm.models.powerful.model", "gemini-2.5-pro")
	v.SetDefault("llm.models.powerful.api_timeout", "180s")
	v.SetDefault("llm.models.powerful.temperature", 0.2)

	// -- Specs / Scaffold --
	v.SetDefault("specs.dir", "specs")
	v.SetDefault("scaffold.template_url", "https://github.com/iminoaru/boilerplate.git")

	// -- Build --
	v.SetDefault("build.command", []string{"npm", "run", "build"})
	v.SetDefault("build.timeout", "10m")

	// -- Repair --
	v.SetDefault("repair.max_attempts", 3)
	v.SetDefault("repair.max_step_actions", 6)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	_ = v.BindEnv("llm.models.fast.api_key", "BERRY_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.models.powerful.api_key", "BERRY_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("supabase.anon_key", "BERRY_SUPABASE_ANON_KEY")
	_ = v.BindEnv("supabase.service_key", "BERRY_SUPABASE_SERVICE_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Viper does not apply env bindings inside map values on Unmarshal.
	if key := os.Getenv("BERRY_LLM_API_KEY"); key != "" {
		applyAPIKey(&cfg, key)
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		applyAPIKey(&cfg, key)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyAPIKey(cfg *Config, key string) {
	for name, m := range cfg.LLM.Models {
		if m.APIKey == "" {
			m.APIKey = key
			cfg.LLM.Models[name] = m
		}
	}
}

// Validate checks the configuration for required fields and sane values.
// Model credentials are checked at the call sites that need them, so commands
// like `new` keep working without an API key.
func (c *Config) Validate() error {
	if c.Repair.MaxAttempts <= 0 {
		return fmt.Errorf("repair.max_attempts must be a positive integer")
	}
	if c.Repair.MaxStepActions <= 0 {
		return fmt.Errorf("repair.max_step_actions must be a positive integer")
	}
	if len(c.Build.Command) == 0 {
		return fmt.Errorf("build.command must not be empty")
	}
	if c.Build.Timeout <= 0 {
		return fmt.Errorf("build.timeout must be a positive duration")
	}
	if c.LLM.DefaultFastModel == "" || c.LLM.DefaultPowerfulModel == "" {
		return fmt.Errorf("llm.default_fast_model and llm.default_powerful_model are required")
	}
	if _, ok := c.LLM.Models[c.LLM.DefaultFastModel]; !ok {
		return fmt.Errorf("llm.models is missing entry %q", c.LLM.DefaultFastModel)
	}
	if _, ok := c.LLM.Models[c.LLM.DefaultPowerfulModel]; !ok {
		return fmt.Errorf("llm.models is missing entry %q", c.LLM.DefaultPowerfulModel)
	}
	return nil
}

// RequireLLMCredentials verifies that every configured model carries an API
// key. Absence is a startup-time configuration error, not a pipeline error.
func (c *Config) RequireLLMCredentials() error {
	for name, m := range c.LLM.Models {
		if m.APIKey == "" {
			return fmt.Errorf("model %q has no API key; set BERRY_LLM_API_KEY or llm.models.%s.api_key", name, name)
		}
	}
	return nil
}
