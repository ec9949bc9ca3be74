// Package config loads the calculator configuration from defaults, an
// optional YAML file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"benefit-calculator/internal/waitpolicy"
)

// Config is the complete calculator configuration.
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Camunda  CamundaConfig     `yaml:"camunda"`
	Process  ProcessConfig     `yaml:"process"`
	Wait     waitpolicy.Policy `yaml:"subprocess_wait"`
	Client   ClientConfig      `yaml:"client"`
	LogLevel string            `yaml:"log_level"`
}

// ServerConfig configures the HTTP function boundary.
type ServerConfig struct {
	// Port is the listen port, with or without a leading colon.
	Port string `yaml:"port"`
}

// CamundaConfig configures the workflow engine connection.
type CamundaConfig struct {
	// BaseURL is the engine REST root, e.g. http://localhost:8080/engine-rest
	BaseURL string `yaml:"base_url"`
	// Timeout bounds every single engine request.
	Timeout time.Duration `yaml:"timeout"`
}

// ProcessConfig selects the calculation process and how its fields are read.
type ProcessConfig struct {
	DefinitionKey          string `yaml:"definition_key"`
	RequiredFieldsVariable string `yaml:"required_fields_variable"`
	FieldCacheSize         int    `yaml:"field_cache_size"`
}

// ClientConfig configures the wizard's connection to the HTTP API.
type ClientConfig struct {
	APIBaseURL string        `yaml:"api_base_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "7071"},
		Camunda: CamundaConfig{
			BaseURL: "http://localhost:8080/engine-rest",
			Timeout: 10 * time.Second,
		},
		Process: ProcessConfig{
			DefinitionKey:          "benefit-calculation",
			RequiredFieldsVariable: "requiredFields",
			FieldCacheSize:         256,
		},
		Wait: waitpolicy.Default(),
		Client: ClientConfig{
			APIBaseURL: "http://localhost:7071",
			Timeout:    30 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads .env if present, then path if non-empty, then the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	env := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	setString := func(key string, dst *string) {
		if v, ok := env(key); ok {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) error {
		v, ok := env(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}
	setInt := func(key string, dst *int) error {
		v, ok := env(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("PORT", &c.Server.Port)
	setString("CAMUNDA_BASE_URL", &c.Camunda.BaseURL)
	setString("PROCESS_DEFINITION_KEY", &c.Process.DefinitionKey)
	setString("REQUIRED_FIELDS_VARIABLE", &c.Process.RequiredFieldsVariable)
	setString("API_BASE_URL", &c.Client.APIBaseURL)
	setString("LOG_LEVEL", &c.LogLevel)

	for _, err := range []error{
		setDuration("ENGINE_TIMEOUT", &c.Camunda.Timeout),
		setInt("FIELD_CACHE_SIZE", &c.Process.FieldCacheSize),
		setDuration("SUBPROCESS_POLL_INITIAL", &c.Wait.Initial),
		setDuration("SUBPROCESS_POLL_LATER", &c.Wait.Later),
		setInt("SUBPROCESS_POLL_SWITCH_AFTER", &c.Wait.SwitchAfter),
		setDuration("SUBPROCESS_WAIT_BUDGET", &c.Wait.Budget),
	} {
		if err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Camunda.BaseURL == "" {
		return fmt.Errorf("camunda.base_url is required")
	}
	if c.Process.DefinitionKey == "" {
		return fmt.Errorf("process.definition_key is required")
	}
	if c.Process.FieldCacheSize <= 0 {
		return fmt.Errorf("process.field_cache_size must be positive")
	}
	if c.Wait.Initial <= 0 || c.Wait.Later <= 0 {
		return fmt.Errorf("subprocess_wait intervals must be positive")
	}
	if c.Wait.Budget < 0 {
		return fmt.Errorf("subprocess_wait.budget must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address for Server.Port.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Server.Port, ":") {
		return c.Server.Port
	}
	return ":" + c.Server.Port
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
