package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment variable names recognized by the application. These are bound
// explicitly so deployments can use the conventional flat names instead of
// viper's nested SERVER_PORT-style derivation.
var envBindings = map[string]string{
	"server.port":                  "SERVER_PORT",
	"server.log_level":             "LOG_LEVEL",
	"database.url":                 "DATABASE_URL",
	"llm.gemini_api_key":           "GEMINI_API_KEY",
	"llm.model_name":               "MODEL_NAME",
	"llm.max_retries":              "STAGE_MAX_RETRIES",
	"llm.retry_delay_seconds":      "STAGE_RETRY_DELAY_SECONDS",
	"workflow.max_iterations":      "MAX_ITERATIONS",
	"workflow.quality_threshold":   "QUALITY_THRESHOLD",
	"workflow.worker_count":        "WORKER_COUNT",
	"validation.enabled":           "VALIDATE_RESOURCES",
	"validation.timeout_seconds":   "VALIDATION_TIMEOUT_SECONDS",
	"validation.max_concurrent":    "VALIDATION_MAX_CONCURRENT",
}

// Load reads configuration from environment variables, applies defaults, and
// validates the result. Environment variables take precedence over defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults applies default values matching the documented configuration
// contract (MAX_ITERATIONS defaults to 5, QUALITY_THRESHOLD to 0.85, and
// resource validation is on unless disabled).
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("workflow.max_iterations", 5)
	v.SetDefault("workflow.quality_threshold", 0.85)
	v.SetDefault("workflow.worker_count", 2)
	v.SetDefault("validation.enabled", true)
	v.SetDefault("validation.timeout_seconds", 5)
	v.SetDefault("validation.max_concurrent", 10)
}
