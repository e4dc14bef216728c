package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Workflow   WorkflowConfig   `mapstructure:"workflow" validate:"required"`
	Validation ValidationConfig `mapstructure:"validation" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains all settings for the reasoning capability.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
}

// WorkflowConfig contains the generation loop settings.
type WorkflowConfig struct {
	// MaxIterations caps the Designer->Reviewer->Gatekeeper cycles per run.
	MaxIterations int `mapstructure:"max_iterations" validate:"required,gte=1,lte=20"`

	// QualityThreshold is the minimum Gatekeeper score for approval.
	QualityThreshold float64 `mapstructure:"quality_threshold" validate:"gte=0,lte=1"`

	// WorkerCount bounds how many generation runs execute concurrently.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gte=1,lte=32"`
}

// ValidationConfig contains reference validator settings.
type ValidationConfig struct {
	// Enabled toggles resource validation entirely.
	Enabled bool `mapstructure:"enabled"`

	// TimeoutSeconds is the per-URL liveness check timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gte=1,lte=60"`

	// MaxConcurrent bounds how many URLs are checked in parallel.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"required,gte=1,lte=64"`
}
