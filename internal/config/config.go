package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Segment  SegmentConfig  `mapstructure:"segment" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`

	// SSEHeartbeatSeconds is how long a progress stream waits for a new
	// event before emitting a heartbeat comment to keep the connection open.
	SSEHeartbeatSeconds int `mapstructure:"sse_heartbeat_seconds" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName          string `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"required"`

	// MaxRetries is the total number of attempts made per model call,
	// including the first one. Only transient errors are retried.
	MaxRetries        int `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=30"`

	// PromptCharLimit caps how many characters of chunk text are inlined
	// into the prompt template.
	PromptCharLimit int `mapstructure:"prompt_char_limit" validate:"required,gt=0"`

	// RequestsPerMinute throttles calls to the model across all running jobs.
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"required,gt=0"`

	// QuestionsPerChunk is how many questions the model is asked to produce
	// for each text chunk.
	QuestionsPerChunk int `mapstructure:"questions_per_chunk" validate:"required,gt=0,lte=20"`
}

// SegmentConfig controls how documents are split into chunks before generation.
type SegmentConfig struct {
	TargetSize  int `mapstructure:"target_size" validate:"required,gt=0"`
	OverlapSize int `mapstructure:"overlap_size" validate:"gte=0"`
	MinSize     int `mapstructure:"min_size" validate:"required,gt=0"`
}

// TaskConfig contains settings for the background task processing system.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0,lte=32"`
	QueueSize   int `mapstructure:"queue_size" validate:"required,gt=0"`

	// StuckTaskAgeMinutes is how old an in-flight task must be before the
	// recovery pass at startup marks it as failed.
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"required,gt=0"`
}
