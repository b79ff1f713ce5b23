package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of generation being requested.
type TaskType string

const (
	TaskWeek TaskType = "week"
	TaskPlan TaskType = "plan"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	LogCalls   bool
	Endpoint   string
	Model      string
	TimeoutMs  int
	MaxRetries int
	// JSONMode asks Ollama to constrain output to a JSON document.
	JSONMode bool
	Tasks    map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults. Retries are off;
// the orchestrator decides whether a failed generation is attempted again.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		LogCalls:   false,
		Endpoint:   "http://localhost:11434",
		Model:      "llama3.2",
		TimeoutMs:  60000,
		MaxRetries: 0,
		JSONMode:   true,
		Tasks: map[TaskType]TaskConfig{
			TaskWeek: {Temperature: 0.4, MaxTokens: 4096, TimeoutMs: 60000},
			TaskPlan: {Temperature: 0.4, MaxTokens: 16384, TimeoutMs: 180000},
		},
	}
}

// LoadConfig reads LLM configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("WAYPOINT_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("WAYPOINT_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("WAYPOINT_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("WAYPOINT_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("WAYPOINT_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("WAYPOINT_LLM_JSON_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.JSONMode = b
		}
	}

	applyTaskTimeoutEnv(&cfg, TaskWeek, "WAYPOINT_LLM_WEEK_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskPlan, "WAYPOINT_LLM_PLAN_TIMEOUT_MS")

	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
