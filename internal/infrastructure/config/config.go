package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Database holds libsql database configuration.
type Database struct {
	URL       string `envconfig:"PAGELIFT_DATABASE_URL" required:"true"`
	AuthToken string `envconfig:"PAGELIFT_AUTH_TOKEN"`
}

// Scheduler holds configuration for the experiment evaluation sweep.
type Scheduler struct {
	Interval    time.Duration `envconfig:"PAGELIFT_SCHEDULER_INTERVAL" default:"6h"`
	MaxParallel int           `envconfig:"PAGELIFT_SCHEDULER_MAX_PARALLEL" default:"4"`
	MaxRetries  int           `envconfig:"PAGELIFT_SCHEDULER_MAX_RETRIES" default:"2"`
}

// Suggestions holds configuration for the LLM copy-ideation helper.
type Suggestions struct {
	OpenAIAPIKey string `envconfig:"PAGELIFT_OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"PAGELIFT_OPENAI_MODEL" default:"gpt-4o-mini"`
}

// Server holds configuration for the HTTP API.
type Server struct {
	Port int `envconfig:"PAGELIFT_PORT" default:"8080"`
}

// App aggregates every runtime setting.
type App struct {
	Database    Database
	Scheduler   Scheduler
	Suggestions Suggestions
	Server      Server
}

// Load reads application configuration from environment variables.
func Load() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Scheduler); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Suggestions); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, err
	}
	return &cfg, nil
}
