package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        Log        `yaml:"log"`
	Server     Server     `yaml:"server"`
	OpenAI     OpenAI     `yaml:"openai"`
	Perplexity Perplexity `yaml:"perplexity"`
	N8N        N8N        `yaml:"n8n"`
}

type OpenAI struct {
	Chat    ModelConfig `yaml:"chat" validate:"required"`
	Enhance ModelConfig `yaml:"enhance" validate:"required"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1" validate:"required"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// OpenAI model
	Model string `yaml:"model" example:"gpt-4o-mini" validate:"required"`
}

type Perplexity struct {
	// Enable search augmentation via Perplexity
	Enabled bool `yaml:"enabled" example:"false"`
	// Perplexity API token
	Token string `yaml:"token" example:"pplx-abc123def456ghi789jkl012mno345pqr678stu901"`
	// Perplexity model
	Model string `yaml:"model" example:"sonar-reasoning"`
}

type N8N struct {
	// Enable the n8n research relay
	Enabled bool `yaml:"enabled" example:"false"`
	// Webhook URL of the n8n research workflow
	WebhookURL string `yaml:"webhook_url" example:"https://n8n.example.com/webhook/research"`
	// Skip TLS certificate verification for self-hosted n8n instances
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" example:"false"`
}

type Server struct {
	// Address to listen on
	Host string `yaml:"host" example:"0.0.0.0"`
	// Port to listen on
	Port int `yaml:"port" example:"8080"`
}

type Log struct {
	// Minimum level for console output, one of debug/info/warn/error
	Level string `yaml:"level" example:"debug" validate:"omitempty,oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Host == "" {
		result.Server.Host = "0.0.0.0"
	}
	if result.Server.Port == 0 {
		result.Server.Port = 8080
	}
	if result.Perplexity.Model == "" {
		result.Perplexity.Model = "sonar-reasoning"
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	if result.Perplexity.Enabled && result.Perplexity.Token == "" {
		return nil, oops.Errorf("perplexity is enabled but no token is set")
	}
	if result.N8N.Enabled && result.N8N.WebhookURL == "" {
		return nil, oops.Errorf("n8n is enabled but no webhook url is set")
	}

	return &result, nil
}
