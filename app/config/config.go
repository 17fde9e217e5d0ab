package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

const defaultSystemInstruction = "You are a helpful and versatile AI assistant for the Maven application. " +
	"Your primary role is to help users manage their tasks, notes, events, and other productivity features " +
	"by using the available tools. You can also engage in general conversation on any topic the user wishes " +
	"to discuss. Be friendly, conversational, and efficient."

type Config struct {
	Log       Log       `yaml:"log"`
	Model     Model     `yaml:"model"`
	Assistant Assistant `yaml:"assistant"`
	Storage   Storage   `yaml:"storage"`
	Voice     Voice     `yaml:"voice"`
	HTTP      HTTP      `yaml:"http"`
}

type Log struct {
	// Minimal level: debug, info, warn or error
	Level string `yaml:"level" example:"debug" validate:"oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

type Model struct {
	// Model backend: gemini or openai (any OpenAI-compatible API)
	Provider string `yaml:"provider" example:"gemini" validate:"oneof=gemini openai"`
	// API key, falls back to API_KEY / GEMINI_API_KEY / OPENAI_API_KEY
	APIKey string `yaml:"api_key" example:"AIzaSyA-abc123" validate:"required"`
	// Base url, openai provider only
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"omitempty,url"`
	// Model name
	Model string `yaml:"model" example:"gemini-2.5-flash" validate:"required"`
	// Sampling temperature, provider default when unset
	Temperature *float32 `yaml:"temperature" example:"0.7" validate:"omitempty,gte=0,lte=2"`
	// Timeout of a single model round trip
	RequestTimeout time.Duration `yaml:"request_timeout" example:"60s" validate:"gt=0"`
}

type Assistant struct {
	// System instruction sent with every chat request
	SystemInstruction string `yaml:"system_instruction" validate:"required"`
	// Maximum number of queued utterances
	QueueSize int `yaml:"queue_size" example:"64" validate:"gt=0"`
}

type Storage struct {
	// Path of the sqlite database
	Path string `yaml:"path" example:"data/maven.db" validate:"required"`
}

type Voice struct {
	// Enable speech-to-text input
	Enabled bool `yaml:"enabled" example:"false"`
	// Recognition language
	Language string `yaml:"language" example:"en-US" validate:"required_if=Enabled true"`
	// ffmpeg input format of the capture device
	FFmpegFormat string `yaml:"ffmpeg_format" example:"pulse" validate:"required_if=Enabled true"`
	// ffmpeg input of the capture device
	FFmpegInput string `yaml:"ffmpeg_input" example:"default" validate:"required_if=Enabled true"`
	// Yandex Cloud service account key file
	ServiceAccountKey string `yaml:"service_account_key" example:"service-account-key.json"`
	// Keep listening after the first final phrase
	Continuous bool `yaml:"continuous" example:"false"`
}

type HTTP struct {
	// Listen address of the API
	Listen string `yaml:"listen" example:"127.0.0.1:8080" validate:"required,hostname_port"`
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Errorf("failed to load .env file: %w", err)
	}

	var result Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyDefaults(result *Config) {
	if result.Log.Level == "" {
		result.Log.Level = "debug"
	}

	if result.Model.Provider == "" {
		result.Model.Provider = "gemini"
	}
	if result.Model.APIKey == "" {
		result.Model.APIKey = firstEnv("API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY")
	}
	if result.Model.Model == "" {
		result.Model.Model = "gemini-2.5-flash"
	}
	if result.Model.RequestTimeout == 0 {
		result.Model.RequestTimeout = time.Minute
	}

	if result.Assistant.SystemInstruction == "" {
		result.Assistant.SystemInstruction = defaultSystemInstruction
	}
	if result.Assistant.QueueSize == 0 {
		result.Assistant.QueueSize = 64
	}

	if result.Storage.Path == "" {
		result.Storage.Path = "data/maven.db"
	}

	if result.Voice.Language == "" {
		result.Voice.Language = "en-US"
	}
	if result.Voice.ServiceAccountKey == "" {
		result.Voice.ServiceAccountKey = "service-account-key.json"
	}

	if result.HTTP.Listen == "" {
		result.HTTP.Listen = "127.0.0.1:8080"
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}

	return ""
}
