package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Upload  UploadConfig
	Webhook WebhookConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type LLMConfig struct {
	Provider     string
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string
}

type UploadConfig struct {
	Dir string
}

type WebhookConfig struct {
	URL        string
	TimeoutSec int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/contract-intel")

	viper.SetEnvPrefix("CONTRACT_INTEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 52428800)

	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.groqModel", "llama-3.3-70b-versatile")
	viper.SetDefault("llm.geminiModel", "gemini-2.5-flash")

	viper.SetDefault("upload.dir", "./uploads")

	viper.SetDefault("webhook.timeoutSec", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
