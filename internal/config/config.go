package config

import (
	"lingostream/pkg/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Addr      string `yaml:"addr" env:"SERVER_ADDR" env-default:":8765"`
		StaticDir string `yaml:"static_dir" env:"STATIC_DIR" env-default:"web"`
	} `yaml:"server"`

	Speech struct {
		URL        string `yaml:"url" env:"SPEECH_STREAM_URL" env-default:"wss://streaming.assemblyai.com/v3/ws"`
		APIKey     string `yaml:"api_key" env:"SPEECH_API_KEY"`
		SampleRate int    `yaml:"sample_rate" env:"SPEECH_SAMPLE_RATE" env-default:"16000"`
	} `yaml:"speech"`

	Translator struct {
		URL         string `yaml:"url" env:"TRANSLATOR_URL" env-default:"https://api.groq.com/openai/v1/chat/completions"`
		APIKey      string `yaml:"api_key" env:"TRANSLATOR_API_KEY"`
		Model       string `yaml:"model" env:"TRANSLATOR_MODEL" env-default:"llama-3.3-70b-versatile"`
		TargetLang  string `yaml:"target_lang" env:"TRANSLATOR_TARGET_LANG" env-default:"Chinese"`
		MaxAttempts int    `yaml:"max_attempts" env:"TRANSLATOR_MAX_ATTEMPTS" env-default:"3"`
	} `yaml:"translator"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	} `yaml:"redis"`

	Recording struct {
		Enabled bool   `yaml:"enabled" env:"RECORDING_ENABLED" env-default:"false"`
		Backend string `yaml:"backend" env:"RECORDING_BACKEND" env-default:"disk"`
		Dir     string `yaml:"dir" env:"RECORDING_DIR" env-default:"/tmp"`
	} `yaml:"recording"`

	S3 struct {
		Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
		Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
		AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
		Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	} `yaml:"s3"`
}

func LoadConfig() (*Config, error) {
	// Load .env file
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig("configs/config.yaml", &cfg); err != nil {
		return nil, err
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		return nil, err
	}

	logger.Info("Config loaded successfully")
	return &cfg, nil
}
