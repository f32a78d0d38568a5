package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// FileConfig represents configuration loaded from YAML with environment
// overrides for secrets.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL string `yaml:"databaseURL"`
	RedisAddr   string `yaml:"redisAddr"`
	RedisPass   string `yaml:"redisPass"`
	AMQPURL     string `yaml:"amqpURL"`

	JWTSecret string `yaml:"jwtSecret"`

	GeminiAPIKey string `yaml:"geminiAPIKey"`
	GeminiModel  string `yaml:"geminiModel"`
	GroqAPIKey   string `yaml:"groqAPIKey"`
	GroqModel    string `yaml:"groqModel"`
	// DefaultProvider names the provider used when a chat request carries no
	// hint. One of: gemini, groq.
	DefaultProvider string `yaml:"defaultProvider"`
	SystemPrompt    string `yaml:"systemPrompt"`

	CooldownMS    int `yaml:"cooldownMS"`
	MaxChats      int `yaml:"maxChats"`
	HistoryWindow int `yaml:"historyWindow"`

	AuthRateLimit  int `yaml:"authRateLimit"`
	AuthRateWindow int `yaml:"authRateWindowSeconds"`

	AdminUsers        []string `yaml:"adminUsers"`
	AdminEmail        string   `yaml:"adminEmail"`
	NotifyAdminOnChat bool     `yaml:"notifyAdminOnChat"`

	AllowedOrigins []string `yaml:"allowedOrigins"`
	TrustedProxies []string `yaml:"trustedProxies"`

	AWSRegion   string `yaml:"awsRegion"`
	MailFrom    string `yaml:"mailFrom"`
	MinioConfig Minio  `yaml:"minio"`
}

// Minio holds object storage settings for admin exports.
type Minio struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *FileConfig) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASS"); v != "" {
		cfg.RedisPass = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWSRegion = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioConfig.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioConfig.SecretKey = v
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.CooldownMS <= 0 {
		cfg.CooldownMS = 10000
	}
	if cfg.MaxChats <= 0 {
		cfg.MaxChats = 1
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 20
	}
	if cfg.AuthRateWindow <= 0 {
		cfg.AuthRateWindow = 60
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = "gemini"
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or JWT_SECRET)")
	}
	if cfg.GeminiAPIKey == "" && cfg.GroqAPIKey == "" {
		return errors.New("config: at least one provider API key is required (GEMINI_API_KEY or GROQ_API_KEY)")
	}
	switch cfg.DefaultProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return errors.New("config: defaultProvider is gemini but geminiAPIKey is empty")
		}
	case "groq":
		if cfg.GroqAPIKey == "" {
			return errors.New("config: defaultProvider is groq but groqAPIKey is empty")
		}
	default:
		return fmt.Errorf("config: unknown defaultProvider %q", cfg.DefaultProvider)
	}
	return nil
}
