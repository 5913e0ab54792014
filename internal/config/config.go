package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres (default) or mysql
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Supabase struct {
		URL        string `yaml:"url"`
		ServiceKey string `yaml:"serviceKey"`
		// JWTSecret switches token verification to local HS256 checking
		// instead of a per-request call to the identity provider.
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"supabase"`

	AI struct {
		Provider          string `yaml:"provider"` // perplexity (default) or openai
		APIKey            string `yaml:"apiKey"`
		Model             string `yaml:"model"`
		OpenAIKey         string `yaml:"openaiKey"`
		OpenAIModel       string `yaml:"openaiModel"`
		TimeoutSeconds    int    `yaml:"timeoutSeconds"`
		SearchContextSize string `yaml:"searchContextSize"`
	} `yaml:"ai"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads the optional config file and overlays environment variables.
// A missing file is not an error: deployments may configure everything
// through the environment alone.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 5000
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.SSLMode = "disable"
	cfg.AI.Provider = "perplexity"
	cfg.AI.Model = "sonar"
	cfg.AI.TimeoutSeconds = 60
	cfg.AI.SearchContextSize = "medium"
	cfg.Logging.Level = "info"
	return cfg
}

func (c *Config) applyEnv() {
	setInt(&c.Server.Port, "PORT")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.ServiceKey, "SUPABASE_SERVICE_KEY")
	setString(&c.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&c.AI.Provider, "AI_PROVIDER")
	setString(&c.AI.APIKey, "PERPLEXITY_API_KEY")
	setString(&c.AI.Model, "PERPLEXITY_MODEL")
	setString(&c.AI.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.AI.OpenAIModel, "OPENAI_MODEL")
	setInt(&c.AI.TimeoutSeconds, "AI_TIMEOUT_SECONDS")
	setString(&c.AI.SearchContextSize, "AI_SEARCH_CONTEXT_SIZE")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.BucketName, "MINIO_BUCKET")
	setString(&c.Minio.Region, "MINIO_REGION")
	setBool(&c.Minio.UseSSL, "MINIO_USE_SSL")
	setString(&c.Logging.Level, "LOG_LEVEL")
}

// PostgresDSN builds the lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// MySQLDSN builds the go-sql-driver connection string
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
