package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql or postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	LLM struct {
		BaseURL        string `yaml:"baseURL"`
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		MaxRetries     int    `yaml:"maxRetries"`
		BackoffSeconds int    `yaml:"backoffSeconds"`
	} `yaml:"llm"`

	Scoring struct {
		RawMin       float64 `yaml:"rawMin"`
		RawMax       float64 `yaml:"rawMax"`
		ApproveBelow float64 `yaml:"approveBelow"`
		DenyAt       float64 `yaml:"denyAt"`
	} `yaml:"scoring"`

	Reporting struct {
		MaxAttempts int `yaml:"maxAttempts"`
	} `yaml:"reporting"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Facts struct {
		SearchURL string `yaml:"searchURL"`
		UDFURL    string `yaml:"udfURL"`
		Token     string `yaml:"token"`
	} `yaml:"facts"`

	Auth struct {
		// analyst id -> api key; empty means auth disabled
		Keys map[string]string `yaml:"keys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load reads a config.yaml and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 45
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 1
	}
	if c.LLM.BackoffSeconds == 0 {
		c.LLM.BackoffSeconds = 2
	}
	if c.Scoring.RawMax == 0 {
		c.Scoring.RawMax = 100
	}
	if c.Scoring.ApproveBelow == 0 {
		c.Scoring.ApproveBelow = 30
	}
	if c.Scoring.DenyAt == 0 {
		c.Scoring.DenyAt = 70
	}
	if c.Reporting.MaxAttempts == 0 {
		c.Reporting.MaxAttempts = 3
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 100
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 10
	}
}

// Helper to build the MySQL DSN.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build the Postgres DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
