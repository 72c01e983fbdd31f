package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"table-orders/internal/domain"
)

// Config хранит все параметры приложения
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Push     PushConfig     `yaml:"push"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Orders   OrdersConfig   `yaml:"orders"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type HTTPConfig struct {
	Port           int `yaml:"port"`
	MaxConcurrency int `yaml:"max_concurrent"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // sqlite file
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	UseTLS   bool   `yaml:"tls"`
	Prefetch int    `yaml:"prefetch"`
}

type PushConfig struct {
	Driver         string        `yaml:"driver"` // fcm | sns | log
	ProjectID      string        `yaml:"project_id"`
	ClientEmail    string        `yaml:"client_email"`
	PrivateKey     string        `yaml:"private_key"`
	PlatformARN    string        `yaml:"platform_arn"`
	Region         string        `yaml:"region"`
	Sound          string        `yaml:"sound"`
	AndroidChannel string        `yaml:"android_channel"`
	APNSSoundExt   string        `yaml:"apns_sound_ext"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // sends per second, 0 = unlimited
	RateBurst      int           `yaml:"rate_burst"`
	Retry          RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
}

type RealtimeConfig struct {
	Driver     string        `yaml:"driver"` // postgres | rabbitmq | memory
	Channel    string        `yaml:"channel"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type OrdersConfig struct {
	TransitionPolicy string `yaml:"transition_policy"`
}

type NotifyConfig struct {
	Driver string `yaml:"driver"` // local | rabbitmq
}

func Default() *Config {
	return &Config{
		HTTP:     HTTPConfig{Port: 3000, MaxConcurrency: 50},
		Database: DatabaseConfig{Driver: "postgres", Port: 5432, SSLMode: "disable", Path: "table-orders.db"},
		RabbitMQ: RabbitMQConfig{Port: 5672, VHost: "/", Prefetch: 4},
		Push: PushConfig{
			Driver:         "fcm",
			Region:         "ap-northeast-1",
			Sound:          "notify",
			AndroidChannel: "orders",
			APNSSoundExt:   ".caf",
			Retry:          RetryConfig{BaseDelay: 200 * time.Millisecond},
		},
		Realtime: RealtimeConfig{Driver: "postgres", Channel: domain.OrdersChannel, RetryDelay: 2 * time.Second},
		Orders:   OrdersConfig{TransitionPolicy: string(domain.PolicyLenient)},
		Notify:   NotifyConfig{Driver: "local"},
	}
}

// Load reads .env (if any), the YAML file at path (if any) and environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("Couldnt open the file for the configuration: %w", err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("Error reading %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Database.Host, "DB_HOST")
	set(&c.Database.User, "DB_USER")
	set(&c.Database.Password, "DB_PASSWORD")
	set(&c.Database.Database, "DB_NAME")
	if v := getenv("DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Database.Port = n
		}
	}
	set(&c.RabbitMQ.Host, "RABBITMQ_HOST")
	set(&c.RabbitMQ.User, "RABBITMQ_USER")
	set(&c.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	set(&c.Push.ProjectID, "FIREBASE_PROJECT_ID")
	set(&c.Push.ClientEmail, "FIREBASE_CLIENT_EMAIL")
	set(&c.Push.PrivateKey, "FIREBASE_PRIVATE_KEY")
	set(&c.Push.PlatformARN, "SNS_PLATFORM_ARN")
	set(&c.Push.Region, "AWS_REGION")

	// keys copied from JSON credential files keep escaped newlines
	c.Push.PrivateKey = strings.ReplaceAll(c.Push.PrivateKey, `\n`, "\n")
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "" {
			return fmt.Errorf("database config incomplete")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Realtime.Channel == "" {
		c.Realtime.Channel = domain.OrdersChannel
	}
	switch c.Realtime.Driver {
	case "postgres":
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("realtime driver postgres needs database driver postgres")
		}
		// the orders trigger notifies a fixed channel
		if c.Realtime.Channel != domain.OrdersChannel {
			return fmt.Errorf("realtime driver postgres only serves channel %q, got %q", domain.OrdersChannel, c.Realtime.Channel)
		}
	case "rabbitmq", "memory":
	default:
		return fmt.Errorf("unknown realtime driver %q", c.Realtime.Driver)
	}

	switch c.Notify.Driver {
	case "local", "rabbitmq":
	default:
		return fmt.Errorf("unknown notify driver %q", c.Notify.Driver)
	}
	if (c.Notify.Driver == "rabbitmq" || c.Realtime.Driver == "rabbitmq") && (c.RabbitMQ.Host == "" || c.RabbitMQ.User == "") {
		return fmt.Errorf("rabbitmq config incomplete")
	}

	switch c.Push.Driver {
	case "fcm", "sns", "log":
	default:
		return fmt.Errorf("unknown push driver %q", c.Push.Driver)
	}
	if c.Push.RateLimit < 0 {
		return fmt.Errorf("push.rate_limit must be >= 0")
	}
	if c.Push.Retry.Attempts < 0 {
		return fmt.Errorf("push.retry.attempts must be >= 0")
	}
	if _, err := domain.ParsePolicy(c.Orders.TransitionPolicy); err != nil {
		return err
	}
	return nil
}

// Policy returns the configured transition policy; Validate has already
// rejected unknown values.
func (c *Config) Policy() domain.TransitionPolicy {
	p, _ := domain.ParsePolicy(c.Orders.TransitionPolicy)
	return p
}

func FindConfig() string {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
