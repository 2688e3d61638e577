package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Search   SearchConfig   `yaml:"search"`
	Planner  PlannerConfig  `yaml:"planner"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	FlightTopic  string   `yaml:"flight_topic"`
	TicketTopic  string   `yaml:"ticket_topic"`
	GroupID      string   `yaml:"group_id"`
	PublishRetry int      `yaml:"publish_retry"`
}

type SearchConfig struct {
	DefaultSort     string `yaml:"default_sort"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

type PlannerConfig struct {
	DefaultSort       string `yaml:"default_sort"`
	MinConnectMinutes int    `yaml:"min_connect_minutes"`
	SearchLimit       int    `yaml:"search_limit"`
}

type WorkerConfig struct {
	QueueSweepMinutes int `yaml:"queue_sweep_minutes"`
	QueueLockSeconds  int `yaml:"queue_lock_seconds"`
}

// LoadConfig reads the YAML file at path. Values may reference environment
// variables as ${NAME}; a .env file next to the process is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults replaces values that would stall a ticker or disable a limit.
func (c *Config) fillDefaults() {
	d := defaults()
	positive := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	positive(&c.Worker.QueueSweepMinutes, d.Worker.QueueSweepMinutes)
	positive(&c.Worker.QueueLockSeconds, d.Worker.QueueLockSeconds)
	positive(&c.Search.CacheTTLSeconds, d.Search.CacheTTLSeconds)
	positive(&c.Planner.SearchLimit, d.Planner.SearchLimit)
	positive(&c.Kafka.PublishRetry, d.Kafka.PublishRetry)
	if c.Planner.MinConnectMinutes < 0 {
		c.Planner.MinConnectMinutes = d.Planner.MinConnectMinutes
	}
	if c.Search.DefaultSort == "" {
		c.Search.DefaultSort = d.Search.DefaultSort
	}
	if c.Planner.DefaultSort == "" {
		c.Planner.DefaultSort = d.Planner.DefaultSort
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = d.HTTP.Address
	}
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		Search: SearchConfig{
			DefaultSort:     "dpR",
			CacheTTLSeconds: 60,
		},
		Planner: PlannerConfig{
			DefaultSort:       "w",
			MinConnectMinutes: 40,
			SearchLimit:       1000,
		},
		Kafka: KafkaConfig{PublishRetry: 3},
		Worker: WorkerConfig{
			QueueSweepMinutes: 1,
			QueueLockSeconds:  30,
		},
	}
}
