package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"mysql"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Provider ProviderConfig `yaml:"provider"`
	Backup   BackupConfig   `yaml:"backup"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds MySQL configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"database"`
	Params   string `yaml:"params"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	BarTopic    string   `yaml:"bar_topic"`
	SignalTopic string   `yaml:"signal_topic"`
	GroupID     string   `yaml:"group_id"`
}

// RedisConfig holds Redis cache configuration. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ProviderConfig holds the market data provider API configuration
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// BackupConfig holds mysqldump backup configuration
type BackupConfig struct {
	MysqldumpPath string        `yaml:"mysqldump_path"`
	OutputDir     string        `yaml:"output_dir"`
	Interval      time.Duration `yaml:"interval"`
	Keep          int           `yaml:"keep"`
}

// Load reads configuration from environment variables. If CONFIG_FILE points
// at a YAML file, its values are applied first and explicitly set environment
// variables override them.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", "root"),
			DBName:   getEnv("DB_NAME", "stock"),
			Params:   getEnv("DB_PARAMS", "parseTime=true&charset=utf8mb4&multiStatements=true"),
		},
		Kafka: KafkaConfig{
			Brokers:     []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			BarTopic:    getEnv("KAFKA_BAR_TOPIC", "daily-bars"),
			SignalTopic: getEnv("KAFKA_SIGNAL_TOPIC", "strategy-signals"),
			GroupID:     getEnv("KAFKA_GROUP_ID", "stock-data-service"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 5*time.Minute),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", "https://api.tushare.pro"),
			Token:   getEnv("PROVIDER_TOKEN", ""),
		},
		Backup: BackupConfig{
			MysqldumpPath: getEnv("BACKUP_MYSQLDUMP", "mysqldump"),
			OutputDir:     getEnv("BACKUP_DIR", "./backups"),
			Interval:      getEnvDuration("BACKUP_INTERVAL", 24*time.Hour),
			Keep:          getEnvInt("BACKUP_KEEP", 7),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		cfg.applyEnvOverrides()
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides re-applies environment variables that are explicitly set,
// so they win over file values
func (c *Config) applyEnvOverrides() {
	setIfEnv("DB_HOST", &c.Database.Host)
	setIfEnv("DB_PORT", &c.Database.Port)
	setIfEnv("DB_USER", &c.Database.User)
	setIfEnv("DB_PASSWORD", &c.Database.Password)
	setIfEnv("DB_NAME", &c.Database.DBName)
	setIfEnv("SERVER_PORT", &c.Server.Port)
	setIfEnv("SERVER_HOST", &c.Server.Host)
	setIfEnv("PROVIDER_TOKEN", &c.Provider.Token)
	setIfEnv("REDIS_ADDR", &c.Redis.Addr)
	setIfEnv("BACKUP_DIR", &c.Backup.OutputDir)
}

// DSN returns the MySQL connection string for the configured database
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Password + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.DBName + "?" + d.Params
}

// ServerDSN returns a connection string with no database selected, used to
// create the database before migrations run
func (d *DatabaseConfig) ServerDSN() string {
	return d.User + ":" + d.Password + "@tcp(" + d.Host + ":" + d.Port + ")/?" + d.Params
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func setIfEnv(key string, dst *string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
