package config

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"

	"github.com/hanbit-edu/hanbit-server/pkg/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
}

type ServerConfig struct {
	Port              int    `json:"port"`
	CorsAllowedOrigin string `json:"cors_allowed_origin"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

var AppConfig Config

// LoadConfig reads the JSON config file and applies environment overrides.
// A .env file next to the binary is honored so that deployments can inject
// the database password without writing it into config.json.
func LoadConfig(filename string) error {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using OS environment only")
	}

	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyEnvOverrides(&AppConfig)
	setDefaults(&AppConfig)
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HANBIT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("HANBIT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("HANBIT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("HANBIT_DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CorsAllowedOrigin == "" {
		cfg.Server.CorsAllowedOrigin = "http://localhost:3000"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
}
