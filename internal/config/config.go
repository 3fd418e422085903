package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string `env:"SERVER_PORT" env-default:"8080"`
	DatabaseDSN string `env:"DATABASE_DSN" env-default:"host=localhost user=actilog password=actilog dbname=actilog port=5432 sslmode=disable TimeZone=UTC"`
	RedisAddr   string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB" env-default:"0"`
	RedisPass   string `env:"REDIS_PASSWORD"`
	JWTSecret   string `env:"JWT_SECRET" env-default:"change-me"`
	SwaggerHost string `env:"SWAGGER_HOST"`

	Log    LogConfig
	Backup BackupConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// BackupConfig holds database backup settings.
type BackupConfig struct {
	Dir       string        `env:"BACKUP_DIR" env-default:"./backups"`
	Hour      int           `env:"BACKUP_HOUR" env-default:"2"`
	KeepDays  int           `env:"BACKUP_KEEP_DAYS" env-default:"30"`
	KeepCount int           `env:"BACKUP_KEEP_COUNT" env-default:"10"`
	Timeout   time.Duration `env:"BACKUP_TIMEOUT" env-default:"5m"`
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if cfg.Backup.Hour < 0 || cfg.Backup.Hour > 23 {
		return nil, fmt.Errorf("config: BACKUP_HOUR %d out of range", cfg.Backup.Hour)
	}
	return &cfg, nil
}
