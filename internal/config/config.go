package config

import (
	"github.com/maxviazov/pagekit/internal/logger"
)

// Config is the full application configuration.
type Config struct {
	App        AppConfig           `mapstructure:"app"`
	Logger     logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Postgres   PostgresConfig      `mapstructure:"postgres"`
	Pagination PaginationConfig    `mapstructure:"pagination"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	DBName   string `mapstructure:"db" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	MaxConns int32 `mapstructure:"max_conns" validate:"min=1"`
	MinConns int32 `mapstructure:"min_conns" validate:"min=0,ltefield=MaxConns"`
	// Durations below are in seconds.
	MaxConnLifetime   int `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int `mapstructure:"health_check_period"`
}

// PaginationConfig bounds what list endpoints accept.
type PaginationConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int `mapstructure:"max_page_size" validate:"min=1"`
}
