package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/gamewallet/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	LogFile         string        `env:"APP_LOG_FILE" default:""`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
	NotifyQueue     int           `env:"APP_NOTIFY_QUEUE" default:"1024"`

	Ledger    config.LedgerConfig
	Provider  config.ProviderConfig
	Postgres  config.PostgresConfig
	Redis     config.RedisConfig
	Kafka     config.KafkaConfig
	WebSocket config.WebSocketConfig
}
