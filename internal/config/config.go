package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN" default:""`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" default:""`
	DB       int    `env:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" default:""`
	Topic   string   `env:"KAFKA_TOPIC" default:"wallet.balance_changed"`
}

// ProviderConfig holds the credentials shared with the game provider.
// Both values are required: the signature check fails closed without them.
type ProviderConfig struct {
	APIKey string `env:"PROVIDER_API_KEY"`
	Secret string `env:"PROVIDER_SECRET"`
}

type LedgerConfig struct {
	// Backend selects the store implementation: redis, postgres or memory.
	Backend        string        `env:"LEDGER_BACKEND" default:"redis"`
	OpeningBalance int64         `env:"LEDGER_OPENING_BALANCE" default:"1000"`
	StoreTimeout   time.Duration `env:"LEDGER_STORE_TIMEOUT" default:"2s"`
	HistoryLimit   int           `env:"LEDGER_HISTORY_LIMIT" default:"50"`
	NodeID         int64         `env:"LEDGER_NODE_ID" default:"1"`
}

type WebSocketConfig struct {
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" default:""`
}
