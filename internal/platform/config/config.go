package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures top-level process configuration. Values come from the
// environment; everything has a development default except secrets that must
// never ship with one in production.
type Server struct {
	Addr              string        `env:"AUTHGATE_ADDR" envDefault:":8080"`
	SessionSigningKey string        `env:"SESSION_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	Neo4j  Neo4jConfig  `envPrefix:"NEO4J_"`
	Redis  RedisConfig  `envPrefix:"REDIS_"`
	Argon2 Argon2Config `envPrefix:"ARGON2_"`
}

// Neo4jConfig holds the identity store connection parameters. An empty URI
// means the in-memory store is used instead.
type Neo4jConfig struct {
	URI       string `env:"URI"`
	User      string `env:"USER" envDefault:"neo4j"`
	Password  string `env:"PASSWORD"`
	Database  string `env:"DATABASE" envDefault:"neo4j"`
	FetchSize int    `env:"FETCH_SIZE" envDefault:"500"`
	MaxPool   int    `env:"MAX_POOL" envDefault:"10"`
}

// RedisConfig holds the session revocation list backend. An empty URL means
// the in-memory revocation list is used instead.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// Argon2Config controls password hashing cost.
type Argon2Config struct {
	MemoryKiB   uint32 `env:"MEMORY_KIB" envDefault:"65536"`
	Iterations  uint32 `env:"ITERATIONS" envDefault:"3"`
	Parallelism uint8  `env:"PARALLELISM" envDefault:"2"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
