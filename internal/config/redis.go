package config

// Redis backs the public store response cache and the rate limiter.  When
// it cannot be reached at startup both features degrade to pass-through.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection settings.  REDIS_HOST and
// REDIS_PORT take precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     string `envconfig:"REDIS_PORT"`
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	TLS      bool   `envconfig:"REDIS_TLS" default:"false"`
}

// NewRedisClient instantiates a Redis client using environment variables.
// The returned client is nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
	var rc RedisConfig
	if err := envconfig.Process("", &rc); err != nil {
		return nil
	}
	addr := rc.Addr
	if rc.Host != "" && rc.Port != "" {
		addr = rc.Host + ":" + rc.Port
	}
	var tlsConf *tls.Config
	if rc.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  rc.Password,
		DB:        rc.DB,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
