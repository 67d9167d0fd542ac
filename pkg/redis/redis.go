package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config Redis 配置
type Config struct {
	Addr        string `toml:"addr"`
	Password    string `toml:"password"`
	DB          int    `toml:"db"`
	Enabled     bool   `toml:"enabled"`
	DialTimeout string `toml:"dial_timeout"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required when redis is enabled")
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if _, err := time.ParseDuration(c.DialTimeout); err != nil {
		return fmt.Errorf("dial_timeout is invalid: %w", err)
	}
	return nil
}

// New 创建 Redis 客户端并测试连接。未启用时返回 nil。
func New(ctx context.Context, cfg Config) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	timeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil || timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
