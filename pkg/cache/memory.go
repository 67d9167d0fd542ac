package cache

import (
	"context"
	"time"

	"github.com/Zereker/adboard/pkg/store"
)

type memEntry struct {
	Name      string    `json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e memEntry) Key() string { return e.Name }

func (e memEntry) Field(name string) (any, bool) {
	if name == "key" {
		return e.Name, true
	}
	return nil, false
}

// MemoryCache 进程内缓存，超出容量时淘汰最早写入的条目
type MemoryCache struct {
	entries *store.Store[memEntry]
	now     func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache 创建进程内缓存
func NewMemoryCache(maxItems int) *MemoryCache {
	return &MemoryCache{
		entries: store.New[memEntry](
			store.WithName("cache"),
			store.WithKeyField("key"),
			store.WithMaxItems(maxItems),
		),
		now: time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return "", ErrMiss
	}
	if !e.ExpiresAt.IsZero() && !c.now().Before(e.ExpiresAt) {
		c.entries.Delete(key)
		return "", ErrMiss
	}
	return e.Value, nil
}

// Set 写入条目，ttl <= 0 表示永不过期
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := memEntry{Name: key, Value: value}
	if ttl > 0 {
		e.ExpiresAt = c.now().Add(ttl)
	}

	// 覆盖写入不会刷新淘汰顺序，先删除再写入
	c.entries.Delete(key)
	_, err := c.entries.Add(e)
	return err
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}

// Len 返回当前条目数（含未清理的过期条目）
func (c *MemoryCache) Len() int {
	return c.entries.Count()
}
