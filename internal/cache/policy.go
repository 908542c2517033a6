package cache

import (
	"errors"
	"time"
)

// ErrStoreUnavailable 表示写入器未注入底层存储实例。
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Writer 注入全局默认 TTL 的写入封装：调用方传 ttl<0 表示"未指定"，
// 由 Writer 回退到配置值；ttl==0 仍按永不过期透传。守护进程的写路径
// 统一经过它，保证 HTTP 侧省略 ttl 时行为与配置一致。
type Writer struct {
	store      Store
	defaultTTL time.Duration
}

// NewWriter 构造默认 TTL 感知的写入器。
func NewWriter(store Store, defaultTTL time.Duration) Writer {
	return Writer{store: store, defaultTTL: defaultTTL}
}

// Enabled 返回当前是否具备缓存写入能力。
func (w Writer) Enabled() bool {
	return w.store != nil
}

// Put 写入条目，未指定 TTL 时采用配置默认值。
func (w Writer) Put(key string, value []byte, ttl time.Duration, tags ...string) bool {
	if w.store == nil {
		return false
	}
	return w.store.Put(key, value, w.effective(ttl), tags...)
}

// Add 语义同 Store.Add，未指定 TTL 时采用配置默认值。
func (w Writer) Add(key string, value []byte, ttl time.Duration) bool {
	if w.store == nil {
		return false
	}
	return w.store.Add(key, value, w.effective(ttl))
}

func (w Writer) effective(ttl time.Duration) time.Duration {
	if ttl >= 0 {
		return ttl
	}
	return w.defaultTTL
}
