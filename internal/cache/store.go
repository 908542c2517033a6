package cache

import (
	"errors"
	"time"

	"github.com/any-hub/any-cache/internal/lock"
)

// Store 定义文件型与内存型缓存共同遵守的契约。失败从不升级为致命错误：
// 写类操作以布尔值表达成功与否，读类操作以 ErrNotFound 表达未命中，
// 预期内的写竞争（Add 抢锁失败）同样只是 false。
type Store interface {
	// Get 返回未过期的条目值；不存在、已过期或载荷破损都按未命中处理，
	// 过期/破损条目在本次访问中被顺带删除。
	Get(key string) ([]byte, error)

	// GetMultiple 逐键调用 Get；未命中的键也会出现在结果中，值为 nil。
	GetMultiple(keys []string) map[string][]byte

	// Has 报告键当前是否命中。
	Has(key string) bool

	// Put 写入条目。ttl<=0 表示永不过期；tags 非空时写入对应标签命名空间，
	// 该命名空间对无标签的 Get/Forget 不可见。
	Put(key string, value []byte, ttl time.Duration, tags ...string) bool

	// Add 仅在键不存在或已过期时写入，写路径经排他文件锁（或存储内部互斥）
	// 串行化；抢锁失败或键仍有效时返回 false。
	Add(key string, value []byte, ttl time.Duration) bool

	// Forever 等价于 ttl<=0 的 Put。
	Forever(key string, value []byte, tags ...string) bool

	// Forget 删除无标签路径下的条目，并尽力清理 flexible TTL 伴生键；
	// 伴生键清理结果不影响返回值。
	Forget(key string) bool

	// Flush 无条件清空存储；部分失败时立即返回 false，已删部分不回滚。
	Flush() bool

	// FlushTag 删除指定标签组合对应的整个命名空间。
	FlushTag(tags ...string) bool

	// Increment 按 delta 累加整数条目并保留剩余 TTL；缺失键从 0 起算且
	// 写入为永不过期，非整数载荷返回 ErrCorrupt。
	Increment(key string, delta int64) (int64, error)

	// Decrement 等价于负向 Increment。
	Decrement(key string, delta int64) (int64, error)

	// Lock 构建名为 name 的锁句柄；owner 为空时自动生成。
	Lock(name string, ttl time.Duration, owner string) lock.Lock

	// RestoreLock 重建绑定既有持有者的锁句柄，不重新加锁。
	RestoreLock(name, owner string) lock.Lock

	// Prefix 返回作用于全部键的前缀，可能为空串。
	Prefix() string
}

// ErrNotFound 表示缓存条目不存在、已过期或已被清理。
var ErrNotFound = errors.New("cache entry not found")

// ErrCorrupt 表示条目载荷无法按预期解析（如对非整数值做 Increment）。
var ErrCorrupt = errors.New("cache entry corrupt")

// flexibleCreatedPrefix 是上层 flexible TTL 模式使用的伴生键前缀，
// Forget 按约定顺带清理，不做任何泛化。
const flexibleCreatedPrefix = "flexible:created:"
