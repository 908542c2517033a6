// Package lock provides named advisory locks shared by the cache stores: a
// flock-backed variant for multi-process coordination over a lock directory,
// and an in-process registry variant backing the memory store. Both record a
// holder token plus an optional expiry, but only the file variant offers real
// cross-process exclusion; expiry on a lock record is bookkeeping that lets a
// stale holder be cleaned up, not a hard revocation.
package lock

import (
	"time"

	"github.com/google/uuid"
)

// Lock 是文件锁与内存锁共同暴露的句柄契约。
type Lock interface {
	// Acquire 以非阻塞方式尝试加锁，竞争失败立即返回 false。
	Acquire() bool

	// Block 在 timeout 窗口内轮询加锁，超时返回 false。
	Block(timeout time.Duration) bool

	// Release 仅在持有者记录匹配（或已过期）时释放锁。
	Release() bool

	// ForceRelease 无视持有者记录强制释放。
	ForceRelease()

	// Owner 返回当前句柄绑定的持有者令牌。
	Owner() string
}

// 轮询加锁的重试间隔。
const blockRetryInterval = 50 * time.Millisecond

// ensureOwner 在调用方未提供持有者令牌时生成随机 UUID。
func ensureOwner(owner string) string {
	if owner != "" {
		return owner
	}
	return uuid.NewString()
}

// expiresAt 将 TTL 换算成绝对过期时间；ttl<=0 表示持有至显式释放。
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// expired 判断记录是否已越过过期时间；零值时间视为永不过期。
func expired(now, deadline time.Time) bool {
	if deadline.IsZero() {
		return false
	}
	return !now.Before(deadline)
}
