package lock

import (
	"sync"
	"time"
)

// Registry 管理进程内命名锁的持有者记录，供内存型存储模拟文件锁契约。
type Registry struct {
	mu    sync.Mutex
	locks map[string]lockRecord
}

type lockRecord struct {
	owner     string
	expiresAt time.Time
}

// NewRegistry 构建空的进程内锁注册表。
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]lockRecord)}
}

// NewLock 为 name 构建锁句柄；owner 为空时自动生成 UUID。
func (r *Registry) NewLock(name string, ttl time.Duration, owner string) *MemoryLock {
	return &MemoryLock{
		registry: r,
		name:     name,
		owner:    ensureOwner(owner),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Restore 重建绑定既有持有者的锁句柄，不重新加锁。
func (r *Registry) Restore(name, owner string) *MemoryLock {
	return &MemoryLock{
		registry: r,
		name:     name,
		owner:    owner,
		now:      time.Now,
	}
}

// MemoryLock 是注册表中单个命名锁的句柄。
type MemoryLock struct {
	registry *Registry
	name     string
	owner    string
	ttl      time.Duration
	now      func() time.Time
}

// Acquire 在锁空闲或既有记录过期时登记持有者。
func (l *MemoryLock) Acquire() bool {
	r := l.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	now := l.now()
	if current, ok := r.locks[l.name]; ok && !expired(now, current.expiresAt) {
		return false
	}
	r.locks[l.name] = lockRecord{owner: l.owner, expiresAt: expiresAt(now, l.ttl)}
	return true
}

// Block 在 timeout 窗口内轮询 Acquire；timeout<=0 时只尝试一次。
func (l *MemoryLock) Block(timeout time.Duration) bool {
	deadline := l.now().Add(timeout)
	for {
		if l.Acquire() {
			return true
		}
		if !l.now().Before(deadline) {
			return false
		}
		time.Sleep(blockRetryInterval)
	}
}

// Release 仅在持有者匹配或记录已过期时移除登记。
func (l *MemoryLock) Release() bool {
	r := l.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.locks[l.name]
	if !ok {
		return false
	}
	if current.owner != l.owner && !expired(l.now(), current.expiresAt) {
		return false
	}
	delete(r.locks, l.name)
	return true
}

// ForceRelease 无视持有者直接移除登记。
func (l *MemoryLock) ForceRelease() {
	r := l.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, l.name)
}

// Owner 返回锁句柄绑定的持有者令牌。
func (l *MemoryLock) Owner() string {
	return l.owner
}
