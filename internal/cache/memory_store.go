package cache

import (
	"strconv"
	"sync"
	"time"

	"github.com/any-hub/any-cache/internal/lock"
)

// NewMemoryStore 构建进程内存储，供测试与临时作用域使用。
func NewMemoryStore(prefix string) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		locks:   lock.NewRegistry(),
		prefix:  prefix,
		now:     time.Now,
	}
}

// MemoryStore 以相对路径为键把条目保存在 map 中，过期与序列化语义与文件型
// 完全一致（含标签命名空间的单向隔离），只是互斥换成了进程内锁。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	locks   *lock.Registry
	prefix  string

	now func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt int64
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.entryKey(key, nil)
	entry, ok := s.entries[p]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().Unix() >= entry.expiresAt {
		// 惰性过期清理，与文件型的删除后未命中语义对齐。
		delete(s.entries, p)
		return nil, ErrNotFound
	}
	return cloneBytes(entry.value), nil
}

func (s *MemoryStore) GetMultiple(keys []string) map[string][]byte {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := s.Get(key)
		if err != nil {
			out[key] = nil
			continue
		}
		out[key] = value
	}
	return out
}

func (s *MemoryStore) Has(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

func (s *MemoryStore) Put(key string, value []byte, ttl time.Duration, tags ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.entryKey(key, tags)] = memoryEntry{
		value:     cloneBytes(value),
		expiresAt: s.expiry(ttl),
	}
	return true
}

func (s *MemoryStore) Add(key string, value []byte, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.entryKey(key, nil)
	if entry, ok := s.entries[p]; ok && s.now().Unix() < entry.expiresAt {
		return false
	}
	s.entries[p] = memoryEntry{value: cloneBytes(value), expiresAt: s.expiry(ttl)}
	return true
}

func (s *MemoryStore) Forever(key string, value []byte, tags ...string) bool {
	return s.Put(key, value, 0, tags...)
}

func (s *MemoryStore) Forget(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, s.entryKey(flexibleCreatedPrefix+key, nil))

	p := s.entryKey(key, nil)
	if _, ok := s.entries[p]; !ok {
		return false
	}
	delete(s.entries, p)
	return true
}

func (s *MemoryStore) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
	return true
}

func (s *MemoryStore) FlushTag(tags ...string) bool {
	if len(tags) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := "tags/" + hashKey(joinTags(tags)) + "/"
	for p := range s.entries {
		if len(p) >= len(prefix) && p[:len(prefix)] == prefix {
			delete(s.entries, p)
		}
	}
	return true
}

func (s *MemoryStore) Increment(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.entryKey(key, nil)
	now := s.now()

	var current int64
	expiresAt := neverExpires

	if entry, ok := s.entries[p]; ok {
		if now.Unix() >= entry.expiresAt {
			delete(s.entries, p)
		} else {
			parsed, err := strconv.ParseInt(string(entry.value), 10, 64)
			if err != nil {
				return 0, ErrCorrupt
			}
			current = parsed
			expiresAt = entry.expiresAt
		}
	}

	next := current + delta
	s.entries[p] = memoryEntry{
		value:     []byte(strconv.FormatInt(next, 10)),
		expiresAt: expiresAt,
	}
	return next, nil
}

func (s *MemoryStore) Decrement(key string, delta int64) (int64, error) {
	return s.Increment(key, -delta)
}

func (s *MemoryStore) Lock(name string, ttl time.Duration, owner string) lock.Lock {
	return s.locks.NewLock(name, ttl, owner)
}

func (s *MemoryStore) RestoreLock(name, owner string) lock.Lock {
	return s.locks.Restore(name, owner)
}

func (s *MemoryStore) Prefix() string {
	return s.prefix
}

// entryKey 复用文件型的相对路径作为 map 键，保证两种实现的命名空间一致。
func (s *MemoryStore) entryKey(key string, tags []string) string {
	return relativePath(s.prefix+key, tags)
}

// expiry 把 TTL 换算为绝对过期秒数，语义与 codec 的 encode 对齐。
func (s *MemoryStore) expiry(ttl time.Duration) int64 {
	if ttl <= 0 {
		return neverExpires
	}
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	expiry := s.now().Unix() + seconds
	if expiry > neverExpires {
		return neverExpires
	}
	return expiry
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
