package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-cache/internal/lock"
)

// FileOptions 控制文件型存储的构建参数。
type FileOptions struct {
	// Root 为缓存条目根目录，必填。
	Root string
	// LockRoot 为锁文件目录，留空时复用 Root。
	LockRoot string
	// Prefix 作用于全部键，可为空。
	Prefix string
	// Logger 用于记录被降级为 false 返回值的底层 IO 失败；nil 时使用全局实例。
	Logger *logrus.Logger
}

// NewFileStore 以 opts.Root 为根目录构建文件型缓存存储。目录创建是幂等的，
// 多进程并发初始化同一目录不是错误。
func NewFileStore(opts FileOptions) (*FileStore, error) {
	if opts.Root == "" {
		return nil, errors.New("storage path required")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	lockRoot := root
	if opts.LockRoot != "" {
		lockRoot, err = filepath.Abs(opts.LockRoot)
		if err != nil {
			return nil, fmt.Errorf("resolve lock path: %w", err)
		}
		if err := os.MkdirAll(lockRoot, 0o755); err != nil {
			return nil, fmt.Errorf("create lock path: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &FileStore{
		root:     root,
		lockRoot: lockRoot,
		prefix:   opts.Prefix,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// FileStore 把条目持久化到散列目录树中，过期在读取时惰性清理。文件型存储
// 自身不持进程内互斥：需要排他性的写路径（Add）通过 OS 文件锁串行化，
// 其余操作接受后写覆盖的竞争窗口。
type FileStore struct {
	root     string
	lockRoot string
	prefix   string
	logger   *logrus.Logger

	now func() time.Time
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) Get(key string) ([]byte, error) {
	p := s.entryPath(key, nil)
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	value, _, derr := decode(raw, s.now())
	if derr != nil {
		// 过期或破损：删除后按未命中处理，绝不让读方崩溃。
		_ = os.Remove(p)
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *FileStore) GetMultiple(keys []string) map[string][]byte {
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

func (s *FileStore) Has(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

func (s *FileStore) Put(key string, value []byte, ttl time.Duration, tags ...string) bool {
	p := s.entryPath(key, tags)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		s.logWriteFailure("mkdir", key, err)
		return false
	}

	// 临时文件 + rename 保证写入原子性：失败时旧内容原样保留。
	tempFile, err := os.CreateTemp(filepath.Dir(p), ".cache-*")
	if err != nil {
		s.logWriteFailure("create_temp", key, err)
		return false
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(encode(value, ttl, s.now()))
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		s.logWriteFailure("write", key, err)
		return false
	}

	if err := os.Rename(tempName, p); err != nil {
		os.Remove(tempName)
		s.logWriteFailure("rename", key, err)
		return false
	}
	return true
}

func (s *FileStore) Add(key string, value []byte, ttl time.Duration) bool {
	p := s.entryPath(key, nil)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		s.logWriteFailure("mkdir", key, err)
		return false
	}

	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		s.logWriteFailure("open", key, err)
		return false
	}
	defer f.Close()

	if err := lock.TryExclusive(f); err != nil {
		// 他人正在写：这是预期内的竞争，按"对方赢了"处理。
		return false
	}
	defer func() { _ = lock.ReleaseExclusive(f) }()

	header := make([]byte, expiryWidth)
	n, rerr := io.ReadFull(f, header)
	if rerr == nil {
		if expiry, perr := strconv.ParseInt(string(header), 10, 64); perr == nil && s.now().Unix() < expiry {
			// 有效条目仍在，本次 Add 失败。
			return false
		}
	} else if n > 0 && !errors.Is(rerr, io.ErrUnexpectedEOF) {
		s.logWriteFailure("read_header", key, rerr)
		return false
	}

	// 空文件、过期或破损头部：当前持锁者改写为新载荷。
	if err := f.Truncate(0); err != nil {
		s.logWriteFailure("truncate", key, err)
		return false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.logWriteFailure("seek", key, err)
		return false
	}
	if _, err := f.Write(encode(value, ttl, s.now())); err != nil {
		s.logWriteFailure("write", key, err)
		return false
	}
	return true
}

func (s *FileStore) Forever(key string, value []byte, tags ...string) bool {
	return s.Put(key, value, 0, tags...)
}

func (s *FileStore) Forget(key string) bool {
	// 伴生键清理是尽力而为，不影响返回值。
	_ = os.Remove(s.entryPath(flexibleCreatedPrefix+key, nil))

	if err := os.Remove(s.entryPath(key, nil)); err != nil {
		return false
	}
	return true
}

func (s *FileStore) Flush() bool {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			if _, statErr := os.Stat(dir); statErr == nil {
				return false
			}
		}
	}
	return true
}

func (s *FileStore) FlushTag(tags ...string) bool {
	if len(tags) == 0 {
		return false
	}
	dir := filepath.Join(s.root, "tags", hashKey(joinTags(tags)))
	if err := os.RemoveAll(dir); err != nil {
		if _, statErr := os.Stat(dir); statErr == nil {
			return false
		}
	}
	return true
}

func (s *FileStore) Increment(key string, delta int64) (int64, error) {
	p := s.entryPath(key, nil)
	now := s.now()

	var current int64
	var ttl time.Duration

	raw, err := os.ReadFile(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 缺失键从 0 起算，写入为永不过期。
	case err != nil:
		return 0, err
	default:
		value, expiry, derr := decode(raw, now)
		if derr != nil {
			_ = os.Remove(p)
			break
		}
		current, err = strconv.ParseInt(string(value), 10, 64)
		if err != nil {
			return 0, ErrCorrupt
		}
		ttl = remainingTTL(expiry, now)
	}

	next := current + delta
	if !s.Put(key, []byte(strconv.FormatInt(next, 10)), ttl) {
		return 0, errors.New("cache write failed")
	}
	return next, nil
}

func (s *FileStore) Decrement(key string, delta int64) (int64, error) {
	return s.Increment(key, -delta)
}

func (s *FileStore) Lock(name string, ttl time.Duration, owner string) lock.Lock {
	return lock.NewFileLock(s.lockRoot, name, ttl, owner)
}

func (s *FileStore) RestoreLock(name, owner string) lock.Lock {
	return lock.RestoreFileLock(s.lockRoot, name, owner)
}

func (s *FileStore) Prefix() string {
	return s.prefix
}

// entryPath 返回键（含前缀、可选标签）对应的绝对文件路径。
func (s *FileStore) entryPath(key string, tags []string) string {
	return filepath.Join(s.root, filepath.FromSlash(relativePath(s.prefix+key, tags)))
}

// logWriteFailure 记录被降级为 false 的底层失败，保持缓存尽力而为的定位。
func (s *FileStore) logWriteFailure(op, key string, err error) {
	s.logger.WithFields(logrus.Fields{
		"action": "cache_write_failure",
		"op":     op,
		"key":    key,
	}).Debug(err.Error())
}
