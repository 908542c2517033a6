package lock

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// 锁文件记录沿用缓存条目的头部布局：10 位零填充的绝对过期秒数 + 持有者令牌。
const (
	recordExpiryWidth = 10
	recordNeverExpire = int64(9999999999)
)

// FileLock 基于 flock 的命名锁。锁文件在首次 Acquire 时创建并在释放后保留，
// 释放的只是内核层的 advisory lock；文件内容记录持有者与过期时间，供
// Release/Restore 做归属校验。
type FileLock struct {
	path  string
	owner string
	ttl   time.Duration
	file  *os.File
	now   func() time.Time
}

// NewFileLock 在 dir 下为 name 构建锁句柄；owner 为空时自动生成 UUID。
// ttl<=0 表示锁不设自动过期，持有至显式释放或进程退出。
func NewFileLock(dir, name string, ttl time.Duration, owner string) *FileLock {
	return &FileLock{
		path:  lockFilePath(dir, name),
		owner: ensureOwner(owner),
		ttl:   ttl,
		now:   time.Now,
	}
}

// RestoreFileLock 重建绑定既有持有者的锁句柄，不重新加锁。flock 随原持有
// 进程的描述符关闭而释放，restore 句柄能做的是校验并清理持有者记录。
func RestoreFileLock(dir, name, owner string) *FileLock {
	return &FileLock{
		path:  lockFilePath(dir, name),
		owner: owner,
		now:   time.Now,
	}
}

// Acquire 尝试非阻塞加锁，成功后把持有者记录写入锁文件。
func (l *FileLock) Acquire() bool {
	if l.file != nil {
		return true
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return false
	}

	if err := TryExclusive(f); err != nil {
		// 加锁失败必须关闭句柄，避免描述符泄漏。
		f.Close()
		return false
	}

	if err := l.writeRecord(f); err != nil {
		_ = ReleaseExclusive(f)
		f.Close()
		return false
	}

	l.file = f
	return true
}

// Block 在 timeout 窗口内轮询 Acquire；timeout<=0 时只尝试一次。
func (l *FileLock) Block(timeout time.Duration) bool {
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

// Release 校验锁文件中的持有者记录后释放。记录属于他人且未过期时返回 false。
func (l *FileLock) Release() bool {
	f := l.file
	if f == nil {
		// restore 场景：重新打开锁文件做记录校验。
		reopened, err := os.OpenFile(l.path, os.O_RDWR, 0o644)
		if err != nil {
			return false
		}
		f = reopened
		defer f.Close()
	}

	if !l.recordReleasable(f) {
		return false
	}

	// 清空记录，避免陈旧持有者信息残留；锁文件本身保留复用。
	_ = f.Truncate(0)
	_ = ReleaseExclusive(f)

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	return true
}

// ForceRelease 无视持有者记录清空并释放锁。
func (l *FileLock) ForceRelease() {
	f := l.file
	if f == nil {
		reopened, err := os.OpenFile(l.path, os.O_RDWR, 0o644)
		if err != nil {
			return
		}
		f = reopened
		defer f.Close()
	}

	_ = f.Truncate(0)
	_ = ReleaseExclusive(f)

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// Owner 返回锁句柄绑定的持有者令牌。
func (l *FileLock) Owner() string {
	return l.owner
}

// writeRecord 覆写锁文件为 <10位过期秒><owner>。
func (l *FileLock) writeRecord(f *os.File) error {
	expiry := recordNeverExpire
	if l.ttl > 0 {
		expiry = l.now().Unix() + int64(l.ttl/time.Second)
		if expiry > recordNeverExpire {
			expiry = recordNeverExpire
		}
	}

	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "%0*d%s", recordExpiryWidth, expiry, l.owner)
	return err
}

// recordReleasable 读取锁文件记录，判断当前句柄是否有权释放：
// 无记录、记录已过期、或持有者匹配时均可释放。
func (l *FileLock) recordReleasable(f *os.File) bool {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		return false
	}
	if len(raw) < recordExpiryWidth {
		return true
	}

	expiry, err := strconv.ParseInt(string(raw[:recordExpiryWidth]), 10, 64)
	if err != nil {
		return true
	}
	if l.now().Unix() >= expiry {
		return true
	}
	return string(raw[recordExpiryWidth:]) == l.owner
}

// lockFilePath 把锁名散列成固定文件名，防止路径穿越并保持名字任意性。
func lockFilePath(dir, name string) string {
	sum := sha1.Sum([]byte(name))
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".lock")
}
