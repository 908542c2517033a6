package lock

import (
	"os"
	"syscall"
)

// TryExclusive 以非阻塞方式对文件加排他 flock；锁被他人持有时立即报错。
func TryExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// ReleaseExclusive 释放 f 上的 flock。描述符关闭时内核也会自动释放。
func ReleaseExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
