package cache

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// expiryWidth 是载荷头部固定宽度的过期秒数字段长度。
	expiryWidth = 10

	// neverExpires 表示永不过期的哨兵时间戳（2286 年），避免为"无 TTL"
	// 引入额外标志位；过期判断永远是 now < expiresAt。
	neverExpires = int64(9999999999)
)

// errExpired 表示条目已过期，调用方应删除底层条目并按未命中处理。
var errExpired = errors.New("cache entry expired")

// encode 产出 <10位零填充过期秒><原始值> 的磁盘载荷。ttl<=0 使用哨兵值；
// 超过哨兵的过期时间被钳制；不足 1 秒的正 TTL 取整为 1 秒，避免写入
// 即刻过期的条目。
func encode(value []byte, ttl time.Duration, now time.Time) []byte {
	expiry := neverExpires
	if ttl > 0 {
		seconds := int64(ttl / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		expiry = now.Unix() + seconds
		if expiry > neverExpires {
			expiry = neverExpires
		}
	}

	buf := make([]byte, 0, expiryWidth+len(value))
	buf = append(buf, fmt.Sprintf("%0*d", expiryWidth, expiry)...)
	return append(buf, value...)
}

// decode 拆出载荷值与过期时间。头部缺失或非数字返回 ErrCorrupt，
// 已过期返回 errExpired；两种情况下调用方都应删除条目并视为未命中。
func decode(raw []byte, now time.Time) (value []byte, expiry int64, err error) {
	if len(raw) < expiryWidth {
		return nil, 0, ErrCorrupt
	}
	expiry, perr := strconv.ParseInt(string(raw[:expiryWidth]), 10, 64)
	if perr != nil {
		return nil, 0, ErrCorrupt
	}
	if now.Unix() >= expiry {
		return nil, expiry, errExpired
	}
	return raw[expiryWidth:], expiry, nil
}

// remainingTTL 把绝对过期时间换算回剩余 TTL；哨兵值映射为 0（永不过期）。
func remainingTTL(expiry int64, now time.Time) time.Duration {
	if expiry >= neverExpires {
		return 0
	}
	return time.Duration(expiry-now.Unix()) * time.Second
}
