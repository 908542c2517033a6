package config

import (
	"errors"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
// 配置错误是仅有的构造期硬失败；运行期的缓存失败一律降级处理。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := &c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}

	driver := strings.ToLower(strings.TrimSpace(g.Driver))
	switch driver {
	case DriverFile, DriverMemory:
		g.Driver = driver
	case "":
		g.Driver = DriverFile
	default:
		return newFieldError("Driver", "仅支持 file|memory")
	}

	if g.UsesFileDriver() && g.StoragePath == "" {
		return newFieldError("StoragePath", "文件驱动下不能为空")
	}
	if g.CacheTTL.DurationValue() <= 0 {
		return newFieldError("CacheTTL", "必须大于 0")
	}
	if g.LockWait.DurationValue() < 0 {
		return newFieldError("LockWait", "不能为负数")
	}

	return nil
}
