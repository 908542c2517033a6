package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 支持的存储驱动。
const (
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述守护进程与存储的全部运行时参数。
type GlobalConfig struct {
	ListenPort    int      `mapstructure:"ListenPort"`
	LogLevel      string   `mapstructure:"LogLevel"`
	LogFilePath   string   `mapstructure:"LogFilePath"`
	LogMaxSize    int      `mapstructure:"LogMaxSize"`
	LogMaxBackups int      `mapstructure:"LogMaxBackups"`
	LogCompress   bool     `mapstructure:"LogCompress"`
	Driver        string   `mapstructure:"Driver"`
	StoragePath   string   `mapstructure:"StoragePath"`
	LockPath      string   `mapstructure:"LockPath"`
	CacheTTL      Duration `mapstructure:"CacheTTL"`
	KeyPrefix     string   `mapstructure:"KeyPrefix"`
	LockWait      Duration `mapstructure:"LockWait"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
}

// UsesFileDriver 表示当前配置是否选择了文件型存储。
func (g GlobalConfig) UsesFileDriver() bool {
	return g.Driver == DriverFile
}

// EffectiveLockPath 返回锁目录，未单独配置时退回缓存根目录。
func (g GlobalConfig) EffectiveLockPath() string {
	if g.LockPath != "" {
		return g.LockPath
	}
	return g.StoragePath
}
