package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Global.UsesFileDriver() {
		absStorage, err := filepath.Abs(cfg.Global.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("无法解析缓存目录: %w", err)
		}
		cfg.Global.StoragePath = absStorage

		if cfg.Global.LockPath != "" {
			absLock, err := filepath.Abs(cfg.Global.LockPath)
			if err != nil {
				return nil, fmt.Errorf("无法解析锁目录: %w", err)
			}
			cfg.Global.LockPath = absLock
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5100)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("Driver", DriverFile)
	v.SetDefault("StoragePath", "./storage")
	v.SetDefault("LockPath", "")
	v.SetDefault("CacheTTL", 86400)
	v.SetDefault("KeyPrefix", "")
	v.SetDefault("LockWait", "10s")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5100
	}
	if g.Driver == "" {
		g.Driver = DriverFile
	}
	if g.CacheTTL.DurationValue() == 0 {
		g.CacheTTL = Duration(24 * time.Hour)
	}
	if g.LockWait.DurationValue() == 0 {
		g.LockWait = Duration(10 * time.Second)
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
