package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// StoreFields 提供存储操作的通用字段，供 HTTP 层与 CLI 复用。
func StoreFields(action, driver, key string, hit bool) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"driver": driver,
		"key":    key,
		"hit":    hit,
	}
}

// LockFields 提供锁操作字段；owner 为空时由锁句柄自动生成后回填。
func LockFields(action, name, owner string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"lock":   name,
		"owner":  owner,
	}
}
