package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-cache/internal/cache"
	"github.com/any-hub/any-cache/internal/lock"
	"github.com/any-hub/any-cache/internal/logging"
	"github.com/any-hub/any-cache/internal/version"
)

type handlers struct {
	logger   *logrus.Logger
	store    cache.Store
	writer   cache.Writer
	driver   string
	lockWait time.Duration

	// 进程内持有的锁实例。文件锁的 flock 绑定在取锁时的文件描述符上，
	// 释放必须经由同一个实例，不能只靠重建记录。
	mu   sync.Mutex
	held map[string]lock.Lock
}

func (h *handlers) healthz(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "driver": h.driver})
}

func (h *handlers) version(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"version": version.Full()})
}

func (h *handlers) getEntry(c fiber.Ctx) error {
	key := entryKey(c)
	value, err := h.store.Get(key)
	hit := err == nil

	h.logger.WithFields(logging.StoreFields("cache_get", h.driver, key, hit)).Debug("cache lookup")

	if !hit {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(value)
}

func (h *handlers) headEntry(c fiber.Ctx) error {
	if !h.store.Has(entryKey(c)) {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *handlers) putEntry(c fiber.Ctx) error {
	key := entryKey(c)
	ttl, err := parseTTL(c.Query("ttl"))
	if err != nil {
		return badRequest(c, "invalid_ttl")
	}
	tags := splitTags(c.Query("tags"))

	stored := h.writer.Put(key, c.Body(), ttl, tags...)
	h.logger.WithFields(logging.StoreFields("cache_put", h.driver, key, stored)).Debug("cache write")

	// 写失败降级为 stored=false，不向调用方抛 5xx。
	return c.JSON(fiber.Map{"stored": stored})
}

func (h *handlers) addEntry(c fiber.Ctx) error {
	key := entryKey(c)
	ttl, err := parseTTL(c.Query("ttl"))
	if err != nil {
		return badRequest(c, "invalid_ttl")
	}

	added := h.writer.Add(key, c.Body(), ttl)
	h.logger.WithFields(logging.StoreFields("cache_add", h.driver, key, added)).Debug("cache add")

	if !added {
		// 键仍有效或抢锁失败，属预期竞争。
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"added": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"added": true})
}

func (h *handlers) forgetEntry(c fiber.Ctx) error {
	key := entryKey(c)
	removed := h.store.Forget(key)
	h.logger.WithFields(logging.StoreFields("cache_forget", h.driver, key, removed)).Debug("cache forget")
	return c.JSON(fiber.Map{"removed": removed})
}

func (h *handlers) increment(c fiber.Ctx) error {
	return h.applyDelta(c, 1)
}

func (h *handlers) decrement(c fiber.Ctx) error {
	return h.applyDelta(c, -1)
}

func (h *handlers) applyDelta(c fiber.Ctx, sign int64) error {
	key := entryKey(c)
	delta := int64(1)
	if raw := c.Query("by"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			return badRequest(c, "invalid_delta")
		}
		delta = parsed
	}

	value, err := h.store.Increment(key, sign*delta)
	if err != nil {
		if err == cache.ErrCorrupt {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_a_counter"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_failure"})
	}
	return c.JSON(fiber.Map{"value": value})
}

func (h *handlers) flush(c fiber.Ctx) error {
	flushed := h.store.Flush()
	h.logger.WithFields(logrus.Fields{
		"action": "cache_flush",
		"driver": h.driver,
		"ok":     flushed,
	}).Info("cache flush")
	return c.JSON(fiber.Map{"flushed": flushed})
}

func (h *handlers) flushTags(c fiber.Ctx) error {
	tags := splitTags(c.Query("tags"))
	if len(tags) == 0 {
		return badRequest(c, "tags_required")
	}
	return c.JSON(fiber.Map{"flushed": h.store.FlushTag(tags...)})
}

func (h *handlers) lockAcquire(c fiber.Ctx) error {
	name := c.Params("name")
	ttl, err := parseTTL(c.Query("ttl"))
	if err != nil {
		return badRequest(c, "invalid_ttl")
	}
	if ttl < 0 {
		ttl = 0
	}

	wait, err := parseTTL(c.Query("wait"))
	if err != nil {
		return badRequest(c, "invalid_wait")
	}
	if wait > h.lockWait {
		wait = h.lockWait
	}

	l := h.store.Lock(name, ttl, c.Query("owner"))

	var acquired bool
	if wait > 0 {
		acquired = l.Block(wait)
	} else {
		acquired = l.Acquire()
	}

	h.logger.WithFields(logging.LockFields("lock_acquire", name, l.Owner())).Debug("lock acquire")

	if !acquired {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"acquired": false})
	}

	h.mu.Lock()
	h.held[name] = l
	h.mu.Unlock()

	return c.JSON(fiber.Map{"acquired": true, "owner": l.Owner()})
}

func (h *handlers) lockRelease(c fiber.Ctx) error {
	name := c.Params("name")
	owner := c.Query("owner")
	if owner == "" {
		return badRequest(c, "owner_required")
	}

	released := h.releaseLock(name, owner, false)
	h.logger.WithFields(logging.LockFields("lock_release", name, owner)).Debug("lock release")

	if !released {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"released": false})
	}
	return c.JSON(fiber.Map{"released": true})
}

func (h *handlers) lockForceRelease(c fiber.Ctx) error {
	name := c.Params("name")
	h.releaseLock(name, c.Query("owner"), true)
	h.logger.WithFields(logging.LockFields("lock_force_release", name, c.Query("owner"))).Info("lock force release")
	return c.JSON(fiber.Map{"released": true})
}

// releaseLock 优先释放本进程持有的锁实例；没有时退回到按所有者记录
// 释放，用于清理其他进程崩溃后残留的锁记录。
func (h *handlers) releaseLock(name, owner string, force bool) bool {
	h.mu.Lock()
	l, live := h.held[name]
	h.mu.Unlock()

	if live {
		if force {
			l.ForceRelease()
		} else if l.Owner() != owner {
			return false
		} else if !l.Release() {
			return false
		}
		h.mu.Lock()
		delete(h.held, name)
		h.mu.Unlock()
		return true
	}

	restored := h.store.RestoreLock(name, owner)
	if force {
		restored.ForceRelease()
		return true
	}
	return restored.Release()
}

func badRequest(c fiber.Ctx, reason string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": reason})
}

// parseTTL 解析 ttl/wait 查询参数：空值返回 -1（未指定），支持 Go Duration
// 写法与纯秒整数；"0" 表示永不过期。
func parseTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return -1, nil
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		return parsed, nil
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
