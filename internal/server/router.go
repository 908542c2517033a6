package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-cache/internal/cache"
	"github.com/any-hub/any-cache/internal/lock"
)

// AppOptions controls how the Fiber application wraps a cache store.
type AppOptions struct {
	Logger *logrus.Logger
	Store  cache.Store
	Writer cache.Writer
	Driver string
	// LockWait 是 HTTP 锁接口允许的最长阻塞等待，防止挂死连接。
	LockWait time.Duration
}

const contextKeyRequestID = "_anycache_request_id"

// NewApp builds a Fiber application with request-ID middleware, panic
// recovery, and the cache route table attached.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if !opts.Writer.Enabled() {
		return nil, cache.ErrStoreUnavailable
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	h := &handlers{
		logger:   opts.Logger,
		store:    opts.Store,
		writer:   opts.Writer,
		driver:   opts.Driver,
		lockWait: opts.LockWait,
		held:     make(map[string]lock.Lock),
	}
	registerRoutes(app, h)

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID 并透传到响应头与日志。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func registerRoutes(app *fiber.App, h *handlers) {
	app.Get("/-/healthz", h.healthz)
	app.Get("/-/version", h.version)

	// 键经 URL 通配符传入，允许包含斜杠。
	app.Get("/cache/*", h.getEntry)
	app.Head("/cache/*", h.headEntry)
	app.Put("/cache/*", h.putEntry)
	app.Delete("/cache/*", h.forgetEntry)

	app.Post("/add/*", h.addEntry)
	app.Post("/incr/*", h.increment)
	app.Post("/decr/*", h.decrement)

	app.Post("/flush", h.flush)
	app.Post("/flush/tags", h.flushTags)

	app.Post("/locks/:name/acquire", h.lockAcquire)
	app.Post("/locks/:name/release", h.lockRelease)
	app.Post("/locks/:name/force-release", h.lockForceRelease)
}

// entryKey 提取通配路径上的缓存键。
func entryKey(c fiber.Ctx) string {
	return c.Params("*")
}

// splitTags 解析逗号分隔的标签参数，忽略空白项。
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
