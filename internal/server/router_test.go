package server

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-cache/internal/cache"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := cache.NewMemoryStore("")
	app, err := NewApp(AppOptions{
		Logger:   logger,
		Store:    store,
		Writer:   cache.NewWriter(store, time.Hour),
		Driver:   "memory",
		LockWait: time.Second,
	})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewAppRequiresDependencies(t *testing.T) {
	if _, err := NewApp(AppOptions{}); err == nil {
		t.Fatalf("missing logger should fail")
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if _, err := NewApp(AppOptions{Logger: logger}); err == nil {
		t.Fatalf("missing store should fail")
	}
}

func TestCachePutThenGet(t *testing.T) {
	app := newTestApp(t)

	put := httptest.NewRequest("PUT", "/cache/user:42?ttl=60", bytes.NewReader([]byte("payload")))
	resp, err := app.Test(put)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if reqID := resp.Header.Get("X-Request-ID"); reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	get := httptest.NewRequest("GET", "/cache/user:42", nil)
	resp, err = app.Test(get)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "payload" {
		t.Fatalf("payload mismatch: %q", body)
	}
}

func TestCacheGetMissReturns404(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/cache/absent", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"not_found"`)) {
		t.Fatalf("expected not_found error, got %s", body)
	}
}

func TestCacheAddConflict(t *testing.T) {
	app := newTestApp(t)

	first, err := app.Test(httptest.NewRequest("POST", "/add/job?ttl=60", bytes.NewReader([]byte("v1"))))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if first.StatusCode != fiber.StatusCreated {
		t.Fatalf("first add should return 201, got %d", first.StatusCode)
	}

	second, err := app.Test(httptest.NewRequest("POST", "/add/job?ttl=60", bytes.NewReader([]byte("v2"))))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if second.StatusCode != fiber.StatusConflict {
		t.Fatalf("second add should return 409, got %d", second.StatusCode)
	}
}

func TestCacheDeleteAndHead(t *testing.T) {
	app := newTestApp(t)

	if _, err := app.Test(httptest.NewRequest("PUT", "/cache/k", bytes.NewReader([]byte("v")))); err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	head, err := app.Test(httptest.NewRequest("HEAD", "/cache/k", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if head.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for existing key, got %d", head.StatusCode)
	}

	del, err := app.Test(httptest.NewRequest("DELETE", "/cache/k", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if del.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", del.StatusCode)
	}

	head, err = app.Test(httptest.NewRequest("HEAD", "/cache/k", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if head.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", head.StatusCode)
	}
}

func TestCacheIncrementFlow(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/incr/counter?by=5", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"value":5`)) {
		t.Fatalf("expected value 5, got %s", body)
	}

	resp, err = app.Test(httptest.NewRequest("POST", "/decr/counter?by=2", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"value":3`)) {
		t.Fatalf("expected value 3, got %s", body)
	}
}

func TestCacheIncrementRejectsBadDelta(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/incr/counter?by=-1", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("negative delta should be rejected, got %d", resp.StatusCode)
	}
}

func TestFlushEndpoint(t *testing.T) {
	app := newTestApp(t)

	if _, err := app.Test(httptest.NewRequest("PUT", "/cache/k", bytes.NewReader([]byte("v")))); err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	resp, err := app.Test(httptest.NewRequest("POST", "/flush", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"flushed":true`)) {
		t.Fatalf("expected flushed=true, got %s", body)
	}

	get, err := app.Test(httptest.NewRequest("GET", "/cache/k", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if get.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 after flush, got %d", get.StatusCode)
	}
}

func TestLockAcquireReleaseFlow(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/locks/job/acquire?owner=o1&ttl=60", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first acquire should return 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("POST", "/locks/job/acquire?owner=o2&ttl=60", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("contended acquire should return 409, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("POST", "/locks/job/release?owner=o2", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("foreign owner release should return 409, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("POST", "/locks/job/release?owner=o1", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("owner release should return 200, got %d", resp.StatusCode)
	}
}

func TestDiagnosticsEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/-/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("healthz should return 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/-/version", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("any-cache")) {
		t.Fatalf("version payload should mention any-cache, got %s", body)
	}
}
