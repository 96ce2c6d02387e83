package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zetalabs/teliads/internal/logger"
	"github.com/zetalabs/teliads/internal/server/middleware"
)

func newGinEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// ---- Recovery ----

func TestRecoveryReturns500OnPanic(t *testing.T) {
	engine := newGinEngine()
	engine.Use(middleware.Recovery())
	engine.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}

func TestRecoveryPassesThroughNormalRequests(t *testing.T) {
	engine := newGinEngine()
	engine.Use(middleware.Recovery())
	engine.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "fine")
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "fine" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}

func TestRecoveryIsolatesPanicsPerRequest(t *testing.T) {
	engine := newGinEngine()
	engine.Use(middleware.Recovery())
	engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panicking route, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after recovered panic, got %d", rr.Code)
	}
}

// ---- RequestID ----

func TestRequestIDGeneratesHeader(t *testing.T) {
	engine := newGinEngine()
	engine.Use(middleware.RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header to be set")
	}
}

func TestRequestIDPreservesIncomingHeader(t *testing.T) {
	engine := newGinEngine()
	engine.Use(middleware.RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "caller-supplied")
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-Id"); got != "caller-supplied" {
		t.Fatalf("expected %q, got %q", "caller-supplied", got)
	}
}

// ---- RequestLogger ----

func TestRequestLoggerEmitsOneLinePerRequest(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test")

	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync", nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected exactly 1 log line, got %d", len(lines))
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["method"] != "GET" {
		t.Errorf("expected method GET, got %v", entry["method"])
	}
	if entry["path"] != "/sync" {
		t.Errorf("expected path /sync, got %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected duration_ms field")
	}
	if entry["level"] != "debug" {
		t.Errorf("expected debug level for 200, got %v", entry["level"])
	}
}

func TestRequestLoggerLevelByStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "debug"},
		{http.StatusNotFound, "warn"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, "test")

		handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		var entry map[string]interface{}
		if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
			t.Fatalf("status %d: log line is not JSON: %v", tc.status, err)
		}
		if entry["level"] != tc.level {
			t.Errorf("status %d: expected level %q, got %v", tc.status, tc.level, entry["level"])
		}
	}
}

func TestRequestLoggerIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test")

	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "abc-123")
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["request_id"] != "abc-123" {
		t.Errorf("expected request_id abc-123, got %v", entry["request_id"])
	}
}

// ---- ConcurrencyLimit ----

func TestConcurrencyLimitQueuesExcessRequests(t *testing.T) {
	const limit = 2

	release := make(chan struct{})
	started := make(chan struct{}, limit+1)

	handler := middleware.ConcurrencyLimit(limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	codes := make([]int, limit+1)
	for i := 0; i < limit+1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			codes[i] = rr.Code
		}(i)
	}

	// The first `limit` requests enter the handler; the extra one queues.
	for i := 0; i < limit; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("request never reached the handler")
		}
	}
	select {
	case <-started:
		t.Fatal("request beyond the limit entered the handler while all slots were busy")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestConcurrencyLimitRejectsCanceledWaiters(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	handler := middleware.ConcurrencyLimit(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	}))

	go func() {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	}()
	<-started

	// A queued request whose client goes away gets a 503.
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	done := make(chan int)
	go func() {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		done <- rr.Code
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		if code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503 for canceled waiter, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatal("canceled waiter never returned")
	}

	close(release)
}

func TestConcurrencyLimitDisabledWhenNonPositive(t *testing.T) {
	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.ConcurrencyLimit(0)(base)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// ---- Chain ----

func TestChainOrdersMiddlewareOutermostFirst(t *testing.T) {
	var order []string
	mk := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := middleware.Chain(mk("outer"), mk("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}
