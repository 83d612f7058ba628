package config

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"simpletodo/internal/core/telemetry"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func newTestRateLimiter(requests int, window time.Duration) (*RateLimiter, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)
	rl := NewRateLimiter(RateLimitConfig{Requests: requests, Window: window}, zap.NewNop(), metrics)

	return rl, registry
}

func newRateLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.RateLimitMiddleware())

	router.GET("/todos/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/todos/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "created"})
	})
	router.DELETE("/todos/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})

	return router
}

func TestNewRateLimiter(t *testing.T) {
	RegisterTestingT(t)
	rl, _ := newTestRateLimiter(100, time.Minute)

	Expect(rl).ToNot(BeNil())
	Expect(rl.cache).ToNot(BeNil())
	Expect(rl.config.Requests).To(Equal(100))
	Expect(rl.config.Window).To(Equal(time.Minute))
	Expect(rl.config.KeyFunc).ToNot(BeNil())
}

func TestRateLimitMiddleware_AllowedRequests(t *testing.T) {
	RegisterTestingT(t)
	rl, _ := newTestRateLimiter(10, time.Minute)
	router := newRateLimitedRouter(rl)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/todos/", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-RateLimit-Limit")).To(Equal("10"))
		Expect(w.Header().Get("X-RateLimit-Remaining")).To(Equal(strconv.Itoa(9 - i)))
	}
}

func TestRateLimitMiddleware_ExceedLimit(t *testing.T) {
	RegisterTestingT(t)
	rl, registry := newTestRateLimiter(3, time.Minute)
	router := newRateLimitedRouter(rl)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/todos/", nil)
		router.ServeHTTP(w, req)

		if i < 3 {
			Expect(w.Code).To(Equal(http.StatusOK))
		} else {
			Expect(w.Code).To(Equal(http.StatusTooManyRequests))
			Expect(w.Body.String()).To(ContainSubstring(`"detail"`))
			Expect(w.Header().Get("Retry-After")).ToNot(BeEmpty())
		}
	}

	hits, err := testutil.GatherAndCount(registry, "rate_limit_hits_total")
	Expect(err).To(BeNil())
	Expect(hits).To(Equal(1))
}

func TestRateLimitMiddleware_SeparateRoutes(t *testing.T) {
	RegisterTestingT(t)
	rl, _ := newTestRateLimiter(1, time.Minute)
	router := newRateLimitedRouter(rl)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/todos/", nil)
	router.ServeHTTP(w, req)
	Expect(w.Code).To(Equal(http.StatusOK))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/todos/", strings.NewReader(`{"content":"Buy milk"}`))
	router.ServeHTTP(w, req)
	Expect(w.Code).To(Equal(http.StatusOK))
}

func TestRateLimitMiddleware_SeparateClients(t *testing.T) {
	RegisterTestingT(t)
	rl, _ := newTestRateLimiter(1, time.Minute)
	router := newRateLimitedRouter(rl)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/todos/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
	}
}

func TestRateLimitMiddleware_RouteTemplate(t *testing.T) {
	RegisterTestingT(t)
	rl, _ := newTestRateLimiter(2, time.Minute)
	router := newRateLimitedRouter(rl)

	codes := []int{}
	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/todos/"+id, nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	Expect(codes).To(Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}))
}

func TestRateLimitMiddleware_WindowReset(t *testing.T) {
	RegisterTestingT(t)
	rl, _ := newTestRateLimiter(1, 50*time.Millisecond)
	router := newRateLimitedRouter(rl)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/todos/", nil)
	router.ServeHTTP(w, req)
	Expect(w.Code).To(Equal(http.StatusOK))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	Expect(w.Code).To(Equal(http.StatusTooManyRequests))

	time.Sleep(100 * time.Millisecond)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	Expect(w.Code).To(Equal(http.StatusOK))
}

func TestRateLimitMiddleware_NoDoubleCounting(t *testing.T) {
	RegisterTestingT(t)
	rl, _ := newTestRateLimiter(20, time.Minute)
	router := newRateLimitedRouter(rl)

	numRequests := 10
	results := make([]int, numRequests)
	var wg sync.WaitGroup

	for i := 0; i < numRequests; i++ {
		index := i
		wg.Go(func() {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/todos/", strings.NewReader(`{"content":"Buy milk"}`))
			router.ServeHTTP(w, req)

			remaining, _ := strconv.Atoi(w.Header().Get("X-RateLimit-Remaining"))
			results[index] = remaining
		})
	}

	wg.Wait()

	expectedRemaining := []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	sort.Ints(results)

	Expect(results).To(Equal(expectedRemaining))
}

func TestHTTPSEnforcer(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	serve := func(enabled bool, host, proto string) *httptest.ResponseRecorder {
		router := gin.New()
		router.Use(NewHTTPSEnforcer(enabled, zap.NewNop()).HTTPSMiddleware())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Host = host
		if proto != "" {
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		router.ServeHTTP(w, req)

		return w
	}

	Expect(serve(false, "todos.example.com", "").Code).To(Equal(http.StatusOK))
	Expect(serve(true, "localhost:8080", "").Code).To(Equal(http.StatusOK))
	Expect(serve(true, "todos.example.com", "https").Code).To(Equal(http.StatusOK))

	redirected := serve(true, "todos.example.com", "")
	Expect(redirected.Code).To(Equal(http.StatusMovedPermanently))
	Expect(redirected.Header().Get("Location")).To(Equal("https://todos.example.com/"))
}
