package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cmdguard/internal/pkg/errcode"
	"github.com/xxxsen/cmdguard/internal/pkg/response"
)

const defaultRateLimitKeys = 10000

// rateLimiter allows one request per client and route within window. Keys expire
// with the window, and the LRU bound keeps memory flat under many clients.
type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	seen   *expirable.LRU[string, struct{}]
}

func RateLimit(window time.Duration, maxKeys int) gin.HandlerFunc {
	if window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return newRateLimiter(window, maxKeys).handle
}

func newRateLimiter(window time.Duration, maxKeys int) *rateLimiter {
	if maxKeys <= 0 {
		maxKeys = defaultRateLimitKeys
	}
	return &rateLimiter{
		window: window,
		seen:   expirable.NewLRU[string, struct{}](maxKeys, nil, window),
	}
}

func (l *rateLimiter) handle(c *gin.Context) {
	ip := c.ClientIP()
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, path}, "|")

	l.mu.Lock()
	if _, hit := l.seen.Get(key); hit {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("path", path),
		)
		response.Error(c, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	l.seen.Add(key, struct{}{})
	l.mu.Unlock()
	c.Next()
}
