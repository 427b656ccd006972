// Package cache implements whole-page response caching for gin routes.
package cache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/metrics"
)

// KeyFunc derives the cache key for a request.
type KeyFunc func(c *gin.Context) string

type entry struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type recorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Page serves GET responses from store while they are younger than ttl.
// Only 200 responses are stored; entries are never invalidated on writes.
func Page(store Store, ttl time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		k := key(c)

		data, ok, err := store.Get(ctx, k)
		switch {
		case err != nil:
			metrics.PageCache.WithLabelValues("error").Inc()
			logger.Warn("page cache get failed", zap.String("key", k), zap.Error(err))
		case ok:
			var e entry
			if uErr := json.Unmarshal(data, &e); uErr == nil {
				metrics.PageCache.WithLabelValues("hit").Inc()
				c.Header("X-Cache", "HIT")
				c.Data(http.StatusOK, e.ContentType, e.Body)
				c.Abort()
				return
			}
		}
		metrics.PageCache.WithLabelValues("miss").Inc()

		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		if c.Writer.Status() != http.StatusOK || rec.buf.Len() == 0 {
			return
		}
		payload, err := json.Marshal(entry{ContentType: c.Writer.Header().Get("Content-Type"), Body: rec.buf.Bytes()})
		if err != nil {
			return
		}
		if err := store.Set(ctx, k, payload, ttl); err != nil {
			logger.Warn("page cache set failed", zap.String("key", k), zap.Error(err))
		}
	}
}
