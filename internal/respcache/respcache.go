/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package respcache gives API reads the offline behaviour the driver app
// expects: responses are served network-first, with the last good copy
// returned when the backend is failing.
package respcache

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luckygas/luckygas/internal/cache"
	"github.com/luckygas/luckygas/internal/metrics"
)

// Entry is a cached API response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	StoredAt    int64  `json:"stored_at"`
}

// Store wraps the shared cache with response-cache key namespacing.
type Store struct {
	cache   cache.Cache
	version string
	ttl     time.Duration
}

// NewStore builds a response cache store. Bumping version abandons every
// previously cached response, mirroring a cache-name bump.
func NewStore(c cache.Cache, version string, ttl time.Duration) *Store {
	return &Store{cache: c, version: version, ttl: ttl}
}

func (s *Store) key(method, path, query string) string {
	return fmt.Sprintf("respcache:%s:%s:%s?%s", s.version, method, path, query)
}

// bufferedWriter holds the handler's output so a failing response can be
// swapped for the cached copy before anything reaches the client.
type bufferedWriter struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bufferedWriter) WriteHeader(status int) {
	w.status = status
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) flush() {
	w.ResponseWriter.WriteHeader(w.status)
	_, _ = w.ResponseWriter.Write(w.buf.Bytes())
}

// Middleware applies the network-first strategy to GET requests: the
// handler always runs, successful bodies are cached for the configured
// TTL, and a 5xx is replaced with the cached copy when one exists.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		w := &bufferedWriter{ResponseWriter: c.Writer, status: http.StatusOK}
		c.Writer = w
		c.Next()
		c.Writer = w.ResponseWriter

		ctx := c.Request.Context()
		key := s.key(c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery)

		if w.status >= http.StatusInternalServerError {
			var cached Entry
			if err := s.cache.Get(ctx, key, &cached); err == nil && len(cached.Body) > 0 {
				metrics.ResponseCacheHits.WithLabelValues("stale").Inc()
				c.Writer.Header().Set("Content-Type", cached.ContentType)
				c.Writer.Header().Set("X-Cache", "stale")
				c.Writer.WriteHeader(cached.Status)
				_, _ = c.Writer.Write(cached.Body)
				return
			}
			metrics.ResponseCacheHits.WithLabelValues("miss").Inc()
			w.flush()
			return
		}

		if w.status >= http.StatusOK && w.status < http.StatusMultipleChoices {
			entry := Entry{
				Status:      w.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        w.buf.Bytes(),
				StoredAt:    time.Now().UnixMilli(),
			}
			if err := s.cache.Set(ctx, key, entry, s.ttl); err == nil {
				metrics.ResponseCacheHits.WithLabelValues("fresh").Inc()
			}
		}
		w.flush()
	}
}
