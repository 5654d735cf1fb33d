package respcache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/luckygas/luckygas/config"
	"github.com/luckygas/luckygas/internal/cache"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})
	c, err := cache.NewCache()
	assert.NoError(t, err)
	return NewStore(c, "v1", time.Minute)
}

func newTestRouter(store *Store, failing *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(store.Middleware())
	r.GET("/api/v1/orders", func(c *gin.Context) {
		if *failing {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": []string{"ord_1"}})
	})
	return r
}

func TestNetworkFirstServesLiveResponse(t *testing.T) {
	store := newTestStore(t)
	failing := false
	router := newTestRouter(store, &failing)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "ord_1")
}

func TestStaleFallbackOnFailure(t *testing.T) {
	store := newTestStore(t)
	failing := false
	router := newTestRouter(store, &failing)

	// Prime the cache with a good response
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Backend starts failing; the cached copy is served instead
	failing = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stale", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "ord_1")
}

func TestFailurePassesThroughWithoutCache(t *testing.T) {
	store := newTestStore(t)
	failing := true
	router := newTestRouter(store, &failing)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
}

func TestMutationsAreNotCached(t *testing.T) {
	store := newTestStore(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(store.Middleware())
	r.POST("/api/v1/orders", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"order_id": "ord_2"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestVersionBumpInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})
	c, err := cache.NewCache()
	assert.NoError(t, err)

	v1 := NewStore(c, "v1", time.Minute)
	failing := false
	router := newTestRouter(v1, &failing)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// A new cache version must not see v1 entries
	v2 := NewStore(c, "v2", time.Minute)
	failing = true
	router = newTestRouter(v2, &failing)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
