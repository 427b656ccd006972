package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/testutil"
)

func newEngine(store Store, ttl time.Duration, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Page(store, ttl, func(c *gin.Context) string { return "index:" + c.Request.URL.RequestURI() }), func(c *gin.Context) {
		*calls++
		c.String(http.StatusOK, "render %d", *calls)
	})
	r.GET("/broken", Page(store, ttl, func(c *gin.Context) string { return "broken" }), func(c *gin.Context) {
		*calls++
		c.String(http.StatusInternalServerError, "boom")
	})
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestPage_ServesFromRedisUntilExpiry(t *testing.T) {
	mr, client := testutil.NewRedis(t)
	store := NewRedisStore(client, "test:")
	calls := 0
	r := newEngine(store, 20*time.Second, &calls)

	first := get(r, "/")
	assert.Equal(t, "render 1", first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get(r, "/")
	assert.Equal(t, "render 1", second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	// pages are cached separately
	assert.Equal(t, "render 2", get(r, "/?page=2").Body.String())

	mr.FastForward(21 * time.Second)
	assert.Equal(t, "render 3", get(r, "/").Body.String())
}

func TestPage_Clear(t *testing.T) {
	mr, client := testutil.NewRedis(t)
	require.NoError(t, client.Set(context.Background(), "unrelated", "keep", 0).Err())
	store := NewRedisStore(client, "test:")
	calls := 0
	r := newEngine(store, time.Minute, &calls)

	get(r, "/")
	require.NoError(t, store.Clear(context.Background()))
	assert.Equal(t, "render 2", get(r, "/").Body.String())
	assert.True(t, mr.Exists("unrelated"))
}

func TestPage_SkipsErrors(t *testing.T) {
	_, client := testutil.NewRedis(t)
	calls := 0
	r := newEngine(NewRedisStore(client, "test:"), time.Minute, &calls)

	get(r, "/broken")
	get(r, "/broken")
	assert.Equal(t, 2, calls)
}

func TestPage_RedisDownFallsThrough(t *testing.T) {
	mr, client := testutil.NewRedis(t)
	calls := 0
	r := newEngine(NewRedisStore(client, "test:"), time.Minute, &calls)
	mr.Close()

	for i := 1; i <= 2; i++ {
		w := get(r, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, fmt.Sprintf("render %d", i), w.Body.String())
	}
}

func TestNopStore(t *testing.T) {
	calls := 0
	r := newEngine(NopStore{}, time.Minute, &calls)
	get(r, "/")
	get(r, "/")
	assert.Equal(t, 2, calls)
}
