package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"chess_arena/internal/logger"
	"chess_arena/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetNop()
	os.Exit(m.Run())
}

func limitedRouter(l *Limiter, max int) *gin.Engine {
	r := gin.New()
	r.GET("/rooms/:code/move", l.Limit("move", max, time.Minute, ByRoomAndIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hit(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := limitedRouter(NewLimiter(rdb), 2)

	assert.Equal(t, http.StatusOK, hit(r, "/rooms/AAAAAA/move").Code)
	w := hit(r, "/rooms/AAAAAA/move")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/rooms/AAAAAA/move").Code)

	// another room has its own budget
	assert.Equal(t, http.StatusOK, hit(r, "/rooms/BBBBBB/move").Code)

	key := "rl:move:60:AAAAAA:10.0.0.1"
	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, hit(r, "/rooms/AAAAAA/move").Code)
}

func TestLimiterFallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	r := limitedRouter(NewLimiter(rdb), 1)
	assert.Equal(t, http.StatusOK, hit(r, "/rooms/AAAAAA/move").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/rooms/AAAAAA/move").Code)
}

func TestMemoryWindowResets(t *testing.T) {
	m := newMemoryWindow()
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }

	assert.EqualValues(t, 1, m.incr("k", time.Second))
	assert.EqualValues(t, 2, m.incr("k", time.Second))
	now = now.Add(2 * time.Second)
	assert.EqualValues(t, 1, m.incr("k", time.Second))
}

func adminRouter(tokens *service.AdminTokens, dev bool) *gin.Engine {
	r := gin.New()
	r.POST("/end", AdminOnly(tokens, dev), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("admin"))
	})
	return r
}

func TestAdminOnly(t *testing.T) {
	tokens := service.NewAdminTokens("secret")
	r := adminRouter(tokens, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/end", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/end", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tok, err := tokens.Generate("ops", time.Hour)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/end", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())
}

func TestAdminOnlyDevMode(t *testing.T) {
	r := adminRouter(nil, true)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/end", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://arena.example"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://arena.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://arena.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
