package middlewares

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, userID uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func perform(engine *gin.Engine, method, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func authEngine() *gin.Engine {
	engine := gin.New()
	engine.GET("/me", RequireAuth(testSecret), func(ctx *gin.Context) {
		userID, _ := UserID(ctx)
		ctx.JSON(http.StatusOK, gin.H{"user_id": userID, "admin": IsAdmin(ctx)})
	})
	engine.GET("/admin", RequireAuth(testSecret), RequireAdmin(), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	return engine
}

func TestRequireAuth(t *testing.T) {
	engine := authEngine()

	w := perform(engine, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(engine, http.MethodGet, "/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged := signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), 7, "user")
	w = perform(engine, http.MethodGet, "/me", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	unsigned := signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, 7, "admin")
	w = perform(engine, http.MethodGet, "/me", unsigned, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), 7, "user")
	w = perform(engine, http.MethodGet, "/me", valid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"admin":false}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	engine := authEngine()

	user := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), 7, "user")
	assert.Equal(t, http.StatusForbidden, perform(engine, http.MethodGet, "/admin", user, nil).Code)

	admin := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), 1, "admin")
	assert.Equal(t, http.StatusNoContent, perform(engine, http.MethodGet, "/admin", admin, nil).Code)

	bare := gin.New()
	bare.GET("/admin", RequireAdmin(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, perform(bare, http.MethodGet, "/admin", "", nil).Code)
}

func TestRequestLoggerTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	engine := gin.New()
	engine.Use(RequestLogger(zerolog.New(&buf)))
	engine.GET("/ping", func(ctx *gin.Context) {
		id, _ := ctx.Get(ContextRequestID)
		ctx.String(http.StatusOK, id.(string))
	})

	w := perform(engine, http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, w.Body.String())
	assert.Contains(t, buf.String(), `"path":"/ping"`)
	assert.Contains(t, buf.String(), `"request_id":"`+requestID+`"`)

	w = perform(engine, http.MethodGet, "/ping", "", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetricsCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	engine := gin.New()
	engine.Use(m.Middleware())
	engine.GET("/orders/:id", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	perform(engine, http.MethodGet, "/orders/1", "", nil)
	perform(engine, http.MethodGet, "/orders/2", "", nil)
	perform(engine, http.MethodGet, "/missing", "", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/orders/:id", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "GET", "404")))
}

func idempotencyEngine(t *testing.T, status *int, calls *int) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	engine := gin.New()
	engine.Use(Idempotency(client, time.Hour, zerolog.Nop()))
	engine.POST("/orders", func(ctx *gin.Context) {
		*calls++
		ctx.JSON(*status, gin.H{"call": *calls})
	})
	return engine, mr
}

func TestIdempotencyReplaysFinishedRequest(t *testing.T) {
	status, calls := http.StatusCreated, 0
	engine, _ := idempotencyEngine(t, &status, &calls)
	headers := map[string]string{IdempotencyHeader: "k-1"}

	first := perform(engine, http.MethodPost, "/orders", "", headers)
	second := perform(engine, http.MethodPost, "/orders", "", headers)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(ReplayHeader))

	perform(engine, http.MethodPost, "/orders", "", map[string]string{IdempotencyHeader: "k-2"})
	perform(engine, http.MethodPost, "/orders", "", nil)
	assert.Equal(t, 3, calls)
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	status, calls := http.StatusCreated, 0
	engine, mr := idempotencyEngine(t, &status, &calls)
	require.NoError(t, mr.Set("idempotency:0:/orders:k-1", pendingMarker))

	w := perform(engine, http.MethodPost, "/orders", "", map[string]string{IdempotencyHeader: "k-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	status, calls := http.StatusInternalServerError, 0
	engine, mr := idempotencyEngine(t, &status, &calls)
	headers := map[string]string{IdempotencyHeader: "k-1"}

	perform(engine, http.MethodPost, "/orders", "", headers)
	assert.False(t, mr.Exists("idempotency:0:/orders:k-1"))

	status = http.StatusCreated
	w := perform(engine, http.MethodPost, "/orders", "", headers)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, calls)
}
