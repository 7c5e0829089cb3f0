package middlewares

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayHeader      = "Idempotent-Replay"

	pendingMarker = "pending"
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes POST requests carrying an Idempotency-Key safe to
// retry. The first request claims the key; a retry of a finished request
// gets the stored response, a retry of one still running gets 409. Keys of
// requests that ended in a server error are released. Without a redis
// client the middleware is a no-op.
func Idempotency(client *redis.Client, ttl time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := strings.TrimSpace(ctx.GetHeader(IdempotencyHeader))
		if client == nil || key == "" || ctx.Request.Method != http.MethodPost {
			ctx.Next()
			return
		}

		userID, _ := UserID(ctx)
		redisKey := fmt.Sprintf("idempotency:%d:%s:%s", userID, ctx.Request.URL.Path, key)
		rctx := ctx.Request.Context()

		acquired, err := client.SetNX(rctx, redisKey, pendingMarker, ttl).Result()
		if err != nil {
			logger.Warn().Err(err).Str("key", redisKey).Msg("idempotency store unavailable")
			ctx.Next()
			return
		}

		if !acquired {
			raw, err := client.Get(rctx, redisKey).Bytes()
			if err == nil && string(raw) != pendingMarker {
				var stored storedResponse
				if json.Unmarshal(raw, &stored) == nil {
					ctx.Header(ReplayHeader, "true")
					ctx.Data(stored.Status, stored.ContentType, stored.Body)
					ctx.Abort()
					return
				}
			}
			ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "A request with this Idempotency-Key is already being processed."})
			return
		}

		recorder := &bodyRecorder{ResponseWriter: ctx.Writer}
		ctx.Writer = recorder
		ctx.Next()

		if recorder.Status() >= http.StatusInternalServerError {
			if err := client.Del(rctx, redisKey).Err(); err != nil {
				logger.Warn().Err(err).Str("key", redisKey).Msg("failed to release idempotency key")
			}
			return
		}

		payload, err := json.Marshal(storedResponse{
			Status:      recorder.Status(),
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := client.Set(rctx, redisKey, payload, ttl).Err(); err != nil {
			logger.Warn().Err(err).Str("key", redisKey).Msg("failed to store idempotent response")
		}
	}
}
