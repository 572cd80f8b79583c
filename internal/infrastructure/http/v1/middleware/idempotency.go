package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ayanna/internal/core/apperror"
	appctx "ayanna/internal/core/context"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const (
	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
	ctxIdempotencyDone  = "idempotency_done"
)

// IdempotencyKeys is the key store behind Idempotency. *postgres.IdempotencyStore
// implements it.
type IdempotencyKeys interface {
	Claim(ctx context.Context, c postgres.Claim) (*postgres.StoredResponse, error)
	Finish(ctx context.Context, key string, status int, contentType string, body any) error
	Release(ctx context.Context, key string) error
}

// idempotentOperations names the routes a till retries, keyed by method and route.
var idempotentOperations = map[string]string{
	"POST /api/v1/carts":                      "cart.create",
	"POST /api/v1/carts/:module/:id/lines":    "cart.add_line",
	"PUT /api/v1/carts/:module/:id/discount":  "cart.discount",
	"PUT /api/v1/carts/:module/:id/tax-rate":  "cart.tax_rate",
	"POST /api/v1/carts/:module/:id/finalize": "cart.finalize",
	"POST /api/v1/carts/:module/:id/payments": "cart.payment",
	"POST /api/v1/carts/:module/:id/cancel":   "cart.cancel",
	"POST /api/v1/purchases":                  "purchase.receive",
	"POST /api/v1/stock/movements":            "stock.movement",
}

// operationName binds a key to one resource: the same key sent to finalize two
// different carts is a mismatch, not a replay.
func operationName(c *gin.Context) string {
	route := c.Request.Method + " " + c.FullPath()
	name, ok := idempotentOperations[route]
	if !ok {
		name = route
	}
	return name + " " + c.Request.URL.Path
}

// Idempotency replays the stored response of a POST or PUT carrying an
// X-Idempotency-Key already seen for the same user, operation and body. A retried
// finalization or payment therefore returns the first outcome instead of running
// again. Keys of requests that failed on the server are released.
func Idempotency(store IdempotencyKeys) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || (c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut) {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		userID := ""
		if uid := appctx.AuthorID(c.Request.Context()); uid != nil {
			userID = uid.String()
		}

		body, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)

		replay, err := store.Claim(c.Request.Context(), postgres.Claim{
			Key:         key,
			UserID:      userID,
			Operation:   operationName(c),
			RequestHash: hex.EncodeToString(sum[:]),
		})
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replay", "true")
			c.Data(replay.Status, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)

		c.Next()

		// Errors are recorded by ErrorHandler once the response body is known.
		if !c.GetBool(ctxIdempotencyDone) && len(c.Errors) == 0 {
			releaseIdempotency(c, key, store)
		}
	}
}

// CompleteIdempotency stores the response given under the request's key.
func CompleteIdempotency(c *gin.Context, status int, contentType string, response any) {
	key := c.GetString(ctxIdempotencyKey)
	store, ok := c.Value(ctxIdempotencyStore).(IdempotencyKeys)
	if key == "" || !ok {
		return
	}
	c.Set(ctxIdempotencyDone, true)

	// A 5xx rolled the operation back; let the retry run it again.
	if status >= http.StatusInternalServerError {
		releaseIdempotency(c, key, store)
		return
	}
	if err := store.Finish(c.Request.Context(), key, status, contentType, response); err != nil {
		logger.Warn(c.Request.Context(), "idempotency finish failed", "key", key, "error", err)
	}
}

func releaseIdempotency(c *gin.Context, key string, store IdempotencyKeys) {
	if err := store.Release(c.Request.Context(), key); err != nil {
		logger.Warn(c.Request.Context(), "idempotency release failed", "key", key, "error", err)
	}
}
