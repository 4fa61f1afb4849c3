package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// Signature guards privileged routes with a per-request HMAC: X-Timestamp
// (unix seconds, within the allowed window), X-Nonce (single use, enforced
// by a unique insert) and X-Signature over "method\npath\ntimestamp\nnonce".
// An empty secret disables the check.
func Signature(secret string, window time.Duration, nonces repository.NonceRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		ts, err := strconv.ParseInt(c.GetHeader("X-Timestamp"), 10, 64)
		if err != nil {
			abortUnauthorized(c, "missing timestamp")
			return
		}
		if drift := time.Since(time.Unix(ts, 0)); drift > window || drift < -window {
			abortUnauthorized(c, "timestamp outside window")
			return
		}

		nonce := c.GetHeader("X-Nonce")
		if nonce == "" {
			abortUnauthorized(c, "missing nonce")
			return
		}

		payload := fmt.Sprintf("%s\n%s\n%d\n%s", c.Request.Method, c.Request.URL.Path, ts, nonce)
		if !verifyHMAC(secret, payload, c.GetHeader("X-Signature")) {
			abortUnauthorized(c, "bad signature")
			return
		}

		if err := nonces.Consume(c.Request.Context(), nonce, UserID(c)); err != nil {
			if errors.Is(err, repository.ErrNonceReplayed) {
				abortUnauthorized(c, "nonce already used")
				return
			}
			logger.Error("consume nonce failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL",
				"message": "internal error",
			})
			return
		}

		c.Next()
	}
}
