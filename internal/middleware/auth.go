package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Context keys set by Auth.
const (
	CtxUserID  = "auth_user_id"
	CtxIsAdmin = "auth_is_admin"
)

// Auth verifies the identity headers set by the trusted upstream gateway:
// X-User-Id, X-Admin and X-Identity-Signature, the latter an HMAC-SHA256
// over "<userId>.<admin>" with the shared identity secret. An empty secret
// disables verification (local development).
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetHeader("X-User-Id"), 10, 64)
		if err != nil || userID <= 0 {
			abortUnauthorized(c, "missing identity")
			return
		}
		admin := c.GetHeader("X-Admin") == "1"

		if secret != "" {
			payload := c.GetHeader("X-User-Id") + "." + c.GetHeader("X-Admin")
			if !verifyHMAC(secret, payload, c.GetHeader("X-Identity-Signature")) {
				abortUnauthorized(c, "bad identity signature")
				return
			}
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxIsAdmin, admin)
		c.Next()
	}
}

// RequireAdmin rejects non-admin identities.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "FORBIDDEN",
				"message": "admin only",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from the request context.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

func verifyHMAC(secret, payload, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
