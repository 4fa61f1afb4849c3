package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

func signatureTestEngine(t *testing.T, secret string) *gin.Engine {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ReplayNonce{}))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	nonces := repository.NewNonceRepository(db)
	r.POST("/run", Signature(secret, 5*time.Minute, nonces), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func signedRequest(secret, nonce string, ts int64) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Nonce", nonce)
	payload := fmt.Sprintf("POST\n/run\n%d\n%s", ts, nonce)
	req.Header.Set("X-Signature", signPayload(secret, payload))
	return req
}

func TestSignature_Valid(t *testing.T) {
	r := signatureTestEngine(t, "secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest("secret", "n-1", time.Now().Unix()))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignature_NonceReplayed(t *testing.T) {
	r := signatureTestEngine(t, "secret")
	req := signedRequest("secret", "n-1", time.Now().Unix())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest("secret", "n-1", time.Now().Unix()))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignature_StaleTimestamp(t *testing.T) {
	r := signatureTestEngine(t, "secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest("secret", "n-1", time.Now().Add(-time.Hour).Unix()))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignature_BadSignature(t *testing.T) {
	r := signatureTestEngine(t, "secret")

	req := signedRequest("other-secret", "n-1", time.Now().Unix())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignature_DisabledWithoutSecret(t *testing.T) {
	r := signatureTestEngine(t, "")

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
