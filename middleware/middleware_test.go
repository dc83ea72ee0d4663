package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func echoRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	echo := func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	}
	r.POST("/webhook", echo)
	r.GET("/webhook", echo)
	return r
}

func TestWebhookSignatureMiddleware(t *testing.T) {
	const secret = "app-secret"
	const body = `{"object":"whatsapp_business_account"}`
	r := echoRouter(WebhookSignatureMiddleware(secret))

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", sign(secret, body), http.StatusOK},
		{"wrong secret", sign("other", body), http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"no prefix", strings.TrimPrefix(sign(secret, body), "sha256="), http.StatusUnauthorized},
		{"not hex", "sha256=zz", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
			if tc.header != "" {
				req.Header.Set(SignatureHeader, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, body, w.Body.String(), "body must still be readable downstream")
			}
		})
	}
}

func TestWebhookSignatureMiddleware_SkipsWithoutSecretAndOnGet(t *testing.T) {
	w := httptest.NewRecorder()
	echoRouter(WebhookSignatureMiddleware("")).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("x")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	echoRouter(WebhookSignatureMiddleware("secret")).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/webhook", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := echoRouter(RateLimitMiddleware(2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	req.Header.Set("X-Real-IP", "198.51.100.4")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own budget")
}
