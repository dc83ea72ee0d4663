package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureHeader carries the HMAC-SHA256 of the raw body, keyed with the app secret.
const SignatureHeader = "X-Hub-Signature-256"

// WebhookSignatureMiddleware rejects POST bodies whose signature does not
// match appSecret. An empty secret disables the check.
func WebhookSignatureMiddleware(appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appSecret == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		logger := zap.L()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Warn("Failed to read webhook body", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !validSignature(appSecret, body, c.GetHeader(SignatureHeader)) {
			logger.Warn("Webhook signature mismatch", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
