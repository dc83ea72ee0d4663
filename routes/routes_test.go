package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"easyservice/handlers"
	"easyservice/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "ops-secret"

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hit := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { c.String(http.StatusOK, name) }
	}
	hb := &handlers.HandlerBundle{
		VerifyWebhookHandler:  hit("verify"),
		ReceiveWebhookHandler: hit("receive"),
		ListTicketsHandler:    hit("tickets"),
		HealthHandler:         hit("health"),
	}
	r := gin.New()
	RegisterRoutes(r, hb, "", testJWTSecret)
	token, err := utils.GenerateToken(testJWTSecret, "dashboard", utils.TicketReadScope, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/webhook", "verify"},
		{http.MethodPost, "/webhook", "receive"},
		{http.MethodGet, "/api/tickets/919800000001", "tickets"},
		{http.MethodGet, "/health", "health"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, tc.path)
		assert.Equal(t, tc.want, w.Body.String(), tc.path)
	}
}

func TestRegisterRoutes_SignedWebhookRejectsUnsigned(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hb := &handlers.HandlerBundle{
		VerifyWebhookHandler:  func(c *gin.Context) { c.Status(http.StatusOK) },
		ReceiveWebhookHandler: func(c *gin.Context) { c.Status(http.StatusOK) },
		ListTicketsHandler:    func(c *gin.Context) { c.Status(http.StatusOK) },
		HealthHandler:         func(c *gin.Context) { c.Status(http.StatusOK) },
	}
	r := gin.New()
	RegisterRoutes(r, hb, "secret", testJWTSecret)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRoutes_TicketsRequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hb := &handlers.HandlerBundle{
		VerifyWebhookHandler:  func(c *gin.Context) { c.Status(http.StatusOK) },
		ReceiveWebhookHandler: func(c *gin.Context) { c.Status(http.StatusOK) },
		ListTicketsHandler:    func(c *gin.Context) { c.String(http.StatusOK, "addresses") },
		HealthHandler:         func(c *gin.Context) { c.Status(http.StatusOK) },
	}
	for _, secret := range []string{testJWTSecret, ""} {
		r := gin.New()
		RegisterRoutes(r, hb, "", secret)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets/919800000001", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), "addresses")
	}
}
