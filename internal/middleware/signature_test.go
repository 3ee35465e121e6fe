package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/woox/commerce-relay-go/internal/util"
)

func TestWebhookSignatureMiddlewareMeta(t *testing.T) {
	secret := "test-secret"
	body := `{"entry":[]}`
	validSignature := "sha256=" + util.HmacSHA256(secret, body)

	t.Run("passes through when secret is empty", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware("", "")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("POST", "/webhooks/whatsapp", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("skips verification for GET handshake", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware(secret, "")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/webhooks/whatsapp?hub.mode=subscribe", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects request without signature header", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware(secret, "")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("POST", "/webhooks/whatsapp", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects request with invalid signature", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware(secret, "")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("POST", "/webhooks/whatsapp", bytes.NewBufferString(body))
		req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts valid signature and preserves body", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware(secret, "")
		var seenBody string
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			seenBody = string(data)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("POST", "/webhooks/whatsapp", bytes.NewBufferString(body))
		req.Header.Set("X-Hub-Signature-256", validSignature)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, body, seenBody)
	})
}

func telegramRequest(body string, secretHeader string) *http.Request {
	req := httptest.NewRequest("POST", "/webhooks/telegram", bytes.NewBufferString(body))
	if secretHeader != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secretHeader)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("channel", "telegram")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestWebhookSignatureMiddlewareTelegram(t *testing.T) {
	body := `{"update_id":1}`

	t.Run("passes through when secret is not configured", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware("", "")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, telegramRequest(body, ""))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects wrong secret token", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware("", "tg-secret")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, telegramRequest(body, "wrong"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts matching secret token", func(t *testing.T) {
		middleware := NewWebhookSignatureMiddleware("", "tg-secret")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, telegramRequest(body, "tg-secret"))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestServiceAuthMiddleware(t *testing.T) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte("correct-token"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashBytes)

	t.Run("passes through when hash is empty", func(t *testing.T) {
		middleware := NewServiceAuthMiddleware("")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/v1/conversations", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing bearer token", func(t *testing.T) {
		middleware := NewServiceAuthMiddleware(hash)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/v1/conversations", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		middleware := NewServiceAuthMiddleware(hash)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/v1/conversations", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts correct token", func(t *testing.T) {
		middleware := NewServiceAuthMiddleware(hash)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/v1/conversations", nil)
		req.Header.Set("Authorization", "Bearer correct-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
