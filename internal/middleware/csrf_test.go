package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/urbana/eventos/internal/model"
)

func newCSRFTestHandler(t *testing.T, cfg CSRFConfig, called *bool) http.Handler {
	t.Helper()
	return NewCSRFMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func findCSRFCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware_SafeMethods_PassThroughWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := newCSRFTestHandler(t, CSRFConfig{}, &called)

			req := httptest.NewRequest(method, "/api/admin/gallery", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if !called {
				t.Fatalf("handler should have been called for %s", method)
			}
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestCSRFMiddleware_Rejections_ReturnAPIError(t *testing.T) {
	tests := []struct {
		name   string
		method string
		cookie string
		header string
	}{
		{"Cookieなし", http.MethodPost, "", "token-abc"},
		{"ヘッダーなし", http.MethodPut, "token-abc", ""},
		{"両方なし", http.MethodPatch, "", ""},
		{"不一致", http.MethodDelete, "token-abc", "token-xyz"},
		{"前方一致のみ", http.MethodPost, "token-abc", "token-ab"},
		{"大文字小文字違い", http.MethodPost, "token-abc", "TOKEN-ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := newCSRFTestHandler(t, CSRFConfig{}, &called)

			req := httptest.NewRequest(tt.method, "/api/admin/leads/lead-1", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if called {
				t.Fatal("handler should not be called")
			}
			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != model.ErrCodeCSRFValidationFailed {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeCSRFValidationFailed)
			}
			if body.Category != "auth" {
				t.Errorf("category = %q, want auth", body.Category)
			}
			if body.Message == "" || body.Action == "" {
				t.Errorf("message and action should be set: %+v", body)
			}
		})
	}
}

func TestCSRFMiddleware_MatchingToken_PassesThrough(t *testing.T) {
	methods := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := newCSRFTestHandler(t, CSRFConfig{}, &called)

			req := httptest.NewRequest(method, "/api/admin/content", nil)
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "3f9a0c"})
			req.Header.Set(csrfHeaderName, "3f9a0c")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if !called {
				t.Fatalf("handler should have been called for %s with matching token", method)
			}
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestCSRFMiddleware_GETRequest_SetsCookieFromConfig(t *testing.T) {
	called := false
	handler := newCSRFTestHandler(t, CSRFConfig{CookieSecure: true, CookieDomain: "urbanaeventos.uy"}, &called)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	c := findCSRFCookie(w.Result())
	if c == nil {
		t.Fatal("expected CSRF cookie to be set on GET request")
	}
	if len(c.Value) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(c.Value))
	}
	if c.HttpOnly {
		t.Error("CSRF cookie must be readable by the frontend")
	}
	if !c.Secure {
		t.Error("CSRF cookie should follow CookieSecure")
	}
	if c.Domain != "urbanaeventos.uy" {
		t.Errorf("Domain = %q, want urbanaeventos.uy", c.Domain)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
}

func TestCSRFMiddleware_GETRequest_ExistingCookie_DoesNotReplace(t *testing.T) {
	called := false
	handler := newCSRFTestHandler(t, CSRFConfig{}, &called)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if c := findCSRFCookie(w.Result()); c != nil {
		t.Errorf("CSRF cookie should not be re-set, got %q", c.Value)
	}
}

// --- CSRFトークン取得エンドポイント ---

func TestCSRFTokenHandler(t *testing.T) {
	t.Run("新規発行", func(t *testing.T) {
		h := NewCSRFTokenHandler(CSRFConfig{CookieDomain: "urbanaeventos.uy"})

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

		resp := w.Result()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		c := findCSRFCookie(resp)
		if c == nil {
			t.Fatal("expected CSRF cookie to be set")
		}
		if body.Token == "" || c.Value != body.Token {
			t.Errorf("cookie = %q, token = %q; should match and be non-empty", c.Value, body.Token)
		}
	})

	t.Run("既存トークンを返す", func(t *testing.T) {
		h := NewCSRFTokenHandler(CSRFConfig{})

		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-csrf-token"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Token != "existing-csrf-token" {
			t.Errorf("token = %q, want existing-csrf-token", body.Token)
		}
		if c := findCSRFCookie(w.Result()); c != nil {
			t.Error("cookie should not be re-issued when present")
		}
	})
}

func TestCSRFToken_IssuedTokenIsAcceptedOnMutation(t *testing.T) {
	cfg := CSRFConfig{}
	tokenRec := httptest.NewRecorder()
	NewCSRFTokenHandler(cfg).ServeHTTP(tokenRec, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))
	issued := findCSRFCookie(tokenRec.Result())
	if issued == nil {
		t.Fatal("expected CSRF cookie")
	}

	called := false
	handler := newCSRFTestHandler(t, cfg, &called)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/gallery/order", nil)
	req.AddCookie(issued)
	req.Header.Set(csrfHeaderName, issued.Value)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called || w.Code != http.StatusOK {
		t.Errorf("issued token should be accepted: called=%v status=%d", called, w.Code)
	}
}
