package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/urbana/eventos/internal/model"
)

// --- モック定義 ---

type mockSessionFinder struct {
	session *model.AdminSession
	err     error
	gotID   string
}

func (m *mockSessionFinder) CurrentSession(ctx context.Context, sessionID string) (*model.AdminSession, error) {
	m.gotID = sessionID
	if m.err != nil {
		return nil, m.err
	}
	if m.session == nil || m.session.ID != sessionID {
		return nil, nil
	}
	return m.session, nil
}

func validAdminSession() *model.AdminSession {
	return &model.AdminSession{
		ID:         "valid-session-id",
		IdentityID: "uid-123",
		Email:      "ops@urbanaeventos.uy",
		Role:       model.RoleAdmin,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

// --- テスト ---

func TestAdminSessionMiddleware_ValidSession_InjectsSession(t *testing.T) {
	finder := &mockSessionFinder{session: validAdminSession()}

	var captured *model.AdminSession
	handler := NewAdminSessionMiddleware(finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := AdminSessionFromContext(r.Context())
		if !ok {
			t.Error("expected session in context")
		}
		captured = session
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured == nil || captured.IdentityID != "uid-123" {
		t.Errorf("captured session = %+v", captured)
	}
}

func TestAdminSessionMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		finder *mockSessionFinder
	}{
		{"Cookieなし", nil, &mockSessionFinder{session: validAdminSession()}},
		{"空のCookie", &http.Cookie{Name: SessionCookieName, Value: ""}, &mockSessionFinder{session: validAdminSession()}},
		{"未知のセッション", &http.Cookie{Name: SessionCookieName, Value: "unknown"}, &mockSessionFinder{session: validAdminSession()}},
		{"ストアのエラー", &http.Cookie{Name: SessionCookieName, Value: "valid-session-id"}, &mockSessionFinder{err: errors.New("db down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAdminSessionMiddleware(tt.finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodDelete, "/api/admin/gallery/img-1", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Code != "UNAUTHORIZED" || body.Category != "auth" {
				t.Errorf("unexpected body: %+v", body)
			}
		})
	}
}

func TestAdminSessionFromContext_NoValue(t *testing.T) {
	if _, ok := AdminSessionFromContext(context.Background()); ok {
		t.Error("expected no session")
	}
}

func TestContextWithAdminSession_RoundTrip(t *testing.T) {
	session := validAdminSession()
	ctx := ContextWithAdminSession(context.Background(), session)

	got, ok := AdminSessionFromContext(ctx)
	if !ok || got != session {
		t.Errorf("got %+v, %v", got, ok)
	}
}
