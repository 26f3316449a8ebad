// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/urbana/eventos/internal/auth"
	"github.com/urbana/eventos/internal/middleware"
	"github.com/urbana/eventos/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, identifier, secret string) (*model.AdminSession, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentSession(ctx context.Context, sessionID string) (*model.AdminSession, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は管理者ログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
// 静的認証ではusername、IdP認証ではemailを使用する。
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse は管理者セッション情報のレスポンス。
type sessionResponse struct {
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email,omitempty"`
	Provider   string    `json:"provider"`
	Role       string    `json:"role"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func toSessionResponse(s *model.AdminSession) sessionResponse {
	return sessionResponse{
		IdentityID: s.IdentityID,
		Email:      s.Email,
		Provider:   s.Provider,
		Role:       string(s.Role),
		ExpiresAt:  s.ExpiresAt,
	}
}

// Login は資格情報を検証し、管理者セッションCookieを発行する。
// POST /auth/login
//
// 資格情報の誤りと入力不備は区別せず同じエラーを返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	session, err := h.service.Login(r.Context(), identifier, req.Password)
	switch {
	case errors.Is(err, auth.ErrNotAuthorized):
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewNotAuthorizedError())
		return
	case err != nil:
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在の管理者セッション情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeNotLoggedIn(w)
		return
	}

	session, err := h.service.CurrentSession(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to get current session", slog.String("error", err.Error()))
		writeNotLoggedIn(w)
		return
	}
	if session == nil {
		writeNotLoggedIn(w)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeNotLoggedIn(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "No iniciaste sesión.",
		Category: "auth",
		Action:   "Iniciá sesión para continuar.",
	})
}
