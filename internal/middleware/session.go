// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/urbana/eventos/internal/model"
)

// SessionCookieName は管理者セッションIDを保持するCookieの名前。
const SessionCookieName = "admin_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// adminSessionContextKey はリクエストコンテキストに管理者セッションを格納するためのキー。
var adminSessionContextKey = contextKey("admin_session")

// SessionFinder は有効な管理者セッションの検索に必要なインターフェース。
// 期限切れやロール未確認のセッションにはnilを返すこと。
type SessionFinder interface {
	CurrentSession(ctx context.Context, sessionID string) (*model.AdminSession, error)
}

// NewAdminSessionMiddleware はHTTP Only Cookieから管理者セッションを読み取り、
// リクエストごとに認可状態を検証するミドルウェアを返す。
// 認可済みセッションをリクエストコンテキストに注入する。
// 未認可のリクエストには401を返す。
func NewAdminSessionMiddleware(finder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w)
				return
			}

			session, err := finder.CurrentSession(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find admin session",
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w)
				return
			}
			if session == nil {
				writeUnauthorized(w)
				return
			}

			setRequestIdentity(r.Context(), session.IdentityID)
			next.ServeHTTP(w, r.WithContext(ContextWithAdminSession(r.Context(), session)))
		})
	}
}

// AdminSessionFromContext はリクエストコンテキストから管理者セッションを取得する。
// 管理者セッションミドルウェアを通過したリクエストでのみ有効。
func AdminSessionFromContext(ctx context.Context) (*model.AdminSession, bool) {
	session, ok := ctx.Value(adminSessionContextKey).(*model.AdminSession)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}

// ContextWithAdminSession はコンテキストに管理者セッションを注入する。
func ContextWithAdminSession(ctx context.Context, session *model.AdminSession) context.Context {
	return context.WithValue(ctx, adminSessionContextKey, session)
}

func writeUnauthorized(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "Tu sesión no es válida o expiró.",
		Category: "auth",
		Action:   "Iniciá sesión nuevamente.",
	})
}
