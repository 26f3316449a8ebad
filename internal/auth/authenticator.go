// Package auth は管理者の認証・ロール確認・セッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/urbana/eventos/internal/config"
	"github.com/urbana/eventos/internal/model"
)

// 認証フローのエラー。利用者にはどちらも同じ汎用メッセージで伝える。
var (
	// ErrInvalidCredentials は識別子またはパスワードが一致しないことを表す。
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrNotAuthorized は認証済みだが管理者ロールを持たないことを表す。
	ErrNotAuthorized = errors.New("auth: not authorized")
)

// Provider名
const (
	ProviderStatic           = "static"
	ProviderIdentityProvider = "identity_provider"
)

// Authenticator は資格情報を検証するインターフェース。
// 実装は静的資格情報と外部IdPの2種類で、設定で切り替える。
type Authenticator interface {
	// Authenticate は識別子とパスワードを検証する。
	// 一致しない場合はErrInvalidCredentialsを返し、ユーザーの有無は区別しない。
	// それ以外のエラーは通信障害など予期しない失敗を表す。
	Authenticate(ctx context.Context, identifier, secret string) (*model.Identity, error)
	// Revoke はAuthenticateで確立したIdPとのセッションを失効させる。
	Revoke(ctx context.Context, identity *model.Identity) error
}

// NewAuthenticator はAUTH_MODEに応じたAuthenticatorを生成する。
func NewAuthenticator(cfg *config.Config, client *http.Client) (Authenticator, error) {
	switch cfg.AuthMode {
	case config.AuthModeStatic:
		return NewStaticAuthenticator(cfg.AdminUsername, cfg.AdminPasswordHash)
	case config.AuthModeIdentityProvider:
		return NewIdentityProviderAuthenticator(IdentityProviderConfig{
			BaseURL:    cfg.IDPBaseURL,
			APIKey:     cfg.IDPAPIKey,
			JWTSecret:  cfg.IDPJWTSecret,
			HTTPClient: client,
		}), nil
	default:
		return nil, fmt.Errorf("auth: unsupported auth mode %q", cfg.AuthMode)
	}
}
