package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/urbana/eventos/internal/model"
)

// StaticAuthenticator は設定されたユーザー名とbcryptハッシュで認証する。
type StaticAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewStaticAuthenticator はStaticAuthenticatorを生成する。
// ハッシュがbcrypt形式でない場合はエラーを返す。
func NewStaticAuthenticator(username, passwordHash string) (*StaticAuthenticator, error) {
	if username == "" {
		return nil, fmt.Errorf("auth: admin username is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("auth: invalid admin password hash: %w", err)
	}
	return &StaticAuthenticator{
		username:     username,
		passwordHash: []byte(passwordHash),
	}, nil
}

// Authenticate はユーザー名とパスワードを検証する。
// ユーザー名が一致しない場合もbcryptの比較を行い、応答時間で区別できないようにする。
func (a *StaticAuthenticator) Authenticate(ctx context.Context, identifier, secret string) (*model.Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(identifier), []byte(a.username)) == 1
	err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(secret))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, fmt.Errorf("auth: compare password: %w", err)
	}
	if !userOK || err != nil {
		return nil, ErrInvalidCredentials
	}
	return &model.Identity{
		ID:       a.username,
		Provider: ProviderStatic,
	}, nil
}

// Revoke は何もしない。静的認証は外部セッションを持たない。
func (a *StaticAuthenticator) Revoke(ctx context.Context, identity *model.Identity) error {
	return nil
}

// compile-time interface check
var _ Authenticator = (*StaticAuthenticator)(nil)
