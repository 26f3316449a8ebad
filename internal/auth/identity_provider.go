package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/urbana/eventos/internal/model"
)

// IdentityProviderConfig は外部IdP（GoTrue互換のパスワード認証API）の設定。
type IdentityProviderConfig struct {
	BaseURL    string // 例: https://xxxx.supabase.co
	APIKey     string
	JWTSecret  string // アクセストークン署名検証用のHMACシークレット
	HTTPClient *http.Client
}

// IdentityProviderAuthenticator は外部IdPのパスワードグラントで認証する。
// 発行されたアクセストークンは署名を検証し、subをidentityとして扱う。
type IdentityProviderAuthenticator struct {
	config IdentityProviderConfig
	client *http.Client
}

// NewIdentityProviderAuthenticator はIdentityProviderAuthenticatorを生成する。
func NewIdentityProviderAuthenticator(config IdentityProviderConfig) *IdentityProviderAuthenticator {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &IdentityProviderAuthenticator{config: config, client: client}
}

// idpTokenResponse はトークンエンドポイントのレスポンス。
type idpTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Authenticate はメールアドレスとパスワードでアクセストークンを取得し、identityを返す。
func (a *IdentityProviderAuthenticator) Authenticate(ctx context.Context, identifier, secret string) (*model.Identity, error) {
	if identifier == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}

	tokenResp, err := a.requestToken(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}

	sub, err := a.verifyAccessToken(tokenResp.AccessToken)
	if err != nil {
		identity := &model.Identity{AccessToken: tokenResp.AccessToken}
		// 検証できないトークンでもIdP側のセッションは残さない
		_ = a.Revoke(ctx, identity)
		return nil, fmt.Errorf("failed to verify access token: %w", err)
	}
	if tokenResp.User.ID != "" && tokenResp.User.ID != sub {
		_ = a.Revoke(ctx, &model.Identity{AccessToken: tokenResp.AccessToken})
		return nil, fmt.Errorf("token subject does not match user id")
	}

	return &model.Identity{
		ID:           sub,
		Email:        tokenResp.User.Email,
		Provider:     ProviderIdentityProvider,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
	}, nil
}

// requestToken はパスワードグラントでトークンを取得する。
// 400/401/422は資格情報の不一致として扱う。
func (a *IdentityProviderAuthenticator) requestToken(ctx context.Context, email, password string) (*idpTokenResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.config.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp idpTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	return &tokenResp, nil
}

// verifyAccessToken はHMAC署名と有効期限を検証し、subを返す。
func (a *IdentityProviderAuthenticator) verifyAccessToken(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.config.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// Revoke はIdPのログアウトエンドポイントでアクセストークンを失効させる。
// トークンを持たないidentityでは何もしない。
func (a *IdentityProviderAuthenticator) Revoke(ctx context.Context, identity *model.Identity) error {
	if identity == nil || identity.AccessToken == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	req.Header.Set("apikey", a.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+identity.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// 期限切れ・失効済みのトークンは失効済みとして扱う
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("logout failed with status %d", resp.StatusCode)
	}
	return nil
}

// compile-time interface check
var _ Authenticator = (*IdentityProviderAuthenticator)(nil)
