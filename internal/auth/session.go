package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/urbana/eventos/internal/model"
	"github.com/urbana/eventos/internal/repository"
)

// Revoker はIdPとのセッションを失効させるインターフェース。
type Revoker interface {
	Revoke(ctx context.Context, identity *model.Identity) error
}

// SessionStore は管理者として認可された状態をログアウトまたは期限切れまで保持する。
// 保存されるセッションは常にrole=adminであり、部分的に認可された状態は存在しない。
// Cookieに載るのは生のセッションIDで、リポジトリにはsecretによるHMACだけが保存される。
type SessionStore struct {
	repo    repository.SessionRepository
	revoker Revoker
	secret  []byte
	maxAge  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewSessionStore はSessionStoreを生成する。
func NewSessionStore(repo repository.SessionRepository, revoker Revoker, secret string, maxAge time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		repo:    repo,
		revoker: revoker,
		secret:  []byte(secret),
		maxAge:  maxAge,
		logger:  logger,
		now:     time.Now,
	}
}

// storageKey はセッションIDからリポジトリ上のキーを導出する。
func (s *SessionStore) storageKey(sessionID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Establish は認可済みセッションを作成する。
// ロール確認を通過したidentityに対してのみ呼び出すこと。
func (s *SessionStore) Establish(ctx context.Context, identity *model.Identity) (*model.AdminSession, error) {
	if identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("identity is required")
	}
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.AdminSession{
		ID:          sessionID,
		IdentityID:  identity.ID,
		Email:       identity.Email,
		Provider:    identity.Provider,
		Role:        model.RoleAdmin,
		AccessToken: identity.AccessToken,
		ExpiresAt:   now.Add(s.maxAge),
		CreatedAt:   now,
	}
	stored := *session
	stored.ID = s.storageKey(sessionID)
	if err := s.repo.Create(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Find は有効なセッションを取得する。存在しない・期限切れ・未認可の場合はnilを返す。
func (s *SessionStore) Find(ctx context.Context, sessionID string) (*model.AdminSession, error) {
	if sessionID == "" {
		return nil, nil
	}
	stored, err := s.repo.FindByID(ctx, s.storageKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if !stored.Established(s.now()) {
		return nil, nil
	}
	session := *stored
	session.ID = sessionID
	return &session, nil
}

// IsAuthorized はセッションが完全に認可された状態の場合にtrueを返す。
// 参照に失敗した場合は未認可として扱う。
func (s *SessionStore) IsAuthorized(ctx context.Context, sessionID string) bool {
	session, err := s.Find(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to check admin session", slog.String("error", err.Error()))
		return false
	}
	return session != nil
}

// Clear はセッションを削除し、IdPとのセッションを失効させる。
// 失効の失敗はログに記録するだけでエラーにしない。
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	key := s.storageKey(sessionID)
	session, err := s.repo.FindByID(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}
	if err := s.repo.DeleteByID(ctx, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if session != nil && session.AccessToken != "" && s.revoker != nil {
		identity := &model.Identity{
			ID:          session.IdentityID,
			Provider:    session.Provider,
			AccessToken: session.AccessToken,
		}
		if err := s.revoker.Revoke(ctx, identity); err != nil {
			s.logger.Error("failed to revoke identity provider session",
				slog.String("identity_id", session.IdentityID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
