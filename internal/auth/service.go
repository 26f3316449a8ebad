package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urbana/eventos/internal/model"
)

// ログイン試行結果のメトリクスラベル
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginNotAuthorized      = "not_authorized"
	LoginError              = "error"
)

// LoginRecorder はログイン試行のメトリクスを記録するインターフェース。
type LoginRecorder interface {
	RecordLoginAttempt(outcome string)
}

// Service は管理者ログインのビジネスロジックを提供する。
// 認証・ロール確認・セッション確立の全てを通過した場合のみセッションを発行する。
type Service struct {
	authn    Authenticator
	roles    RoleChecker
	sessions *SessionStore
	metrics  LoginRecorder
	logger   *slog.Logger
}

// NewService はServiceを生成する。metricsがnilの場合は記録しない。
func NewService(authn Authenticator, roles RoleChecker, sessions *SessionStore, metrics LoginRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		authn:    authn,
		roles:    roles,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// Login は資格情報を検証し、管理者セッションを発行する。
// 資格情報の不一致はErrInvalidCredentials、管理者ロールがない場合はErrNotAuthorizedを返す。
// ロール確認で拒否された場合やセッション確立に失敗した場合はIdPとのセッションを失効させる。
// 通信障害などの予期しない失敗はログに記録し、ErrInvalidCredentialsとして返す。
func (s *Service) Login(ctx context.Context, identifier, secret string) (session *model.AdminSession, err error) {
	var identity *model.Identity
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("admin login panicked", slog.Any("panic", r))
			s.revoke(ctx, identity)
			s.record(LoginError)
			session, err = nil, ErrInvalidCredentials
		}
	}()

	identity, err = s.authn.Authenticate(ctx, identifier, secret)
	if errors.Is(err, ErrInvalidCredentials) {
		s.logger.Info("admin login rejected: invalid credentials")
		s.record(LoginInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("admin authentication failed", slog.String("error", err.Error()))
		s.record(LoginError)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.roles.HasAdminRole(ctx, identity)
	if err != nil {
		s.logger.Error("admin role check failed",
			slog.String("identity_id", identity.ID),
			slog.String("error", err.Error()),
		)
		s.revoke(ctx, identity)
		s.record(LoginError)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.Warn("admin login rejected: missing admin role",
			slog.String("identity_id", identity.ID),
		)
		s.revoke(ctx, identity)
		s.record(LoginNotAuthorized)
		return nil, ErrNotAuthorized
	}

	session, err = s.sessions.Establish(ctx, identity)
	if err != nil {
		s.logger.Error("failed to establish admin session",
			slog.String("identity_id", identity.ID),
			slog.String("error", err.Error()),
		)
		s.revoke(ctx, identity)
		s.record(LoginError)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("admin logged in",
		slog.String("identity_id", identity.ID),
		slog.String("provider", identity.Provider),
	)
	s.record(LoginSuccess)
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Info("admin logged out")
	return nil
}

// CurrentSession は有効な管理者セッションを返す。存在しない場合はnilを返す。
func (s *Service) CurrentSession(ctx context.Context, sessionID string) (*model.AdminSession, error) {
	return s.sessions.Find(ctx, sessionID)
}

// IsAuthorized はセッションが完全に認可された状態かどうかを返す。
func (s *Service) IsAuthorized(ctx context.Context, sessionID string) bool {
	return s.sessions.IsAuthorized(ctx, sessionID)
}

// revoke はIdPとのセッションを失効させる。呼び出し元のキャンセルには影響されない。
func (s *Service) revoke(ctx context.Context, identity *model.Identity) {
	if identity == nil {
		return
	}
	if err := s.authn.Revoke(context.WithoutCancel(ctx), identity); err != nil {
		s.logger.Error("failed to revoke identity provider session",
			slog.String("identity_id", identity.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLoginAttempt(outcome)
	}
}
