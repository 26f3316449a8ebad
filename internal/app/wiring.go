package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"

	"github.com/urbana/eventos/internal/auth"
	"github.com/urbana/eventos/internal/config"
	"github.com/urbana/eventos/internal/notify"
	"github.com/urbana/eventos/internal/repository"
	"github.com/urbana/eventos/internal/storage"
)

// newSessionRepository はSESSION_BACKENDに応じたセッションリポジトリを返す。
// redisの場合は接続を確認し、終了時に閉じるためのcloserも返す。
func newSessionRepository(ctx context.Context, cfg *config.Config, db *sql.DB) (repository.SessionRepository, func() error, error) {
	if cfg.SessionBackend != "redis" {
		return repository.NewPostgresSessionRepo(db), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis session backend connected", slog.String("addr", opts.Addr))
	return repository.NewRedisSessionRepo(client), client.Close, nil
}

// newRoleChecker は認証方式に応じたRoleCheckerを返す。
// 静的認証では設定された管理者ユーザーのみ、IdP認証ではuser_rolesテーブルを参照する。
func newRoleChecker(cfg *config.Config, db *sql.DB) auth.RoleChecker {
	if cfg.AuthMode == config.AuthModeIdentityProvider {
		return auth.NewRoleStoreChecker(repository.NewPostgresRoleRepo(db))
	}
	return auth.NewStaticRoleChecker(cfg.AdminUsername)
}

// newEmailSender はEMAIL_PROVIDERに応じたEmailSenderを返す。
func newEmailSender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case "sendgrid":
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	default:
		return notify.NewStubEmailSender(logger), nil
	}
}

// newObjectStore はギャラリー画像用のS3ストアを返す。
// 認証情報はAWS SDKの標準チェーン（環境変数・IAMロール）から解決する。
func newObjectStore(ctx context.Context, cfg *config.Config) (*storage.S3Store, error) {
	if cfg.GalleryBucket == "" {
		slog.Warn("GALLERY_BUCKET is not set; gallery uploads will fail")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.GalleryBucket, cfg.AWSRegion, cfg.GalleryPublicBaseURL), nil
}
