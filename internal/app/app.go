package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/urbana/eventos/internal/admin"
	"github.com/urbana/eventos/internal/auth"
	"github.com/urbana/eventos/internal/config"
	"github.com/urbana/eventos/internal/database"
	"github.com/urbana/eventos/internal/handler"
	"github.com/urbana/eventos/internal/lead"
	"github.com/urbana/eventos/internal/logger"
	"github.com/urbana/eventos/internal/metrics"
	"github.com/urbana/eventos/internal/middleware"
	"github.com/urbana/eventos/internal/notify"
	"github.com/urbana/eventos/internal/repository"
	"github.com/urbana/eventos/internal/security"
	"github.com/urbana/eventos/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("auth_mode", string(cfg.AuthMode)),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	leadRepo := repository.NewPostgresLeadRepo(db)
	contentRepo := repository.NewPostgresContentRepo(db)
	galleryRepo := repository.NewPostgresGalleryRepo(db)
	sessionRepo, closeSessions, err := newSessionRepository(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 4. 認証
	httpClient := &http.Client{Timeout: 10 * time.Second}
	authenticator, err := auth.NewAuthenticator(cfg, httpClient)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}
	sessionStore := auth.NewSessionStore(
		sessionRepo, authenticator, cfg.SessionSecret,
		time.Duration(cfg.SessionMaxAge)*time.Second, slog.Default(),
	)
	authService := auth.NewService(authenticator, newRoleChecker(cfg, db), sessionStore, collector, slog.Default())

	// 5. 問い合わせフロー
	sanitizer := security.NewTextSanitizer()
	emailSender, err := newEmailSender(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(emailSender, notify.DispatcherConfig{
		OperatorEmail:       cfg.OperatorEmail,
		WhatsAppNumber:      cfg.WhatsAppNumber,
		ContactPhoneDisplay: cfg.ContactPhoneDisplay,
		Timeout:             cfg.NotifyTimeout,
		Location:            cfg.Location(),
	}, collector, slog.Default())
	submitter := lead.NewSubmitter(leadRepo, collector, lead.SubmitterConfig{
		Timeout:     cfg.LeadSubmitTimeout,
		MaxAttempts: cfg.LeadSubmitMaxAttempts,
		BaseDelay:   cfg.LeadRetryBaseDelay,
	}, slog.Default())
	leadService := lead.NewService(
		lead.NewValidator(cfg.Location(), time.Now, sanitizer),
		submitter, dispatcher, collector,
		lead.FlowConfig{
			PersistFailurePolicy: cfg.LeadPersistFailurePolicy,
			WhatsAppNumber:       cfg.WhatsAppNumber,
		},
		slog.Default(),
	)

	// 6. 管理機能
	objectStore, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	contentService := admin.NewContentService(contentRepo, sanitizer)
	galleryService := admin.NewGalleryService(galleryRepo, objectStore, sanitizer, cfg.GalleryMaxUploadSize)
	leadAdminService := admin.NewLeadService(leadRepo)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitLeads, cfg.RateLimitLogin))
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		SessionFinder:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		StatusRecorder: collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		LeadService:      leadService,
		LeadAdminService: leadAdminService,

		ContentService:       contentService,
		GalleryService:       galleryService,
		GalleryMaxUploadSize: cfg.GalleryMaxUploadSize,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	// 問い合わせ送信は再試行と通知を同期で行うため、WriteTimeoutは余裕を持たせる
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッションのクリーンアップを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	if cfg.SessionBackend == "redis" {
		slog.Info("redis session backend expires sessions by TTL; cleanup only removes leftover postgres rows")
	}

	// 2. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.Start(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
