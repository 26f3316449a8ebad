package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/urbana/eventos/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	StatusRecorder    middleware.StatusRecorder

	// インフラ
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 問い合わせ
	LeadService      LeadServiceInterface
	LeadAdminService LeadAdminServiceInterface

	// サイト文言・ギャラリー
	ContentService       ContentServiceInterface
	GalleryService       GalleryServiceInterface
	GalleryMaxUploadSize int64
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → SecurityHeaders → Logging → CORS
//
// 公開フォームの送信とログインにはクライアントIPごとのレート制限をかける。
// 管理APIは AdminSession → CSRF を通過したリクエストのみ受け付ける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RealIP)
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default(), deps.StatusRecorder))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	leadHandler := NewLeadHandler(deps.LeadService)
	leadAdminHandler := NewLeadAdminHandler(deps.LeadAdminService)
	contentHandler := NewContentHandler(deps.ContentService)
	galleryHandler := NewGalleryHandler(deps.GalleryService, deps.GalleryMaxUploadSize)
	csrf := middleware.NewCSRFMiddleware(deps.CSRFConfig)

	// --- インフラ ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- 公開API ---
	r.Route("/api/leads", func(r chi.Router) {
		r.With(deps.RateLimiter.LeadSubmissionMiddleware()).Post("/", leadHandler.Submit)
		r.Post("/validate", leadHandler.Validate)
	})
	r.Get("/api/content", contentHandler.List)
	r.Get("/api/gallery", galleryHandler.ListPublic)

	// --- 管理者認証 ---
	r.Route("/auth", func(r chi.Router) {
		r.Use(csrf)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 管理API ---
	// ミドルウェアスタック: AdminSession → CSRF
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.NewAdminSessionMiddleware(deps.SessionFinder))
		r.Use(csrf)

		r.Get("/content", contentHandler.List)
		r.Put("/content", contentHandler.Update)

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", galleryHandler.ListAll)
			r.Post("/", galleryHandler.Upload)
			r.Put("/order", galleryHandler.Reorder)
			r.Patch("/{id}", galleryHandler.SetActive)
			r.Delete("/{id}", galleryHandler.Delete)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", leadAdminHandler.List)
			r.Get("/{id}", leadAdminHandler.Get)
			r.Patch("/{id}", leadAdminHandler.UpdateStatus)
			r.Delete("/{id}", leadAdminHandler.Delete)
		})
	})

	return r
}
