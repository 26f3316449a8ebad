package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PersistFailurePolicy は問い合わせの永続化に失敗した場合の扱いを表す。
//
// lenient: 失敗をログとメトリクスに記録したうえで利用者には成功を表示する。
// 既存サイトの挙動であり、顧客の連絡導線（WhatsApp等）を止めないことを優先する。
// strict: 送信を失敗として扱い、利用者に再送信を促す。
// どちらを正とするかはプロダクト判断待ちのため設定で切り替え可能にしている。
type PersistFailurePolicy string

const (
	PersistFailureLenient PersistFailurePolicy = "lenient"
	PersistFailureStrict  PersistFailurePolicy = "strict"
)

// AuthMode は管理者認証の方式を表す。
type AuthMode string

const (
	// AuthModeStatic は設定値のユーザー名とbcryptハッシュで認証する。
	AuthModeStatic AuthMode = "static"
	// AuthModeIdentityProvider は外部IdP（Supabase Auth互換）で認証する。
	AuthModeIdentityProvider AuthMode = "identity_provider"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionSecret  string
	SessionMaxAge  int
	SessionBackend string // "postgres" または "redis"
	RedisURL       string

	// Admin auth
	AuthMode          AuthMode
	AdminUsername     string
	AdminPasswordHash string
	IDPBaseURL        string
	IDPAPIKey         string
	IDPJWTSecret      string

	// Lead submission
	LeadPersistFailurePolicy PersistFailurePolicy
	LeadSubmitTimeout        time.Duration
	LeadSubmitMaxAttempts    int
	LeadRetryBaseDelay       time.Duration

	// Notification
	EmailProvider       string // "stub", "sendgrid", "ses"
	SendGridAPIKey      string
	EmailFrom           string
	EmailFromName       string
	OperatorEmail       string
	NotifyTimeout       time.Duration
	TimeZone            string
	WhatsAppNumber      string
	ContactPhoneDisplay string

	// Gallery storage
	AWSRegion            string
	GalleryBucket        string
	GalleryPublicBaseURL string
	GalleryMaxUploadSize int64

	// Worker
	CleanupInterval time.Duration

	// Rate Limit（req/min/IP）
	RateLimitLeads int
	RateLimitLogin int

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionBackend = getEnvString("SESSION_BACKEND", "postgres")
	cfg.RedisURL = getEnvString("REDIS_URL", "redis://localhost:6379/0")

	cfg.AuthMode = AuthMode(getEnvString("AUTH_MODE", string(AuthModeStatic)))
	cfg.AdminUsername = getEnvString("ADMIN_USERNAME", "admin")
	cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	cfg.IDPBaseURL = strings.TrimRight(os.Getenv("IDP_BASE_URL"), "/")
	cfg.IDPAPIKey = os.Getenv("IDP_API_KEY")
	cfg.IDPJWTSecret = os.Getenv("IDP_JWT_SECRET")

	cfg.LeadPersistFailurePolicy = PersistFailurePolicy(getEnvString("LEAD_PERSIST_FAILURE_POLICY", string(PersistFailureLenient)))
	cfg.LeadSubmitTimeout = getEnvDuration("LEAD_SUBMIT_TIMEOUT", 10*time.Second)
	cfg.LeadSubmitMaxAttempts = getEnvInt("LEAD_SUBMIT_MAX_ATTEMPTS", 3)
	cfg.LeadRetryBaseDelay = getEnvDuration("LEAD_RETRY_BASE_DELAY", 200*time.Millisecond)

	cfg.EmailProvider = getEnvString("EMAIL_PROVIDER", "stub")
	cfg.SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
	cfg.EmailFrom = getEnvString("EMAIL_FROM", "no-reply@urbanaeventos.uy")
	cfg.EmailFromName = getEnvString("EMAIL_FROM_NAME", "Urbana Eventos")
	cfg.OperatorEmail = getEnvString("OPERATOR_EMAIL", "afrutos.seguridad@gmail.com")
	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.TimeZone = getEnvString("TIME_ZONE", "America/Montevideo")
	cfg.WhatsAppNumber = getEnvString("WHATSAPP_NUMBER", "59897979905")
	cfg.ContactPhoneDisplay = getEnvString("CONTACT_PHONE_DISPLAY", "+598 97 979 905")

	cfg.AWSRegion = getEnvString("AWS_REGION", "us-east-1")
	cfg.GalleryBucket = os.Getenv("GALLERY_BUCKET")
	cfg.GalleryPublicBaseURL = strings.TrimRight(os.Getenv("GALLERY_PUBLIC_BASE_URL"), "/")
	cfg.GalleryMaxUploadSize = getEnvInt64("GALLERY_MAX_UPLOAD_SIZE", 10485760)

	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)

	cfg.RateLimitLeads = getEnvInt("RATE_LIMIT_LEADS", 10)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 5)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は列挙値と認証方式ごとの必須項目を検証する。
func (c *Config) validate() error {
	switch c.LeadPersistFailurePolicy {
	case PersistFailureLenient, PersistFailureStrict:
	default:
		return fmt.Errorf("invalid LEAD_PERSIST_FAILURE_POLICY: %q", c.LeadPersistFailurePolicy)
	}

	switch c.AuthMode {
	case AuthModeStatic:
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required when AUTH_MODE=static")
		}
	case AuthModeIdentityProvider:
		var missing []string
		if c.IDPBaseURL == "" {
			missing = append(missing, "IDP_BASE_URL")
		}
		if c.IDPAPIKey == "" {
			missing = append(missing, "IDP_API_KEY")
		}
		if c.IDPJWTSecret == "" {
			missing = append(missing, "IDP_JWT_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("required environment variables are not set for AUTH_MODE=identity_provider: %v", missing)
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE: %q", c.AuthMode)
	}

	switch c.SessionBackend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("invalid SESSION_BACKEND: %q", c.SessionBackend)
	}

	switch c.EmailProvider {
	case "stub", "ses":
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid")
		}
	default:
		return fmt.Errorf("invalid EMAIL_PROVIDER: %q", c.EmailProvider)
	}

	if c.LeadSubmitMaxAttempts < 1 {
		c.LeadSubmitMaxAttempts = 1
	}

	return nil
}

// Location はTimeZoneを解決する。解決できない場合はUTCを返す。
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
