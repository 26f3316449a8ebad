package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/urbana/eventos/internal/config"
	"github.com/urbana/eventos/internal/metrics"
	"github.com/urbana/eventos/internal/middleware"
	"github.com/urbana/eventos/internal/model"
)

// stubSessionFinder はmiddleware.SessionFinderのモック実装。
type stubSessionFinder struct {
	sessions map[string]*model.AdminSession
}

func (f *stubSessionFinder) CurrentSession(_ context.Context, id string) (*model.AdminSession, error) {
	return f.sessions[id], nil
}

type stubHealthChecker struct {
	err error
}

func (c *stubHealthChecker) PingContext(context.Context) error {
	return c.err
}

type routerFixture struct {
	handler   http.Handler
	collector *metrics.Collector
	leads     *mockLeadAdminService
	submitter *stubSubmitter
}

func newRouterFixture(t *testing.T, health HealthChecker) *routerFixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(2, 1))
	t.Cleanup(limiter.Stop)

	leads := &mockLeadAdminService{
		listFn: func(context.Context, string, int) ([]*model.Lead, error) {
			return []*model.Lead{{ID: "lead-1", Status: model.LeadStatusNew}}, nil
		},
	}
	submitter := &stubSubmitter{}

	deps := &RouterDeps{
		SessionFinder: &stubSessionFinder{sessions: map[string]*model.AdminSession{
			"valid-session": {
				ID:         "valid-session",
				IdentityID: "admin",
				Role:       model.RoleAdmin,
				ExpiresAt:  time.Now().Add(time.Hour),
			},
		}},
		CORSAllowedOrigin: "https://urbanaeventos.uy",
		RateLimiter:       limiter,
		CSRFConfig:        middleware.CSRFConfig{},
		StatusRecorder:    collector,
		HealthChecker:     health,
		MetricsHandler:    metrics.Handler(reg),
		AuthService: &mockAuthService{
			loginFn: func(context.Context, string, string) (*model.AdminSession, error) {
				return testAdminSession(), nil
			},
		},
		AuthConfig:       AuthHandlerConfig{SessionMaxAge: 3600},
		LeadService:      newTestLeadService(submitter, &stubNotifier{}, config.PersistFailureLenient),
		LeadAdminService: leads,
		ContentService: &mockContentService{
			updateFn: func(_ context.Context, entries map[string]string) ([]*model.SiteContent, error) {
				return []*model.SiteContent{{ID: "hero_title", Content: entries["hero_title"]}}, nil
			},
		},
		GalleryService:       &mockGalleryService{},
		GalleryMaxUploadSize: 5 << 20,
	}

	return &routerFixture{
		handler:   NewRouter(deps),
		collector: collector,
		leads:     leads,
		submitter: submitter,
	}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// withCSRF はCookieとヘッダーに同じCSRFトークンを設定する。
func withCSRF(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-token"})
	req.Header.Set("X-CSRF-Token", "test-token")
	return req
}

func withSession(req *http.Request, id string) *http.Request {
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: id})
	return req
}

func TestRouter_Health(t *testing.T) {
	t.Run("DB疎通あり", func(t *testing.T) {
		f := newRouterFixture(t, &stubHealthChecker{})
		rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("DB疎通なし", func(t *testing.T) {
		f := newRouterFixture(t, &stubHealthChecker{err: errors.New("down")})
		rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	req.Header.Set("Origin", "https://urbanaeventos.uy")
	rec := f.do(req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://urbanaeventos.uy" {
		t.Errorf("Access-Control-Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRouter_AdminRoutes_RequireSession(t *testing.T) {
	f := newRouterFixture(t, nil)

	tests := []struct {
		name    string
		session string
		want    int
	}{
		{"Cookieなし", "", http.StatusUnauthorized},
		{"不明なセッション", "unknown", http.StatusUnauthorized},
		{"有効なセッション", "valid-session", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil)
			if tt.session != "" {
				withSession(req, tt.session)
			}
			if rec := f.do(req); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRouter_AdminMutations_RequireCSRF(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := withSession(httptest.NewRequest(http.MethodPut, "/api/admin/content", strings.NewReader(`{"hero_title":"Hola"}`)), "valid-session")
	if rec := f.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("without CSRF: status = %d, want 403", rec.Code)
	}

	req = withCSRF(withSession(httptest.NewRequest(http.MethodPut, "/api/admin/content", strings.NewReader(`{"hero_title":"Hola"}`)), "valid-session"))
	if rec := f.do(req); rec.Code != http.StatusOK {
		t.Errorf("with CSRF: status = %d, want 200", rec.Code)
	}
}

func TestRouter_PublicLeadForm_NoCSRFButRateLimited(t *testing.T) {
	f := newRouterFixture(t, nil)

	for i := 0; i < 2; i++ {
		rec := f.do(httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(validLeadJSON)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want 201 (%s)", i+1, rec.Code, rec.Body.String())
		}
	}

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(validLeadJSON)))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if f.submitter.calls != 2 {
		t.Errorf("submitter calls = %d, want 2", f.submitter.calls)
	}

	// 検証エンドポイントはレート制限の対象外
	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/leads/validate", strings.NewReader(validLeadJSON)))
	if rec.Code != http.StatusOK {
		t.Errorf("validate: status = %d, want 200", rec.Code)
	}
}

func TestRouter_Login_CSRFAndRateLimit(t *testing.T) {
	f := newRouterFixture(t, nil)
	body := `{"username":"admin","password":"x"}`

	rec := f.do(httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("without CSRF: status = %d, want 403", rec.Code)
	}

	rec = f.do(withCSRF(httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))))
	if rec.Code != http.StatusOK {
		t.Fatalf("first login: status = %d, want 200", rec.Code)
	}

	rec = f.do(withCSRF(httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second login: status = %d, want 429", rec.Code)
	}
}

func TestRouter_MetricsEndpoint_ExposesHTTPStatuses(t *testing.T) {
	f := newRouterFixture(t, nil)

	f.do(httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(data), `eventos_http_status_total{status_code="401"}`) {
		t.Errorf("expected 401 counter in metrics output:\n%s", data)
	}
}

func TestRouter_UnknownRoute_Returns404(t *testing.T) {
	f := newRouterFixture(t, nil)
	if rec := f.do(httptest.NewRequest(http.MethodGet, "/api/feeds", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
