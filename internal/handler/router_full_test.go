package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/hitoshi/focusflow/internal/middleware"
	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/session"
	"github.com/hitoshi/focusflow/internal/stats"
)

// mockSessionFinderForRouter はRouter統合テスト用のSessionFinderモック。
type mockSessionFinderForRouter struct {
	sessions map[string]*model.AuthSession
}

func (m *mockSessionFinderForRouter) FindByID(ctx context.Context, id string) (*model.AuthSession, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, nil
}

// createTestRouter はテスト用の完全なルーターを構築するヘルパー。
func createTestRouter() (http.Handler, *mockSessionFinderForRouter) {
	sessionFinder := &mockSessionFinderForRouter{
		sessions: map[string]*model.AuthSession{
			"valid-session": {
				ID:        "valid-session",
				UserID:    "user-test-1",
				ExpiresAt: time.Now().Add(1 * time.Hour),
			},
		},
	}

	deps := &RouterDeps{
		SessionFinder:     sessionFinder,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		AuthService: &mockAuthService{
			getLoginURLFn: func(state string) string {
				return "https://accounts.google.com?state=" + state
			},
			getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
				return &model.User{ID: "user-test-1", Email: "test@example.com", Name: "Test"}, nil
			},
		},
		AuthConfig: AuthHandlerConfig{BaseURL: "http://localhost:3000", SessionMaxAge: 86400},
		SessionService: &mockSessionService{
			recordFn: func(ctx context.Context, userID string, input session.RecordInput) (*model.Session, error) {
				return &model.Session{
					ID:              "sess-router-1",
					UserID:          userID,
					Type:            input.Type,
					Mode:            input.Mode,
					DurationSeconds: input.DurationSeconds,
				}, nil
			},
			listFn: func(ctx context.Context, userID string, since time.Time) ([]*model.Session, error) {
				return []*model.Session{}, nil
			},
		},
		SessionMetrics: &mockHandlerMetrics{},
		StatsService: &mockStatsService{
			summaryFn: func(ctx context.Context, userID string, now time.Time) (*stats.Summary, error) {
				return &stats.Summary{FocusScore: 80, StreakDays: 2}, nil
			},
		},
		ProfileService: &mockProfileService{
			getFn: func(ctx context.Context, userID string) (*model.Profile, error) {
				return &model.Profile{UserID: userID, Email: "test@example.com", IsPremium: true}, nil
			},
		},
		BillingService: &mockBillingService{
			checkoutFn: func(ctx context.Context, userID string) (string, error) {
				return "https://checkout.stripe.com/c/pay/cs_test", nil
			},
			portalFn: func(ctx context.Context, userID string) (string, error) {
				return "https://billing.stripe.com/p/session/test", nil
			},
		},
		WebhookVerifier: &mockWebhookVerifier{
			verifyFn: func(payload []byte, sigHeader string) (stripe.Event, error) {
				return stripe.Event{ID: "evt_router", Type: "invoice.paid"}, nil
			},
		},
		WebhookProcessor: &mockWebhookProcessor{},
		WebhookMetrics:   &mockHandlerMetrics{},
		InsightService: &mockInsightService{
			generateFn: func(ctx context.Context, userID string) (*model.Insight, error) {
				return &model.Insight{ID: "insight-router", InsightText: "## 今週の概要"}, nil
			},
			latestFn: func(ctx context.Context, userID string) (*model.Insight, error) {
				return &model.Insight{ID: "insight-router", InsightText: "## 今週の概要"}, nil
			},
		},
		EntitlementChecker: &mockEntitlementChecker{},
		InsightMetrics:     &mockHandlerMetrics{},
		HealthzHandler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	}

	router := NewRouter(deps)
	return router, sessionFinder
}

// TestNewRouter_AuthRoutes_LoginEndpoint は認証ルートが正しく設定されていることを検証する。
func TestNewRouter_AuthRoutes_LoginEndpoint(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("GET /auth/google/login status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
}

// TestNewRouter_HealthzEndpoint_NoAuthRequired はヘルスチェックが認証不要であることを検証する。
func TestNewRouter_HealthzEndpoint_NoAuthRequired(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// TestNewRouter_WebhookEndpoint_NoSessionRequired はStripe Webhookが
// セッション認証なしで到達できることを検証する。
func TestNewRouter_WebhookEndpoint_NoSessionRequired(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=x")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("POST /api/stripe/webhook status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// TestNewRouter_ProtectedRoutes_RequireSession は保護されたルートが
// セッションなしで401を返すことを検証する。
func TestNewRouter_ProtectedRoutes_RequireSession(t *testing.T) {
	router, _ := createTestRouter()

	protectedRoutes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/sessions"},
		{http.MethodGet, "/api/sessions"},
		{http.MethodGet, "/api/stats/summary"},
		{http.MethodGet, "/api/profile"},
		{http.MethodPost, "/api/stripe/create-checkout-session"},
		{http.MethodPost, "/api/stripe/create-portal-session"},
		{http.MethodPost, "/api/ai/generate-insight"},
		{http.MethodGet, "/api/ai/insights/latest"},
	}

	for _, route := range protectedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusUnauthorized {
				t.Errorf("%s %s without session: status = %d, want %d",
					route.method, route.path, w.Result().StatusCode, http.StatusUnauthorized)
			}
		})
	}
}

// TestNewRouter_RecordSession_WithSession はセッション付きでセッション記録が成功することを検証する。
func TestNewRouter_RecordSession_WithSession(t *testing.T) {
	router, _ := createTestRouter()

	body, _ := json.Marshal(recordSessionRequest{
		SessionType:     "work",
		Mode:            "pomodoro",
		DurationSeconds: 1500,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("POST /api/sessions status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
}

// TestNewRouter_StatsSummary_WithSession はセッション付きで統計取得が成功することを検証する。
func TestNewRouter_StatsSummary_WithSession(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/stats/summary status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.FocusScore != 80 {
		t.Errorf("focus_score = %d, want 80", got.FocusScore)
	}
}

// TestNewRouter_Profile_WithSession はセッション付きでプロファイル取得が成功することを検証する。
func TestNewRouter_Profile_WithSession(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /api/profile status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// TestNewRouter_GenerateInsight_WithSession はセッション付きでインサイト生成が成功することを検証する。
func TestNewRouter_GenerateInsight_WithSession(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-insight", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("POST /api/ai/generate-insight status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// TestNewRouter_CORSHeader_AppliedToAllRoutes はCORSヘッダーが全ルートに適用されることを検証する。
func TestNewRouter_CORSHeader_AppliedToAllRoutes(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	origin := w.Result().Header.Get("Access-Control-Allow-Origin")
	if origin != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", origin, "http://localhost:3000")
	}
}

// TestNewRouter_UnknownRoute_Returns404 は存在しないルートで404が返ることを検証する。
func TestNewRouter_UnknownRoute_Returns404(t *testing.T) {
	router, _ := createTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("GET /api/unknown status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// TestNewRouter_InsightRateLimit_StricterThanGeneral はインサイト生成に
// 専用のレート制限が適用されることを検証する。
func TestNewRouter_InsightRateLimit_StricterThanGeneral(t *testing.T) {
	sessionFinder := &mockSessionFinderForRouter{
		sessions: map[string]*model.AuthSession{
			"rl-session": {ID: "rl-session", UserID: "user-rl", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    200,
		InsightRate:     1,
		InsightBurst:    1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	deps := &RouterDeps{
		SessionFinder:      sessionFinder,
		CORSAllowedOrigin:  "*",
		RateLimiter:        rl,
		AuthService:        &mockAuthService{},
		SessionService:     &mockSessionService{},
		SessionMetrics:     &mockHandlerMetrics{},
		StatsService:       &mockStatsService{},
		ProfileService:     &mockProfileService{},
		BillingService:     &mockBillingService{},
		WebhookVerifier:    &mockWebhookVerifier{},
		WebhookProcessor:   &mockWebhookProcessor{},
		WebhookMetrics:     &mockHandlerMetrics{},
		InsightService: &mockInsightService{
			generateFn: func(ctx context.Context, userID string) (*model.Insight, error) {
				return &model.Insight{ID: "i", InsightText: "text"}, nil
			},
		},
		EntitlementChecker: &mockEntitlementChecker{},
		InsightMetrics:     &mockHandlerMetrics{},
	}
	router := NewRouter(deps)

	// 1回目は通る
	req1 := httptest.NewRequest(http.MethodPost, "/api/ai/generate-insight", nil)
	req1.AddCookie(&http.Cookie{Name: "session_id", Value: "rl-session"})
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	if w1.Result().StatusCode != http.StatusOK {
		t.Fatalf("request 1: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
	}

	// 2回目はインサイト専用制限で429
	req2 := httptest.NewRequest(http.MethodPost, "/api/ai/generate-insight", nil)
	req2.AddCookie(&http.Cookie{Name: "session_id", Value: "rl-session"})
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("request 2: status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// 一般APIは同じユーザーでもまだ通る
	req3 := httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil)
	req3.AddCookie(&http.Cookie{Name: "session_id", Value: "rl-session"})
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req3)

	if w3.Result().StatusCode != http.StatusOK {
		t.Errorf("general API should still be allowed: status = %d, want %d", w3.Result().StatusCode, http.StatusOK)
	}
}

// TestNewRouter_WebhookBody_ReachesVerifier はWebhookの生ボディが
// 署名検証にそのまま渡ることを検証する。
func TestNewRouter_WebhookBody_ReachesVerifier(t *testing.T) {
	sessionFinder := &mockSessionFinderForRouter{sessions: map[string]*model.AuthSession{}}

	rawBody := `{"id":"evt_raw","type":"invoice.paid"}`
	var capturedPayload string

	deps := &RouterDeps{
		SessionFinder:     sessionFinder,
		CORSAllowedOrigin: "*",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		AuthService:       &mockAuthService{},
		SessionService:    &mockSessionService{},
		SessionMetrics:    &mockHandlerMetrics{},
		StatsService:      &mockStatsService{},
		ProfileService:    &mockProfileService{},
		BillingService:    &mockBillingService{},
		WebhookVerifier: &mockWebhookVerifier{
			verifyFn: func(payload []byte, sigHeader string) (stripe.Event, error) {
				capturedPayload = string(payload)
				return stripe.Event{ID: "evt_raw", Type: "invoice.paid"}, nil
			},
		},
		WebhookProcessor:   &mockWebhookProcessor{},
		WebhookMetrics:     &mockHandlerMetrics{},
		InsightService:     &mockInsightService{},
		EntitlementChecker: &mockEntitlementChecker{},
		InsightMetrics:     &mockHandlerMetrics{},
	}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(rawBody))
	req.Header.Set("Stripe-Signature", "t=1,v1=y")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if capturedPayload != rawBody {
		t.Errorf("verifier payload = %q, want raw body %q", capturedPayload, rawBody)
	}
}

// createCSRFTestRouter はCSRF保護を有効にしたルーターを構築するヘルパー。
func createCSRFTestRouter() http.Handler {
	sessionFinder := &mockSessionFinderForRouter{
		sessions: map[string]*model.AuthSession{
			"valid-session": {
				ID:        "valid-session",
				UserID:    "user-test-1",
				ExpiresAt: time.Now().Add(1 * time.Hour),
			},
		},
	}

	return NewRouter(&RouterDeps{
		SessionFinder:     sessionFinder,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		CSRF:              &middleware.CSRFConfig{},
		AuthService:       &mockAuthService{},
		AuthConfig:        AuthHandlerConfig{BaseURL: "http://localhost:3000"},
		SessionService: &mockSessionService{
			recordFn: func(ctx context.Context, userID string, input session.RecordInput) (*model.Session, error) {
				return &model.Session{ID: "sess-csrf-1", UserID: userID, Type: input.Type, Mode: input.Mode}, nil
			},
		},
		SessionMetrics:     &mockHandlerMetrics{},
		StatsService:       &mockStatsService{},
		ProfileService:     &mockProfileService{},
		BillingService:     &mockBillingService{},
		WebhookVerifier:    &mockWebhookVerifier{},
		WebhookProcessor:   &mockWebhookProcessor{},
		WebhookMetrics:     &mockHandlerMetrics{},
		InsightService:     &mockInsightService{},
		EntitlementChecker: &mockEntitlementChecker{},
		InsightMetrics:     &mockHandlerMetrics{},
	})
}

// TestNewRouter_CSRFEnabled_POSTWithoutToken_Returns403 はCSRF有効時に
// トークンなしのPOSTが拒否されることを検証する。
func TestNewRouter_CSRFEnabled_POSTWithoutToken_Returns403(t *testing.T) {
	router := createCSRFTestRouter()

	body, _ := json.Marshal(recordSessionRequest{SessionType: "work", Mode: "pomodoro", DurationSeconds: 1500})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestNewRouter_CSRFEnabled_TokenEndpointAndPOST はトークン取得からPOST成功までの
// フローを検証する。
func TestNewRouter_CSRFEnabled_TokenEndpointAndPOST(t *testing.T) {
	router := createCSRFTestRouter()

	// 1. トークンを取得
	tokenReq := httptest.NewRequest(http.MethodGet, "/auth/csrf-token", nil)
	tokenW := httptest.NewRecorder()
	router.ServeHTTP(tokenW, tokenReq)

	if tokenW.Result().StatusCode != http.StatusOK {
		t.Fatalf("csrf-token status = %d, want %d", tokenW.Result().StatusCode, http.StatusOK)
	}

	var tokenResp map[string]string
	if err := json.NewDecoder(tokenW.Result().Body).Decode(&tokenResp); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	token := tokenResp["token"]
	if token == "" {
		t.Fatal("token should not be empty")
	}

	// 2. Cookie + ヘッダーにトークンを付けてPOST
	body, _ := json.Marshal(recordSessionRequest{SessionType: "work", Mode: "pomodoro", DurationSeconds: 1500})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	req.Header.Set("X-CSRF-Token", token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
}
