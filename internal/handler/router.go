package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/focusflow/internal/middleware"
)

// SetupAuthRoutes は認証関連のルーティングを設定したchi.Routerを返す。
func SetupAuthRoutes(service AuthServiceInterface, config AuthHandlerConfig) http.Handler {
	r := chi.NewRouter()
	h := NewAuthHandler(service, config)

	r.Route("/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/google/login", h.Login)
		r.Get("/google/callback", h.Callback)

		// セッション管理
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	// CSRF はnilの場合、CSRF保護とトークンエンドポイントを無効にする。
	CSRF *middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// タイマーセッション
	SessionService SessionServiceInterface
	SessionMetrics SessionMetrics

	// 統計
	StatsService StatsServiceInterface

	// プロファイル
	ProfileService ProfileServiceInterface

	// 課金
	BillingService   BillingServiceInterface
	WebhookVerifier  WebhookVerifier
	WebhookProcessor WebhookProcessor
	WebhookMetrics   WebhookMetrics

	// AIインサイト
	InsightService     InsightServiceInterface
	EntitlementChecker EntitlementChecker
	InsightMetrics     InsightMetrics

	// ヘルスチェック
	HealthzHandler http.HandlerFunc

	// Prometheusメトリクス（nilの場合はマウントしない）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → (CSRF) → Session → RateLimit(General)
//
// 認証ルート（/auth/*）、Stripe Webhook、ヘルスチェックは
// セッション認証の外に配置する。CSRF保護はdeps.CSRF指定時のみ有効。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通: リカバリー → リクエストログ → セキュリティヘッダー → CORS
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	sessionHandler := NewSessionHandler(deps.SessionService, deps.SessionMetrics)
	statsHandler := NewStatsHandler(deps.StatsService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	billingHandler := NewBillingHandler(deps.BillingService, deps.WebhookVerifier, deps.WebhookProcessor, deps.WebhookMetrics)
	insightHandler := NewInsightHandler(deps.InsightService, deps.EntitlementChecker, deps.InsightMetrics)

	// --- 認証不要のルート ---

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		if deps.CSRF != nil {
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(*deps.CSRF))
		}
	})

	// Stripe Webhook（呼び出し元はStripeなのでセッション認証の外）
	r.Post("/api/stripe/webhook", billingHandler.Webhook)

	// ヘルスチェック
	if deps.HealthzHandler != nil {
		r.Get("/healthz", deps.HealthzHandler)
	}

	// Prometheusメトリクス（スクレイプ元は内部ネットワークを想定）
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: (CSRF) → Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		if deps.CSRF != nil {
			r.Use(middleware.NewCSRFMiddleware(*deps.CSRF))
		}
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// タイマーセッション記録
		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.RecordSession)
			r.Get("/", sessionHandler.ListSessions)
		})

		// 統計
		r.Get("/api/stats/summary", statsHandler.GetSummary)

		// プロファイル
		r.Get("/api/profile", profileHandler.GetProfile)

		// 課金（Checkout・ポータル）
		r.Route("/api/stripe", func(r chi.Router) {
			r.Post("/create-checkout-session", billingHandler.CreateCheckoutSession)
			r.Post("/create-portal-session", billingHandler.CreatePortalSession)
		})

		// AIインサイト（プレミアム限定・生成専用レート制限を追加）
		r.Route("/api/ai", func(r chi.Router) {
			r.With(deps.RateLimiter.InsightMiddleware()).Post("/generate-insight", insightHandler.GenerateInsight)
			r.Get("/insights/latest", insightHandler.GetLatestInsight)
		})
	})

	return r
}
