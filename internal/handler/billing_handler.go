package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v76"

	"github.com/hitoshi/focusflow/internal/middleware"
)

// webhookMaxBodyBytes はWebhookリクエストボディの最大サイズ。
// Stripeの推奨値（64KB）に合わせる。
const webhookMaxBodyBytes = 65536

// BillingServiceInterface は課金ハンドラーが必要とするサービスインターフェース。
type BillingServiceInterface interface {
	// CreateCheckoutSession はStripe CheckoutセッションのURLを返す。
	CreateCheckoutSession(ctx context.Context, userID string) (string, error)
	// CreatePortalSession はStripe課金ポータルのURLを返す。
	CreatePortalSession(ctx context.Context, userID string) (string, error)
}

// WebhookVerifier はWebhook署名の検証インターフェース。
type WebhookVerifier interface {
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

// WebhookProcessor はWebhookイベントを処理するインターフェース。
type WebhookProcessor interface {
	HandleEvent(ctx context.Context, event stripe.Event) error
}

// WebhookMetrics はWebhook処理のメトリクス収集インターフェース。
type WebhookMetrics interface {
	RecordWebhookEvent(eventType string, outcome string)
}

// BillingHandler はStripe課金関連のHTTPハンドラー。
type BillingHandler struct {
	service   BillingServiceInterface
	verifier  WebhookVerifier
	processor WebhookProcessor
	metrics   WebhookMetrics
}

// NewBillingHandler はBillingHandlerを生成する。
func NewBillingHandler(service BillingServiceInterface, verifier WebhookVerifier, processor WebhookProcessor, metrics WebhookMetrics) *BillingHandler {
	return &BillingHandler{
		service:   service,
		verifier:  verifier,
		processor: processor,
		metrics:   metrics,
	}
}

// checkoutResponse はチェックアウト・ポータルURLのAPIレスポンス。
type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession はプレミアムプラン購入のCheckoutセッションを作成する。
// POST /api/stripe/create-checkout-session
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	url, err := h.service.CreateCheckoutSession(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(checkoutResponse{URL: url})
}

// CreatePortalSession は課金管理ポータルのセッションを作成する。
// POST /api/stripe/create-portal-session
func (h *BillingHandler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	url, err := h.service.CreatePortalSession(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(checkoutResponse{URL: url})
}

// Webhook はStripeからのWebhookイベントを受信する。
// POST /api/stripe/webhook
//
// 署名検証に失敗したリクエストは400、サイズ上限（64KB）を超えるボディは
// 413で拒否する。処理に失敗した場合は500を返し、Stripeの再送に委ねる。
// 対象が見つからないイベントはReconciler側でno-opとして成功扱いになる。
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	// サイズ超過は切り詰めずに413で拒否する（切り詰めると署名不一致の400になり
	// Stripeが再送し続けてしまう）
	r.Body = http.MaxBytesReader(w, r.Body, webhookMaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.Warn("webhook body too large", slog.Int64("limit", maxBytesErr.Limit))
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Error("failed to read webhook body", slog.String("error", err.Error()))
		http.Error(w, "failed to read request body", http.StatusServiceUnavailable)
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("webhook signature verification failed",
			slog.String("error", err.Error()),
		)
		h.metrics.RecordWebhookEvent("unknown", "rejected")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.processor.HandleEvent(r.Context(), event); err != nil {
		slog.Error("webhook event processing failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		h.metrics.RecordWebhookEvent(string(event.Type), "failed")
		http.Error(w, "event processing failed", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordWebhookEvent(string(event.Type), "processed")
	w.WriteHeader(http.StatusOK)
}
