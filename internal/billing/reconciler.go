package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v76"

	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/repository"
)

// Webhookで処理対象とするイベント種別の閉集合。
// これ以外の種別は受領のみ行い、状態には触れない。
const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionCreated = "customer.subscription.created"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
	eventInvoicePaid         = "invoice.paid"
	eventInvoicePaymentOK    = "invoice.payment_succeeded"
)

// Reconciler はStripeのWebhookイベントをプロファイルの資格状態へ反映する。
// すべての更新は純粋な上書きで、同一イベントの再配送に対して自然に冪等。
// プロファイルが引けないイベントは警告ログを残して受領扱い（no-op）とし、
// 予期しないリポジトリエラーのみ呼び出し側へ返してStripeの再配送に委ねる。
type Reconciler struct {
	profileRepo repository.ProfileRepository
}

// NewReconciler はReconcilerの新しいインスタンスを生成する。
func NewReconciler(profileRepo repository.ProfileRepository) *Reconciler {
	return &Reconciler{profileRepo: profileRepo}
}

// HandleEvent は検証済みイベントを種別ごとに処理する。
// 戻り値がnilならイベントは受領済み（処理完了または意図的なno-op）。
func (r *Reconciler) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case eventCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, event)
	case eventSubscriptionCreated, eventSubscriptionUpdated:
		return r.handleSubscriptionChanged(ctx, event)
	case eventInvoicePaid, eventInvoicePaymentOK:
		return r.handleInvoicePaid(ctx, event)
	case eventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, event)
	default:
		slog.Info("未対応のWebhookイベントを受領", "type", event.Type, "eventID", event.ID)
		return nil
	}
}

// handleCheckoutCompleted はチェックアウト完了を処理する。
// metadataのuser_idからユーザーを特定し、プレミアムを付与する。
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session event: %w", err)
	}

	userID := session.Metadata["user_id"]
	if userID == "" {
		slog.Warn("checkout.session.completedにuser_idがありません", "eventID", event.ID)
		return nil
	}

	profile, err := r.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find profile for checkout event: %w", err)
	}
	if profile == nil {
		slog.Warn("checkoutイベントに対応するプロファイルがありません", "eventID", event.ID, "userID", userID)
		return nil
	}

	var subscriptionID *string
	if session.Subscription != nil {
		subscriptionID = &session.Subscription.ID
	}

	if err := r.profileRepo.UpdateEntitlement(ctx, userID, true, subscriptionID); err != nil {
		return fmt.Errorf("failed to update entitlement on checkout: %w", err)
	}

	slog.Info("チェックアウト完了を反映", "eventID", event.ID, "userID", userID)
	return nil
}

// handleSubscriptionChanged はサブスクリプションの作成・更新を処理する。
// ステータスがactiveまたはtrialingの場合のみプレミアムとする。
func (r *Reconciler) handleSubscriptionChanged(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription event: %w", err)
	}

	if sub.Customer == nil {
		slog.Warn("subscriptionイベントに顧客情報がありません", "eventID", event.ID)
		return nil
	}

	profile, err := r.profileRepo.FindByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to find profile for subscription event: %w", err)
	}
	if profile == nil {
		slog.Warn("subscriptionイベントに対応するプロファイルがありません", "eventID", event.ID, "customerID", sub.Customer.ID)
		return nil
	}

	isPremium := sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing

	if err := r.profileRepo.UpdateEntitlement(ctx, profile.UserID, isPremium, &sub.ID); err != nil {
		return fmt.Errorf("failed to update entitlement on subscription change: %w", err)
	}

	slog.Info("サブスクリプション状態を反映", "eventID", event.ID, "userID", profile.UserID, "status", sub.Status, "isPremium", isPremium)
	return nil
}

// handleInvoicePaid は請求の支払い成功を処理する。プレミアムを付与・維持する。
func (r *Reconciler) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice event: %w", err)
	}

	if invoice.Customer == nil {
		slog.Warn("invoiceイベントに顧客情報がありません", "eventID", event.ID)
		return nil
	}

	profile, err := r.profileRepo.FindByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to find profile for invoice event: %w", err)
	}
	if profile == nil {
		slog.Warn("invoiceイベントに対応するプロファイルがありません", "eventID", event.ID, "customerID", invoice.Customer.ID)
		return nil
	}

	// サブスクリプションIDが載っていれば更新し、なければ既存の値を保つ
	subscriptionID := profile.StripeSubscriptionID
	if invoice.Subscription != nil {
		subscriptionID = &invoice.Subscription.ID
	}

	if err := r.profileRepo.UpdateEntitlement(ctx, profile.UserID, true, subscriptionID); err != nil {
		return fmt.Errorf("failed to update entitlement on invoice paid: %w", err)
	}

	slog.Info("請求支払い成功を反映", "eventID", event.ID, "userID", profile.UserID)
	return nil
}

// handleSubscriptionDeleted はサブスクリプションの解約を処理する。
// 顧客IDでプロファイルを引けない場合はサブスクリプションIDでフォールバック検索する。
func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription deleted event: %w", err)
	}

	var profile *model.Profile
	if sub.Customer != nil {
		p, err := r.profileRepo.FindByStripeCustomerID(ctx, sub.Customer.ID)
		if err != nil {
			return fmt.Errorf("failed to find profile for subscription deleted event: %w", err)
		}
		profile = p
	}
	if profile == nil && sub.ID != "" {
		p, err := r.profileRepo.FindByStripeSubscriptionID(ctx, sub.ID)
		if err != nil {
			return fmt.Errorf("failed to find profile by subscription id: %w", err)
		}
		profile = p
	}
	if profile == nil {
		slog.Warn("解約イベントに対応するプロファイルがありません", "eventID", event.ID, "subscriptionID", sub.ID)
		return nil
	}

	if err := r.profileRepo.UpdateEntitlement(ctx, profile.UserID, false, nil); err != nil {
		return fmt.Errorf("failed to revoke entitlement on subscription deleted: %w", err)
	}

	slog.Info("サブスクリプション解約を反映", "eventID", event.ID, "userID", profile.UserID)
	return nil
}
