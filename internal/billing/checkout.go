package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/repository"
)

// CheckoutConfig はチェックアウトサービスの設定。
type CheckoutConfig struct {
	// BaseURL は成功・キャンセル・ポータル復帰のリダイレクト先の起点。
	BaseURL string
	// PriceCents は月額料金（USDセント）。
	PriceCents int64
	// ProductName は商品表示名。
	ProductName string
}

// CheckoutService はチェックアウトセッションとポータルセッションの作成を担う。
// Stripe顧客はチェックアウト開始時に遅延作成し、顧客IDをプロファイルへ記録する。
type CheckoutService struct {
	profileRepo repository.ProfileRepository
	stripe      StripeClient
	cfg         CheckoutConfig
}

// NewCheckoutService はCheckoutServiceの新しいインスタンスを生成する。
func NewCheckoutService(profileRepo repository.ProfileRepository, stripe StripeClient, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{
		profileRepo: profileRepo,
		stripe:      stripe,
		cfg:         cfg,
	}
}

// CreateCheckoutSession はサブスクリプション購入のチェックアウトセッションを作成し、
// リダイレクト先URLを返す。Stripe顧客が未作成の場合はここで作成する。
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, userID string) (string, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find profile for checkout: %w", err)
	}
	if profile == nil {
		return "", model.NewProfileNotFoundError()
	}

	var customerID string
	if profile.StripeCustomerID != nil {
		customerID = *profile.StripeCustomerID
	} else {
		customerID, err = s.stripe.CreateCustomer(ctx, profile.Email, userID)
		if err != nil {
			slog.Error("Stripe顧客の作成に失敗", "userID", userID, "error", err)
			return "", model.NewCheckoutFailedError()
		}
		if err := s.profileRepo.SetStripeCustomerID(ctx, userID, customerID); err != nil {
			return "", fmt.Errorf("failed to persist stripe customer id: %w", err)
		}
	}

	url, err := s.stripe.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID:  customerID,
		UserID:      userID,
		PriceCents:  s.cfg.PriceCents,
		ProductName: s.cfg.ProductName,
		SuccessURL:  s.cfg.BaseURL + "/billing/success",
		CancelURL:   s.cfg.BaseURL + "/billing/cancel",
	})
	if err != nil {
		slog.Error("チェックアウトセッションの作成に失敗", "userID", userID, "error", err)
		return "", model.NewCheckoutFailedError()
	}

	slog.Info("チェックアウトセッションを作成", "userID", userID, "customerID", customerID)
	return url, nil
}

// CreatePortalSession は課金管理ポータルのURLを返す。
// Stripe顧客が存在しない（課金履歴のない）ユーザーには利用不可エラーを返す。
func (s *CheckoutService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find profile for portal: %w", err)
	}
	if profile == nil {
		return "", model.NewProfileNotFoundError()
	}
	if profile.StripeCustomerID == nil {
		return "", model.NewPortalUnavailableError()
	}

	url, err := s.stripe.CreatePortalSession(ctx, *profile.StripeCustomerID, s.cfg.BaseURL+"/billing")
	if err != nil {
		slog.Error("ポータルセッションの作成に失敗", "userID", userID, "error", err)
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return url, nil
}
