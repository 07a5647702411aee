// Package billing はStripe連携（Webhook整合・チェックアウト・ポータル）を提供する。
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// SignatureVerifier はWebhookペイロードの署名検証を行う。
type SignatureVerifier interface {
	// Verify は署名を検証し、正当なペイロードをイベントとして返す。
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

// webhookVerifier はStripeのエンドポイントシークレットによる署名検証の実装。
type webhookVerifier struct {
	secret string
}

// NewWebhookVerifier はエンドポイントシークレットで検証するSignatureVerifierを生成する。
func NewWebhookVerifier(secret string) SignatureVerifier {
	return &webhookVerifier{secret: secret}
}

func (v *webhookVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, v.secret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("failed to verify webhook signature: %w", err)
	}
	return event, nil
}

// CheckoutParams はチェックアウトセッション作成の入力。
type CheckoutParams struct {
	CustomerID  string
	UserID      string
	PriceCents  int64
	ProductName string
	SuccessURL  string
	CancelURL   string
}

// StripeClient はStripe APIへのアクセスを抽象化する。
// テストではネットワークを使わないモックに差し替える。
type StripeClient interface {
	// CreateCustomer はユーザーに対応するStripe顧客を作成し、顧客IDを返す。
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	// CreateCheckoutSession はサブスクリプション購入のチェックアウトセッションを作成し、
	// リダイレクト先URLを返す。
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
	// CreatePortalSession は課金管理ポータルのセッションを作成し、URLを返す。
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// apiClient はstripe-goのクライアントによるStripeClientの実装。
type apiClient struct {
	api *client.API
}

// NewStripeClient はシークレットキーで認証するStripeClientを生成する。
func NewStripeClient(secretKey string) StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &apiClient{api: api}
}

func (c *apiClient) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	params.AddMetadata("user_id", userID)

	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return customer.ID, nil
}

func (c *apiClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Customer:   stripe.String(p.CustomerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(p.PriceCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("user_id", p.UserID)

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.URL, nil
}

func (c *apiClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}

	session, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}
