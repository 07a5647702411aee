package model

import "time"

// Profile はユーザーのアカウントとエンタイトルメント状態を表す。
// ユーザーごとに最大1件。初回ログイン時にupsertで作成される。
// IsPremiumはプレミアム機能の唯一のゲートであり、
// 課金プロバイダのWebhookイベント（billing.Reconciler）だけが書き換える。
type Profile struct {
	ID                   string
	UserID               string
	Email                string
	IsPremium            bool
	StripeCustomerID     *string
	StripeSubscriptionID *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Insight はAIが生成した週次サマリーを表す。追記専用。
type Insight struct {
	ID          string
	UserID      string
	InsightText string
	GeneratedAt time.Time
}
