// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/focusflow/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// AuthSessionRepository はログインセッションの永続化インターフェース。
type AuthSessionRepository interface {
	// Create はログインセッションを作成する。
	Create(ctx context.Context, session *model.AuthSession) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AuthSession, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れの全セッションを削除し、削除件数を返す。
	// ワーカーの日次クリーンアップから呼ばれる。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProfileRepository はプロファイル（エンタイトルメント状態）の永続化インターフェース。
// IsPremiumとStripeSubscriptionIDを書き換えるUpdateEntitlementは
// billingパッケージのReconcilerだけが呼ぶこと（単一ライター不変条件）。
type ProfileRepository interface {
	// FindByUserID は指定ユーザーのプロファイルを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)

	// FindByStripeCustomerID はStripe顧客IDでプロファイルを検索する。見つからない場合はnilを返す。
	FindByStripeCustomerID(ctx context.Context, customerID string) (*model.Profile, error)

	// FindByStripeSubscriptionID はStripeサブスクリプションIDでプロファイルを検索する。
	// 見つからない場合はnilを返す。
	FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Profile, error)

	// Upsert はuser_idをキーにプロファイルを冪等に作成する。
	// 既存行がある場合はemailとupdated_atのみ更新し、エンタイトルメント状態には触れない。
	Upsert(ctx context.Context, profile *model.Profile) error

	// SetStripeCustomerID はプロファイルにStripe顧客IDを記録する。
	// チェックアウトセッション作成時の遅延顧客作成で使用する。
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error

	// UpdateEntitlement はプレミアムフラグとサブスクリプションIDを上書きする。
	// subscriptionIDがnilの場合はstripe_subscription_idをNULLにする。
	// 純粋な上書きであり、同一イベントの再配送に対して自然に冪等。
	UpdateEntitlement(ctx context.Context, userID string, isPremium bool, subscriptionID *string) error
}

// SessionRepository はタイマーフェーズ記録の永続化インターフェース。
// 記録は追記専用で、更新・削除の操作は存在しない。
type SessionRepository interface {
	// Create はフェーズ記録を追記する。
	Create(ctx context.Context, session *model.Session) error

	// ListByUserSince は指定日時以降のフェーズ記録をcreated_at昇順で返す。
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]*model.Session, error)
}

// InsightRepository はAIインサイトの永続化インターフェース。追記専用。
type InsightRepository interface {
	// Create はインサイトを追記する。
	Create(ctx context.Context, insight *model.Insight) error

	// FindLatestByUserID は最新のインサイトを取得する。存在しない場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.Insight, error)
}
