package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/focusflow/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロファイルリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, user_id, email, is_premium, stripe_customer_id, stripe_subscription_id, created_at, updated_at`

// scanProfile は1行をProfileに読み取る。
func scanProfile(row *sql.Row) (*model.Profile, error) {
	p := &model.Profile{}
	err := row.Scan(&p.ID, &p.UserID, &p.Email, &p.IsPremium,
		&p.StripeCustomerID, &p.StripeSubscriptionID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByUserID は指定ユーザーのプロファイルを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`,
		userID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by user ID: %w", err)
	}
	return p, nil
}

// FindByStripeCustomerID はStripe顧客IDでプロファイルを検索する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE stripe_customer_id = $1`,
		customerID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by stripe customer ID: %w", err)
	}
	return p, nil
}

// FindByStripeSubscriptionID はStripeサブスクリプションIDでプロファイルを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE stripe_subscription_id = $1`,
		subscriptionID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by stripe subscription ID: %w", err)
	}
	return p, nil
}

// Upsert はuser_idをキーにプロファイルを冪等に作成する。
// 既存行がある場合はemailとupdated_atのみ更新し、エンタイトルメント状態には触れない。
func (r *PostgresProfileRepo) Upsert(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, email, is_premium, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id)
		 DO UPDATE SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at`,
		profile.ID, profile.UserID, profile.Email, profile.IsPremium,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// SetStripeCustomerID はプロファイルにStripe顧客IDを記録する。
func (r *PostgresProfileRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET stripe_customer_id = $1, updated_at = now() WHERE user_id = $2`,
		customerID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer ID: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found for user: %s", userID)
	}
	return nil
}

// UpdateEntitlement はプレミアムフラグとサブスクリプションIDを上書きする。
// subscriptionIDがnilの場合はstripe_subscription_idをNULLにする。
func (r *PostgresProfileRepo) UpdateEntitlement(ctx context.Context, userID string, isPremium bool, subscriptionID *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_premium = $1, stripe_subscription_id = $2, updated_at = now() WHERE user_id = $3`,
		isPremium, subscriptionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entitlement: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
