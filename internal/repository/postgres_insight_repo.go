package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/focusflow/internal/model"
)

// PostgresInsightRepo はPostgreSQLを使用したAIインサイトリポジトリ。
type PostgresInsightRepo struct {
	db *sql.DB
}

// NewPostgresInsightRepo はPostgresInsightRepoを生成する。
func NewPostgresInsightRepo(db *sql.DB) *PostgresInsightRepo {
	return &PostgresInsightRepo{db: db}
}

// Create はインサイトを追記する。
func (r *PostgresInsightRepo) Create(ctx context.Context, insight *model.Insight) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_insights (id, user_id, insight_text, generated_at)
		 VALUES ($1, $2, $3, $4)`,
		insight.ID, insight.UserID, insight.InsightText, insight.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}
	return nil
}

// FindLatestByUserID は最新のインサイトを取得する。存在しない場合はnilを返す。
func (r *PostgresInsightRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Insight, error) {
	insight := &model.Insight{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, insight_text, generated_at
		 FROM ai_insights
		 WHERE user_id = $1
		 ORDER BY generated_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&insight.ID, &insight.UserID, &insight.InsightText, &insight.GeneratedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest insight: %w", err)
	}

	return insight, nil
}

// compile-time interface check
var _ InsightRepository = (*PostgresInsightRepo)(nil)
