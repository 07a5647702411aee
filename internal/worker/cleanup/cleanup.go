// Package cleanup は認証セッションとAIインサイトの自動削除ジョブを提供する。
// 有効期限切れの認証セッションを削除し、ユーザーごとのAIインサイトを
// 保持件数（デフォルト50件）まで日次バッチでトリムする。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れ認証セッションと古いAIインサイトの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db              Executor
	logger          *slog.Logger
	InsightsPerUser int // ユーザーごとに保持するAIインサイト件数（デフォルト: 50）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトのインサイト保持件数は50件。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:              db,
		logger:          logger,
		InsightsPerUser: 50,
	}
}

// Run は期限切れの認証セッションと保持件数を超過したAIインサイトを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionsDeleted, err := j.deleteExpiredSessions(ctx)
	if err != nil {
		return err
	}

	insightsDeleted, err := j.trimInsights(ctx)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("sessions_deleted", sessionsDeleted),
		slog.Int64("insights_deleted", insightsDeleted),
		slog.Int("insights_per_user", j.InsightsPerUser),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteExpiredSessions は有効期限を過ぎた認証セッションを削除する。
func (j *CleanupJob) deleteExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE expires_at < now()`
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	return deleted, nil
}

// trimInsights はユーザーごとに最新InsightsPerUser件を残して古いAIインサイトを削除する。
func (j *CleanupJob) trimInsights(ctx context.Context) (int64, error) {
	query := `DELETE FROM ai_insights WHERE id IN (
		SELECT id FROM (
			SELECT id, row_number() OVER (PARTITION BY user_id ORDER BY generated_at DESC) AS rn
			FROM ai_insights
		) ranked WHERE rn > $1
	)`
	result, err := j.db.ExecContext(ctx, query, j.InsightsPerUser)
	if err != nil {
		j.logger.Error("AIインサイトのトリムに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("insights_per_user", j.InsightsPerUser),
		)
		return 0, fmt.Errorf("AIインサイトのトリムに失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	return deleted, nil
}
