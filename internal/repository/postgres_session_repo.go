package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/focusflow/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したタイマーフェーズ記録リポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はフェーズ記録を追記する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, session_type, mode, start_time, end_time, duration_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.UserID, string(session.Type), string(session.Mode),
		session.StartTime, session.EndTime, session.DurationSeconds, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// ListByUserSince は指定日時以降のフェーズ記録をcreated_at昇順で返す。
func (r *PostgresSessionRepo) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]*model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, session_type, mode, start_time, end_time, duration_seconds, created_at
		 FROM sessions
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at ASC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s := &model.Session{}
		var sessionType, mode string
		if err := rows.Scan(&s.ID, &s.UserID, &sessionType, &mode,
			&s.StartTime, &s.EndTime, &s.DurationSeconds, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.Type = model.SessionType(sessionType)
		s.Mode = model.FocusMode(mode)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
