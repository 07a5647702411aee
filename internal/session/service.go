// Package session はタイマーフェーズ記録の保存・取得機能を提供する。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/repository"
)

// Recorder は完了したタイマーフェーズの記録サービス。
// 記録は追記のみで、作成後の更新・削除は行わない。
type Recorder struct {
	sessionRepo repository.SessionRepository
}

// NewRecorder はRecorderの新しいインスタンスを生成する。
func NewRecorder(sessionRepo repository.SessionRepository) *Recorder {
	return &Recorder{sessionRepo: sessionRepo}
}

// RecordInput はフェーズ記録の入力。
type RecordInput struct {
	Type            model.SessionType
	Mode            model.FocusMode
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
}

// Record は完了したフェーズを検証して保存する。
// 保存失敗はログに残して呼び出し側へ返す。クライアント側のタイマーは
// 記録の成否に関わらず進行するため、ここでのリトライは行わない。
func (s *Recorder) Record(ctx context.Context, userID string, input RecordInput) (*model.Session, error) {
	if !input.Type.IsValid() {
		return nil, model.NewInvalidSessionError("不正なセッション種別です: " + string(input.Type))
	}
	if !input.Mode.IsValid() {
		return nil, model.NewInvalidSessionError("不正なタイマーモードです: " + string(input.Mode))
	}
	if input.DurationSeconds < 0 {
		return nil, model.NewInvalidSessionError("セッション時間は0以上である必要があります")
	}
	if input.EndTime.Before(input.StartTime) {
		return nil, model.NewInvalidSessionError("終了時刻が開始時刻より前です")
	}

	record := &model.Session{
		ID:              uuid.New().String(),
		UserID:          userID,
		Type:            input.Type,
		Mode:            input.Mode,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		DurationSeconds: input.DurationSeconds,
		CreatedAt:       time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, record); err != nil {
		slog.Error("セッション記録の保存に失敗", "userID", userID, "type", input.Type, "mode", input.Mode, "error", err)
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	return record, nil
}

// List は指定日時以降のフェーズ記録を作成日時の昇順で返す。
func (s *Recorder) List(ctx context.Context, userID string, since time.Time) ([]*model.Session, error) {
	sessions, err := s.sessionRepo.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
