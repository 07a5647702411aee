package insight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/repository"
	"github.com/hitoshi/focusflow/internal/security"
	"github.com/hitoshi/focusflow/internal/stats"
)

// WeeklyReporter は週次集計の取得を抽象化する。statsパッケージのReaderが実装する。
type WeeklyReporter interface {
	WeeklyReport(ctx context.Context, userID string, now time.Time) (*stats.WeeklyReport, error)
}

// Service はAIインサイトの生成と取得を担う。
// プレミアム資格の確認は呼び出し側（ハンドラ）で行う。
type Service struct {
	reporter    WeeklyReporter
	insightRepo repository.InsightRepository
	generator   TextGenerator
	sanitizer   security.MarkupSanitizerService
	timeout     time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reporter WeeklyReporter,
	insightRepo repository.InsightRepository,
	generator TextGenerator,
	sanitizer security.MarkupSanitizerService,
	timeout time.Duration,
) *Service {
	return &Service{
		reporter:    reporter,
		insightRepo: insightRepo,
		generator:   generator,
		sanitizer:   sanitizer,
		timeout:     timeout,
	}
}

// Generate は直近7日間の記録からインサイトを生成して保存し、本文を返す。
// 記録が1件もない場合は定型文を返し、モデル呼び出しも保存も行わない。
// 生成に失敗した場合は何も保存せず一般的なエラーを返す。
func (s *Service) Generate(ctx context.Context, userID string) (*model.Insight, error) {
	report, err := s.reporter.WeeklyReport(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly report: %w", err)
	}

	if !report.HasData() {
		return &model.Insight{
			UserID:      userID,
			InsightText: noDataInsight,
			GeneratedAt: time.Now(),
		}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, systemPrompt, buildUserPrompt(report))
	if err != nil {
		slog.Error("インサイト生成に失敗", "userID", userID, "error", err)
		return nil, model.NewInsightFailedError()
	}

	// モデル出力は信頼できない入力として扱い、保存前にサニタイズする
	insight := &model.Insight{
		ID:          uuid.New().String(),
		UserID:      userID,
		InsightText: s.sanitizer.Sanitize(text),
		GeneratedAt: time.Now(),
	}

	if err := s.insightRepo.Create(ctx, insight); err != nil {
		slog.Error("インサイトの保存に失敗", "userID", userID, "error", err)
		return nil, fmt.Errorf("failed to store insight: %w", err)
	}

	slog.Info("インサイトを生成", "userID", userID, "length", len(insight.InsightText))
	return insight, nil
}

// Latest は最新の保存済みインサイトを返す。存在しない場合はnilを返す。
func (s *Service) Latest(ctx context.Context, userID string) (*model.Insight, error) {
	insight, err := s.insightRepo.FindLatestByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest insight: %w", err)
	}
	return insight, nil
}
