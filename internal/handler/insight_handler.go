package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/focusflow/internal/entitlement"
	"github.com/hitoshi/focusflow/internal/middleware"
	"github.com/hitoshi/focusflow/internal/model"
)

// InsightServiceInterface はインサイトハンドラーが必要とするサービスインターフェース。
type InsightServiceInterface interface {
	// Generate は直近7日間の統計からAIインサイトを生成する。
	Generate(ctx context.Context, userID string) (*model.Insight, error)
	// Latest は最新の保存済みインサイトを返す。未生成の場合はnil。
	Latest(ctx context.Context, userID string) (*model.Insight, error)
}

// EntitlementChecker はプレミアム機能ゲートの判定インターフェース。
type EntitlementChecker interface {
	// Check は指定機能の利用資格を検証し、資格がなければAPIErrorを返す。
	Check(ctx context.Context, userID string, feature entitlement.Feature) error
}

// InsightMetrics はインサイト生成のメトリクス収集インターフェース。
type InsightMetrics interface {
	RecordInsightGenerated()
	RecordInsightFailure()
	RecordInsightLatency(duration time.Duration)
}

// InsightHandler はAIインサイトのHTTPハンドラー。
type InsightHandler struct {
	service InsightServiceInterface
	checker EntitlementChecker
	metrics InsightMetrics
}

// NewInsightHandler はInsightHandlerを生成する。
func NewInsightHandler(service InsightServiceInterface, checker EntitlementChecker, metrics InsightMetrics) *InsightHandler {
	return &InsightHandler{
		service: service,
		checker: checker,
		metrics: metrics,
	}
}

// insightResponse はAIインサイトのAPIレスポンス。
type insightResponse struct {
	ID          string    `json:"id,omitempty"`
	InsightText string    `json:"insight_text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GenerateInsight は週次の生産性インサイトを生成する。プレミアム限定。
// POST /api/ai/generate-insight
func (h *InsightHandler) GenerateInsight(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.checker.Check(r.Context(), userID, entitlement.FeatureInsights); err != nil {
		handleServiceError(w, err)
		return
	}

	start := time.Now()
	insight, err := h.service.Generate(r.Context(), userID)
	h.metrics.RecordInsightLatency(time.Since(start))
	if err != nil {
		h.metrics.RecordInsightFailure()
		handleServiceError(w, err)
		return
	}
	h.metrics.RecordInsightGenerated()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(insightResponse{
		ID:          insight.ID,
		InsightText: insight.InsightText,
		GeneratedAt: insight.GeneratedAt,
	})
}

// GetLatestInsight は最新の保存済みインサイトを返す。プレミアム限定。
// GET /api/ai/insights/latest
func (h *InsightHandler) GetLatestInsight(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.checker.Check(r.Context(), userID, entitlement.FeatureInsights); err != nil {
		handleServiceError(w, err)
		return
	}

	insight, err := h.service.Latest(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if insight == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "INSIGHT_NOT_FOUND",
			Message:  "保存済みのインサイトがありません。",
			Category: "validation",
			Action:   "インサイトを生成してください。",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(insightResponse{
		ID:          insight.ID,
		InsightText: insight.InsightText,
		GeneratedAt: insight.GeneratedAt,
	})
}
