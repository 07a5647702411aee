package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/focusflow/internal/middleware"
	"github.com/hitoshi/focusflow/internal/stats"
)

// StatsServiceInterface は統計ハンドラーが必要とするサービスインターフェース。
type StatsServiceInterface interface {
	// Summary は直近7日間の集計とストリークを返す。
	Summary(ctx context.Context, userID string, now time.Time) (*stats.Summary, error)
}

// StatsHandler はダッシュボード統計のHTTPハンドラー。
type StatsHandler struct {
	service StatsServiceInterface
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(service StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: service}
}

// dayStatResponse は日別集計のAPIレスポンス。
type dayStatResponse struct {
	Date         string `json:"date"`
	Weekday      string `json:"weekday"`
	WorkMinutes  int    `json:"work_minutes"`
	WorkSessions int    `json:"work_sessions"`
}

// summaryResponse はダッシュボード統計のAPIレスポンス。
type summaryResponse struct {
	TodayWorkMinutes  int               `json:"today_work_minutes"`
	TodayBreakMinutes int               `json:"today_break_minutes"`
	TodayCycles       int               `json:"today_cycles"`
	WeekWorkMinutes   int               `json:"week_work_minutes"`
	WeekBreakMinutes  int               `json:"week_break_minutes"`
	WeekCycles        int               `json:"week_cycles"`
	FocusScore        int               `json:"focus_score"`
	DailyBreakdown    []dayStatResponse `json:"daily_breakdown"`
	StreakDays        int               `json:"streak_days"`
}

// GetSummary はダッシュボード表示用の統計を返す。
// GET /api/stats/summary
func (h *StatsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, time.Now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := summaryResponse{
		TodayWorkMinutes:  summary.TodayWorkMinutes,
		TodayBreakMinutes: summary.TodayBreakMinutes,
		TodayCycles:       summary.TodayCycles,
		WeekWorkMinutes:   summary.WeekWorkMinutes,
		WeekBreakMinutes:  summary.WeekBreakMinutes,
		WeekCycles:        summary.WeekCycles,
		FocusScore:        summary.FocusScore,
		DailyBreakdown:    make([]dayStatResponse, len(summary.DailyBreakdown)),
		StreakDays:        summary.StreakDays,
	}
	for i, d := range summary.DailyBreakdown {
		resp.DailyBreakdown[i] = dayStatResponse{
			Date:         d.Date.Format("2006-01-02"),
			Weekday:      d.Weekday,
			WorkMinutes:  d.WorkMinutes,
			WorkSessions: d.WorkSessions,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
