package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/focusflow/internal/middleware"
	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/session"
)

// defaultSessionListDays はsinceクエリ省略時の取得期間（日数）。
const defaultSessionListDays = 7

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// Record は完了したタイマーフェーズを検証して保存する。
	Record(ctx context.Context, userID string, input session.RecordInput) (*model.Session, error)
	// List は指定時刻以降のセッション記録を新しい順に返す。
	List(ctx context.Context, userID string, since time.Time) ([]*model.Session, error)
}

// SessionMetrics はセッション記録のメトリクス収集インターフェース。
type SessionMetrics interface {
	RecordSessionRecorded(sessionType string)
}

// SessionHandler はタイマーセッション記録のHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
	metrics SessionMetrics
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface, metrics SessionMetrics) *SessionHandler {
	return &SessionHandler{
		service: service,
		metrics: metrics,
	}
}

// recordSessionRequest はセッション記録リクエストのボディ。
type recordSessionRequest struct {
	SessionType     string    `json:"session_type"`
	Mode            string    `json:"mode"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds int       `json:"duration_seconds"`
}

// sessionResponse はセッション記録のAPIレスポンス。
type sessionResponse struct {
	ID              string    `json:"id"`
	SessionType     string    `json:"session_type"`
	Mode            string    `json:"mode"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// sessionListResponse はセッション一覧のAPIレスポンス。
type sessionListResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

// RecordSession は完了したタイマーフェーズを記録する。
// POST /api/sessions
func (h *SessionHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidSessionError("リクエストボディを解析できません。"))
		return
	}

	recorded, err := h.service.Record(r.Context(), userID, session.RecordInput{
		Type:            model.SessionType(req.SessionType),
		Mode:            model.FocusMode(req.Mode),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSessionRecorded(string(recorded.Type))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toSessionResponse(recorded))
}

// ListSessions はセッション記録の履歴を返す。
// GET /api/sessions?since=2026-08-25T00:00:00Z
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	since := time.Now().AddDate(0, 0, -defaultSessionListDays)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		parsed, parseErr := time.Parse(time.RFC3339, sinceStr)
		if parseErr != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidSessionError("sinceパラメータはRFC3339形式で指定してください。"))
			return
		}
		since = parsed
	}

	sessions, err := h.service.List(r.Context(), userID, since)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := sessionListResponse{Sessions: make([]sessionResponse, len(sessions))}
	for i, s := range sessions {
		resp.Sessions[i] = toSessionResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// toSessionResponse はドメインのSessionをAPIレスポンス型に変換する。
func toSessionResponse(s *model.Session) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		SessionType:     string(s.Type),
		Mode:            string(s.Mode),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
		CreatedAt:       s.CreatedAt,
	}
}
