package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/focusflow/internal/entitlement"
	"github.com/hitoshi/focusflow/internal/middleware"
	"github.com/hitoshi/focusflow/internal/model"
)

// ProfileServiceInterface はプロファイルハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// Get は指定ユーザーのプロファイルを返す。
	Get(ctx context.Context, userID string) (*model.Profile, error)
}

// ProfileHandler はプロファイル参照のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// profileResponse はプロファイルのAPIレスポンス。
// featuresは機能名から利用可否へのマップで、フロントエンドの
// ゲート表示（利用可 or アップセル）にそのまま使える。
type profileResponse struct {
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	IsPremium bool            `json:"is_premium"`
	Features  map[string]bool `json:"features"`
}

// GetProfile は現在のユーザーのプロファイルと機能一覧を返す。
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	features := make(map[string]bool, len(entitlement.AllFeatures))
	for _, f := range entitlement.AllFeatures {
		features[string(f)] = entitlement.Decide(profile.IsPremium, f) == entitlement.Allow
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profileResponse{
		UserID:    profile.UserID,
		Email:     profile.Email,
		IsPremium: profile.IsPremium,
		Features:  features,
	})
}
