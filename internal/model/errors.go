// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, entitlement, billing, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodePremiumRequired   = "PREMIUM_REQUIRED"
	ErrCodeInvalidSession    = "INVALID_SESSION"
	ErrCodeProfileNotFound   = "PROFILE_NOT_FOUND"
	ErrCodeCheckoutFailed    = "CHECKOUT_FAILED"
	ErrCodePortalUnavailable = "PORTAL_UNAVAILABLE"
	ErrCodeInsightFailed     = "INSIGHT_FAILED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewPremiumRequiredError はプレミアム機能へのアクセス拒否エラーを生成する。
// エンタイトルメント起因のブロックはエラーではなくアップセル導線として表示される。
func NewPremiumRequiredError(feature string) *APIError {
	return &APIError{
		Code:     ErrCodePremiumRequired,
		Message:  fmt.Sprintf("この機能はプレミアムプラン限定です: %s", feature),
		Category: "entitlement",
		Action:   "プレミアムプランにアップグレードすると利用できます。",
	}
}

// NewInvalidSessionError は不正なセッション記録リクエストのエラーを生成する。
func NewInvalidSessionError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSession,
		Message:  fmt.Sprintf("セッション記録が不正です: %s", reason),
		Category: "validation",
		Action:   "タイマーの記録内容を確認してください。",
	}
}

// NewProfileNotFoundError はプロファイルが見つからない場合のエラーを生成する。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  "プロファイルが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewCheckoutFailedError はチェックアウトセッション作成失敗のエラーを生成する。
func NewCheckoutFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCheckoutFailed,
		Message:  "チェックアウトセッションの作成に失敗しました。",
		Category: "billing",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPortalUnavailableError は課金ポータルが利用できない場合のエラーを生成する。
// 課金履歴のないユーザー（Stripe顧客が未作成）が対象。
func NewPortalUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodePortalUnavailable,
		Message:  "課金管理ポータルを利用できません。",
		Category: "billing",
		Action:   "プレミアムプランへの登録後に利用できます。",
	}
}

// NewInsightFailedError はAIインサイト生成失敗のエラーを生成する。
// 詳細はログにのみ記録し、ユーザーには一般的なメッセージを返す。
func NewInsightFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeInsightFailed,
		Message:  "インサイトの生成に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
