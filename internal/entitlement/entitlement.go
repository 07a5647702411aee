// Package entitlement はプレミアム資格の参照と機能ゲートの判定を提供する。
// 資格状態の書き込みはbillingパッケージのReconcilerに限定され、
// このパッケージは読み取り専用の参照系のみを持つ。
package entitlement

import (
	"context"
	"fmt"

	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/repository"
)

// Feature はゲート判定の対象となる機能の閉じた列挙。
type Feature string

const (
	// FeatureTimer は基本タイマー機能（無料）。
	FeatureTimer Feature = "timer"
	// FeaturePomodoroMode はポモドーロモード（無料）。
	FeaturePomodoroMode Feature = "pomodoro_mode"
	// FeatureHistory はセッション履歴の閲覧（無料）。
	FeatureHistory Feature = "history"
	// FeaturePremiumModes はディープワーク・52/17・ウルトラディアンモード（プレミアム）。
	FeaturePremiumModes Feature = "premium_modes"
	// FeatureInsights はAIインサイト生成（プレミアム）。
	FeatureInsights Feature = "ai_insights"
	// FeatureDetailedAnalytics は詳細な分析表示（プレミアム）。
	FeatureDetailedAnalytics Feature = "detailed_analytics"
)

// premiumFeatures はプレミアム資格が必要な機能のセット。
// ここに載っていない定義済み機能は常に許可される。
var premiumFeatures = map[Feature]bool{
	FeaturePremiumModes:      true,
	FeatureInsights:          true,
	FeatureDetailedAnalytics: true,
}

// knownFeatures は定義済み機能のセット。未知の機能はブロックする。
var knownFeatures = map[Feature]bool{
	FeatureTimer:             true,
	FeaturePomodoroMode:      true,
	FeatureHistory:           true,
	FeaturePremiumModes:      true,
	FeatureInsights:          true,
	FeatureDetailedAnalytics: true,
}

// AllFeatures は定義済み機能の一覧。プロファイルAPIの機能リスト生成に使う。
var AllFeatures = []Feature{
	FeatureTimer,
	FeaturePomodoroMode,
	FeatureHistory,
	FeaturePremiumModes,
	FeatureInsights,
	FeatureDetailedAnalytics,
}

// Decision は機能ゲートの判定結果。
type Decision int

const (
	// Allow は機能の利用を許可する。
	Allow Decision = iota
	// BlockWithUpsell は利用をブロックし、アップグレード導線を表示する。
	// エンタイトルメント起因のブロックはエラーではなく正常な分岐として扱う。
	BlockWithUpsell
)

// Decide は資格状態と機能から利用可否を判定する純粋関数。
func Decide(isPremium bool, feature Feature) Decision {
	if !knownFeatures[feature] {
		return BlockWithUpsell
	}
	if premiumFeatures[feature] && !isPremium {
		return BlockWithUpsell
	}
	return Allow
}

// Store はプロファイルから資格状態を参照するサービス。
type Store struct {
	profileRepo repository.ProfileRepository
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore(profileRepo repository.ProfileRepository) *Store {
	return &Store{profileRepo: profileRepo}
}

// Get は指定ユーザーのプロファイルを返す。
// プロファイルが存在しない場合はProfileNotFoundエラーを返す。
func (s *Store) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError()
	}
	return profile, nil
}

// IsPremium は指定ユーザーがプレミアム資格を持つかどうかを返す。
// プロファイルが存在しない場合はfalseを返す（エラーにしない）。
func (s *Store) IsPremium(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return false, nil
	}
	return profile.IsPremium, nil
}

// Check は機能ゲートをまとめて判定する。
// プレミアムが必要な機能をブロックする場合はPremiumRequiredエラーを返す。
func (s *Store) Check(ctx context.Context, userID string, feature Feature) error {
	isPremium, err := s.IsPremium(ctx, userID)
	if err != nil {
		return err
	}
	if Decide(isPremium, feature) == BlockWithUpsell {
		return model.NewPremiumRequiredError(string(feature))
	}
	return nil
}
