// Package timer はフォーカスタイマーのモード定義と状態遷移を提供する。
package timer

import (
	"fmt"
	"time"

	"github.com/hitoshi/focusflow/internal/model"
)

// ModeConfig は1つのタイマーモードのフェーズ時間構成を表す。
type ModeConfig struct {
	// Label はUI表示用のモード名。
	Label string
	// Work は作業フェーズの長さ。
	Work time.Duration
	// ShortBreak は短い休憩フェーズの長さ。
	ShortBreak time.Duration
	// LongBreak は長い休憩フェーズの長さ。長い休憩がないモードでは0。
	LongBreak time.Duration
	// CyclesPerLongBreak はN回目の作業完了ごとに長い休憩へ移る周期。
	// 0の場合は長い休憩なし。
	CyclesPerLongBreak int
	// Premium はプレミアム限定モードかどうか。
	Premium bool
}

// modeCatalog は定義済みモードの構成一覧。
// pomodoroのみ無料で、他のモードはプレミアム限定。
var modeCatalog = map[model.FocusMode]ModeConfig{
	model.ModePomodoro: {
		Label:              "ポモドーロ",
		Work:               25 * time.Minute,
		ShortBreak:         5 * time.Minute,
		LongBreak:          15 * time.Minute,
		CyclesPerLongBreak: 4,
		Premium:            false,
	},
	model.ModeDeep: {
		Label:      "ディープワーク",
		Work:       50 * time.Minute,
		ShortBreak: 10 * time.Minute,
		Premium:    true,
	},
	model.ModeFiftyTwoSeventeen: {
		Label:      "52/17",
		Work:       52 * time.Minute,
		ShortBreak: 17 * time.Minute,
		Premium:    true,
	},
	model.ModeUltradian: {
		Label:      "ウルトラディアン",
		Work:       90 * time.Minute,
		ShortBreak: 20 * time.Minute,
		Premium:    true,
	},
}

// ConfigFor はモードの構成を返す。未定義のモードはエラー。
func ConfigFor(mode model.FocusMode) (ModeConfig, error) {
	cfg, ok := modeCatalog[mode]
	if !ok {
		return ModeConfig{}, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	return cfg, nil
}

// Catalog は定義済みモード構成のコピーを返す。
func Catalog() map[model.FocusMode]ModeConfig {
	out := make(map[model.FocusMode]ModeConfig, len(modeCatalog))
	for mode, cfg := range modeCatalog {
		out[mode] = cfg
	}
	return out
}

// PhaseDuration はモードとフェーズ種別から設定上のフェーズ時間を返す。
func PhaseDuration(mode model.FocusMode, kind model.SessionType) (time.Duration, error) {
	cfg, err := ConfigFor(mode)
	if err != nil {
		return 0, err
	}

	switch kind {
	case model.SessionTypeWork:
		return cfg.Work, nil
	case model.SessionTypeShortBreak:
		return cfg.ShortBreak, nil
	case model.SessionTypeLongBreak:
		if cfg.LongBreak == 0 {
			return 0, fmt.Errorf("mode %s has no long break phase", mode)
		}
		return cfg.LongBreak, nil
	default:
		return 0, fmt.Errorf("unknown session type: %s", kind)
	}
}
