package model

import "time"

// SessionType はタイマーフェーズの種別を表す。
type SessionType string

const (
	// SessionTypeWork は作業フェーズを示す。
	SessionTypeWork SessionType = "work"
	// SessionTypeShortBreak は短い休憩フェーズを示す。
	SessionTypeShortBreak SessionType = "short_break"
	// SessionTypeLongBreak は長い休憩フェーズを示す。
	SessionTypeLongBreak SessionType = "long_break"
)

// IsValid はセッション種別が定義済みの値かどうかを返す。
func (t SessionType) IsValid() bool {
	switch t {
	case SessionTypeWork, SessionTypeShortBreak, SessionTypeLongBreak:
		return true
	}
	return false
}

// IsBreak は休憩フェーズかどうかを返す。
func (t SessionType) IsBreak() bool {
	return t == SessionTypeShortBreak || t == SessionTypeLongBreak
}

// FocusMode はタイマーモード（フェーズ時間の組み合わせ）を表す。
type FocusMode string

const (
	// ModePomodoro は25分作業/5分休憩のポモドーロモード（無料）。
	ModePomodoro FocusMode = "pomodoro"
	// ModeDeep は50分作業/10分休憩のディープワークモード（プレミアム）。
	ModeDeep FocusMode = "deep"
	// ModeFiftyTwoSeventeen は52分作業/17分休憩モード（プレミアム）。
	ModeFiftyTwoSeventeen FocusMode = "52-17"
	// ModeUltradian は90分作業/20分休憩のウルトラディアンモード（プレミアム）。
	ModeUltradian FocusMode = "ultradian"
)

// IsValid はモードが定義済みの値かどうかを返す。
func (m FocusMode) IsValid() bool {
	switch m {
	case ModePomodoro, ModeDeep, ModeFiftyTwoSeventeen, ModeUltradian:
		return true
	}
	return false
}

// Session は完了した1タイマーフェーズの記録を表す。
// フェーズ完了時に一度だけ作成され、以降は更新も削除もされない。
type Session struct {
	ID              string
	UserID          string
	Type            SessionType
	Mode            FocusMode
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
	CreatedAt       time.Time
}
