package timer

import (
	"errors"
	"time"

	"github.com/hitoshi/focusflow/internal/model"
)

var (
	// ErrUnknownMode は未定義のタイマーモードを示す。
	ErrUnknownMode = errors.New("unknown focus mode")
	// ErrPremiumRequired はプレミアム限定モードを無料ユーザーが使おうとしたことを示す。
	ErrPremiumRequired = errors.New("premium mode requires an active subscription")
)

// CompletedPhase は完了した1フェーズの情報を表す。
// セッション記録サービスへの入力となる。
type CompletedPhase struct {
	Kind      model.SessionType
	Mode      model.FocusMode
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Machine はタイマーの有限状態機械。
// フェーズは work -> short_break -> work ... と遷移し、
// pomodoroのみ4回目の作業完了ごとに long_break を挟む。
// 並行アクセスには対応しない。呼び出し側で直列化すること。
type Machine struct {
	mode            model.FocusMode
	cfg             ModeConfig
	phase           model.SessionType
	secondsLeft     int
	running         bool
	completedCycles int
	phaseStart      time.Time
}

// NewMachine は指定モードのタイマーを作業フェーズの先頭で生成する。
func NewMachine(mode model.FocusMode) (*Machine, error) {
	cfg, err := ConfigFor(mode)
	if err != nil {
		return nil, err
	}
	return &Machine{
		mode:        mode,
		cfg:         cfg,
		phase:       model.SessionTypeWork,
		secondsLeft: int(cfg.Work.Seconds()),
	}, nil
}

// Mode は現在のモードを返す。
func (m *Machine) Mode() model.FocusMode { return m.mode }

// Phase は現在のフェーズ種別を返す。
func (m *Machine) Phase() model.SessionType { return m.phase }

// SecondsLeft は現在フェーズの残り秒数を返す。
func (m *Machine) SecondsLeft() int { return m.secondsLeft }

// Running はタイマーが進行中かどうかを返す。
func (m *Machine) Running() bool { return m.running }

// CompletedCycles は完了した作業フェーズの数を返す。
func (m *Machine) CompletedCycles() int { return m.completedCycles }

// Start はタイマーを開始する。進行中の場合は何もしない。
func (m *Machine) Start(now time.Time) {
	if m.running {
		return
	}
	m.running = true
	if m.phaseStart.IsZero() {
		m.phaseStart = now
	}
}

// Pause はタイマーを一時停止する。残り秒数とフェーズは保持される。
func (m *Machine) Pause() {
	m.running = false
}

// Reset はタイマーを作業フェーズの先頭に戻す。サイクル数もリセットされる。
func (m *Machine) Reset() {
	m.phase = model.SessionTypeWork
	m.secondsLeft = int(m.cfg.Work.Seconds())
	m.running = false
	m.completedCycles = 0
	m.phaseStart = time.Time{}
}

// Tick は1秒の経過を反映し、現在フェーズが完了したかどうかを返す。
// 停止中は何もしない。
func (m *Machine) Tick() bool {
	if !m.running || m.secondsLeft <= 0 {
		return m.running && m.secondsLeft == 0
	}
	m.secondsLeft--
	return m.secondsLeft == 0
}

// CompletePhase は現在フェーズを完了として確定し、次のフェーズへ進める。
// 完了したフェーズの情報（記録用）を返す。遷移後のタイマーは停止状態になる。
func (m *Machine) CompletePhase(now time.Time) CompletedPhase {
	duration, _ := PhaseDuration(m.mode, m.phase)

	start := m.phaseStart
	if start.IsZero() {
		start = now.Add(-duration)
	}

	done := CompletedPhase{
		Kind:      m.phase,
		Mode:      m.mode,
		StartTime: start,
		EndTime:   now,
		Duration:  duration,
	}

	next := model.SessionTypeWork
	if m.phase == model.SessionTypeWork {
		m.completedCycles++
		next = model.SessionTypeShortBreak
		if m.cfg.CyclesPerLongBreak > 0 && m.completedCycles%m.cfg.CyclesPerLongBreak == 0 {
			next = model.SessionTypeLongBreak
		}
	}

	nextDuration, _ := PhaseDuration(m.mode, next)
	m.phase = next
	m.secondsLeft = int(nextDuration.Seconds())
	m.running = false
	m.phaseStart = time.Time{}

	return done
}
