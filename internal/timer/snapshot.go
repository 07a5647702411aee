package timer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/focusflow/internal/model"
)

// Snapshot はタイマー状態のシリアライズ表現。
// クライアントのローカル保存やタブ間復元に使われる。
type Snapshot struct {
	Mode            model.FocusMode   `json:"mode"`
	SecondsLeft     int               `json:"seconds_left"`
	SessionType     model.SessionType `json:"session_type"`
	StartTime       *time.Time        `json:"start_time,omitempty"`
	CompletedCycles int               `json:"completed_cycles"`
}

// Snapshot は現在のタイマー状態のスナップショットを返す。
// 進行フラグは保存されない。復元後は常に停止状態から再開する。
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Mode:            m.mode,
		SecondsLeft:     m.secondsLeft,
		SessionType:     m.phase,
		CompletedCycles: m.completedCycles,
	}
	if !m.phaseStart.IsZero() {
		t := m.phaseStart
		s.StartTime = &t
	}
	return s
}

// MarshalSnapshot はタイマー状態をJSONにシリアライズする。
func (m *Machine) MarshalSnapshot() ([]byte, error) {
	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timer snapshot: %w", err)
	}
	return data, nil
}

// RestoreMachine はJSONスナップショットからタイマーを復元する。
// プレミアム限定モードのスナップショットは無料ユーザーには復元できない。
// 不正なモード・フェーズ・負の残り秒数は拒否する。
func RestoreMachine(data []byte, isPremium bool) (*Machine, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal timer snapshot: %w", err)
	}

	cfg, err := ConfigFor(s.Mode)
	if err != nil {
		return nil, err
	}
	if cfg.Premium && !isPremium {
		return nil, fmt.Errorf("%w: %s", ErrPremiumRequired, s.Mode)
	}
	if !s.SessionType.IsValid() {
		return nil, fmt.Errorf("invalid session type in snapshot: %s", s.SessionType)
	}
	if s.SessionType == model.SessionTypeLongBreak && cfg.LongBreak == 0 {
		return nil, fmt.Errorf("mode %s has no long break phase", s.Mode)
	}
	if s.SecondsLeft < 0 {
		return nil, fmt.Errorf("negative seconds_left in snapshot: %d", s.SecondsLeft)
	}
	maxDuration, err := PhaseDuration(s.Mode, s.SessionType)
	if err != nil {
		return nil, err
	}
	if s.SecondsLeft > int(maxDuration.Seconds()) {
		return nil, fmt.Errorf("seconds_left %d exceeds phase duration for %s/%s", s.SecondsLeft, s.Mode, s.SessionType)
	}
	if s.CompletedCycles < 0 {
		return nil, fmt.Errorf("negative completed_cycles in snapshot: %d", s.CompletedCycles)
	}

	m := &Machine{
		mode:            s.Mode,
		cfg:             cfg,
		phase:           s.SessionType,
		secondsLeft:     s.SecondsLeft,
		completedCycles: s.CompletedCycles,
	}
	if s.StartTime != nil {
		m.phaseStart = *s.StartTime
	}
	return m, nil
}
