package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/stats"
)

// systemPrompt は生産性コーチとしての役割を定義する。
const systemPrompt = `あなたは経験豊富な生産性コーチです。
ユーザーの直近7日間のフォーカスタイマーの記録をもとに、
具体的で実行可能なアドバイスをMarkdownで書いてください。

次の4つのセクション見出しを必ず使うこと:
## 今週の概要
## 強み
## 改善のポイント
## 来週のおすすめ

励ましの姿勢を保ちつつ、データに基づいた指摘をしてください。`

// noDataInsight は記録がまだない場合に返す定型文。モデルは呼び出さない。
const noDataInsight = `## 今週の概要

まだセッションの記録がありません。

## 来週のおすすめ

まずはポモドーロモードで1セッション、25分の作業から始めてみましょう。
記録が貯まると、ここにあなたの作業パターンに合わせたアドバイスが表示されます。`

// modeLabels はプロンプト内でのモード表示名。
var modeLabels = map[model.FocusMode]string{
	model.ModePomodoro:          "ポモドーロ (25/5)",
	model.ModeDeep:              "ディープワーク (50/10)",
	model.ModeFiftyTwoSeventeen: "52/17",
	model.ModeUltradian:         "ウルトラディアン (90/20)",
}

// buildUserPrompt は週次レポートをプロンプト用のデータ記述に変換する。
func buildUserPrompt(report *stats.WeeklyReport) string {
	var b strings.Builder

	b.WriteString("直近7日間のフォーカスタイマーの記録:\n\n")
	fmt.Fprintf(&b, "- 合計作業時間: %d分\n", report.TotalWorkMinutes)
	fmt.Fprintf(&b, "- 合計休憩時間: %d分\n", report.TotalBreakMinutes)
	fmt.Fprintf(&b, "- 作業セッション数: %d回\n", report.WorkSessions)
	fmt.Fprintf(&b, "- 平均作業セッション長: %d分\n", report.AvgWorkSessionMinutes)
	fmt.Fprintf(&b, "- フォーカススコア: %d/100\n", report.FocusScore)

	if len(report.ModeBreakdown) > 0 {
		b.WriteString("\nモード別の作業セッション数:\n")
		modes := make([]model.FocusMode, 0, len(report.ModeBreakdown))
		for mode := range report.ModeBreakdown {
			modes = append(modes, mode)
		}
		sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
		for _, mode := range modes {
			label, ok := modeLabels[mode]
			if !ok {
				label = string(mode)
			}
			fmt.Fprintf(&b, "- %s: %d回\n", label, report.ModeBreakdown[mode])
		}
	}

	b.WriteString("\n日別の作業時間:\n")
	for _, day := range report.Days {
		fmt.Fprintf(&b, "- %s (%s): %d分 / %dセッション\n",
			day.Date.Format("2006-01-02"), day.Weekday, day.WorkMinutes, day.WorkSessions)
	}

	return b.String()
}
