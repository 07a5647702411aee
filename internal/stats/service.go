// Package stats はセッション記録からの集計値を計算する。
// 集計はすべて読み取り時に導出され、キャッシュは持たない。
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hitoshi/focusflow/internal/model"
	"github.com/hitoshi/focusflow/internal/repository"
)

// streakScanDays はストリーク計算で遡る最大日数。
const streakScanDays = 30

// Reader はセッション記録の集計サービス。
type Reader struct {
	sessionRepo repository.SessionRepository
}

// NewReader はReaderの新しいインスタンスを生成する。
func NewReader(sessionRepo repository.SessionRepository) *Reader {
	return &Reader{sessionRepo: sessionRepo}
}

// DayStat は1日分の作業集計。
type DayStat struct {
	Date         time.Time
	Weekday      string
	WorkMinutes  int
	WorkSessions int
}

// Summary はダッシュボード表示用の集計結果。
type Summary struct {
	TodayWorkMinutes  int
	TodayBreakMinutes int
	TodayCycles       int
	WeekWorkMinutes   int
	WeekBreakMinutes  int
	WeekCycles        int
	FocusScore        int
	DailyBreakdown    []DayStat
	StreakDays        int
}

// WeeklyReport はAIインサイトのプロンプト生成用の7日間集計。
type WeeklyReport struct {
	TotalWorkMinutes      int
	TotalBreakMinutes     int
	WorkSessions          int
	FocusScore            int
	ModeBreakdown         map[model.FocusMode]int
	Days                  []DayStat
	AvgWorkSessionMinutes int
}

// HasData は期間内に1件以上のセッション記録があるかどうかを返す。
func (r *WeeklyReport) HasData() bool {
	return r.TotalWorkMinutes > 0 || r.TotalBreakMinutes > 0 || r.WorkSessions > 0
}

// Summary は直近7日間の集計とストリークを返す。
// ストリーク計算のため30日分を1クエリで取得し、メモリ上でグループ化する。
func (r *Reader) Summary(ctx context.Context, userID string, now time.Time) (*Summary, error) {
	since := startOfDay(now).AddDate(0, 0, -(streakScanDays - 1))
	sessions, err := r.sessionRepo.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for summary: %w", err)
	}

	today := startOfDay(now)
	weekStart := today.AddDate(0, 0, -6)

	s := &Summary{}
	workByDay := make(map[time.Time]*DayStat)

	for _, sess := range sessions {
		day := startOfDayIn(sess.CreatedAt, now.Location())
		minutes := sessionMinutes(sess)

		if sess.Type == model.SessionTypeWork {
			stat, ok := workByDay[day]
			if !ok {
				stat = &DayStat{Date: day, Weekday: day.Weekday().String()[:3]}
				workByDay[day] = stat
			}
			stat.WorkMinutes += minutes
			stat.WorkSessions++
		}

		if !day.Before(weekStart) {
			if sess.Type == model.SessionTypeWork {
				s.WeekWorkMinutes += minutes
				s.WeekCycles++
			} else {
				s.WeekBreakMinutes += minutes
			}
		}
		if day.Equal(today) {
			if sess.Type == model.SessionTypeWork {
				s.TodayWorkMinutes += minutes
				s.TodayCycles++
			} else {
				s.TodayBreakMinutes += minutes
			}
		}
	}

	s.FocusScore = focusScore(s.WeekWorkMinutes, s.WeekBreakMinutes)
	s.DailyBreakdown = buildDailyBreakdown(today, workByDay)
	s.StreakDays = streak(today, workByDay)

	return s, nil
}

// WeeklyReport は直近7日間の詳細集計を返す。
func (r *Reader) WeeklyReport(ctx context.Context, userID string, now time.Time) (*WeeklyReport, error) {
	today := startOfDay(now)
	weekStart := today.AddDate(0, 0, -6)

	sessions, err := r.sessionRepo.ListByUserSince(ctx, userID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for weekly report: %w", err)
	}

	report := &WeeklyReport{
		ModeBreakdown: make(map[model.FocusMode]int),
	}
	workByDay := make(map[time.Time]*DayStat)

	for _, sess := range sessions {
		day := startOfDayIn(sess.CreatedAt, now.Location())
		if day.Before(weekStart) {
			continue
		}
		minutes := sessionMinutes(sess)

		if sess.Type == model.SessionTypeWork {
			report.TotalWorkMinutes += minutes
			report.WorkSessions++
			report.ModeBreakdown[sess.Mode]++

			stat, ok := workByDay[day]
			if !ok {
				stat = &DayStat{Date: day, Weekday: day.Weekday().String()[:3]}
				workByDay[day] = stat
			}
			stat.WorkMinutes += minutes
			stat.WorkSessions++
		} else {
			report.TotalBreakMinutes += minutes
		}
	}

	report.FocusScore = focusScore(report.TotalWorkMinutes, report.TotalBreakMinutes)
	report.Days = buildDailyBreakdown(today, workByDay)
	if report.WorkSessions > 0 {
		report.AvgWorkSessionMinutes = int(math.Round(float64(report.TotalWorkMinutes) / float64(report.WorkSessions)))
	}

	return report, nil
}

// focusScore は作業分と休憩分からフォーカススコアを計算する。
// 分母が0の場合は0を返す。
func focusScore(workMinutes, breakMinutes int) int {
	total := workMinutes + breakMinutes
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(workMinutes) / float64(total) * 100))
}

// streak は今日から遡って連続作業日数を数える。
// 今日まだ作業していなくてもストリークは途切れない。
func streak(today time.Time, workByDay map[time.Time]*DayStat) int {
	count := 0
	for i := 0; i < streakScanDays; i++ {
		day := today.AddDate(0, 0, -i)
		if stat, ok := workByDay[day]; ok && stat.WorkSessions > 0 {
			count++
			continue
		}
		if i == 0 {
			continue
		}
		break
	}
	return count
}

// buildDailyBreakdown は直近7日分の日別集計を古い順に並べる。
// 記録のない日は0分のエントリとして含める。
func buildDailyBreakdown(today time.Time, workByDay map[time.Time]*DayStat) []DayStat {
	days := make([]DayStat, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		if stat, ok := workByDay[day]; ok {
			days = append(days, *stat)
		} else {
			days = append(days, DayStat{Date: day, Weekday: day.Weekday().String()[:3]})
		}
	}
	return days
}

// sessionMinutes はセッションの分数を四捨五入で求める。
func sessionMinutes(s *model.Session) int {
	return int(math.Round(float64(s.DurationSeconds) / 60))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfDayIn(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
