// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordSessionRecorded(sessionType string)
	RecordWebhookEvent(eventType string, outcome string)
	RecordInsightGenerated()
	RecordInsightFailure()
	RecordInsightLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sessionsRecorded *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	insightSuccess   prometheus.Counter
	insightFail      prometheus.Counter
	insightLatency   prometheus.Histogram
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "focusflow_sessions_recorded_total",
			Help: "記録されたタイマーセッションのセッション種別ごとの合計数",
		}, []string{"session_type"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "focusflow_webhook_events_total",
			Help: "処理したStripe Webhookイベントのイベント種別・結果ごとの合計数",
		}, []string{"event_type", "outcome"}),
		insightSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focusflow_insight_success_total",
			Help: "AIインサイト生成成功の合計数",
		}),
		insightFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focusflow_insight_fail_total",
			Help: "AIインサイト生成失敗の合計数",
		}),
		insightLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "focusflow_insight_latency_seconds",
			Help:    "AIインサイト生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "focusflow_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.sessionsRecorded,
		c.webhookEvents,
		c.insightSuccess,
		c.insightFail,
		c.insightLatency,
		c.httpStatus,
	)

	return c
}

// RecordSessionRecorded はタイマーセッションの記録を種別ごとにカウントする。
func (c *Collector) RecordSessionRecorded(sessionType string) {
	c.sessionsRecorded.WithLabelValues(sessionType).Inc()
}

// RecordWebhookEvent はStripe Webhookイベントの処理結果を記録する。
// outcomeは "processed"、"skipped"、"failed" のいずれか。
func (c *Collector) RecordWebhookEvent(eventType string, outcome string) {
	c.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordInsightGenerated はAIインサイト生成成功を記録する。
func (c *Collector) RecordInsightGenerated() {
	c.insightSuccess.Inc()
}

// RecordInsightFailure はAIインサイト生成失敗を記録する。
func (c *Collector) RecordInsightFailure() {
	c.insightFail.Inc()
}

// RecordInsightLatency はAIインサイト生成のレイテンシを記録する。
func (c *Collector) RecordInsightLatency(duration time.Duration) {
	c.insightLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
