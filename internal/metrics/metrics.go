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
// 問い合わせフロー・通知・ログイン・HTTP層から利用する。
type MetricsCollector interface {
	RecordLeadReceived(serviceTag string)
	RecordLeadPersistFailure()
	RecordLeadPersistRetry()
	RecordSubmission(outcome string)
	RecordSubmitLatency(duration time.Duration)
	RecordNotifyFailure(kind string)
	RecordLoginAttempt(outcome string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	leadsReceived *prometheus.CounterVec
	persistFail   prometheus.Counter
	persistRetry  prometheus.Counter
	submissions   *prometheus.CounterVec
	submitLatency prometheus.Histogram
	notifyFail    *prometheus.CounterVec
	loginAttempts *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		leadsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventos_leads_received_total",
			Help: "検証を通過した問い合わせの合計数",
		}, []string{"service_tag"}),
		persistFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventos_lead_persist_fail_total",
			Help: "問い合わせの永続化に最終的に失敗した合計数",
		}),
		persistRetry: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventos_lead_persist_retry_total",
			Help: "問い合わせ永続化のリトライ合計数",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventos_lead_submissions_total",
			Help: "送信フローの結果別合計数",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventos_lead_submit_latency_seconds",
			Help:    "問い合わせ永続化のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		notifyFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventos_notify_fail_total",
			Help: "通知メール送信失敗の合計数",
		}, []string{"kind"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventos_admin_login_attempts_total",
			Help: "管理者ログイン試行の結果別合計数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventos_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.leadsReceived,
		c.persistFail,
		c.persistRetry,
		c.submissions,
		c.submitLatency,
		c.notifyFail,
		c.loginAttempts,
		c.httpStatus,
	)

	return c
}

// RecordLeadReceived は検証を通過した問い合わせを記録する。
func (c *Collector) RecordLeadReceived(serviceTag string) {
	if serviceTag == "" {
		serviceTag = "general"
	}
	c.leadsReceived.WithLabelValues(serviceTag).Inc()
}

// RecordLeadPersistFailure は永続化の最終失敗を記録する。
func (c *Collector) RecordLeadPersistFailure() {
	c.persistFail.Inc()
}

// RecordLeadPersistRetry は永続化のリトライを記録する。
func (c *Collector) RecordLeadPersistRetry() {
	c.persistRetry.Inc()
}

// RecordSubmission は送信フローの結果（success, failed, invalid）を記録する。
func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

// RecordSubmitLatency は永続化のレイテンシを記録する。
func (c *Collector) RecordSubmitLatency(duration time.Duration) {
	c.submitLatency.Observe(duration.Seconds())
}

// RecordNotifyFailure は通知失敗を記録する。kindはconfirmationまたはoperator。
func (c *Collector) RecordNotifyFailure(kind string) {
	c.notifyFail.WithLabelValues(kind).Inc()
}

// RecordLoginAttempt はログイン試行の結果を記録する。
func (c *Collector) RecordLoginAttempt(outcome string) {
	c.loginAttempts.WithLabelValues(outcome).Inc()
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
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
