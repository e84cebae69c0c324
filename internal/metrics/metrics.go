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
	RecordDonation(amount int64)
	RecordRefund(amount int64)
	RecordRefundRejected()
	RecordBalanceConflict()
	RecordHTTPStatus(statusCode int)
	RecordPaymentLatency(duration time.Duration)
	RecordPartialWrite()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	donationsTotal   prometheus.Counter
	donationAmount   prometheus.Counter
	refundsTotal     prometheus.Counter
	refundAmount     prometheus.Counter
	refundRejected   prometheus.Counter
	balanceConflicts prometheus.Counter
	partialWrites    prometheus.Counter
	httpStatus       *prometheus.CounterVec
	paymentLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		donationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petpals_donations_total",
			Help: "適用された寄付の合計数",
		}),
		donationAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petpals_donation_amount_total",
			Help: "適用された寄付金額の累計",
		}),
		refundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petpals_refunds_total",
			Help: "適用された返金の合計数",
		}),
		refundAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petpals_refund_amount_total",
			Help: "適用された返金金額の累計",
		}),
		refundRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petpals_refund_rejected_total",
			Help: "残高不足で拒否された返金の合計数",
		}),
		balanceConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petpals_balance_conflict_total",
			Help: "残高更新時の競合検出の合計数",
		}),
		partialWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petpals_partial_write_total",
			Help: "残高更新後の履歴書き込み失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petpals_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		paymentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "petpals_payment_latency_seconds",
			Help:    "決済プロバイダ呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.donationsTotal,
		c.donationAmount,
		c.refundsTotal,
		c.refundAmount,
		c.refundRejected,
		c.balanceConflicts,
		c.partialWrites,
		c.httpStatus,
		c.paymentLatency,
	)

	return c
}

// RecordDonation は寄付の適用を記録する。
func (c *Collector) RecordDonation(amount int64) {
	c.donationsTotal.Inc()
	c.donationAmount.Add(float64(amount))
}

// RecordRefund は返金の適用を記録する。
func (c *Collector) RecordRefund(amount int64) {
	c.refundsTotal.Inc()
	c.refundAmount.Add(float64(amount))
}

// RecordRefundRejected は残高不足による返金拒否を記録する。
func (c *Collector) RecordRefundRejected() {
	c.refundRejected.Inc()
}

// RecordBalanceConflict は残高更新の競合検出を記録する。
func (c *Collector) RecordBalanceConflict() {
	c.balanceConflicts.Inc()
}

// RecordPartialWrite は履歴書き込み失敗を記録する。
func (c *Collector) RecordPartialWrite() {
	c.partialWrites.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordPaymentLatency は決済プロバイダ呼び出しのレイテンシを記録する。
func (c *Collector) RecordPaymentLatency(duration time.Duration) {
	c.paymentLatency.Observe(duration.Seconds())
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
