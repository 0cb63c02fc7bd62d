// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// サービス層のMetricsRecorderインターフェースをすべて満たす。
type Collector struct {
	checkins       *prometheus.CounterVec
	uploadBatches  *prometheus.CounterVec
	attendanceRows *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teampulse_checkins_total",
			Help: "受け付けたチェックインのリスクレベル別合計数",
		}, []string{"risk_level"}),
		uploadBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teampulse_upload_batches_total",
			Help: "勤怠アップロードバッチの結果別合計数",
		}, []string{"result"}),
		attendanceRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teampulse_attendance_rows_total",
			Help: "UPSERTされた勤怠レコードの結果別合計数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teampulse_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teampulse_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.checkins,
		c.uploadBatches,
		c.attendanceRows,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// CheckinSubmitted はチェックインの受付をリスクレベル別に記録する。
func (c *Collector) CheckinSubmitted(riskLevel string) {
	c.checkins.WithLabelValues(riskLevel).Inc()
}

// UploadBatchProcessed はアップロードバッチの結果（accepted/rejected）を記録する。
func (c *Collector) UploadBatchProcessed(result string) {
	c.uploadBatches.WithLabelValues(result).Inc()
}

// AttendanceRowUpserted は勤怠レコードのUPSERT結果（inserted/updated/skipped）を記録する。
func (c *Collector) AttendanceRowUpserted(outcome string) {
	c.attendanceRows.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
