package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 结果标签取值
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics 监控指标
//
// 所有方法对 nil 接收者安全，测试和命令行工具可以不创建指标。
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 业务指标
	SubmissionsTotal  *prometheus.CounterVec // 按 result/reason 统计
	UploadsTotal      *prometheus.CounterVec
	UploadSize        prometheus.Histogram
	CaptchaChecks     *prometheus.CounterVec
	CaptchaDuration   prometheus.Histogram
	OrphanFilesFound  prometheus.Counter
	OrphanFilesRemove prometheus.Counter

	// 错误指标
	PanicsTotal prometheus.Counter
}

// NewMetrics 在指定注册器上创建监控指标
//
// 传入 nil 时使用一个新的独立注册器，便于测试中重复创建。
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestbook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guestbook_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestbook_submissions_total",
				Help: "Message submissions by result",
			},
			[]string{"result", "reason"},
		),

		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestbook_uploads_total",
				Help: "Image uploads by result",
			},
			[]string{"result", "reason"},
		),

		UploadSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "guestbook_upload_size_bytes",
				Help:    "Accepted upload size in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 14),
			},
		),

		CaptchaChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestbook_captcha_verifications_total",
				Help: "Captcha verifications by outcome",
			},
			[]string{"outcome"},
		),

		CaptchaDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "guestbook_captcha_verification_duration_seconds",
				Help:    "Captcha provider round trip in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		OrphanFilesFound: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "guestbook_orphan_files_found_total",
				Help: "Content files without a media record found by reconciliation",
			},
		),

		OrphanFilesRemove: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "guestbook_orphan_files_removed_total",
				Help: "Orphan content files removed by reconciliation",
			},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "guestbook_panics_total",
				Help: "Total number of recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSubmission 记录留言提交结果
func (m *Metrics) RecordSubmission(result, reason string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(result, reason).Inc()
}

// RecordUpload 记录上传结果，size 仅在接收成功时统计
func (m *Metrics) RecordUpload(result, reason string, size int64) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(result, reason).Inc()
	if result == ResultAccepted {
		m.UploadSize.Observe(float64(size))
	}
}

// RecordCaptcha 记录一次人机验证
func (m *Metrics) RecordCaptcha(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CaptchaChecks.WithLabelValues(outcome).Inc()
	if duration > 0 {
		m.CaptchaDuration.Observe(duration.Seconds())
	}
}

// RecordOrphans 记录巡检发现与删除的孤儿文件数量
func (m *Metrics) RecordOrphans(found, removed int) {
	if m == nil {
		return
	}
	m.OrphanFilesFound.Add(float64(found))
	m.OrphanFilesRemove.Add(float64(removed))
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus 指标处理器
func (m *Metrics) HTTPHandler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
