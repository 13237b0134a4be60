package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soltip/soltip/logx"
)

type TipFailureReason string

var (
	TipWalletNotConnected TipFailureReason = "wallet_not_connected"
	TipInvalidCreator     TipFailureReason = "invalid_creator"
	TipSelf               TipFailureReason = "self_tip"
	TipInvalidAmount      TipFailureReason = "invalid_amount"
	TipInitFailed         TipFailureReason = "init_failed"
	TipSendFailed         TipFailureReason = "send_failed"
	TipConfirmFailed      TipFailureReason = "confirm_failed"
	TipFailedUnknown      TipFailureReason = "other"
)

type TipAccountInitResult string

var (
	TipAccountCreated  TipAccountInitResult = "created"
	TipAccountExisting TipAccountInitResult = "existing"
)

type soltipPromMetrics struct {
	upUnixSeconds      prometheus.Gauge
	submittedTipCount  prometheus.Counter
	confirmedTipCount  prometheus.Counter
	failedTipCount     *prometheus.CounterVec
	tipAccountInit     *prometheus.CounterVec
	timeToConfirmation prometheus.Histogram
	balanceFetchCount  *prometheus.CounterVec
	panicCount         prometheus.Counter
	httpRequestTime    *prometheus.HistogramVec
}

func newSoltipPromMetrics() *soltipPromMetrics {
	return &soltipPromMetrics{
		upUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "soltip_up_timestamp_unix_seconds",
				Help: "Unix timestamp of process start",
			},
		),
		submittedTipCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "soltip_submitted_tip_count",
				Help: "The total number of tip submissions that passed validation",
			},
		),
		confirmedTipCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "soltip_confirmed_tip_count",
				Help: "The total number of tips confirmed by the cluster",
			},
		),
		failedTipCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soltip_failed_tip_count",
				Help: "The total number of failed tip submissions",
			},
			[]string{"reason"},
		),
		tipAccountInit: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soltip_tip_account_init_count",
				Help: "Outcome of the initialize step of the tip flow",
			},
			[]string{"result"},
		),
		timeToConfirmation: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "soltip_time_to_confirmation",
				Help:    "Latency in second from tip submission until the cluster confirmed it",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		balanceFetchCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soltip_balance_fetch_count",
				Help: "The total number of balance lookups",
			},
			[]string{"result"},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "soltip_panic_count",
				Help: "The total number of recovered goroutine panics",
			},
		),
		httpRequestTime: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "soltip_http_request_duration_seconds",
				Help:    "Duration of web UI requests",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 10, 60},
			},
			[]string{"route"},
		),
	}
}

var metrics = newSoltipPromMetrics()

func init() {
	metrics.upUnixSeconds.SetToCurrentTime()
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

func IncreaseSubmittedTipCount() {
	metrics.submittedTipCount.Inc()
}

func IncreaseConfirmedTipCount() {
	metrics.confirmedTipCount.Inc()
}

func RecordFailedTip(reason TipFailureReason) {
	metrics.failedTipCount.With(prometheus.Labels{
		"reason": string(reason),
	}).Inc()
}

func RecordTipAccountInit(result TipAccountInitResult) {
	metrics.tipAccountInit.With(prometheus.Labels{
		"result": string(result),
	}).Inc()
}

func RecordTimeToConfirmation(duration time.Duration) {
	metrics.timeToConfirmation.Observe(duration.Seconds())
}

func RecordBalanceFetch(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	metrics.balanceFetchCount.With(prometheus.Labels{
		"result": result,
	}).Inc()
}

func IncreasePanicCount() {
	metrics.panicCount.Inc()
}

// NewHTTPTimer starts a latency observation for route; call ObserveDuration when done.
func NewHTTPTimer(route string) *prometheus.Timer {
	return prometheus.NewTimer(metrics.httpRequestTime.WithLabelValues(route))
}
