package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "crediflow_"

	resultSuccess = "success"
	resultError   = "error"

	insightsGenerated = "generated"
	insightsCached    = "cached"
	insightsFallback  = "fallback"
)

var (
	registerOnce sync.Once

	invoiceBuildTotal   *prometheus.CounterVec
	invoiceBuildLatency *prometheus.HistogramVec
	reportBuildTotal    *prometheus.CounterVec
	reportBuildLatency  *prometheus.HistogramVec

	storeWritesTotal *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	insightsTotal   *prometheus.CounterVec
	insightsLatency *prometheus.HistogramVec

	eventsPublished *prometheus.CounterVec
	eventsConsumed  *prometheus.CounterVec
	sheetsPushTotal *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
)

// Init registers the application metrics with the default registry.
// Calling it more than once is harmless.
func Init() {
	registerOnce.Do(func() {
		invoiceBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_build_total",
				Help: "Total invoice builds by result",
			},
			[]string{"result"},
		)
		invoiceBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_build_latency_seconds",
				Help:    "Invoice build latency in seconds, including store reads",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reportBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_build_total",
				Help: "Total yearly report builds by result",
			},
			[]string{"result"},
		)
		reportBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_build_latency_seconds",
				Help:    "Yearly report build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		storeWritesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_writes_total",
				Help: "Total card and purchase writes by entity, operation and result",
			},
			[]string{"entity", "operation", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export rendering latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		insightsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "insights_total",
				Help: "Total insights answers by source",
			},
			[]string{"source"},
		)
		insightsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "insights_model_latency_seconds",
				Help:    "Text generation call latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"result"},
		)

		eventsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_published_total",
				Help: "Total change events published by result",
			},
			[]string{"result"},
		)
		eventsConsumed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_consumed_total",
				Help: "Total change events handled by the worker by result",
			},
			[]string{"result"},
		)
		sheetsPushTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sheets_push_total",
				Help: "Total invoice pushes to Google Sheets by result",
			},
			[]string{"result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		)

		prometheus.MustRegister(
			invoiceBuildTotal,
			invoiceBuildLatency,
			reportBuildTotal,
			reportBuildLatency,
			storeWritesTotal,
			exportTotal,
			exportLatency,
			insightsTotal,
			insightsLatency,
			eventsPublished,
			eventsConsumed,
			sheetsPushTotal,
			httpRequests,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveInvoiceBuild records invoice build latency and result.
func ObserveInvoiceBuild(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if invoiceBuildTotal != nil {
		invoiceBuildTotal.WithLabelValues(result).Inc()
	}
	if invoiceBuildLatency != nil {
		invoiceBuildLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReportBuild records yearly report latency and result.
func ObserveReportBuild(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reportBuildTotal != nil {
		reportBuildTotal.WithLabelValues(result).Inc()
	}
	if reportBuildLatency != nil {
		reportBuildLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncStoreWrite counts a card or purchase write.
func IncStoreWrite(entity, operation, result string) {
	if result == "" {
		result = resultSuccess
	}
	if storeWritesTotal != nil {
		storeWritesTotal.WithLabelValues(entity, operation, result).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncInsights counts an insights answer by where it came from.
func IncInsights(source string) {
	if source == "" {
		source = "unknown"
	}
	if insightsTotal != nil {
		insightsTotal.WithLabelValues(source).Inc()
	}
}

// ObserveInsightsModel records a text generation call.
func ObserveInsightsModel(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if insightsLatency != nil {
		insightsLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

func IncEventPublished(result string) {
	if eventsPublished != nil {
		eventsPublished.WithLabelValues(result).Inc()
	}
}

func IncEventConsumed(result string) {
	if eventsConsumed != nil {
		eventsConsumed.WithLabelValues(result).Inc()
	}
}

func IncSheetsPush(result string) {
	if sheetsPushTotal != nil {
		sheetsPushTotal.WithLabelValues(result).Inc()
	}
}

// IncHTTPRequest counts a served request.
func IncHTTPRequest(method string, code int) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	InsightsGenerated = insightsGenerated
	InsightsCached    = insightsCached
	InsightsFallback  = insightsFallback
)
