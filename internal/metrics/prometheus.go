package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements Recorder backed by a prometheus registry.
type Prometheus struct {
	registry *prometheus.Registry

	received   *prometheus.CounterVec
	ignored    prometheus.Counter
	rejected   *prometheus.CounterVec
	attributed *prometheus.CounterVec
	sales      prometheus.Counter
	notified   *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewPrometheus creates a recorder with its own registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postback_received_total",
			Help: "Inbound postbacks by HTTP method.",
		}, []string{"method"}),
		ignored: factory.NewCounter(prometheus.CounterOpts{
			Name: "postback_ignored_total",
			Help: "Postbacks dropped by the meaningfulness gate.",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postback_rejected_total",
			Help: "Postbacks rejected before processing.",
		}, []string{"reason"}),
		attributed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postback_attributed_total",
			Help: "Attribution outcomes by mechanism.",
		}, []string{"how"}),
		sales: factory.NewCounter(prometheus.CounterOpts{
			Name: "postback_sales_total",
			Help: "Sale-like conversions processed.",
		}),
		notified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postback_notifications_total",
			Help: "Notification delivery attempts by status.",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "postback_duration_seconds",
			Help:    "End-to-end postback processing time.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns the /metrics HTTP handler for this recorder's registry.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) IncPostbackReceived(method string) {
	p.received.WithLabelValues(method).Inc()
}

func (p *Prometheus) IncPostbackIgnored() {
	p.ignored.Inc()
}

func (p *Prometheus) IncPostbackRejected(reason string) {
	p.rejected.WithLabelValues(reason).Inc()
}

func (p *Prometheus) IncPostbackAttributed(how string) {
	p.attributed.WithLabelValues(how).Inc()
}

func (p *Prometheus) IncSale() {
	p.sales.Inc()
}

func (p *Prometheus) IncNotification(status string) {
	p.notified.WithLabelValues(status).Inc()
}

func (p *Prometheus) ObservePostbackDuration(d time.Duration) {
	p.duration.Observe(d.Seconds())
}
