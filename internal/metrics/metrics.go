package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/weaveworks/promrus"

	"github.com/grussorusso/offsim/internal/config"
)

var Enabled bool
var registry = prometheus.NewRegistry()
var once sync.Once

var (
	tasksAssigned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offsim_tasks_assigned_total",
		Help: "Tasks assigned to a VM, by tier",
	}, []string{"tier"})
	tasksRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offsim_tasks_rejected_total",
		Help: "Tasks not executed, by reason",
	}, []string{"reason"})
	batchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "offsim_batch_size",
		Help:    "Number of tasks per placed batch",
		Buckets: prometheus.LinearBuckets(1, 5, 10),
	})
	solverDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "offsim_solver_duration_seconds",
		Help:    "Wall clock time spent in the external optimizer",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
	simTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "offsim_simulation_time_seconds",
		Help: "Current simulated time",
	})
)

// Init registers the collectors if metrics are enabled in the configuration.
func Init() {
	if config.GetBool(config.METRICS_ENABLED, false) {
		log.Println("Metrics enabled.")
		Enabled = true
	} else {
		log.Println("Metrics disabled.")
		Enabled = false
		return
	}

	once.Do(func() {
		registry.MustRegister(tasksAssigned, tasksRejected, batchSize, solverDuration, simTime)
		// promrus registers its counter in the default registry
		hook, err := promrus.NewPrometheusHook()
		if err != nil {
			log.Warnf("Log metrics unavailable: %v", err)
			return
		}
		log.AddHook(hook)
	})
}

// Handler exposes the simulation metrics together with the default registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers{registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func AddAssigned(tier string) {
	if Enabled {
		tasksAssigned.WithLabelValues(tier).Inc()
	}
}

func AddRejected(reason string) {
	if Enabled {
		tasksRejected.WithLabelValues(reason).Inc()
	}
}

func ObserveBatch(size int) {
	if Enabled {
		batchSize.Observe(float64(size))
	}
}

func ObserveSolver(seconds float64) {
	if Enabled {
		solverDuration.Observe(seconds)
	}
}

func SetSimTime(now float64) {
	if Enabled {
		simTime.Set(now)
	}
}
