package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector tracks the state of the running evaluation job for the
// in-run status server
type Collector struct {
	registry *prometheus.Registry

	jobRunning   prometheus.Gauge
	softStopSent prometheus.Gauge
	startTime    prometheus.Gauge
	exitCode     prometheus.Gauge
}

// NewCollector creates a collector labeled with the run identity
func NewCollector(runID, model string) *Collector {
	labels := prometheus.Labels{
		"run_id": runID,
		"model":  model,
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "evalrun_job_running",
			Help:        "1 while the evaluation process is running.",
			ConstLabels: labels,
		}),
		softStopSent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "evalrun_job_soft_stop_sent",
			Help:        "1 once the soft-termination signal has been delivered.",
			ConstLabels: labels,
		}),
		startTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "evalrun_job_start_timestamp_seconds",
			Help:        "Unix time the evaluation process started.",
			ConstLabels: labels,
		}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "evalrun_job_exit_code",
			Help:        "Exit code of the evaluation process, -1 while running.",
			ConstLabels: labels,
		}),
	}

	c.registry.MustRegister(c.jobRunning, c.softStopSent, c.startTime, c.exitCode)
	c.exitCode.Set(-1)
	return c
}

// JobStarted marks the job as running
func (c *Collector) JobStarted() {
	c.jobRunning.Set(1)
	c.startTime.Set(float64(time.Now().Unix()))
}

// SoftStop records delivery of the soft-termination signal
func (c *Collector) SoftStop() {
	c.softStopSent.Set(1)
}

// JobFinished records the final exit code
func (c *Collector) JobFinished(exitCode int) {
	c.jobRunning.Set(0)
	c.exitCode.Set(float64(exitCode))
}

// Handler serves the collector registry in Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
