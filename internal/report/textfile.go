package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// WriteTextfile exports the run outcome in node-exporter
// textfile-collector format. The file is written atomically so a
// concurrently scraping collector never sees a partial write.
func (r *Result) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()

	labels := prometheus.Labels{
		"run_id": r.RunID,
		"model":  r.Model,
	}

	exitCode := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "evalrun_job_exit_code",
		Help:        "Exit code of the evaluation process.",
		ConstLabels: labels,
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "evalrun_job_duration_seconds",
		Help:        "Wall-clock runtime of the evaluation process.",
		ConstLabels: labels,
	})
	softStop := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "evalrun_job_soft_stop",
		Help:        "1 if the soft-termination signal was delivered before the deadline.",
		ConstLabels: labels,
	})
	completedAt := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "evalrun_job_completed_timestamp_seconds",
		Help:        "Unix time the evaluation process exited.",
		ConstLabels: labels,
	})

	reg.MustRegister(exitCode, duration, softStop, completedAt)

	exitCode.Set(float64(r.ExitCode))
	duration.Set(r.Duration.Seconds())
	if r.SoftStopSent {
		softStop.Set(1)
	}
	completedAt.Set(float64(r.EndTime.Unix()))

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create metrics textfile: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
