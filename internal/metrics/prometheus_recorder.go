package metrics

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "monorelease"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	reg             *prom.Registry
	packageStatuses *prom.CounterVec
	stepDuration    *prom.HistogramVec
	commands        *prom.CounterVec
	commandsRunning prom.Gauge
	runOutcome      *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the release metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.packageStatuses = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "package_status_total",
			Help:      "Package status transitions by target status",
		}, []string{"status"})
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of analyze, build and publish steps per package",
			Buckets:   prom.DefBuckets,
		}, []string{"step", "result"})
		pr.commands = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Shell commands executed by result",
		}, []string{"result"})
		pr.commandsRunning = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "commands_in_flight",
			Help:      "Shell commands currently running",
		})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Release runs by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.packageStatuses, pr.stepDuration, pr.commands, pr.commandsRunning, pr.runOutcome)
	})
	return pr
}

var _ Recorder = (*PrometheusRecorder)(nil)

func (p *PrometheusRecorder) IncPackageStatus(status string) {
	if p == nil || p.packageStatuses == nil {
		return
	}
	p.packageStatuses.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveStep(step string, d time.Duration, success bool) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step, resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCommand(success bool) {
	if p == nil || p.commands == nil {
		return
	}
	p.commands.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) SetCommandsInFlight(n int) {
	if p == nil || p.commandsRunning == nil {
		return
	}
	p.commandsRunning.Set(float64(n))
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node-exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.reg == nil {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
