// Package metrics records release run metrics.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder collects into a registry that
// can be written as a node-exporter textfile once the run ends.
package metrics
