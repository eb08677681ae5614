package metrics

import "time"

// OutcomeLabel is the final status of a run.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailure OutcomeLabel = "failure"
)

// Step names used with ObserveStep.
const (
	StepAnalyze = "analyze"
	StepBuild   = "build"
	StepPublish = "publish"
)

// Recorder is the metrics surface used by the release command.
type Recorder interface {
	IncPackageStatus(status string)
	ObserveStep(step string, d time.Duration, success bool)
	IncCommand(success bool)
	SetCommandsInFlight(n int)
	IncRunOutcome(outcome OutcomeLabel)
}

// NoopRecorder drops everything.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) IncPackageStatus(string)                  {}
func (NoopRecorder) ObserveStep(string, time.Duration, bool) {}
func (NoopRecorder) IncCommand(bool)                          {}
func (NoopRecorder) SetCommandsInFlight(int)                  {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)               {}
