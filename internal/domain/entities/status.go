package entities

import "errors"

// Status is a node of the run or package state machine.
type Status string

const (
	StatusInitial    Status = "initial"
	StatusAnalyzing  Status = "analyzing"
	StatusPending    Status = "pending"
	StatusBuilding   Status = "building"
	StatusPublishing Status = "publishing"
	StatusSkipped    Status = "skipped"
	StatusSuccess    Status = "success"
	StatusFailure    Status = "failure"
)

// ErrInvalidTransition is returned when a status change would move backwards or
// leave a terminal status.
var ErrInvalidTransition = errors.New("invalid status transition")

//nolint:gochecknoglobals // transition tables
var (
	globalTransitions = map[Status][]Status{
		StatusInitial:   {StatusAnalyzing},
		StatusAnalyzing: {StatusPending},
		StatusPending:   {StatusBuilding, StatusSuccess},
		StatusBuilding:  {StatusSuccess},
	}
	packageTransitions = map[Status][]Status{
		StatusInitial:    {StatusAnalyzing},
		StatusAnalyzing:  {StatusSkipped, StatusBuilding},
		StatusBuilding:   {StatusPublishing, StatusSuccess},
		StatusPublishing: {StatusSuccess},
	}
)

// IsTerminal reports whether no transition leaves the status.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusSkipped
}

func canTransition(table map[Status][]Status, from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailure {
		return true
	}
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
