package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

// GlobalScope is the log scope of messages that do not belong to a package.
const GlobalScope = "~"

// StatePersister stores a full report snapshot.
type StatePersister interface {
	Persist(snapshot []byte) error
}

// Event is one entry of the run's audit trail.
type Event struct {
	Msg   string `json:"msg"`
	Scope string `json:"scope"`
	Date  int64  `json:"date"`
	Level string `json:"level"`
}

// RunState is the live report of a release run: the global status, one record per
// package and the event log. Every status change is persisted when a persister is set.
// It is shared by all scheduler goroutines, so every access takes the lock.
type RunState struct {
	mu        sync.Mutex
	id        string
	status    Status
	queue     []string
	packages  map[string]map[string]any
	events    []Event
	extra     map[string]any
	persister StatePersister
	now       func() time.Time
}

// NewRunState creates an empty report. persister may be nil.
func NewRunState(persister StatePersister) *RunState {
	return &RunState{
		id:        uuid.NewString(),
		status:    StatusInitial,
		queue:     []string{},
		packages:  map[string]map[string]any{},
		events:    []Event{},
		extra:     map[string]any{},
		persister: persister,
		now:       time.Now,
	}
}

// ID returns the unique identifier of the run.
func (it *RunState) ID() string {
	return it.id
}

// SetQueue records the processing order.
func (it *RunState) SetQueue(queue []string) *RunState {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.queue = append([]string(nil), queue...)
	return it
}

// SetPackages seeds one record per package.
func (it *RunState) SetPackages(packages map[string]*Package) *RunState {
	it.mu.Lock()
	defer it.mu.Unlock()

	it.packages = make(map[string]map[string]any, len(packages))
	for name, pkg := range packages {
		version := ""
		if pkg.Manifest != nil {
			version = pkg.Manifest.Version
		}
		it.packages[name] = map[string]any{
			"status":  StatusInitial,
			"name":    name,
			"version": version,
			"path":    pkg.AbsPath,
			"relPath": pkg.RelPath,
		}
	}
	return it
}

// Set writes value at the dotted key path, either on the whole report (empty
// pkgName) or on one package record.
func (it *RunState) Set(key string, value any, pkgName string) *RunState {
	it.mu.Lock()
	defer it.mu.Unlock()

	target := it.target(pkgName)
	if target == nil {
		return it
	}
	setPath(target, strings.Split(key, "."), value)
	return it
}

// Get reads the value at the dotted key path, or nil.
func (it *RunState) Get(key, pkgName string) any {
	it.mu.Lock()
	defer it.mu.Unlock()

	if pkgName == "" {
		switch key {
		case "status":
			return it.status
		case "queue":
			return append([]string(nil), it.queue...)
		}
	}
	target := it.target(pkgName)
	if target == nil {
		return nil
	}
	return getPath(target, strings.Split(key, "."))
}

// SetStatus moves the run (empty pkgName) or one package to a new status and
// persists the report.
func (it *RunState) SetStatus(status Status, pkgName string) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	if pkgName == "" {
		if !canTransition(globalTransitions, it.status, status) {
			return fmt.Errorf("%w: run %s -> %s", ErrInvalidTransition, it.status, status)
		}
		it.status = status
	} else {
		record, ok := it.packages[pkgName]
		if !ok {
			return fmt.Errorf("unknown package %q", pkgName)
		}
		current, _ := record["status"].(Status)
		if !canTransition(packageTransitions, current, status) {
			return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, pkgName, current, status)
		}
		record["status"] = status
	}

	it.save()
	return nil
}

// Status returns the run status (empty pkgName) or the status of one package.
func (it *RunState) Status(pkgName string) Status {
	it.mu.Lock()
	defer it.mu.Unlock()

	if pkgName == "" {
		return it.status
	}
	status, _ := it.packages[pkgName]["status"].(Status)
	return status
}

// Log appends an event and forwards it to the process logger.
func (it *RunState) Log(scope string, level logger.Level, format string, args ...any) {
	if scope == "" {
		scope = GlobalScope
	}
	msg := fmt.Sprintf(format, args...)

	it.mu.Lock()
	it.events = append(it.events, Event{
		Msg:   msg,
		Scope: scope,
		Date:  it.now().UnixMilli(),
		Level: level.String(),
	})
	it.mu.Unlock()

	logger.StandardLogger().Logf(level, "[%s] %s", scope, msg)
}

// EventLog records scoped log lines of a run.
type EventLog interface {
	Log(scope string, level logger.Level, format string, args ...any)
}

var _ EventLog = (*RunState)(nil)

// Events returns a copy of the audit trail.
func (it *RunState) Events() []Event {
	it.mu.Lock()
	defer it.mu.Unlock()
	return append([]Event(nil), it.events...)
}

// MarshalJSON encodes the full report.
func (it *RunState) MarshalJSON() ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.marshal()
}

func (it *RunState) marshal() ([]byte, error) {
	doc := make(map[string]any, len(it.extra)+5) //nolint:mnd // fixed report fields
	for key, value := range it.extra {
		doc[key] = value
	}
	doc["id"] = it.id
	doc["status"] = it.status
	doc["queue"] = it.queue
	doc["packages"] = it.packages
	doc["events"] = it.events
	return json.Marshal(doc)
}

// save persists the report; a failure is logged and otherwise ignored.
func (it *RunState) save() {
	if it.persister == nil {
		return
	}
	snapshot, err := it.marshal()
	if err == nil {
		err = it.persister.Persist(snapshot)
	}
	if err != nil {
		logger.Warnf("[%s] failed to persist run report: %v", GlobalScope, err)
	}
}

func (it *RunState) target(pkgName string) map[string]any {
	if pkgName == "" {
		return it.extra
	}
	return it.packages[pkgName]
}

func setPath(target map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := target[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[key] = next
		}
		target = next
	}
	target[path[len(path)-1]] = value
}

func getPath(target map[string]any, path []string) any {
	var current any = target
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = node[key]
	}
	return current
}
