// Package audit provides api.Audit implementations for plugin lifecycle events.
package audit

import (
	"sync"
	"time"

	"github.com/srediag/plugin-xplm/api"
	internal "github.com/srediag/plugin-xplm/internal/audit"
	"github.com/srediag/plugin-xplm/internal/logging"
)

// Logger writes events to a logging.Logger. Events listed in Quiet are
// logged at debug level, everything else at warn so that it shows with the
// default level.
type Logger struct {
	log   *logging.Logger
	Quiet map[string]bool
}

var _ api.Audit = (*Logger)(nil)

// NewLogger returns a Logger writing to log.
func NewLogger(log *logging.Logger) *Logger {
	return &Logger{log: log.Named("audit"), Quiet: map[string]bool{}}
}

func (l *Logger) LogEvent(event string, details map[string]interface{}) error {
	line := internal.FormatEvent(event, details)
	if l.Quiet[event] {
		l.log.Debugf("%s", line)
		return nil
	}
	l.log.Warnf("%s", line)
	return nil
}

// Event is one recorded audit event.
type Event struct {
	Time    time.Time
	Name    string
	Details map[string]interface{}
}

func (e Event) String() string {
	return internal.FormatEvent(e.Name, e.Details)
}

// Recorder keeps the most recent events in memory.
type Recorder struct {
	mu     sync.Mutex
	max    int
	events []Event
}

var _ api.Audit = (*Recorder)(nil)

// NewRecorder keeps at most max events; 0 keeps everything.
func NewRecorder(max int) *Recorder {
	return &Recorder{max: max}
}

func (r *Recorder) LogEvent(event string, details map[string]interface{}) error {
	cp := make(map[string]interface{}, len(details))
	for k, v := range details {
		cp[k] = v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Time: time.Now(), Name: event, Details: cp})
	if r.max > 0 && len(r.events) > r.max {
		r.events = append(r.events[:0], r.events[len(r.events)-r.max:]...)
	}
	return nil
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names, oldest first.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
