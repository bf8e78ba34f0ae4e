package supervisor

import "time"

// States of the supervised process. Starting and stopping exist only
// within a single invocation; a later invocation observes stopped or
// running (possibly with a stale record).
const (
	StateStopped  = "stopped"
	StateStarting = "starting"
	StateRunning  = "running"
	StateStopping = "stopping"
)

// Status is a point-in-time view assembled from the PID record and a
// liveness probe.
type Status struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Command   string    `json:"command,omitempty"`
	// Stale is set when a record exists but its process is gone or
	// the PID now belongs to someone else.
	Stale bool `json:"stale,omitempty"`
}
