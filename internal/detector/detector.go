// Package detector decides whether a recorded PID still refers to the
// process the supervisor launched. Presence of a PID record implies,
// but never guarantees, a live process: the PID may have exited or been
// recycled by the kernel for an unrelated process. Liveness is checked
// with a zero signal; identity is checked by comparing the process
// start time captured at launch against the live process.
package detector

// Probe reports on a single recorded PID.
type Probe struct {
	PID       int
	StartUnix int64 // child start time recorded at launch; 0 disables the identity check
}

// Alive returns true when the PID refers to a live process that is,
// as far as we can tell, the one we launched. A PID whose current
// start time disagrees with the recorded one is treated as recycled
// and therefore not alive.
func (p Probe) Alive() bool {
	if !pidAlive(p.PID) {
		return false
	}
	if p.StartUnix > 0 {
		cur := procStartUnix(p.PID)
		if cur > 0 && cur != p.StartUnix {
			return false
		}
	}
	return true
}

// Exists reports raw PID liveness without the identity check.
func (p Probe) Exists() bool { return pidAlive(p.PID) }

// StartUnix returns pid's start time in Unix seconds, or 0 when it
// cannot be determined. Callers persist it next to the PID so a later
// probe can spot a recycled PID.
func StartUnix(pid int) int64 { return procStartUnix(pid) }
