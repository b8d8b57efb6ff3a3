package audit

import "time"

// Entry represents a single audit log record.
type Entry struct {
	Seq        uint64    `json:"seq"`
	Time       time.Time `json:"ts"`
	PrevHash   string    `json:"prev_hash"`
	Line       string    `json:"line"`                 // command line as typed
	Stages     []string  `json:"stages"`               // program of each stage
	Background bool      `json:"background,omitempty"` // started as a job
	Pid        int       `json:"pid,omitempty"`        // job pid, background only
	ExitCode   int       `json:"exit_code"`            // 0 = success
	Error      string    `json:"error,omitempty"`      // error message if failed
	Duration   float64   `json:"duration_ms"`          // execution time in milliseconds
	Cwd        string    `json:"cwd"`                  // working directory
	Hash       string    `json:"hash"`                 // SHA-256 of this entry (with hash field empty)
}

// Record is what the shell knows about one executed line.
type Record struct {
	Line       string
	Stages     []string
	Background bool
	Pid        int
	ExitCode   int
	Err        error
	Duration   time.Duration
	Cwd        string
}
