// Package jobs tracks background commands. Each job has a supervisor
// goroutine that owns the child process; the shell loop talks to it only
// through channels, so the registry itself needs no locks as long as a
// single goroutine uses it.
package jobs

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nathantypanski/gash/internal/pipeline"
)

// Job is one background command.
type Job struct {
	ID      int
	Program string
	Args    []string
	Pid     int
	Started time.Time

	exit      chan error
	terminate chan termRequest
	done      chan struct{}

	finished bool
	status   error
}

func (j *Job) command() pipeline.Command {
	return pipeline.Command{Program: j.Program, Args: j.Args}
}

// Poll reports whether the job has exited without blocking. Once it has,
// Poll keeps returning true and the wait error.
func (j *Job) Poll() (bool, error) {
	if j.finished {
		return true, j.status
	}
	select {
	case err := <-j.exit:
		j.finished = true
		j.status = err
		return true, err
	default:
		return false, nil
	}
}

// Done is closed once the process has been reaped.
func (j *Job) Done() <-chan struct{} { return j.done }

// ExitCode returns the exit status of a finished job, or -1.
func (j *Job) ExitCode() int {
	if !j.finished {
		return -1
	}
	return pipeline.ExitCode(j.status)
}

// Terminate has the supervisor send sig to the live process and returns
// once the signal call has been made. It does not wait for the process to
// exit. For a job that has already been reaped it returns
// os.ErrProcessDone and nothing is sent.
func (j *Job) Terminate(sig os.Signal) error {
	req := termRequest{sig: sig, ack: make(chan error, 1)}
	select {
	case j.terminate <- req:
	case <-j.done:
		return os.ErrProcessDone
	}
	// A supervisor that took the request always answers it.
	return <-req.ack
}

// Registry holds live background jobs in start order.
type Registry struct {
	launcher *pipeline.Launcher
	log      *zap.Logger
	jobs     []*Job
	nextID   int
}

// NewRegistry creates an empty registry that starts jobs with l.
func NewRegistry(l *pipeline.Launcher, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{launcher: l, log: log, nextID: 1}
}

// Start spawns c in the background and records it. It blocks only until
// the spawn has succeeded or failed; on failure no job is recorded.
func (r *Registry) Start(ctx context.Context, c pipeline.Command) (*Job, error) {
	j := &Job{
		ID:        r.nextID,
		Program:   c.Program,
		Args:      c.Args,
		Started:   time.Now(),
		exit:      make(chan error, 1),
		terminate: make(chan termRequest),
		done:      make(chan struct{}),
	}
	report := make(chan started, 1)
	go supervise(ctx, r.launcher, j, report, r.log)

	s := <-report
	if s.err != nil {
		return nil, s.err
	}
	j.Pid = s.pid
	r.nextID++
	r.jobs = append(r.jobs, j)
	r.log.Debug("job started", zap.Int("job", j.ID), zap.String("program", j.Program), zap.Int("pid", j.Pid))
	return j, nil
}

// Sweep removes finished jobs and returns them.
func (r *Registry) Sweep() []*Job {
	var finished []*Job
	live := r.jobs[:0]
	for _, j := range r.jobs {
		if done, _ := j.Poll(); done {
			finished = append(finished, j)
			continue
		}
		live = append(live, j)
	}
	for i := len(live); i < len(r.jobs); i++ {
		r.jobs[i] = nil
	}
	r.jobs = live
	return finished
}

// List returns the recorded jobs in start order. Jobs that exited since the
// last Sweep are still included.
func (r *Registry) List() []*Job {
	out := make([]*Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Len returns the number of recorded jobs.
func (r *Registry) Len() int { return len(r.jobs) }

// KillAll sends sig to every live job and returns the number of jobs it
// was delivered to. Signals have been sent when KillAll returns; it does
// not wait for the jobs to exit. Delivery failures are ignored.
func (r *Registry) KillAll(sig os.Signal) int {
	delivered := 0
	for _, j := range r.jobs {
		if err := j.Terminate(sig); err != nil {
			r.log.Debug("terminate not delivered", zap.Int("job", j.ID), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}
