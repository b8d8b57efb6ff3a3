package jobs

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/nathantypanski/gash/internal/pipeline"
)

// started is the one-shot spawn report from a supervisor.
type started struct {
	pid int
	err error
}

// termRequest asks a supervisor to signal its process. The result of the
// signal call is sent on ack.
type termRequest struct {
	sig os.Signal
	ack chan error
}

// supervise runs one background command to completion. It owns the live
// process handle: termination requests arrive on j.terminate and are
// delivered to that handle, never by pid. Once the process is reaped the
// supervisor closes j.done and stops taking requests.
func supervise(ctx context.Context, l *pipeline.Launcher, j *Job, report chan<- started, log *zap.Logger) {
	// The job outlives the command line that started it.
	p, err := l.Launch(context.WithoutCancel(ctx), j.command(), pipeline.Detached, pipeline.Detached)
	if err != nil {
		report <- started{err: err}
		return
	}
	report <- started{pid: p.Pid()}

	waited := make(chan error, 1)
	go func() { waited <- p.Wait() }()

	for {
		select {
		case err := <-waited:
			log.Debug("job reaped",
				zap.Int("job", j.ID),
				zap.Int("pid", p.Pid()),
				zap.Int("status", pipeline.ExitCode(err)))
			j.exit <- err
			close(j.done)
			return
		case req := <-j.terminate:
			err := p.Signal(req.sig)
			if err != nil {
				log.Debug("signal not delivered",
					zap.Int("job", j.ID),
					zap.Stringer("signal", req.sig),
					zap.Error(err))
			}
			req.ack <- err
		}
	}
}
