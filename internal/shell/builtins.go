package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/anmitsu/go-shlex"
)

type builtin struct {
	// record adds the line to history.
	record bool
	run    func(s *Shell, line string) bool
}

var builtins = map[string]builtin{
	"exit":    {record: false, run: (*Shell).exit},
	"history": {record: false, run: (*Shell).showHistory},
	"jobs":    {record: true, run: (*Shell).listJobs},
	"cd":      {record: true, run: (*Shell).cd},
}

// exit stops the shell, optionally with a status: exit [n].
func (s *Shell) exit(line string) bool {
	fields := strings.Fields(line)
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			s.errorf("exit: %s: numeric argument required", fields[1])
			n = 2
		}
		s.status = n
	}
	s.shutdown()
	return true
}

func (s *Shell) showHistory(string) bool {
	for i, line := range s.history {
		fmt.Fprintf(s.stdout, "%5d  %s\n", i+1, line)
	}
	s.status = 0
	return false
}

func (s *Shell) listJobs(string) bool {
	for _, j := range s.jobs.List() {
		fmt.Fprintf(s.stdout, "%s %d\n", j.Program, j.Pid)
	}
	s.status = 0
	return false
}

// cd changes directory, to $HOME when no argument is given.
func (s *Shell) cd(line string) bool {
	args, err := shlex.Split(line, true)
	if err != nil {
		s.errorf("cd: %v", err)
		s.status = 1
		return false
	}

	var dir string
	if len(args) > 1 {
		dir = args[1]
	} else if dir, err = os.UserHomeDir(); err != nil {
		s.errorf("cd: %v", err)
		s.status = 1
		return false
	}

	if err := s.chdir(dir); err != nil {
		msg := err.Error()
		var pe *fs.PathError
		if errors.As(err, &pe) {
			msg = pe.Err.Error()
		}
		if errors.Is(err, fs.ErrNotExist) {
			msg = "No such file or directory"
		}
		fmt.Fprintf(s.stderr, "cd: %s: %s\n", dir, msg)
		s.status = 1
		return false
	}
	s.status = 0
	return false
}
