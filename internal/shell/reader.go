package shell

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"golang.org/x/term"
)

// ErrInterrupt is returned by a LineReader when the user abandons the
// current line (Ctrl-C at the prompt).
var ErrInterrupt = errors.New("interrupt")

// LineReader yields command lines. It returns io.EOF when input ends.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// ReaderConfig configures NewReader.
type ReaderConfig struct {
	Prompt       string
	HistoryFile  string
	HistoryLimit int
	Stdout       io.Writer
	Stderr       io.Writer
}

// NewReader returns a line editor when stdin is a terminal and a plain
// line scanner otherwise.
func NewReader(stdin *os.File, cfg ReaderConfig) (LineReader, error) {
	if !term.IsTerminal(int(stdin.Fd())) {
		return NewScanReader(stdin), nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       cfg.Prompt,
		HistoryFile:  cfg.HistoryFile,
		HistoryLimit: cfg.HistoryLimit,
		Stdin:        readline.NewCancelableStdin(stdin),
		Stdout:       cfg.Stdout,
		Stderr:       cfg.Stderr,
	})
	if err != nil {
		return nil, err
	}
	return &editReader{rl: rl}, nil
}

type editReader struct {
	rl *readline.Instance
}

func (r *editReader) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", ErrInterrupt
	}
	return line, err
}

func (r *editReader) Close() error { return r.rl.Close() }

// ScanReader reads newline-terminated lines without prompting.
type ScanReader struct {
	sc *bufio.Scanner
	c  io.Closer
}

// NewScanReader reads lines from r.
func NewScanReader(r io.Reader) *ScanReader {
	sr := &ScanReader{sc: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok && r != os.Stdin {
		sr.c = c
	}
	return sr
}

func (r *ScanReader) ReadLine() (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *ScanReader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}
