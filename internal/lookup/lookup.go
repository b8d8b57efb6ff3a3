// Package lookup answers whether a program name can be executed. The
// pipeline launcher asks before every spawn and treats the answer as final.
package lookup

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// Lookup reports whether a program exists.
type Lookup interface {
	Exists(name string) bool
}

// Func adapts a plain function to Lookup.
type Func func(name string) bool

func (f Func) Exists(name string) bool { return f(name) }

// PathLookup resolves names against $PATH with exec.LookPath. Names that
// contain a slash are checked directly.
type PathLookup struct{}

func (PathLookup) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// WhichLookup asks the external which(1) program, matching how shells
// without a path cache answer the question.
type WhichLookup struct {
	// Which is the program to run; defaults to "which".
	Which string
}

func (w WhichLookup) Exists(name string) bool {
	if name == "" {
		return false
	}
	which := w.Which
	if which == "" {
		which = "which"
	}
	return exec.CommandContext(context.Background(), which, name).Run() == nil
}

// Cached memoises positive answers from another Lookup. Negative answers are
// not cached so a program installed mid-session is found on the next try.
type Cached struct {
	mu    sync.Mutex
	inner Lookup
	found map[string]bool
}

// NewCached wraps inner with a positive-answer cache.
func NewCached(inner Lookup) *Cached {
	return &Cached{inner: inner, found: make(map[string]bool)}
}

func (c *Cached) Exists(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.found[name] {
		return true
	}
	if !c.inner.Exists(name) {
		return false
	}
	c.found[name] = true
	return true
}

// ForMode returns the lookup for a configured mode name.
func ForMode(mode string) (Lookup, error) {
	switch mode {
	case "", "path":
		return PathLookup{}, nil
	case "which":
		return WhichLookup{}, nil
	default:
		return nil, fmt.Errorf("unknown lookup mode: %q", mode)
	}
}
