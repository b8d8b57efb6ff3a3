package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/nathantypanski/gash/internal/lookup"
)

func TestLaunchPipeEndpoints(t *testing.T) {
	l := NewLauncher(lookup.PathLookup{}, nil, &bytes.Buffer{}, &bytes.Buffer{}, nil)

	p, err := l.Launch(context.Background(), Command{Program: "cat"}, Pipe, Pipe)
	require.NoError(t, err)
	p.feed(strings.NewReader("relayed\n"))

	out, err := p.Output()
	require.NoError(t, err)
	assert.Equal(t, "relayed\n", string(out))
}

func TestLaunchDetached(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewLauncher(lookup.PathLookup{}, strings.NewReader("ignored"), &stdout, &stderr, nil)

	p, err := l.Launch(context.Background(), Command{Program: "echo", Args: []string{"quiet"}}, Detached, Detached)
	require.NoError(t, err)
	require.NoError(t, p.Wait())
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestLaunchStderrGoesToShell(t *testing.T) {
	var stderr bytes.Buffer
	l := NewLauncher(lookup.PathLookup{}, nil, &bytes.Buffer{}, &stderr, nil)

	p, err := l.Launch(context.Background(), Command{Program: "ls", Args: []string{"/definitely/not/here"}}, Inherit, Inherit)
	require.NoError(t, err)
	assert.Error(t, p.Wait())
	assert.NotEmpty(t, stderr.String())
}

func TestLaunchNotFoundCreatesNoProcess(t *testing.T) {
	var asked []string
	l := NewLauncher(lookup.Func(func(name string) bool {
		asked = append(asked, name)
		return false
	}), nil, &bytes.Buffer{}, &bytes.Buffer{}, nil)

	p, err := l.Launch(context.Background(), Command{Program: "ghost"}, Inherit, Inherit)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"ghost"}, asked)
}

func TestLaunchSpawnError(t *testing.T) {
	// The lookup claims the program exists, but the OS cannot run it.
	l := NewLauncher(lookup.Func(func(string) bool { return true }), nil, &bytes.Buffer{}, &bytes.Buffer{}, nil)

	_, err := l.Launch(context.Background(), Command{Program: "/nonexistent/binary"}, Inherit, Inherit)
	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/nonexistent/binary", se.Program)
}

func TestProcessSignal(t *testing.T) {
	l := NewLauncher(lookup.PathLookup{}, nil, &bytes.Buffer{}, &bytes.Buffer{}, nil)

	p, err := l.Launch(context.Background(), Command{Program: "sleep", Args: []string{"30"}}, Detached, Detached)
	require.NoError(t, err)
	require.NoError(t, p.Signal(unix.SIGTERM))

	err = p.Wait()
	assert.Equal(t, -1, ExitCode(err), "a signalled process has no exit code")
}
