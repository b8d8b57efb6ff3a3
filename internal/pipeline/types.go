package pipeline

// Operators recognised by the lexer. Each is a single byte and is split out
// of adjacent words even when no whitespace separates them.
const (
	OpPipe        = "|" // pipe (stdout → stdin)
	OpRedirectIn  = "<" // redirect stdin from file
	OpRedirectOut = ">" // redirect stdout to file

	// OpBackground is not a lexer operator. It is recognised as the last
	// word of a bare command.
	OpBackground = "&"
)

// Command is a program and its argument vector.
type Command struct {
	Program string
	Args    []string
}

// Argv returns the program followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

// RedirectMode says which way a file redirect moves data.
type RedirectMode int

const (
	Read  RedirectMode = iota // file → stdin
	Write                     // stdout → file (truncated)
)

func (m RedirectMode) String() string {
	if m == Write {
		return OpRedirectOut
	}
	return OpRedirectIn
}

// Redirect attaches a file to one end of a stage.
type Redirect struct {
	Path string
	Mode RedirectMode
}

// Stage is one command in a pipe chain. Each stage owns the stage it pipes
// into; the stage with no Next is the terminal stage.
type Stage struct {
	Command  Command
	Next     *Stage
	Redirect *Redirect
}

// IsTerminal reports whether s is the last stage of its chain.
func (s *Stage) IsTerminal() bool {
	return s.Next == nil
}

// Tail returns the terminal stage of the chain starting at s.
func (s *Stage) Tail() *Stage {
	for s.Next != nil {
		s = s.Next
	}
	return s
}

// Len returns the number of stages in the chain starting at s.
func (s *Stage) Len() int {
	n := 0
	for ; s != nil; s = s.Next {
		n++
	}
	return n
}

// Stages returns the chain as a slice, root first.
func (s *Stage) Stages() []*Stage {
	var out []*Stage
	for ; s != nil; s = s.Next {
		out = append(out, s)
	}
	return out
}

// Pipeline is a parsed command line.
type Pipeline struct {
	Root       *Stage
	Background bool
}

// Programs returns the program name of every stage, root first.
func (p *Pipeline) Programs() []string {
	var names []string
	for s := p.Root; s != nil; s = s.Next {
		names = append(names, s.Command.Program)
	}
	return names
}
