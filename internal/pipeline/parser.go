package pipeline

// Parse builds a pipeline from lexed tokens.
//
// Stages are kept on a stack. A word token either starts a new stage or, when
// an operator is pending, is attached to the stage on top of the stack:
// redirect targets go to the terminal stage of that chain and pipe targets
// are appended after it. The first stage on the stack is the root.
//
// A trailing & word on a bare command is stripped and marks the pipeline as
// background. Background pipes and redirects are rejected with
// ErrBackgroundPipeline.
func Parse(tokens []string) (*Pipeline, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyPipeline
	}

	var (
		stack   []*Stage
		pending string
	)
	for _, tok := range tokens {
		switch tok {
		case OpPipe, OpRedirectIn, OpRedirectOut:
			if pending != "" {
				return nil, syntaxErrorf("unexpected %q after %q", tok, pending)
			}
			if len(stack) == 0 {
				return nil, syntaxErrorf("unexpected %q", tok)
			}
			pending = tok
			continue
		}

		words := SplitWords(tok)
		if len(words) == 0 {
			if pending != "" {
				return nil, syntaxErrorf("missing command or file after %q", pending)
			}
			return nil, syntaxErrorf("empty command")
		}

		if pending == "" {
			stack = append(stack, &Stage{Command: newCommand(words)})
			continue
		}

		top := stack[len(stack)-1]
		// A redirect target is the first word of its token, not the whole
		// token: "echo a > out b" writes to out and runs "echo a b".
		switch pending {
		case OpRedirectOut:
			if err := attachRedirect(top, Redirect{Path: words[0], Mode: Write}, words[1:]); err != nil {
				return nil, err
			}
		case OpRedirectIn:
			if err := attachRedirect(top, Redirect{Path: words[0], Mode: Read}, words[1:]); err != nil {
				return nil, err
			}
		case OpPipe:
			attachPipe(top, &Stage{Command: newCommand(words)})
		}
		pending = ""
	}

	if pending != "" {
		return nil, syntaxErrorf("unexpected end of line after %q", pending)
	}
	if len(stack) == 0 {
		return nil, ErrEmptyPipeline
	}
	if len(stack) > 1 {
		return nil, syntaxErrorf("unexpected %q", stack[1].Command.Program)
	}

	p := &Pipeline{Root: stack[0]}
	if err := markBackground(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseLine lexes and parses a single line.
func ParseLine(line string) (*Pipeline, error) {
	return Parse(Lex(line))
}

func newCommand(words []string) Command {
	return Command{Program: words[0], Args: words[1:]}
}

// attachRedirect sets r on the terminal stage of the chain at s. Words that
// follow the target path become extra arguments of that stage.
func attachRedirect(s *Stage, r Redirect, extra []string) error {
	tail := s.Tail()
	if tail.Redirect != nil {
		return syntaxErrorf("multiple redirects for %q", tail.Command.Program)
	}
	tail.Redirect = &r
	tail.Command.Args = append(tail.Command.Args, extra...)
	return nil
}

// attachPipe appends next after the terminal stage of the chain at s.
func attachPipe(s *Stage, next *Stage) {
	s.Tail().Next = next
}

func markBackground(p *Pipeline) error {
	root := p.Root
	if root.Command.Program == OpBackground {
		return syntaxErrorf("unexpected %q", OpBackground)
	}
	if trailingBackground(root.Tail().Command) && !root.IsTerminal() {
		return ErrBackgroundPipeline
	}
	if !trailingBackground(root.Command) {
		return nil
	}
	if !root.IsTerminal() || root.Redirect != nil {
		return ErrBackgroundPipeline
	}
	root.Command.Args = root.Command.Args[:len(root.Command.Args)-1]
	p.Background = true
	return nil
}

func trailingBackground(c Command) bool {
	return len(c.Args) > 0 && c.Args[len(c.Args)-1] == OpBackground
}
