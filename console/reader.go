package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// Reader reads one line of user input at a time. ReadLine returns io.EOF
// when input is exhausted.
type Reader interface {
	ReadLine() (string, error)
	Close() error
}

// QuitWords end a Prompts sequence.
var QuitWords = []string{"quit", "exit", "q"}

// IsQuit reports whether line asks to leave the loop.
func IsQuit(line string) bool {
	line = strings.ToLower(strings.TrimSpace(line))
	for _, w := range QuitWords {
		if line == w {
			return true
		}
	}
	return false
}

// Prompts returns a lazy sequence of non-empty, trimmed input lines. The
// sequence ends on a quit word or end of input. Ranging over it again resumes
// reading from r, so one reader can back several loops.
func Prompts(r Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, err := r.ReadLine()
			if err != nil {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if IsQuit(line) {
				return
			}
			if !yield(line) {
				return
			}
		}
	}
}

// New returns a readline reader when stdin is a terminal and a plain line
// scanner otherwise.
func New(prompt string) (Reader, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return NewReadline(prompt)
	}
	return NewScanner(os.Stdin, os.Stdout, prompt), nil
}

// Readline is an interactive Reader with line editing and history.
type Readline struct {
	rl *readline.Instance
}

// NewReadline creates an interactive reader.
func NewReadline(prompt string) (*Readline, error) {
	completer := readline.NewPrefixCompleter()
	for _, w := range QuitWords {
		completer.Children = append(completer.Children, readline.PcItem(w))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	return &Readline{rl: rl}, nil
}

// ReadLine implements Reader. Ctrl-C on an empty line ends input.
func (r *Readline) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		if line == "" {
			return "", io.EOF
		}
		return "", nil
	}
	return line, err
}

// Close restores the terminal.
func (r *Readline) Close() error { return r.rl.Close() }

// Scanner reads lines from any io.Reader, printing prompt to w before each.
type Scanner struct {
	sc     *bufio.Scanner
	w      io.Writer
	prompt string
}

// NewScanner creates a non-interactive Reader. A nil w suppresses the prompt.
func NewScanner(r io.Reader, w io.Writer, prompt string) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Scanner{sc: sc, w: w, prompt: prompt}
}

// ReadLine implements Reader.
func (s *Scanner) ReadLine() (string, error) {
	if s.w != nil && s.prompt != "" {
		fmt.Fprint(s.w, s.prompt)
	}
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

// Close implements Reader.
func (s *Scanner) Close() error { return nil }
