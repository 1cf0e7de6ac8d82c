package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CTAG07/wordogram/pkg/markov"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

const shellHelp = `q - exit
h - print this help
stat - print statistics
stat <word> - print the words that follow <word>
load <file_name> - load a file
gen <max_symbols_count> - generate text
gen <max_symbols_count> <first_word> - generate text which starts with <first_word>
clear - forget everything loaded so far
`

var errMissingArgument = errors.New("missing argument")

// Shell is the interactive command loop. It is not safe for concurrent use.
type Shell struct {
	corpus   *markov.Corpus
	encoding string
	in       io.Reader
	out      io.Writer
	prompt   bool
	errorf   func(format string, a ...any) string
}

// NewShell creates a shell reading commands from in. The prompt is printed
// and errors are colored only when interactive is set.
func NewShell(corpus *markov.Corpus, encoding string, in io.Reader, out io.Writer, interactive bool) *Shell {
	s := &Shell{
		corpus:   corpus,
		encoding: encoding,
		in:       in,
		out:      out,
		prompt:   interactive,
		errorf:   fmt.Sprintf,
	}
	if interactive {
		s.errorf = color.New(color.FgRed).SprintfFunc()
	}
	return s
}

// Run prints the greeting, loads files, then executes commands until q or
// the end of input.
func (s *Shell) Run(files ...string) error {
	fmt.Fprintln(s.out, "Type 'h' for help")
	fmt.Fprintf(s.out, "Input encoding: %s\n", s.encoding)

	for _, path := range files {
		s.handle([]string{"load", path})
	}

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if s.prompt {
			fmt.Fprint(s.out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		if !s.Execute(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// Execute runs one command line. It returns false once the shell should exit.
func (s *Shell) Execute(line string) bool {
	ok, quit := s.handle(strings.Fields(line))
	if !ok {
		fmt.Fprintln(s.out, "Invalid command!")
	}
	return !quit
}

func (s *Shell) handle(args []string) (ok, quit bool) {
	if len(args) == 0 {
		return false, false
	}

	var err error
	switch args[0] {
	case "q":
		return true, true
	case "h":
		fmt.Fprint(s.out, shellHelp)
	case "stat":
		err = s.stat(args[1:])
	case "gen":
		err = s.generate(args[1:])
	case "load":
		err = s.load(args[1:])
	case "clear":
		err = s.clear()
	default:
		return false, false
	}

	if err != nil {
		fmt.Fprintln(s.out, s.errorf("ERROR: %v", err))
		return false, false
	}
	return true, false
}

func (s *Shell) stat(args []string) error {
	if len(args) > 0 {
		return s.statWord(args[0])
	}
	stats, err := s.corpus.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "unique words: %s\n", humanize.Comma(int64(stats.UniqueNodes)))
	fmt.Fprintf(s.out, "names       : %s\n", humanize.Comma(int64(stats.ProperNouns)))
	fmt.Fprintf(s.out, "chains      : %s\n", humanize.Comma(int64(stats.TotalChains)))
	fmt.Fprintf(s.out, "transitions : %s\n", humanize.Comma(int64(stats.TotalFrequency)))
	return nil
}

func (s *Shell) statWord(word string) error {
	edges, err := s.corpus.StatsFor(word)
	if err != nil {
		return err
	}
	total := 0
	for _, e := range edges {
		total += e.Weight
	}
	fmt.Fprintf(s.out, "%s: %s next words, %s transitions\n", word,
		humanize.Comma(int64(len(edges))), humanize.Comma(int64(total)))
	for _, e := range edges {
		fmt.Fprintf(s.out, "  %-20s %s\n", e.Token, humanize.Comma(int64(e.Weight)))
	}
	return nil
}

func (s *Shell) generate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: gen <max_symbols_count> [first_word]", errMissingArgument)
	}
	maxChars, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid max symbols count %q", args[0])
	}
	firstWord := ""
	if len(args) > 1 {
		firstWord = args[1]
	}

	text, err := s.corpus.Generate(maxChars, firstWord)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, text)
	return nil
}

func (s *Shell) load(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: load <file_name>", errMissingArgument)
	}
	fmt.Fprintf(s.out, "Loading file %s\n", args[0])
	if _, err := loadFile(s.corpus, args[0], s.encoding); err != nil {
		return err
	}
	return s.stat(nil)
}

func (s *Shell) clear() error {
	if err := s.corpus.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Corpus cleared")
	return nil
}
