package main

import (
	"bytes"
	"strings"
	"testing"
)

func runShell(t *testing.T, script string, files ...string) string {
	t.Helper()
	var out bytes.Buffer
	shell := NewShell(setupTestCorpus(t), "utf-8", strings.NewReader(script), &out, false)
	if err := shell.Run(files...); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out.String()
}

func TestShell_Session(t *testing.T) {
	path := writeTestFile(t, "corpus.txt", []byte(sampleText))
	script := strings.Join([]string{
		"h",
		"stat",
		"load " + path,
		"stat mice",
		"stat dogs",
		"gen 5 cats",
		"gen abc",
		"gen 0",
		"gen",
		"load",
		"bogus",
		"",
		"clear",
		"stat",
		"q",
		"stat",
	}, "\n")

	out := runShell(t, script)

	expected := []string{
		"Type 'h' for help",
		"Input encoding: utf-8",
		"gen <max_symbols_count> <first_word>",
		"Loading file " + path,
		"unique words: 6",
		"names       : 0",
		"transitions : 8",
		"mice: 2 next words, 2 transitions",
		"ERROR: word not found: 'dogs'",
		"\nCats.\n",
		`ERROR: invalid max symbols count "abc"`,
		"ERROR: max length must be positive: got 0",
		"ERROR: missing argument: gen",
		"ERROR: missing argument: load",
		"Corpus cleared",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\nfull output:\n%s", want, out)
		}
	}

	// stat before load, load, stat after clear; nothing runs after q.
	if n := strings.Count(out, "unique words:"); n != 3 {
		t.Errorf("expected 3 stat blocks, got %d\nfull output:\n%s", n, out)
	}
	if !strings.HasSuffix(out, "unique words: 0\nnames       : 0\nchains      : 0\ntransitions : 0\n") {
		t.Errorf("expected the session to end with empty stats, got:\n%s", out)
	}
	// gen abc, gen 0, gen, load, stat dogs, bogus and the empty line.
	if n := strings.Count(out, "Invalid command!"); n != 7 {
		t.Errorf("expected 7 invalid commands, got %d\nfull output:\n%s", n, out)
	}
}

func TestShell_LoadsFilesFirst(t *testing.T) {
	path := writeTestFile(t, "corpus.txt", []byte(sampleText))
	out := runShell(t, "gen 100 cats\n", path)

	loadAt := strings.Index(out, "Loading file")
	genAt := strings.Index(out, "Cats chase mice")
	if loadAt < 0 || genAt < 0 || genAt < loadAt {
		t.Errorf("expected the file to be loaded before generating, got:\n%s", out)
	}
}

func TestShell_MissingFile(t *testing.T) {
	out := runShell(t, "load /definitely/not/here.txt\n")
	if !strings.Contains(out, "ERROR: open /definitely/not/here.txt") {
		t.Errorf("expected an open error, got:\n%s", out)
	}
	if !strings.Contains(out, "Invalid command!") {
		t.Errorf("expected the failed load to be reported as invalid, got:\n%s", out)
	}
}

func TestShell_HumanizedCounts(t *testing.T) {
	path := writeTestFile(t, "big.txt", []byte(strings.Repeat("a b. ", 600)))
	out := runShell(t, "load "+path+"\nstat a\n")

	for _, want := range []string{"transitions : 1,800", "a: 1 next words, 600 transitions"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestShell_NoPromptWhenNotInteractive(t *testing.T) {
	out := runShell(t, "h\nstat\n")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "> ") {
			t.Errorf("expected no prompt for non-interactive input, got line %q\nfull output:\n%s", line, out)
		}
	}
}
