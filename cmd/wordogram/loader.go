package main

import (
	"fmt"
	"io"
	"os"

	"github.com/CTAG07/wordogram/pkg/markov"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeReader converts r from the named encoding to UTF-8. A leading
// byte order mark overrides the configured encoding and is dropped.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// loadFile ingests the file at path into corpus.
func loadFile(corpus *markov.Corpus, path, encoding string) (*markov.LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	r, err := decodeReader(f, encoding)
	if err != nil {
		return nil, err
	}
	result, err := corpus.Load(r)
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", path, err)
	}
	return result, nil
}
