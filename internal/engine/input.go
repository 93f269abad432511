package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// LineReader reads newline-terminated input, printing a prompt before each
// line. ReadLine returns io.EOF at end of input and ctx.Err() when the
// context is cancelled while waiting.
type LineReader struct {
	in     io.Reader
	out    io.Writer
	prompt string

	start sync.Once
	lines chan string
	err   error
}

// NewLineReader creates a reader over in. The prompt is written to out
// before each read; a nil out disables it.
func NewLineReader(in io.Reader, out io.Writer, prompt string) *LineReader {
	return &LineReader{
		in:     in,
		out:    out,
		prompt: prompt,
		lines:  make(chan string),
	}
}

// ReadLine implements InputReader.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	r.start.Do(func() { go r.pump() })

	if r.out != nil && r.prompt != "" {
		_, _ = fmt.Fprint(r.out, r.prompt)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-r.lines:
		if !ok {
			if r.err != nil {
				return "", r.err
			}

			return "", io.EOF
		}

		return line, nil
	}
}

// pump feeds lines to ReadLine. It blocks in Read until input ends.
func (r *LineReader) pump() {
	defer close(r.lines)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	for scanner.Scan() {
		r.lines <- scanner.Text()
	}

	// Set before the deferred close so readers observe it.
	if err := scanner.Err(); err != nil {
		r.err = fmt.Errorf("read input: %w", err)
	}
}
