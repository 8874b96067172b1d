package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader splits a trace stream into chunks. Lines may be of any length.
type Reader struct {
	src *bufio.Reader

	// current accumulates the lines of the chunk being built.
	current []string
	done    bool
}

// NewReader returns a Reader that parses chunks from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src: bufio.NewReader(src),
	}
}

// readLine returns the next line without its line ending. It returns io.EOF
// only once the source is drained, so a last line without a newline is
// still delivered.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// Next returns the next chunk from the source. It returns nil, nil once the
// source is exhausted.
//
// Lines that appear before the first boundary are returned as a chunk of
// their own so that callers can decide what to do with them.
func (r *Reader) Next() (*Chunk, error) {
	if r.done {
		return nil, nil
	}

	for {
		line, err := readLine(r.src)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if IsBoundary(line) && len(r.current) > 0 {
			chunk := r.flush()
			r.current = append(r.current, line)
			return chunk, nil
		}

		r.current = append(r.current, line)
	}

	r.done = true
	if len(r.current) > 0 {
		return r.flush(), nil
	}

	return nil, nil
}

// flush turns the accumulated lines into a chunk and resets the buffer.
func (r *Reader) flush() *Chunk {
	chunk := &Chunk{Text: strings.Join(r.current, "\n")}
	r.current = nil
	return chunk
}

// ReadAll reads every chunk from src.
func ReadAll(src io.Reader) ([]Chunk, error) {
	r := NewReader(src)

	var chunks []Chunk
	for {
		chunk, err := r.Next()
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			return chunks, nil
		}
		chunks = append(chunks, *chunk)
	}
}

// ReadFile opens path, reads every chunk and closes the file again.
func ReadFile(path string) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	chunks, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading trace file %s: %w", path, err)
	}

	return chunks, nil
}

// ReadLines returns the raw lines of path. It is used by scanners that look at
// a trace line by line rather than chunk by chunk.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	lines, err := Lines(f)
	if err != nil {
		return nil, fmt.Errorf("reading trace file %s: %w", path, err)
	}
	return lines, nil
}

// Lines reads src to the end and returns its lines without line endings.
func Lines(src io.Reader) ([]string, error) {
	br := bufio.NewReader(src)

	var lines []string
	for {
		line, err := readLine(br)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}
