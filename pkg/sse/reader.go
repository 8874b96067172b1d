package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// TeeReader parses events from an SSE stream and copies every byte it
// consumes to a second writer. The tail command uses the copy to keep a raw
// capture of the event stream next to its formatted output.
//
//	src ──▶ TeeReader.Next ──▶ *Event
//	              │
//	              └──▶ dest (exact bytes, line endings included)
//
// Lines may be of any length and may end in LF or CRLF.
type TeeReader struct {
	src  *bufio.Reader
	dest io.Writer

	// pending is the event being assembled; open is set once any field of
	// it has been seen.
	pending Event
	open    bool
}

// NewTeeReader returns a TeeReader over src that copies to dest. Pass
// io.Discard when no copy is wanted.
func NewTeeReader(src io.Reader, dest io.Writer) *TeeReader {
	return &TeeReader{
		src:  bufio.NewReader(src),
		dest: dest,
	}
}

// Next blocks until a complete event has been read and returns it. An event
// ends at a blank line, or at the end of the stream if fields are pending.
// Next returns nil, nil once src is drained.
func (r *TeeReader) Next() (*Event, error) {
	for {
		raw, err := r.src.ReadString('\n')
		if raw != "" {
			if _, werr := io.WriteString(r.dest, raw); werr != nil {
				return nil, werr
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		atEOF := err != nil

		if raw != "" {
			line := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
			switch {
			case line == "":
				if r.open {
					return r.take(), nil
				}
			case line[0] == ':':
				// comment
			default:
				r.field(line)
			}
		}

		if atEOF {
			if r.open {
				return r.take(), nil
			}
			return nil, nil
		}
	}
}

// field applies one "name: value" line to the pending event. A line without
// a colon is a field name with an empty value.
func (r *TeeReader) field(line string) {
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch name {
	case "data":
		if r.open && r.pending.Data != "" {
			r.pending.Data += "\n"
		}
		r.pending.Data += value
	case "event":
		r.pending.Type = value
	case "id":
		r.pending.ID = value
	default:
		// retry and unknown fields
		return
	}
	r.open = true
}

func (r *TeeReader) take() *Event {
	ev := r.pending
	r.pending = Event{}
	r.open = false
	return &ev
}
