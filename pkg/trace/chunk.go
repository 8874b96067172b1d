// Package trace reads the line-oriented capture format used by playback.
//
// A trace is a flat log of chunks. A chunk starts at any line beginning with
// an inbound marker ("<-") or an outbound marker ("->") and runs until the
// next such line:
//
//	<-CMD:ls -l /tmp
//	->OUT:total 0
//	drwxr-xr-x 2 root root 40 Jan  1 00:00 x
//	->EXC:1
//
// Inbound chunks describe requests, everything else is response payload for
// the most recent request.
package trace

const (
	// InboundMarker starts a request chunk.
	InboundMarker = "<-"

	// OutboundMarker starts a response chunk.
	OutboundMarker = "->"

	// tagStart and tagEnd bound the 3-character type code in "<-CMD:...".
	tagStart = 2
	tagEnd   = 5

	// payloadStart is the offset of the text after "<-CMD:".
	payloadStart = 6
)

// Chunk is one boundary-delimited unit of a trace. Text holds every line of
// the chunk joined with "\n" and without a trailing newline.
type Chunk struct {
	Text string
}

// IsInbound reports whether the chunk is a request.
func (c Chunk) IsInbound() bool {
	return IsInbound(c.Text)
}

// Tag returns the 3-character type code of the chunk, or "" when the chunk is
// too short to carry one.
func (c Chunk) Tag() string {
	return Tag(c.Text)
}

// Payload returns the text after the type code delimiter.
func (c Chunk) Payload() string {
	return Payload(c.Text)
}

// IsInbound reports whether s starts with the inbound marker.
func IsInbound(s string) bool {
	return len(s) >= len(InboundMarker) && s[:len(InboundMarker)] == InboundMarker
}

// IsBoundary reports whether line starts a new chunk.
func IsBoundary(line string) bool {
	return IsInbound(line) ||
		(len(line) >= len(OutboundMarker) && line[:len(OutboundMarker)] == OutboundMarker)
}

// Tag returns s[2:5], the type code of a marked line.
func Tag(s string) string {
	if len(s) < tagEnd {
		return ""
	}
	return s[tagStart:tagEnd]
}

// Payload returns s[6:], the text after "<-TAG:".
func Payload(s string) string {
	if len(s) < payloadStart {
		return ""
	}
	return s[payloadStart:]
}
