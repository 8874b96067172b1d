// Package response turns raw recorded response chunks into typed values.
//
// Every response chunk carries a 3-character type code ("->OUT:", "->EXC:").
// Callers register one Factory per code they understand. Chunks whose code has
// no factory are skipped when a generation is materialized.
package response

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papercomputeco/playback/pkg/trace"
)

// TypeIDLen is the width of every type code.
const TypeIDLen = 3

// Response is a single materialized recorded response.
type Response interface {
	// TypeID returns the 3-character type code the response was recorded with.
	TypeID() string

	// Text returns the raw payload text.
	Text() string
}

// Factory builds a Response from the payload text of a chunk.
type Factory func(payload string) (Response, error)

// DecodeError is returned when a payload cannot be converted to its typed form.
type DecodeError struct {
	TypeID  string
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response %q: %v", e.TypeID, e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Registry maps type codes to factories. The zero value is not usable, use
// NewRegistry or DefaultRegistry.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds or replaces the factory for typeID.
func (r *Registry) Register(typeID string, f Factory) error {
	if len(typeID) != TypeIDLen {
		return fmt.Errorf("type id %q must be %d characters", typeID, TypeIDLen)
	}
	if f == nil {
		return fmt.Errorf("nil factory for type id %q", typeID)
	}

	if _, ok := r.factories[typeID]; !ok {
		r.order = append(r.order, typeID)
	}
	r.factories[typeID] = f
	return nil
}

// MustRegister is Register for static setup code.
func (r *Registry) MustRegister(typeID string, f Factory) *Registry {
	if err := r.Register(typeID, f); err != nil {
		panic(err)
	}
	return r
}

// Has reports whether typeID has a factory.
func (r *Registry) Has(typeID string) bool {
	_, ok := r.factories[typeID]
	return ok
}

// TypeIDs returns the registered type codes in registration order.
func (r *Registry) TypeIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Build converts one raw chunk ("->OUT:payload") into a Response. The boolean
// is false when the chunk's type code is not registered.
func (r *Registry) Build(chunk string) (Response, bool, error) {
	f, ok := r.factories[trace.Tag(chunk)]
	if !ok {
		return nil, false, nil
	}

	resp, err := f(trace.Payload(chunk))
	if err != nil {
		return nil, true, err
	}
	return resp, true, nil
}

// BuildAll materializes every known chunk of a generation, in order.
func (r *Registry) BuildAll(chunks []string) ([]Response, error) {
	responses := make([]Response, 0, len(chunks))
	for _, chunk := range chunks {
		resp, ok, err := r.Build(chunk)
		if err != nil {
			return nil, err
		}
		if ok {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

// Raw is a response whose payload is kept as text.
type Raw struct {
	Type    string `json:"type" yaml:"type"`
	Payload string `json:"payload" yaml:"payload"`
}

func (r Raw) TypeID() string { return r.Type }
func (r Raw) Text() string   { return r.Payload }

// RawFactory returns a Factory producing Raw responses tagged with typeID.
func RawFactory(typeID string) Factory {
	return func(payload string) (Response, error) {
		return Raw{Type: typeID, Payload: payload}, nil
	}
}

// ExitCode is a recorded process exit status.
type ExitCode struct {
	Code int `json:"code" yaml:"code"`
}

func (e ExitCode) TypeID() string { return TypeExitCode }
func (e ExitCode) Text() string   { return strconv.Itoa(e.Code) }

func newExitCode(payload string) (Response, error) {
	code, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		return nil, &DecodeError{TypeID: TypeExitCode, Payload: payload, Err: err}
	}
	return ExitCode{Code: code}, nil
}

// FileEdit records that a file or directory was changed by the replayed call.
type FileEdit struct {
	Path string `json:"path" yaml:"path"`
}

func (f FileEdit) TypeID() string { return TypeFileEdit }
func (f FileEdit) Text() string   { return f.Path }

func newFileEdit(payload string) (Response, error) {
	path := strings.TrimSpace(payload)
	if path == "" {
		return nil, &DecodeError{TypeID: TypeFileEdit, Payload: payload, Err: fmt.Errorf("empty path")}
	}
	return FileEdit{Path: path}, nil
}
