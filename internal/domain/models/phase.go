package models

import "encoding/json"

// PhaseKind tags the state of an asynchronously loaded view.
type PhaseKind uint8

const (
	PhaseLoading PhaseKind = iota
	PhaseError
	PhaseReady
	PhaseEmpty
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	case PhaseEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Phase holds exactly one of loading, error(message), ready(value) or empty.
// The zero value is loading.
type Phase[T any] struct {
	kind    PhaseKind
	message string
	value   T
}

func Loading[T any]() Phase[T] { return Phase[T]{kind: PhaseLoading} }

func Failed[T any](message string) Phase[T] { return Phase[T]{kind: PhaseError, message: message} }

func Ready[T any](v T) Phase[T] { return Phase[T]{kind: PhaseReady, value: v} }

func Empty[T any]() Phase[T] { return Phase[T]{kind: PhaseEmpty} }

func (p Phase[T]) Kind() PhaseKind { return p.kind }
func (p Phase[T]) IsLoading() bool { return p.kind == PhaseLoading }
func (p Phase[T]) IsError() bool   { return p.kind == PhaseError }
func (p Phase[T]) IsReady() bool   { return p.kind == PhaseReady }
func (p Phase[T]) IsEmpty() bool   { return p.kind == PhaseEmpty }

// Message is the user-facing error text. Empty unless IsError.
func (p Phase[T]) Message() string { return p.message }

// Value returns the loaded value and whether the phase is ready.
func (p Phase[T]) Value() (T, bool) { return p.value, p.kind == PhaseReady }

// Data returns the loaded value, or the zero T when not ready. Convenient in templates.
func (p Phase[T]) Data() T { return p.value }

type phaseJSON[T any] struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
	Data    *T     `json:"data,omitempty"`
}

func (p Phase[T]) MarshalJSON() ([]byte, error) {
	out := phaseJSON[T]{State: p.kind.String(), Message: p.message}
	if p.kind == PhaseReady {
		v := p.value
		out.Data = &v
	}
	return json.Marshal(out)
}
