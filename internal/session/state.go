// Package session holds the in-memory state of one wizard run.
package session

import (
	"maps"
	"slices"

	"benefit-calculator/internal/model"
	"benefit-calculator/internal/validation"
)

// Operation names a network operation that has its own loading flag and
// error slot.
type Operation string

const (
	OpStart  Operation = "start"
	OpSubmit Operation = "submit"
)

// State is everything the wizard knows between its two steps. Values held
// in a State are never mutated in place; actions return a modified copy.
type State struct {
	MemberData       model.StartProcessRequest
	Fields           []model.FieldDescriptor
	RawValues        map[string]any
	ProcessedValues  map[string]any
	FieldErrors      map[string]string
	Touched          validation.Touched
	SubmitAttempted  bool
	Handle           *model.ProcessHandle
	CalculationCount int
	Result           *model.CalculationResult
	Loading          map[Operation]bool
	Errors           map[Operation]string
}

// IsLoading reports whether op is in flight.
func (s State) IsLoading(op Operation) bool { return s.Loading[op] }

// Error returns the stored error message of op, or "".
func (s State) Error(op Operation) string { return s.Errors[op] }

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Fields = cloneFields(s.Fields)
	out.RawValues = maps.Clone(s.RawValues)
	out.ProcessedValues = maps.Clone(s.ProcessedValues)
	out.FieldErrors = maps.Clone(s.FieldErrors)
	out.Touched = maps.Clone(s.Touched)
	out.Loading = maps.Clone(s.Loading)
	out.Errors = maps.Clone(s.Errors)
	if s.Handle != nil {
		h := *s.Handle
		out.Handle = &h
	}
	if s.Result != nil {
		r := *s.Result
		r.MemberData.Factors = maps.Clone(s.Result.MemberData.Factors)
		out.Result = &r
	}
	return out
}

func cloneFields(fields []model.FieldDescriptor) []model.FieldDescriptor {
	out := slices.Clone(fields)
	for i := range out {
		out[i].Required = clonePtr(out[i].Required)
		out[i].Min = clonePtr(out[i].Min)
		out[i].Max = clonePtr(out[i].Max)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// with returns a copy of m with k set to v. m is left untouched.
func with[K comparable, V any](m map[K]V, k K, v V) map[K]V {
	out := make(map[K]V, len(m)+1)
	maps.Copy(out, m)
	out[k] = v
	return out
}

func without[K comparable, V any](m map[K]V, k K) map[K]V {
	if _, ok := m[k]; !ok {
		return m
	}
	out := maps.Clone(m)
	delete(out, k)
	return out
}
