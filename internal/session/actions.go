package session

import (
	"maps"

	"benefit-calculator/internal/model"
	"benefit-calculator/internal/validation"
)

// Action is a pure state transition.
type Action func(State) State

func SetMemberData(req model.StartProcessRequest) Action {
	return func(s State) State {
		s.MemberData = req
		return s
	}
}

func SetFields(fields []model.FieldDescriptor) Action {
	fields = cloneFields(fields)
	return func(s State) State {
		s.Fields = fields
		return s
	}
}

// ReplaceFields installs a new field-set and drops everything recorded
// against the previous one.
func ReplaceFields(fields []model.FieldDescriptor) Action {
	set := SetFields(fields)
	return func(s State) State {
		s = set(s)
		s.RawValues = nil
		s.FieldErrors = nil
		s.Touched = nil
		s.SubmitAttempted = false
		return s
	}
}

func SetHandle(h model.ProcessHandle) Action {
	return func(s State) State {
		s.Handle = &h
		return s
	}
}

func SetRawValue(id string, v any) Action {
	return func(s State) State {
		s.RawValues = with(s.RawValues, id, v)
		return s
	}
}

func SetProcessedValues(values map[string]any) Action {
	values = maps.Clone(values)
	return func(s State) State {
		s.ProcessedValues = values
		return s
	}
}

// SetFieldErrors replaces the whole field-error map.
func SetFieldErrors(errs map[string]string) Action {
	errs = maps.Clone(errs)
	return func(s State) State {
		s.FieldErrors = errs
		return s
	}
}

// SetFieldError sets or, if msg is empty, clears the error of one field.
func SetFieldError(id, msg string) Action {
	return func(s State) State {
		if msg == "" {
			s.FieldErrors = without(s.FieldErrors, id)
		} else {
			s.FieldErrors = with(s.FieldErrors, id, msg)
		}
		return s
	}
}

func Touch(id string) Action {
	return func(s State) State {
		s.Touched = with(s.Touched, id, struct{}{})
		return s
	}
}

// AttemptSubmit marks the submit attempt and every current field touched.
func AttemptSubmit(s State) State {
	touched := make(validation.Touched, len(s.Touched)+len(s.Fields))
	maps.Copy(touched, s.Touched)
	for _, f := range s.Fields {
		touched.Touch(f.ID)
	}
	s.Touched = touched
	s.SubmitAttempted = true
	return s
}

// Begin marks op in flight and clears its previous error.
func Begin(op Operation) Action {
	return func(s State) State {
		s.Loading = with(s.Loading, op, true)
		s.Errors = without(s.Errors, op)
		return s
	}
}

// Fail ends op with an error that stays visible until op is retried.
func Fail(op Operation, msg string) Action {
	return func(s State) State {
		s.Loading = with(s.Loading, op, false)
		s.Errors = with(s.Errors, op, msg)
		return s
	}
}

func Succeed(op Operation) Action {
	return func(s State) State {
		s.Loading = with(s.Loading, op, false)
		return s
	}
}

// RecordResult stores a calculation result and counts it.
func RecordResult(r model.CalculationResult) Action {
	r.MemberData.Factors = maps.Clone(r.MemberData.Factors)
	return func(s State) State {
		s.Result = &r
		s.CalculationCount++
		return s
	}
}

// StartNew forgets the current process so the wizard can run again for the
// same member. Member data and the last result are kept.
func StartNew(s State) State {
	s.Fields = nil
	s.Handle = nil
	s.CalculationCount = 0
	s.RawValues = nil
	return s
}

// Reset returns every slot to its initial value.
func Reset(State) State { return State{} }
