// Package wizard drives the two-step benefit calculation: member data first,
// then the workflow-defined calculation factors.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"benefit-calculator/internal/formdata"
	"benefit-calculator/internal/model"
	"benefit-calculator/internal/session"
	"benefit-calculator/internal/validation"
)

var (
	ErrSubmissionInFlight = errors.New("a request is already in flight")
	ErrFormInvalid        = errors.New("form has invalid fields")
	ErrNotStarted         = errors.New("no process has been started")
	ErrAlreadyStarted     = errors.New("a process has already been started")
)

// ProcessClient is the API the wizard talks to.
type ProcessClient interface {
	StartProcess(ctx context.Context, req model.StartProcessRequest) (*model.StartProcessResponse, error)
	SubmitCalculation(ctx context.Context, payload model.SubmissionPayload) (*model.CalculationResult, error)
}

type Wizard struct {
	client ProcessClient
	store  *session.Store
	logger *slog.Logger

	starting   atomic.Bool
	submitting atomic.Bool
}

func New(client ProcessClient, store *session.Store, logger *slog.Logger) *Wizard {
	if store == nil {
		store = session.NewStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Wizard{client: client, store: store, logger: logger.With("component", "wizard")}
}

// State returns a snapshot of the wizard's session.
func (w *Wizard) State() session.State { return w.store.Snapshot() }

func (w *Wizard) SetMemberData(req model.StartProcessRequest) {
	w.store.Dispatch(session.SetMemberData(req))
}

// Start begins a process for the stored member data and loads the fields
// the workflow asks for. A session owns at most one process; StartNew or
// Reset must run before starting another.
func (w *Wizard) Start(ctx context.Context) (*model.StartProcessResponse, error) {
	if !w.starting.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer w.starting.Store(false)

	if w.store.Snapshot().Handle != nil {
		return nil, ErrAlreadyStarted
	}
	st := w.store.Dispatch(session.Begin(session.OpStart))
	resp, err := w.client.StartProcess(ctx, st.MemberData)
	if err != nil {
		w.store.Dispatch(session.Fail(session.OpStart, err.Error()))
		return nil, err
	}
	w.store.Dispatch(
		session.ReplaceFields(resp.RequiredFields),
		session.SetHandle(model.ProcessHandle{ProcessInstanceID: resp.ProcessInstanceID, TaskID: resp.TaskID}),
		session.Succeed(session.OpStart),
	)
	w.logger.Info("process started", "process_instance_id", resp.ProcessInstanceID, "fields", len(resp.RequiredFields))
	return resp, nil
}

// SetValue records the raw input of a field and revalidates it.
func (w *Wizard) SetValue(id string, raw any) {
	w.store.Dispatch(session.SetRawValue(id, raw), session.Touch(id), revalidate(id))
}

// Blur marks a field as visited.
func (w *Wizard) Blur(id string) {
	w.store.Dispatch(session.Touch(id), revalidate(id))
}

func revalidate(id string) session.Action {
	return func(s session.State) session.State {
		field, ok := model.FindField(s.Fields, id)
		if !ok {
			return s
		}
		return session.SetFieldError(id, validation.ValidateField(field, s.RawValues[id]))(s)
	}
}

// VisibleErrors returns the field errors the user should see right now.
func (w *Wizard) VisibleErrors() map[string]string {
	st := w.store.Snapshot()
	errs := validation.ValidateForm(st.Fields, st.RawValues)
	return validation.Visible(errs, st.Touched, st.SubmitAttempted)
}

// Submit validates the form and, when it is valid, sends the typed values
// for calculation. Raw values stay in place whatever the outcome.
func (w *Wizard) Submit(ctx context.Context) (*model.CalculationResult, error) {
	if !w.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer w.submitting.Store(false)

	st := w.store.Snapshot()
	errs := validation.ValidateForm(st.Fields, st.RawValues)
	w.store.Dispatch(session.AttemptSubmit, session.SetFieldErrors(errs))
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %d field(s)", ErrFormInvalid, len(errs))
	}
	if st.Handle == nil {
		return nil, ErrNotStarted
	}

	processed := formdata.ProcessFormValues(st.Fields, st.RawValues)
	payload := formdata.PrepareSubmissionData(st.Handle.ProcessInstanceID, st.Fields, processed)
	w.store.Dispatch(session.SetProcessedValues(processed), session.Begin(session.OpSubmit))

	result, err := w.client.SubmitCalculation(ctx, payload)
	if err != nil {
		w.store.Dispatch(session.Fail(session.OpSubmit, err.Error()))
		return nil, err
	}
	w.store.Dispatch(session.RecordResult(*result), session.Succeed(session.OpSubmit))
	w.logger.Info("calculation finished", "process_instance_id", st.Handle.ProcessInstanceID, "success", result.Success)
	return result, nil
}

// StartNew drops the current process and its inputs. Member data is kept.
func (w *Wizard) StartNew() { w.store.Dispatch(session.StartNew) }

// Reset clears the whole session.
func (w *Wizard) Reset() { w.store.Dispatch(session.Reset) }
