// internal/wizard/session.go
package wizard

import (
	"github.com/google/uuid"

	"daystar-admissions/internal/common/errors"
)

// Outcome is a terminal wizard state. Once set, no transition is accepted.
type Outcome string

const (
	OutcomeNone              Outcome = ""
	OutcomeSubmitted         Outcome = "submitted"
	OutcomePaymentRedirected Outcome = "payment-redirected"
)

// Session is the form state store: one ApplicationRecord, one step cursor,
// the custom-subject staging pair, the payment loading flag and the inline
// payment error. It is single-writer; all mutation happens synchronously in
// response to one user action at a time.
type Session struct {
	ID     string             `json:"id"`
	Step   int                `json:"step"`
	Record *ApplicationRecord `json:"record"`

	// Staging pair for the custom-subject add action.
	Draft SubjectGrade `json:"draft"`

	// Payment protocol state.
	Loading  bool   `json:"loading"`
	PayError string `json:"payError,omitempty"`

	Outcome Outcome `json:"outcome,omitempty"`

	Notifier Notifier `json:"-"`
}

// NewSession creates a session on step 1 with an empty defaulted record.
func NewSession() *Session {
	return &Session{
		ID:     uuid.New().String(),
		Step:   1,
		Record: NewRecord(),
	}
}

// Preselect pre-populates the programme selection from a caller-supplied
// {level, name} pair, as the programme pages do when linking to the wizard.
func (s *Session) Preselect(level, name string) {
	if level != "" {
		s.Record.ProgrammeLevel = level
	}
	if name != "" {
		s.Record.ProgrammeName = name
	}
}

// SetField merges one field edit into the record.
func (s *Session) SetField(name string, value interface{}) error {
	return s.Record.SetField(name, value)
}

// SetStep moves the cursor directly, bypassing the step-exit validation that
// Navigator.Advance applies. Callers use it to resume or jump a session;
// out-of-bounds steps are rejected.
func (s *Session) SetStep(n int) error {
	if n < 1 || n > StepCount {
		return errors.NewInvalidStepError(n)
	}
	s.Step = n
	return nil
}

// Terminal reports whether the session has reached a terminal outcome.
func (s *Session) Terminal() bool {
	return s.Outcome != OutcomeNone
}
