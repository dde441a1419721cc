// internal/wizard/navigator.go
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daystar-admissions/internal/common/config"
	"daystar-admissions/internal/common/logger"
	"daystar-admissions/internal/common/metrics"
)

// Payment step actions.
const (
	ActionDirect = "direct"
	ActionMpesa  = "mpesa"
)

var (
	ErrTerminalSession   = errors.New("session has reached a terminal outcome")
	ErrPaymentInProgress = errors.New("a payment request is already in flight")
)

// Submitter persists the reduced application record (direct path).
type Submitter interface {
	SubmitApplication(ctx context.Context, rec *ApplicationRecord) error
}

// PaymentInitiator runs the hosted-payment token protocol and returns the
// redirect URL for the hosted payment page.
type PaymentInitiator interface {
	InitiatePayment(ctx context.Context, rec *ApplicationRecord, origin string) (string, error)
}

// DecisionKind classifies the outcome of a navigation action.
type DecisionKind string

const (
	DecisionAdvanced  DecisionKind = "advanced"
	DecisionRetreated DecisionKind = "retreated"
	DecisionRejected  DecisionKind = "rejected"
	DecisionSubmitted DecisionKind = "submitted"
	DecisionRedirect  DecisionKind = "redirect"
)

// Decision is what the navigation controller resolved a user action into.
type Decision struct {
	Kind        DecisionKind      `json:"kind"`
	Step        int               `json:"step"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
	Errors      []ValidationError `json:"errors,omitempty"`
}

// Navigator owns step transitions and the submit branching, including the
// Family-step escape hatch.
type Navigator struct {
	strategy    string
	externalURL string
	submitter   Submitter
	payments    PaymentInitiator
	logger      logger.Logger
}

func NewNavigator(strategy, externalRedirectURL string, submitter Submitter, payments PaymentInitiator, log logger.Logger) *Navigator {
	return &Navigator{
		strategy:    strategy,
		externalURL: externalRedirectURL,
		submitter:   submitter,
		payments:    payments,
		logger:      log.WithFields(map[string]interface{}{"component": "navigator"}),
	}
}

// Next advances the step cursor, clamped at the last step.
func (n *Navigator) Next(sess *Session) Decision {
	if sess.Step < StepCount {
		sess.Step++
		metrics.WizardStepTransitions.WithLabelValues("next").Inc()
	}
	return Decision{Kind: DecisionAdvanced, Step: sess.Step}
}

// Advance validates the current step before moving forward. A step with
// missing required fields or bad enum choices is not left; going back stays
// free.
func (n *Navigator) Advance(sess *Session) Decision {
	if errs := ValidateStep(sess.Step, sess.Record, time.Now()); len(errs) > 0 {
		return Decision{Kind: DecisionRejected, Step: sess.Step, Errors: errs}
	}
	return n.Next(sess)
}

// Prev retreats the step cursor, clamped at the first step.
func (n *Navigator) Prev(sess *Session) Decision {
	if sess.Step > 1 {
		sess.Step--
		metrics.WizardStepTransitions.WithLabelValues("prev").Inc()
	}
	return Decision{Kind: DecisionRetreated, Step: sess.Step}
}

// Submit resolves the submit action for the current step:
//
//   - on the Family step under the external-redirect strategy it returns the
//     fixed external redirect with no validation gate, abandoning the wizard;
//   - on steps before the payment step it validates the step and advances;
//   - on the payment step it either persists the reduced record (direct) or
//     runs the token protocol (mpesa).
func (n *Navigator) Submit(ctx context.Context, sess *Session, action, origin string) (Decision, error) {
	if sess.Terminal() {
		return Decision{}, ErrTerminalSession
	}

	if sess.Step == StepFamily && n.strategy == config.PaymentStrategyExternalRedirect {
		// Escape hatch: unconditional full-page redirect, wizard state
		// abandoned. No validation gates this branch.
		sess.Outcome = OutcomePaymentRedirected
		metrics.ApplicationsSubmitted.WithLabelValues("external-redirect").Inc()
		n.logger.Info("escape hatch redirect", map[string]interface{}{
			"sessionId": sess.ID,
			"url":       n.externalURL,
		})
		return Decision{Kind: DecisionRedirect, Step: sess.Step, RedirectURL: n.externalURL}, nil
	}

	if sess.Step < StepPayment {
		if errs := ValidateStep(sess.Step, sess.Record, time.Now()); len(errs) > 0 {
			return Decision{Kind: DecisionRejected, Step: sess.Step, Errors: errs}, nil
		}
		return n.Next(sess), nil
	}

	switch action {
	case ActionMpesa:
		return n.submitPayment(ctx, sess, origin)
	case ActionDirect, "":
		return n.submitDirect(ctx, sess)
	default:
		return Decision{}, fmt.Errorf("unknown submit action %q", action)
	}
}

func (n *Navigator) submitDirect(ctx context.Context, sess *Session) (Decision, error) {
	// No in-flight guard here: the source leaves the direct path unguarded.
	if err := n.submitter.SubmitApplication(ctx, sess.Record); err != nil {
		sess.Notifier.Error("Failed to submit application. Please try again.")
		metrics.ApplicationsSubmitted.WithLabelValues("failure").Inc()
		n.logger.WithError(err).Error("application submit failed", map[string]interface{}{
			"sessionId": sess.ID,
		})
		return Decision{}, err
	}

	sess.Outcome = OutcomeSubmitted
	sess.Notifier.Success("Application submitted successfully!")
	metrics.ApplicationsSubmitted.WithLabelValues("success").Inc()
	n.logger.Info("application submitted", map[string]interface{}{
		"sessionId": sess.ID,
		"programme": sess.Record.ProgrammeName,
	})
	return Decision{Kind: DecisionSubmitted, Step: sess.Step}, nil
}

func (n *Navigator) submitPayment(ctx context.Context, sess *Session, origin string) (Decision, error) {
	if sess.Loading {
		return Decision{}, ErrPaymentInProgress
	}

	sess.Loading = true
	sess.PayError = ""
	defer func() { sess.Loading = false }()

	redirectURL, err := n.payments.InitiatePayment(ctx, sess.Record, origin)
	if err != nil {
		sess.PayError = err.Error()
		sess.Notifier.Error("Payment failed. Please try again.")
		metrics.ApplicationsSubmitted.WithLabelValues("payment-failure").Inc()
		n.logger.WithError(err).Error("payment initiation failed", map[string]interface{}{
			"sessionId": sess.ID,
		})
		return Decision{}, err
	}

	sess.Outcome = OutcomePaymentRedirected
	metrics.ApplicationsSubmitted.WithLabelValues("payment-redirect").Inc()
	return Decision{Kind: DecisionRedirect, Step: sess.Step, RedirectURL: redirectURL}, nil
}
