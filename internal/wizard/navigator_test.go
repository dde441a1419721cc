package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"daystar-admissions/internal/common/config"
	"daystar-admissions/internal/common/logger"
)

const testRedirectURL = "https://visa-api.netlify.app/payment"

type fakeSubmitter struct {
	calls int
	err   error
}

func (f *fakeSubmitter) SubmitApplication(_ context.Context, _ *ApplicationRecord) error {
	f.calls++
	return f.err
}

type fakePayments struct {
	calls int
	url   string
	err   error
}

func (f *fakePayments) InitiatePayment(_ context.Context, _ *ApplicationRecord, _ string) (string, error) {
	f.calls++
	return f.url, f.err
}

func newTestNavigator(strategy string, sub Submitter, pay PaymentInitiator) *Navigator {
	return NewNavigator(strategy, testRedirectURL, sub, pay, logger.NewNoOpLogger())
}

func filledSession(now time.Time) *Session {
	sess := NewSession()
	fillPersonal(sess.Record)
	fillProgramme(sess.Record)
	fillAcademic(sess.Record, now)
	fillFamily(sess.Record)
	return sess
}

func TestNavigator_CursorNeverLeavesBounds(t *testing.T) {
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, &fakePayments{})
	sess := NewSession()

	// Hammer prev at the lower bound.
	for i := 0; i < 5; i++ {
		nav.Prev(sess)
		assert.GreaterOrEqual(t, sess.Step, 1)
	}
	assert.Equal(t, 1, sess.Step)

	// Hammer next at the upper bound.
	for i := 0; i < StepCount+3; i++ {
		nav.Next(sess)
		assert.LessOrEqual(t, sess.Step, StepCount)
	}
	assert.Equal(t, StepCount, sess.Step)

	// Mixed walk stays in bounds.
	for i := 0; i < 20; i++ {
		if i%3 == 0 {
			nav.Prev(sess)
		} else {
			nav.Next(sess)
		}
		assert.GreaterOrEqual(t, sess.Step, 1)
		assert.LessOrEqual(t, sess.Step, StepCount)
	}
}

func TestNavigator_AdvanceGatesOnStepValidation(t *testing.T) {
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, &fakePayments{})
	sess := NewSession()

	// Empty record: the personal step cannot be left.
	dec := nav.Advance(sess)
	assert.Equal(t, DecisionRejected, dec.Kind)
	assert.NotEmpty(t, dec.Errors)
	assert.Equal(t, 1, sess.Step)

	fillPersonal(sess.Record)
	dec = nav.Advance(sess)
	assert.Equal(t, DecisionAdvanced, dec.Kind)
	assert.Equal(t, 2, sess.Step)

	// The programme step is still empty, so the cursor stays put again.
	dec = nav.Advance(sess)
	assert.Equal(t, DecisionRejected, dec.Kind)
	assert.Equal(t, 2, sess.Step)
}

func TestNavigator_AdvanceClampsAtLastStep(t *testing.T) {
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, &fakePayments{})
	sess := filledSession(time.Now())
	sess.Step = StepPayment

	// The payment step has no field rules; hammering advance stays put.
	for i := 0; i < 3; i++ {
		dec := nav.Advance(sess)
		assert.Equal(t, DecisionAdvanced, dec.Kind)
		assert.Equal(t, StepPayment, sess.Step)
	}
}

func TestNavigator_SubmitValidatesAndAdvances(t *testing.T) {
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, &fakePayments{})
	sess := NewSession()

	// Empty record: step 1 is rejected, cursor does not move.
	dec, err := nav.Submit(context.Background(), sess, "", "")
	assert.NoError(t, err)
	assert.Equal(t, DecisionRejected, dec.Kind)
	assert.NotEmpty(t, dec.Errors)
	assert.Equal(t, 1, sess.Step)

	fillPersonal(sess.Record)
	dec, err = nav.Submit(context.Background(), sess, "", "")
	assert.NoError(t, err)
	assert.Equal(t, DecisionAdvanced, dec.Kind)
	assert.Equal(t, 2, sess.Step)
}

func TestNavigator_EscapeHatchRedirectsRegardlessOfFieldValues(t *testing.T) {
	sub := &fakeSubmitter{}
	pay := &fakePayments{}
	nav := newTestNavigator(config.PaymentStrategyExternalRedirect, sub, pay)

	// A completely empty record: the branch has no validation gate.
	sess := NewSession()
	sess.Step = StepFamily

	dec, err := nav.Submit(context.Background(), sess, "", "")
	assert.NoError(t, err)
	assert.Equal(t, DecisionRedirect, dec.Kind)
	assert.Equal(t, testRedirectURL, dec.RedirectURL)
	assert.Equal(t, OutcomePaymentRedirected, sess.Outcome)
	assert.Zero(t, sub.calls)
	assert.Zero(t, pay.calls)

	// No state is reachable after the redirect.
	_, err = nav.Submit(context.Background(), sess, "", "")
	assert.ErrorIs(t, err, ErrTerminalSession)
}

func TestNavigator_InAppStrategyAdvancesThroughFamilyStep(t *testing.T) {
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, &fakePayments{})
	sess := filledSession(time.Now())
	sess.Step = StepFamily

	dec, err := nav.Submit(context.Background(), sess, "", "")
	assert.NoError(t, err)
	assert.Equal(t, DecisionAdvanced, dec.Kind)
	assert.Equal(t, StepPayment, sess.Step)
	assert.Equal(t, OutcomeNone, sess.Outcome)
}

func TestNavigator_DirectSubmitSuccess(t *testing.T) {
	sub := &fakeSubmitter{}
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, sub, &fakePayments{})
	sess := filledSession(time.Now())
	sess.Step = StepPayment

	dec, err := nav.Submit(context.Background(), sess, ActionDirect, "")
	assert.NoError(t, err)
	assert.Equal(t, DecisionSubmitted, dec.Kind)
	assert.Equal(t, OutcomeSubmitted, sess.Outcome)
	assert.Equal(t, 1, sub.calls)

	// Confirmation fires exactly once.
	var successes int
	for _, e := range sess.Notifier.Events() {
		if e.Level == EventSuccess {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	// The store is not mutated further.
	_, err = nav.Submit(context.Background(), sess, ActionDirect, "")
	assert.ErrorIs(t, err, ErrTerminalSession)
	assert.Equal(t, 1, sub.calls)
}

func TestNavigator_DirectSubmitFailureKeepsStateForRetry(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("insert failed")}
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, sub, &fakePayments{})
	sess := filledSession(time.Now())
	sess.Step = StepPayment

	_, err := nav.Submit(context.Background(), sess, ActionDirect, "")
	assert.Error(t, err)
	assert.Equal(t, OutcomeNone, sess.Outcome)
	assert.Equal(t, "Jane", sess.Record.FirstName)

	events := sess.Notifier.Events()
	assert.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Level)

	// Retry works: no debouncing on the direct path.
	sub.err = nil
	dec, err := nav.Submit(context.Background(), sess, ActionDirect, "")
	assert.NoError(t, err)
	assert.Equal(t, DecisionSubmitted, dec.Kind)
	assert.Equal(t, 2, sub.calls)
}

func TestNavigator_PaymentSuccessRedirects(t *testing.T) {
	pay := &fakePayments{url: "https://pay.pesapal.com/iframe/PesapalIframe3/Index?OrderTrackingId=abc"}
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, pay)
	sess := filledSession(time.Now())
	sess.Step = StepPayment

	dec, err := nav.Submit(context.Background(), sess, ActionMpesa, "https://apply.example.com")
	assert.NoError(t, err)
	assert.Equal(t, DecisionRedirect, dec.Kind)
	assert.Contains(t, dec.RedirectURL, "OrderTrackingId=abc")
	assert.Equal(t, OutcomePaymentRedirected, sess.Outcome)
	assert.False(t, sess.Loading)
	assert.Empty(t, sess.PayError)
}

func TestNavigator_PaymentFailureSetsErrorAndResetsLoading(t *testing.T) {
	pay := &fakePayments{err: errors.New("Failed to get token: boom")}
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, pay)
	sess := filledSession(time.Now())
	sess.Step = StepPayment

	_, err := nav.Submit(context.Background(), sess, ActionMpesa, "")
	assert.Error(t, err)
	assert.False(t, sess.Loading)
	assert.NotEmpty(t, sess.PayError)
	assert.Equal(t, OutcomeNone, sess.Outcome)

	// The wizard stays usable after the failure.
	pay.err = nil
	pay.url = "https://pay.pesapal.com/iframe/PesapalIframe3/Index?OrderTrackingId=xyz"
	dec, err := nav.Submit(context.Background(), sess, ActionMpesa, "")
	assert.NoError(t, err)
	assert.Equal(t, DecisionRedirect, dec.Kind)
}

func TestNavigator_PaymentGateRejectsConcurrentSubmit(t *testing.T) {
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, &fakePayments{})
	sess := filledSession(time.Now())
	sess.Step = StepPayment
	sess.Loading = true

	_, err := nav.Submit(context.Background(), sess, ActionMpesa, "")
	assert.ErrorIs(t, err, ErrPaymentInProgress)
}

func TestNavigator_UnknownActionRejected(t *testing.T) {
	nav := newTestNavigator(config.PaymentStrategyInAppGateway, &fakeSubmitter{}, &fakePayments{})
	sess := filledSession(time.Now())
	sess.Step = StepPayment

	_, err := nav.Submit(context.Background(), sess, "card", "")
	assert.Error(t, err)
}
