// Package checkout implements the shipping -> billing -> payment staging area.
package checkout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vasiliy-maslov/storefront/internal/validation"
)

var (
	ErrShippingRequired = errors.New("checkout: shipping details required")
	ErrBillingRequired  = errors.New("checkout: billing details required")
	ErrStepNotReached   = errors.New("checkout: step not reached yet")
	ErrInvalidStep      = errors.New("checkout: invalid step")
)

// Session is in-memory only; nothing here is persisted.
type Session struct {
	mu        sync.Mutex
	validator *validation.Validator

	step     Step
	furthest Step
	shipping *ShippingAddress
	billing  *BillingAddress
}

func NewSession(v *validation.Validator) *Session {
	return &Session{
		validator: v,
		step:      StepShipping,
		furthest:  StepShipping,
	}
}

// SubmitShipping stores a validated shipping snapshot and moves to billing.
func (s *Session) SubmitShipping(data ShippingAddress) (State, error) {
	if err := s.validator.Struct(data); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.shipping = &data
	if s.billing != nil && s.billing.SameAsShipping {
		b := BillingFromShipping(data)
		s.billing = &b
	}
	s.advance(StepBilling)

	return s.state(), nil
}

// SubmitBilling stores the billing snapshot and moves to payment. With sameAsShipping
// the shipping snapshot is copied and data is ignored.
func (s *Session) SubmitBilling(data BillingAddress, sameAsShipping bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shipping == nil {
		return State{}, ErrShippingRequired
	}

	var billing BillingAddress
	if sameAsShipping {
		billing = BillingFromShipping(*s.shipping)
	} else {
		data.SameAsShipping = false
		if err := s.validator.Struct(data); err != nil {
			return State{}, err
		}
		billing = data
	}

	s.billing = &billing
	s.advance(StepPayment)

	return s.state(), nil
}

// GoTo moves to step if it is at or before the furthest validated step.
func (s *Session) GoTo(step Step) (State, error) {
	if !step.Valid() {
		return State{}, fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if stepOrder[step] > stepOrder[s.furthest] {
		return State{}, fmt.Errorf("%w: %s", ErrStepNotReached, step)
	}
	if step == StepPayment {
		if s.shipping == nil {
			return State{}, ErrShippingRequired
		}
		if s.billing == nil {
			return State{}, ErrBillingRequired
		}
	}

	s.step = step
	return s.state(), nil
}

// Reset drops both snapshots and returns to shipping.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.step = StepShipping
	s.furthest = StepShipping
	s.shipping = nil
	s.billing = nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state()
}

// Ready reports whether the session is at payment with both snapshots present.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.step == StepPayment && s.shipping != nil && s.billing != nil
}

func (s *Session) advance(to Step) {
	s.step = to
	if stepOrder[to] > stepOrder[s.furthest] {
		s.furthest = to
	}
}

func (s *Session) state() State {
	st := State{Step: s.step, Furthest: s.furthest}
	if s.shipping != nil {
		shipping := *s.shipping
		st.Shipping = &shipping
	}
	if s.billing != nil {
		billing := *s.billing
		st.Billing = &billing
	}
	return st
}
