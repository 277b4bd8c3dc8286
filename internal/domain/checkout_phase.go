package domain

type CheckoutPhase string

const (
	CheckoutPhaseIdle       CheckoutPhase = "IDLE"
	CheckoutPhaseValidating CheckoutPhase = "VALIDATING"
	CheckoutPhaseSubmitting CheckoutPhase = "SUBMITTING"
	CheckoutPhaseSucceeded  CheckoutPhase = "SUCCEEDED"
	CheckoutPhaseFailed     CheckoutPhase = "FAILED"
)

var checkoutTransitions = map[CheckoutPhase][]CheckoutPhase{
	CheckoutPhaseIdle:       {CheckoutPhaseValidating},
	CheckoutPhaseValidating: {CheckoutPhaseSubmitting, CheckoutPhaseIdle},
	CheckoutPhaseSubmitting: {CheckoutPhaseSucceeded, CheckoutPhaseFailed},
	CheckoutPhaseFailed:     {CheckoutPhaseIdle},
	CheckoutPhaseSucceeded:  {CheckoutPhaseValidating, CheckoutPhaseIdle},
}

// CanTransitionTo reports whether the checkout flow may move from one phase to another.
func CanTransitionTo(from, to CheckoutPhase) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal is true for the outcome of a single submission attempt.
func (p CheckoutPhase) IsTerminal() bool {
	return p == CheckoutPhaseSucceeded || p == CheckoutPhaseFailed
}

func (p CheckoutPhase) String() string {
	return string(p)
}
