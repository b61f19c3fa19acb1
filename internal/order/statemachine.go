package order

// Effect is one side effect bound to a specific transition. Effects run
// inside the same transaction as the status write and the history row.
type Effect string

const (
	// EffectCommitStock decrements stock for every line (SALE ledger
	// movements). Bound to the entry into CONFIRMED.
	EffectCommitStock Effect = "COMMIT_STOCK"

	// EffectRestoreStock puts every line's stock back (RETURN ledger
	// movements). Bound to cancellation after stock was committed.
	EffectRestoreStock Effect = "RESTORE_STOCK"

	// EffectCompleteDelivery stamps completed_at and updates the
	// customer's lifetime stats exactly once.
	EffectCompleteDelivery Effect = "COMPLETE_DELIVERY"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

type transitionKey struct {
	From Status
	To   Status
}

// transitionEffects maps each (from, to) pair to the side effects it
// triggers, keeping the per-transition behavior auditable in one place.
// Cancelling a PENDING order restores nothing: stock was never committed.
var transitionEffects = map[transitionKey][]Effect{
	{StatusPending, StatusConfirmed}:    {EffectCommitStock},
	{StatusConfirmed, StatusCancelled}:  {EffectRestoreStock},
	{StatusProcessing, StatusCancelled}: {EffectRestoreStock},
	{StatusShipped, StatusCancelled}:    {EffectRestoreStock},
	{StatusShipped, StatusDelivered}:    {EffectCompleteDelivery},
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidTransitionError naming both states
// when the transition is not allowed.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// EffectsFor lists the side effects bound to a transition.
func EffectsFor(from, to Status) []Effect {
	return transitionEffects[transitionKey{From: from, To: to}]
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s Status) bool {
	return len(allowedTransitions[s]) == 0
}

func ValidStatus(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}
