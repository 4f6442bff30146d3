package order

import "slices"

// TransitionPolicy reports whether an order may move from one status to another.
type TransitionPolicy func(from, to Status) bool

// Permissive accepts every transition. Only the move to CANCELLED has side effects.
func Permissive(_, _ Status) bool {
	return true
}

var lifecycle = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusProcessing, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusShipped, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered},
}

// Lifecycle only allows forward moves; DELIVERED, CANCELLED and REFUNDED are terminal.
// Staying in the same status is always allowed.
func Lifecycle(from, to Status) bool {
	if from == to {
		return true
	}
	return slices.Contains(lifecycle[from], to)
}
