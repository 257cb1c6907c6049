package booking

import "fmt"

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending                    Status = "pending"
	StatusConfirmed                  Status = "confirmed"
	StatusInProgress                 Status = "in_progress"
	StatusAwaitingClientConfirmation Status = "awaiting_client_confirmation"
	StatusCompleted                  Status = "completed"
	StatusCancelled                  Status = "cancelled"
	StatusDisputed                   Status = "disputed"
	StatusRefunded                   Status = "refunded"
)

// validTransitions is the effective state graph as persisted. Note that a
// provider finishing work lands in awaiting_client_confirmation, not
// completed; completed is only reachable through client confirmation,
// the auto-confirm sweep, or admin resolution.
var validTransitions = map[Status][]Status{
	StatusPending:                    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:                  {StatusInProgress, StatusCancelled},
	StatusInProgress:                 {StatusAwaitingClientConfirmation, StatusCancelled},
	StatusAwaitingClientConfirmation: {StatusCompleted, StatusDisputed},
	StatusCompleted:                  {StatusDisputed},
	StatusCancelled:                  {StatusPending, StatusConfirmed, StatusRefunded},
	StatusDisputed:                   {StatusCompleted, StatusCancelled, StatusRefunded},
	StatusRefunded:                   {StatusCancelled},
}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if the effective state graph has an edge
// from this status to the target, regardless of actor role.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// AllStatuses returns every recognized status. Useful for exhaustive checks.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusConfirmed,
		StatusInProgress,
		StatusAwaitingClientConfirmation,
		StatusCompleted,
		StatusCancelled,
		StatusDisputed,
		StatusRefunded,
	}
}
