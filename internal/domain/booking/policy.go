package booking

// roleEdges holds the statuses each role may request from a given status.
// Admin inherits the provider edges plus its own override edges.
type roleEdges struct {
	provider []Status
	client   []Status
	admin    []Status
}

// transitionPolicy maps each status to the transitions each role may
// request. Providers drive the operational path, clients drive acceptance
// of outcomes and early cancellation, admins hold the recovery edges.
//
// Requesting completed from in_progress is how a provider reports work
// done; the machine parks the booking in awaiting_client_confirmation
// instead of completing it outright (see Booking.MarkComplete).
var transitionPolicy = map[Status]roleEdges{
	StatusPending: {
		provider: []Status{StatusConfirmed, StatusCancelled},
		client:   []Status{StatusCancelled},
	},
	StatusConfirmed: {
		provider: []Status{StatusInProgress, StatusCancelled},
		client:   []Status{StatusCancelled},
	},
	StatusInProgress: {
		provider: []Status{StatusCompleted, StatusCancelled},
	},
	StatusAwaitingClientConfirmation: {
		client: []Status{StatusCompleted, StatusDisputed},
		admin:  []Status{StatusCompleted, StatusDisputed},
	},
	StatusCompleted: {
		admin: []Status{StatusDisputed},
	},
	StatusCancelled: {
		admin: []Status{StatusPending, StatusConfirmed, StatusRefunded},
	},
	StatusDisputed: {
		admin: []Status{StatusCompleted, StatusCancelled, StatusRefunded},
	},
	StatusRefunded: {
		admin: []Status{StatusCancelled},
	},
}

// AllowedNext returns the set of statuses an actor with the given role
// flags may request from the current status. Pure lookup, no side effects.
func AllowedNext(current Status, flags RoleFlags) map[Status]bool {
	edges := transitionPolicy[current]
	allowed := make(map[Status]bool)

	if flags.IsProvider || flags.IsAdmin {
		for _, s := range edges.provider {
			allowed[s] = true
		}
	}
	if flags.IsClient {
		for _, s := range edges.client {
			allowed[s] = true
		}
	}
	if flags.IsAdmin {
		for _, s := range edges.admin {
			allowed[s] = true
		}
	}
	return allowed
}

// MayRequest reports whether the actor role may request a transition from
// current to target.
func MayRequest(current, target Status, flags RoleFlags) bool {
	return AllowedNext(current, flags)[target]
}
