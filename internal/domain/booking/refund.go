package booking

import "time"

// Refund percentage tiers for client-initiated cancellation.
const (
	fullRefundWindow    = 24 * time.Hour
	partialRefundWindow = 2 * time.Hour
)

// RefundPercentage computes the refund owed to the client when cancelling
// before the scheduled start:
//
//	>= 24h before start: 100%
//	>= 2h and < 24h:      50%
//	<  2h:                 0%
//
// Pure computation; callers decide whether cancellation is allowed at all.
func RefundPercentage(now, scheduledAt time.Time) int {
	until := scheduledAt.Sub(now)
	switch {
	case until >= fullRefundWindow:
		return 100
	case until >= partialRefundWindow:
		return 50
	default:
		return 0
	}
}
