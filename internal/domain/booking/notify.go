package booking

import "fmt"

// edge identifies one transition in the effective state graph.
type edge struct {
	from Status
	to   Status
}

// notice is the notification copy attached to one transition edge.
type notice struct {
	title string
	body  string
}

// statusChangeNotices maps every edge of the effective state graph to its
// notification copy. Keyed dispatch instead of a status-string switch so a
// new status without copy fails the covering test instead of silently
// falling through to a default.
var statusChangeNotices = map[edge]notice{
	{StatusPending, StatusConfirmed}:                             {"Booking confirmed", "Your booking %s has been confirmed by the provider."},
	{StatusPending, StatusCancelled}:                             {"Booking cancelled", "Booking %s was cancelled before confirmation."},
	{StatusConfirmed, StatusInProgress}:                          {"Work started", "The provider has started work on booking %s."},
	{StatusConfirmed, StatusCancelled}:                           {"Booking cancelled", "Confirmed booking %s has been cancelled."},
	{StatusInProgress, StatusAwaitingClientConfirmation}:         {"Work reported complete", "The provider reports booking %s as complete. Please confirm or dispute within 48 hours."},
	{StatusInProgress, StatusCancelled}:                          {"Booking cancelled", "In-progress booking %s has been cancelled."},
	{StatusAwaitingClientConfirmation, StatusCompleted}:          {"Booking completed", "Booking %s is complete. Payment has been released to the provider."},
	{StatusAwaitingClientConfirmation, StatusDisputed}:           {"Booking disputed", "Booking %s has been disputed and payment release is frozen pending review."},
	{StatusCompleted, StatusDisputed}:                            {"Booking disputed", "Completed booking %s has been escalated to a dispute."},
	{StatusCancelled, StatusPending}:                             {"Booking reopened", "Cancelled booking %s has been reopened and is awaiting provider response."},
	{StatusCancelled, StatusConfirmed}:                           {"Booking reinstated", "Cancelled booking %s has been reinstated as confirmed."},
	{StatusCancelled, StatusRefunded}:                            {"Booking refunded", "Cancelled booking %s has been refunded."},
	{StatusDisputed, StatusCompleted}:                            {"Dispute resolved", "The dispute on booking %s was resolved in the provider's favour; payment has been released."},
	{StatusDisputed, StatusCancelled}:                            {"Dispute resolved", "The dispute on booking %s was resolved; the booking is cancelled."},
	{StatusDisputed, StatusRefunded}:                             {"Dispute resolved", "The dispute on booking %s was resolved in the client's favour; a refund has been issued."},
	{StatusRefunded, StatusCancelled}:                            {"Refund reconciled", "Refunded booking %s has been closed as cancelled."},
}

// StatusChangeNotice returns the notification title and body for a
// transition, with the booking reference substituted into the body.
// Returns false if the pair is not an edge of the state graph.
func StatusChangeNotice(from, to Status, reference string) (title, body string, ok bool) {
	n, ok := statusChangeNotices[edge{from, to}]
	if !ok {
		return "", "", false
	}
	return n.title, fmt.Sprintf(n.body, reference), true
}
