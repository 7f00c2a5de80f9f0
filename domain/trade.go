package domain

// Trade is one matched order's fill, produced by call matching. A single
// crossing event between a resting bid and a resting offer produces two
// Trade records, one per side (see book.Match), each routed to its own
// participant as a notification.
type Trade struct {
	Product     ProductId
	Participant ParticipantId
	Side        Side
	Price       Price
	Quantity    uint64
}
