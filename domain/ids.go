// Package domain holds the value types shared by every layer of the
// exchange: participant and product identifiers, price, and side.
package domain

import "fmt"

// ParticipantId identifies one connected participant. Opaque; assigned by
// the server when a connection joins.
type ParticipantId uint64

func (p ParticipantId) String() string {
	return fmt.Sprintf("participant#%d", uint64(p))
}

// ProductId identifies one tradable product. Opaque; chosen by clients.
type ProductId uint64

// Price is a non-negative integer. Zero is reserved as the "absent" sentinel
// in every VM-visible bounds array and must never be a real order's price.
type Price uint64

// Side is which side of a book an order rests on.
type Side int

const (
	Bid Side = iota
	Offer
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "Bid"
	case Offer:
		return "Offer"
	default:
		return "Unknown"
	}
}
