// Package runner implements the program runner: it snapshots a book for
// one participant, executes their program against that snapshot, and
// demarshals the result into a proposed set of that participant's
// orders for the next book.
package runner

import (
	"fmt"

	"vmxexchange/book"
	"vmxexchange/domain"
	"vmxexchange/vm"
)

// Array ids the snapshot/result protocol is built from, per the slot map
// the engine and every participant program agree on.
const (
	arrParameters       int64 = 0
	arrBookBidBounds    int64 = 1
	arrBookBidQty       int64 = 2
	arrBookOfferBounds  int64 = 3
	arrBookOfferQty     int64 = 4
	arrOwnBidBounds     int64 = 5
	arrOwnBidQty        int64 = 6
	arrOwnOfferBounds   int64 = 7
	arrOwnOfferQty      int64 = 8
	arrResultBid        int64 = 9
	arrResultOffer      int64 = 10
)

// SelfCrossing is raised when a participant's proposed revision would
// leave them holding a bid at or above their own offer.
type SelfCrossing struct {
	Participant domain.ParticipantId
}

func (e *SelfCrossing) Error() string {
	return fmt.Sprintf("runner: participant %s revision self-crosses", e.Participant)
}

// Participant is everything the runner needs to execute one program:
// which program to run and the parameter values it reads from array 0.
type Participant struct {
	ID         domain.ParticipantId
	Program    vm.Program
	Parameters map[int64]int64
}

// Run executes participant's program against prevBook and returns the
// proposed set of their own orders for the next book. On any failure
// (execution fault, step cap, self-cross) it returns the participant's
// previous orders unchanged, along with the error that caused the
// fallback — callers should log the error but always merge the returned
// orders, since carrying previous orders forward is itself correct
// behavior, not an omission.
func Run(prevBook *book.Book, product domain.ProductId, participant Participant, stepCap int) ([]book.Order, error) {
	state := vm.NewExecutionState()
	marshalSnapshot(state, prevBook, participant)

	machine := vm.NewMachine(participant.Program, state)
	outcome, err := machine.Run(stepCap)
	if outcome != vm.Halted {
		return carryPrevious(prevBook, participant.ID), err
	}

	baselineBid := prevBook.ParticipantOrders(participant.ID, domain.Bid)
	baselineOffer := prevBook.ParticipantOrders(participant.ID, domain.Offer)

	bids := demarshalSide(state, arrResultBid, participant.ID, product, domain.Bid, baselineBid)
	offers := demarshalSide(state, arrResultOffer, participant.ID, product, domain.Offer, baselineOffer)

	if selfCrosses(bids, offers) {
		return carryPrevious(prevBook, participant.ID), &SelfCrossing{Participant: participant.ID}
	}

	proposed := make([]book.Order, 0, len(bids)+len(offers))
	proposed = append(proposed, bids...)
	proposed = append(proposed, offers...)
	return proposed, nil
}

func carryPrevious(prevBook *book.Book, participant domain.ParticipantId) []book.Order {
	orders := prevBook.ParticipantOrders(participant, domain.Bid)
	return append(orders, prevBook.ParticipantOrders(participant, domain.Offer)...)
}

func marshalSnapshot(state *vm.ExecutionState, prevBook *book.Book, participant Participant) {
	for idx, val := range participant.Parameters {
		state.ArrSet(arrParameters, idx, val)
	}

	bookBidMin, bookBidMax := prevBook.BidBounds()
	writeBounds(state, arrBookBidBounds, bookBidMin, bookBidMax)
	writeQuantities(state, arrBookBidQty, prevBook, domain.Bid, bookBidMin, bookBidMax)

	bookOfferMin, bookOfferMax := prevBook.OfferBounds()
	writeBounds(state, arrBookOfferBounds, bookOfferMin, bookOfferMax)
	writeQuantities(state, arrBookOfferQty, prevBook, domain.Offer, bookOfferMin, bookOfferMax)

	ownBidMin, ownBidMax := prevBook.ParticipantBidBounds(participant.ID)
	writeBounds(state, arrOwnBidBounds, ownBidMin, ownBidMax)
	writeOwnQuantities(state, arrOwnBidQty, prevBook, participant.ID, domain.Bid, ownBidMin, ownBidMax)

	ownOfferMin, ownOfferMax := prevBook.ParticipantOfferBounds(participant.ID)
	writeBounds(state, arrOwnOfferBounds, ownOfferMin, ownOfferMax)
	writeOwnQuantities(state, arrOwnOfferQty, prevBook, participant.ID, domain.Offer, ownOfferMin, ownOfferMax)
}

func writeBounds(state *vm.ExecutionState, array int64, min, max domain.Price) {
	state.ArrSet(array, 0, int64(min))
	state.ArrSet(array, 1, int64(max))
}

// writeQuantities fills array with the whole book's resting quantity on
// side at every price in [min, max], for the book-wide arrays (2/4).
func writeQuantities(state *vm.ExecutionState, array int64, b *book.Book, side domain.Side, min, max domain.Price) {
	if min == 0 && max == 0 {
		return
	}
	for price := min; price <= max; price++ {
		if qty := b.QuantityAt(side, price); qty != 0 {
			state.ArrSet(array, int64(price), int64(qty))
		}
	}
}

// writeOwnQuantities fills array with participant's own resting quantity
// on side at every price in [min, max], for the participant-scoped
// arrays (6/8). Unlike writeQuantities this must not sum every
// participant's quantity at a price, only the caller's own (see
// original_source/src/engine/bidding_program.rs's
// bid_quantity_at_price_for_participant).
func writeOwnQuantities(state *vm.ExecutionState, array int64, b *book.Book, participant domain.ParticipantId, side domain.Side, min, max domain.Price) {
	if min == 0 && max == 0 {
		return
	}
	for price := min; price <= max; price++ {
		if qty := b.ParticipantQuantityAt(participant, side, price); qty != 0 {
			state.ArrSet(array, int64(price), int64(qty))
		}
	}
}

func demarshalSide(state *vm.ExecutionState, array int64, participant domain.ParticipantId, product domain.ProductId, side domain.Side, baseline []book.Order) []book.Order {
	byPrice := make(map[domain.Price]uint64)

	if state.ArrGet(array, 0) == 0 {
		for _, o := range baseline {
			byPrice[o.Price] = o.Quantity
		}
	}

	state.IterTouched(array, func(idx, val int64) {
		if idx == 0 {
			return
		}
		price := domain.Price(idx)
		if val <= 0 {
			delete(byPrice, price)
			return
		}
		byPrice[price] = uint64(val)
	})

	orders := make([]book.Order, 0, len(byPrice))
	for price, qty := range byPrice {
		if qty == 0 {
			continue
		}
		orders = append(orders, book.Order{
			Participant: participant,
			Product:     product,
			Side:        side,
			Price:       price,
			Quantity:    qty,
		})
	}
	return orders
}

func selfCrosses(bids, offers []book.Order) bool {
	var maxBid, minOffer domain.Price
	haveBid, haveOffer := false, false
	for _, o := range bids {
		if !haveBid || o.Price > maxBid {
			maxBid = o.Price
			haveBid = true
		}
	}
	for _, o := range offers {
		if !haveOffer || o.Price < minOffer {
			minOffer = o.Price
			haveOffer = true
		}
	}
	return haveBid && haveOffer && maxBid >= minOffer
}
