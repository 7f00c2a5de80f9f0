// Package book implements the per-product order book: price levels, the
// two read operations the VM snapshot is built from (bounds, quantity),
// and the uniform-midpoint pro-rata call-matching algorithm.
package book

import (
	"container/list"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"vmxexchange/domain"
)

// Order is one resting order: a single (participant, side) slot at one
// price level. A book never stores two orders for the same
// (participant, side) at the same price; UpdateOrInsertOrder merges into
// the existing one instead.
type Order struct {
	Participant domain.ParticipantId
	Product     domain.ProductId
	Side        domain.Side
	Price       domain.Price
	Quantity    uint64

	elem *list.Element
}

type levelKey struct {
	participant domain.ParticipantId
	side        domain.Side
}

// Level holds every order resting at one price, as a doubly linked list
// in insertion order. Call matching's pro-rata step walks Orders front to
// back, so insertion order is the tie-break the spec requires; each order
// keeps its own list.Element so removeOrder is O(1) rather than a scan.
type Level struct {
	Price  domain.Price
	Orders *list.List
	byKey  map[levelKey]*Order
}

func newLevel(price domain.Price) *Level {
	return &Level{Price: price, Orders: list.New(), byKey: make(map[levelKey]*Order)}
}

func priceComparator(a, b domain.Price) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Book is a product's current set of resting orders, keyed by price. The
// engine replaces a product's Book wholesale at the end of each bidding
// round (see runner.Run). Bidding rounds only read the installed book;
// call matching (Match) and a participant's Leave mutate it in place.
type Book struct {
	Product domain.ProductId

	levels map[domain.Price]*Level

	// bidPrices/offerPrices index which prices currently hold at least
	// one order on that side, ordered, so bounds queries are O(log n)
	// instead of a full scan of levels.
	bidPrices   *rbt.Tree[domain.Price, struct{}]
	offerPrices *rbt.Tree[domain.Price, struct{}]

	// participant indices: small per-participant maps of price -> order,
	// used to answer the per-participant bounds/quantity queries the
	// program runner needs without scanning the whole book.
	byParticipantBid   map[domain.ParticipantId]map[domain.Price]*Order
	byParticipantOffer map[domain.ParticipantId]map[domain.Price]*Order
}

// NewBook returns an empty book for product.
func NewBook(product domain.ProductId) *Book {
	return &Book{
		Product:            product,
		levels:             make(map[domain.Price]*Level),
		bidPrices:          rbt.NewWith[domain.Price, struct{}](priceComparator),
		offerPrices:        rbt.NewWith[domain.Price, struct{}](priceComparator),
		byParticipantBid:   make(map[domain.ParticipantId]map[domain.Price]*Order),
		byParticipantOffer: make(map[domain.ParticipantId]map[domain.Price]*Order),
	}
}

func (b *Book) priceIndex(side domain.Side) *rbt.Tree[domain.Price, struct{}] {
	if side == domain.Bid {
		return b.bidPrices
	}
	return b.offerPrices
}

func (b *Book) participantIndex(side domain.Side) map[domain.ParticipantId]map[domain.Price]*Order {
	if side == domain.Bid {
		return b.byParticipantBid
	}
	return b.byParticipantOffer
}

func (b *Book) levelAt(price domain.Price, create bool) *Level {
	lvl, ok := b.levels[price]
	if !ok {
		if !create {
			return nil
		}
		lvl = newLevel(price)
		b.levels[price] = lvl
	}
	return lvl
}

func (b *Book) indexOrder(o *Order) {
	b.priceIndex(o.Side).Put(o.Price, struct{}{})
	byParticipant := b.participantIndex(o.Side)
	prices, ok := byParticipant[o.Participant]
	if !ok {
		prices = make(map[domain.Price]*Order)
		byParticipant[o.Participant] = prices
	}
	prices[o.Price] = o
}

// InsertOrder places order into the book unconditionally. If a
// (participant, side) slot already exists at that price it is
// overwritten outright; callers that want quantities to accumulate
// instead must use UpdateOrInsertOrder.
func (b *Book) InsertOrder(o Order) *Order {
	lvl := b.levelAt(o.Price, true)
	key := levelKey{participant: o.Participant, side: o.Side}
	if existing, ok := lvl.byKey[key]; ok {
		elem := existing.elem
		*existing = o
		existing.elem = elem
		b.indexOrder(existing)
		return existing
	}
	stored := new(Order)
	*stored = o
	lvl.byKey[key] = stored
	stored.elem = lvl.Orders.PushBack(stored)
	b.indexOrder(stored)
	return stored
}

// UpdateOrInsertOrder adds o's quantity to any existing order at the
// same price for the same (participant, side); otherwise it inserts o as
// a new order. This is how program runner revisions are merged into a
// fresh book each round.
func (b *Book) UpdateOrInsertOrder(o Order) *Order {
	lvl := b.levelAt(o.Price, true)
	key := levelKey{participant: o.Participant, side: o.Side}
	if existing, ok := lvl.byKey[key]; ok {
		existing.Quantity += o.Quantity
		b.indexOrder(existing)
		return existing
	}
	stored := new(Order)
	*stored = o
	lvl.byKey[key] = stored
	stored.elem = lvl.Orders.PushBack(stored)
	b.indexOrder(stored)
	return stored
}

// removeOrder drops an order entirely (used once its quantity reaches
// zero during matching). The order's own list.Element makes this O(1)
// rather than a scan of the level.
func (b *Book) removeOrder(o *Order) {
	lvl := b.levels[o.Price]
	if lvl == nil {
		return
	}
	key := levelKey{participant: o.Participant, side: o.Side}
	delete(lvl.byKey, key)
	if o.elem != nil {
		lvl.Orders.Remove(o.elem)
		o.elem = nil
	}
	if lvl.Orders.Len() == 0 {
		delete(b.levels, o.Price)
	}
	if prices := b.participantIndex(o.Side)[o.Participant]; prices != nil {
		delete(prices, o.Price)
	}
	if b.QuantityAt(o.Side, o.Price) == 0 {
		b.priceIndex(o.Side).Remove(o.Price)
	}
}

// RemoveOrder drops a participant's order on side at price entirely, if
// one exists. Used when a participant leaves, to clear their standing
// orders out of every book they touched.
func (b *Book) RemoveOrder(participant domain.ParticipantId, side domain.Side, price domain.Price) {
	order, ok := b.participantIndex(side)[participant][price]
	if !ok {
		return
	}
	b.removeOrder(order)
}

// bounds returns the (min, max) of an ordered price index, or (0, 0) if
// it is empty. Price 0 is reserved as the "none" sentinel so this never
// collides with a real pair of bounds.
func bounds(index *rbt.Tree[domain.Price, struct{}]) (domain.Price, domain.Price) {
	if index.Empty() {
		return 0, 0
	}
	min := index.Left()
	max := index.Right()
	return min.Key, max.Key
}

// BidBounds returns (minBidPrice, maxBidPrice) across the whole book, or
// (0, 0) if there are no bids.
func (b *Book) BidBounds() (domain.Price, domain.Price) {
	return bounds(b.bidPrices)
}

// OfferBounds returns (minOfferPrice, maxOfferPrice) across the whole
// book, or (0, 0) if there are no offers.
func (b *Book) OfferBounds() (domain.Price, domain.Price) {
	return bounds(b.offerPrices)
}

// QuantityAt sums the quantity of every order resting on side at price.
func (b *Book) QuantityAt(side domain.Side, price domain.Price) uint64 {
	lvl, ok := b.levels[price]
	if !ok {
		return 0
	}
	var total uint64
	for e := lvl.Orders.Front(); e != nil; e = e.Next() {
		o := e.Value.(*Order)
		if o.Side == side {
			total += o.Quantity
		}
	}
	return total
}

// ParticipantBidBounds returns (min, max) of participant's own bid
// prices, or (0, 0) if they hold no bids.
func (b *Book) ParticipantBidBounds(participant domain.ParticipantId) (domain.Price, domain.Price) {
	return participantBounds(b.byParticipantBid[participant])
}

// ParticipantOfferBounds returns (min, max) of participant's own offer
// prices, or (0, 0) if they hold no offers.
func (b *Book) ParticipantOfferBounds(participant domain.ParticipantId) (domain.Price, domain.Price) {
	return participantBounds(b.byParticipantOffer[participant])
}

func participantBounds(prices map[domain.Price]*Order) (domain.Price, domain.Price) {
	if len(prices) == 0 {
		return 0, 0
	}
	var min, max domain.Price
	first := true
	for price := range prices {
		if first || price < min {
			min = price
		}
		if first || price > max {
			max = price
		}
		first = false
	}
	return min, max
}

// ParticipantQuantityAt returns participant's own resting quantity on
// side at price.
func (b *Book) ParticipantQuantityAt(participant domain.ParticipantId, side domain.Side, price domain.Price) uint64 {
	order, ok := b.participantIndex(side)[participant][price]
	if !ok {
		return 0
	}
	return order.Quantity
}

// ParticipantOrders returns every order participant currently has
// resting on side, unordered. Used by the program runner to seed a
// revision's "carry previous" baseline.
func (b *Book) ParticipantOrders(participant domain.ParticipantId, side domain.Side) []Order {
	prices := b.participantIndex(side)[participant]
	orders := make([]Order, 0, len(prices))
	for _, o := range prices {
		orders = append(orders, *o)
	}
	return orders
}
