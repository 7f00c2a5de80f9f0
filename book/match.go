package book

import "vmxexchange/domain"

// Match runs the uniform-midpoint pro-rata call-matching algorithm over
// b and returns the trades produced. It consumes the book: matched
// orders have their quantity reduced (and are removed once it reaches
// zero), so Match should only be called once per book, after all
// bidding rounds for the cycle have finished.
func Match(product domain.ProductId, b *Book) []domain.Trade {
	minBid, maxBid := b.BidBounds()
	minOffer, maxOffer := b.OfferBounds()
	if minBid == 0 && maxBid == 0 {
		return nil
	}
	if minOffer == 0 && maxOffer == 0 {
		return nil
	}

	var trades []domain.Trade
	bidPrice := maxBid
	offerPrice := minOffer

	for bidPrice >= offerPrice && bidPrice >= minBid && offerPrice <= maxOffer {
		qBid := b.QuantityAt(domain.Bid, bidPrice)
		qOffer := b.QuantityAt(domain.Offer, offerPrice)
		matchQty := qBid
		if qOffer < matchQty {
			matchQty = qOffer
		}

		if matchQty > 0 {
			sum := uint64(bidPrice) + uint64(offerPrice)
			buyerPrice := domain.Price((sum + 1) / 2) // ceil
			sellerPrice := domain.Price(sum / 2)       // floor

			trades = append(trades, settleLevel(b, product, domain.Bid, bidPrice, qBid, matchQty, buyerPrice)...)
			trades = append(trades, settleLevel(b, product, domain.Offer, offerPrice, qOffer, matchQty, sellerPrice)...)
		}

		if b.QuantityAt(domain.Bid, bidPrice) == 0 {
			bidPrice--
		}
		if b.QuantityAt(domain.Offer, offerPrice) == 0 {
			offerPrice++
		}
	}

	return trades
}

// settleLevel allocates matchQty pro-rata across every order resting on
// side at price, in insertion order, and returns the trades produced.
// totalQty is the side's quantity at this level before this call started
// allocating (the ratio denominator); it does not change as orders are
// decremented within the call.
func settleLevel(b *Book, product domain.ProductId, side domain.Side, price domain.Price, totalQty, matchQty uint64, tradePrice domain.Price) []domain.Trade {
	lvl := b.levels[price]
	if lvl == nil || totalQty == 0 {
		return nil
	}

	var orders []*Order
	for e := lvl.Orders.Front(); e != nil; e = e.Next() {
		o := e.Value.(*Order)
		if o.Side == side {
			orders = append(orders, o)
		}
	}

	var trades []domain.Trade
	remaining := matchQty
	for _, o := range orders {
		if remaining == 0 {
			break
		}
		share := ceilDiv(o.Quantity*matchQty, totalQty)
		matched := share
		if matched > remaining {
			matched = remaining
		}
		if matched == 0 {
			continue
		}
		o.Quantity -= matched
		remaining -= matched
		trades = append(trades, domain.Trade{
			Product:     product,
			Participant: o.Participant,
			Side:        side,
			Price:       tradePrice,
			Quantity:    matched,
		})
		if o.Quantity == 0 {
			b.removeOrder(o)
		}
	}

	return trades
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
