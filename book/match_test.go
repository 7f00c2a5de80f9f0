package book

import (
	"testing"

	"vmxexchange/domain"
)

// Scenario 1: same-price match.
func TestMatchSamePriceMatch(t *testing.T) {
	b := NewBook(1)
	b.UpdateOrInsertOrder(Order{Participant: 0, Side: domain.Bid, Price: 1, Quantity: 20})
	b.UpdateOrInsertOrder(Order{Participant: 1, Side: domain.Offer, Price: 1, Quantity: 20})

	trades := Match(1, b)
	if len(trades) != 2 {
		t.Fatalf("len(trades) = %d, want 2", len(trades))
	}
	for _, tr := range trades {
		if tr.Price != 1 || tr.Quantity != 20 {
			t.Errorf("trade = %+v, want price 1 qty 20", tr)
		}
	}
}

// Scenario 2: no match across the spread.
func TestMatchNoCrossNoTrades(t *testing.T) {
	b := NewBook(1)
	b.UpdateOrInsertOrder(Order{Participant: 0, Side: domain.Bid, Price: 1, Quantity: 20})
	b.UpdateOrInsertOrder(Order{Participant: 1, Side: domain.Offer, Price: 2, Quantity: 20})

	trades := Match(1, b)
	if len(trades) != 0 {
		t.Fatalf("len(trades) = %d, want 0", len(trades))
	}
}

// Scenario 3: pro-rata split on the offer side.
func TestMatchProRataSplit(t *testing.T) {
	b := NewBook(1)
	b.UpdateOrInsertOrder(Order{Participant: 0, Side: domain.Bid, Price: 1, Quantity: 10})
	b.UpdateOrInsertOrder(Order{Participant: 1, Side: domain.Offer, Price: 1, Quantity: 12})
	b.UpdateOrInsertOrder(Order{Participant: 2, Side: domain.Offer, Price: 1, Quantity: 8})

	trades := Match(1, b)

	var buyerTrades, sellerTrades []domain.Trade
	for _, tr := range trades {
		if tr.Side == domain.Bid {
			buyerTrades = append(buyerTrades, tr)
		} else {
			sellerTrades = append(sellerTrades, tr)
		}
	}
	if len(buyerTrades) != 1 || buyerTrades[0].Quantity != 10 {
		t.Fatalf("buyerTrades = %+v, want one trade of qty 10", buyerTrades)
	}
	var sellerTotal uint64
	for _, tr := range sellerTrades {
		sellerTotal += tr.Quantity
	}
	if sellerTotal != 10 {
		t.Fatalf("sellerTotal = %d, want 10", sellerTotal)
	}
	if len(sellerTrades) != 2 {
		t.Fatalf("len(sellerTrades) = %d, want 2", len(sellerTrades))
	}
	// ceil(12 * 10/20) = 6 for P1, clamp remaining 4 for P2.
	byParticipant := map[domain.ParticipantId]uint64{}
	for _, tr := range sellerTrades {
		byParticipant[tr.Participant] = tr.Quantity
	}
	if byParticipant[1] != 6 || byParticipant[2] != 4 {
		t.Errorf("seller split = %v, want {1:6, 2:4}", byParticipant)
	}
}

// Scenario 4: rounded midpoint.
func TestMatchRoundedMidpoint(t *testing.T) {
	b := NewBook(1)
	b.UpdateOrInsertOrder(Order{Participant: 0, Side: domain.Offer, Price: 1, Quantity: 20})
	b.UpdateOrInsertOrder(Order{Participant: 1, Side: domain.Bid, Price: 4, Quantity: 20})

	trades := Match(1, b)
	if len(trades) != 2 {
		t.Fatalf("len(trades) = %d, want 2", len(trades))
	}
	for _, tr := range trades {
		switch tr.Side {
		case domain.Bid:
			if tr.Price != 3 {
				t.Errorf("buyer price = %d, want 3", tr.Price)
			}
		case domain.Offer:
			if tr.Price != 2 {
				t.Errorf("seller price = %d, want 2", tr.Price)
			}
		}
	}
}

func TestMatchEmptyBookNoTrades(t *testing.T) {
	b := NewBook(1)
	if trades := Match(1, b); len(trades) != 0 {
		t.Errorf("len(trades) = %d, want 0", len(trades))
	}
}

func TestMatchConservesQuantity(t *testing.T) {
	b := NewBook(1)
	b.UpdateOrInsertOrder(Order{Participant: 0, Side: domain.Bid, Price: 5, Quantity: 7})
	b.UpdateOrInsertOrder(Order{Participant: 1, Side: domain.Offer, Price: 3, Quantity: 11})

	trades := Match(1, b)
	var bidQty, offerQty uint64
	for _, tr := range trades {
		if tr.Side == domain.Bid {
			bidQty += tr.Quantity
		} else {
			offerQty += tr.Quantity
		}
	}
	if bidQty != offerQty {
		t.Errorf("bidQty=%d offerQty=%d, want equal", bidQty, offerQty)
	}
	if bidQty != 7 {
		t.Errorf("matched qty = %d, want 7", bidQty)
	}
}
