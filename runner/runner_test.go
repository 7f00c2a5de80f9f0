package runner

import (
	"testing"

	"vmxexchange/book"
	"vmxexchange/domain"
	"vmxexchange/vm"
)

func assembleOrFail(t *testing.T, src string) vm.Program {
	t.Helper()
	program, err := vm.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	return program
}

func TestRunCarriesPreviousOnExecutionFailure(t *testing.T) {
	prev := book.NewBook(1)
	prev.UpdateOrInsertOrder(book.Order{Participant: 1, Product: 1, Side: domain.Bid, Price: 5, Quantity: 10})

	// Div by zero: r1=1, r2=0, dst r0.
	program := assembleOrFail(t, "movimm r1 1\nmovimm r2 0\ndiv r0 r1 r2\n")
	participant := Participant{ID: 1, Program: program}

	orders, err := Run(prev, 1, participant, 100)
	if err == nil {
		t.Fatal("expected an execution error")
	}
	if len(orders) != 1 || orders[0].Price != 5 || orders[0].Quantity != 10 {
		t.Errorf("orders = %+v, want carried-forward bid 10@5", orders)
	}
}

func TestRunCarriesPreviousOnStepCapExceeded(t *testing.T) {
	prev := book.NewBook(1)
	prev.UpdateOrInsertOrder(book.Order{Participant: 1, Product: 1, Side: domain.Bid, Price: 5, Quantity: 10})

	program := assembleOrFail(t, "movimm r0 0\njmp r0\n")
	participant := Participant{ID: 1, Program: program}

	orders, err := Run(prev, 1, participant, 5)
	if err == nil {
		t.Fatal("expected a step cap error")
	}
	if _, ok := err.(*vm.StepCapExceeded); !ok {
		t.Errorf("err = %v (%T), want *vm.StepCapExceeded", err, err)
	}
	if len(orders) != 1 {
		t.Errorf("orders = %+v, want carried-forward bid", orders)
	}
}

// Scenario 5: self-cross prevention.
func TestRunRejectsSelfCrossingRevision(t *testing.T) {
	prev := book.NewBook(1)
	prev.UpdateOrInsertOrder(book.Order{Participant: 1, Product: 1, Side: domain.Bid, Price: 1, Quantity: 1})

	// Write array9[200] = 100 (bid 100@200) and array10[100] = 100 (offer 100@100).
	program := assembleOrFail(t, `
movimm r0 0      ; reuse flag value
movimm r1 9      ; array id 9 (bid results)
movimm r2 200    ; price 200
movimm r3 100    ; qty 100
arrins r3 r1 r2  ; array9[200] = 100
movimm r4 10     ; array id 10 (offer results)
movimm r5 100    ; price 100
arrins r3 r4 r5  ; array10[100] = 100
halt
`)
	participant := Participant{ID: 1, Program: program}

	orders, err := Run(prev, 1, participant, 100)
	if err == nil {
		t.Fatal("expected SelfCrossing error")
	}
	if _, ok := err.(*SelfCrossing); !ok {
		t.Errorf("err = %v (%T), want *SelfCrossing", err, err)
	}
	if len(orders) != 1 || orders[0].Price != 1 || orders[0].Quantity != 1 {
		t.Errorf("orders = %+v, want carried-forward bid 1@1 (revision rejected)", orders)
	}
}

// Scenario 6: parameter-driven program. Seller quotes at array0[1]; this
// test checks only the seller's proposed offer, first with the parameter
// at 200 and then at 100.
func TestRunParameterDrivenSellerQuote(t *testing.T) {
	// Program: write offer array10[price]=quantity where price comes from
	// param 1 (array0 index 1), quantity fixed at 100, erase flag 1 on
	// both sides (array9[0]=1, array10[0]=1).
	program := assembleOrFail(t, `
movimm r0 1
movimm r1 9
movimm r2 0
arrins r0 r1 r2    ; array9[0] = 1 (erase bids)
movimm r3 10
arrins r0 r3 r2    ; array10[0] = 1 (erase offers)
movimm r4 0
arrget r5 r4 r0    ; r5 = array0[ r0=1 ] -> param 1
movimm r6 100
arrins r6 r3 r5    ; array10[r5] = 100
halt
`)
	prev := book.NewBook(1)

	seller := Participant{ID: 2, Program: program, Parameters: map[int64]int64{1: 200}}
	orders, err := Run(prev, 1, seller, 1000)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(orders) != 1 || orders[0].Price != 200 || orders[0].Quantity != 100 {
		t.Fatalf("orders = %+v, want offer 100@200", orders)
	}

	seller.Parameters = map[int64]int64{1: 100}
	orders, err = Run(prev, 1, seller, 1000)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(orders) != 1 || orders[0].Price != 100 {
		t.Fatalf("orders = %+v, want offer at updated price 100", orders)
	}
}

// The participant-scoped own-quantity arrays (6/8) must reflect only the
// calling participant's own resting quantity at a price, not the whole
// book's (arrays 2/4 are the whole-book ones). Two participants bidding
// at the same price would previously inflate participant 1's own-qty
// array with participant 2's quantity too.
func TestMarshalSnapshotOwnQuantityExcludesOtherParticipants(t *testing.T) {
	prev := book.NewBook(1)
	prev.UpdateOrInsertOrder(book.Order{Participant: 1, Product: 1, Side: domain.Bid, Price: 5, Quantity: 10})
	prev.UpdateOrInsertOrder(book.Order{Participant: 2, Product: 1, Side: domain.Bid, Price: 5, Quantity: 7})

	state := vm.NewExecutionState()
	marshalSnapshot(state, prev, Participant{ID: 1})

	if got := state.ArrGet(arrBookBidQty, 5); got != 17 {
		t.Errorf("whole-book bid qty at 5 = %d, want 17 (10+7)", got)
	}
	if got := state.ArrGet(arrOwnBidQty, 5); got != 10 {
		t.Errorf("own bid qty at 5 = %d, want 10 (participant 1's own quantity only)", got)
	}
}
