package engine

import (
	"vmxexchange/domain"
	"vmxexchange/vm"
)

// programEntry is one (Program, Parameters) pair: everything a
// participant has set up for one product.
type programEntry struct {
	program    vm.Program
	parameters map[int64]int64
}

// participantRecord is a participant's state across every product they
// have touched. A participant may run a different program with
// different parameters on each product — this is not one shared program
// across all of a participant's products.
type participantRecord struct {
	products map[domain.ProductId]*programEntry
}

func newParticipantRecord() *participantRecord {
	return &participantRecord{products: make(map[domain.ProductId]*programEntry)}
}

func (r *participantRecord) entry(product domain.ProductId, create bool) *programEntry {
	e, ok := r.products[product]
	if !ok {
		if !create {
			return nil
		}
		e = &programEntry{parameters: make(map[int64]int64)}
		r.products[product] = e
	}
	return e
}
