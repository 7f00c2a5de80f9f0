package engine

import "vmxexchange/domain"

// Directive is one client request applied to the engine's state. The
// four concrete kinds below are a closed set (§6.1); ApplyDirective
// switches on them with a type switch.
type Directive interface {
	isDirective()
}

// Join registers a new participant. It must be the first directive seen
// for a participant; a second Join for the same id is a DuplicateJoin
// error.
type Join struct{}

// Leave removes a participant's record and every order they hold across
// every product's book.
type Leave struct{}

// SubmitProgram installs (or replaces) the program a participant runs
// for one product. Source is textual assembly (§6.3); it is compiled
// immediately so a ParseError is reported back to the caller rather than
// discovered later during a bidding round.
type SubmitProgram struct {
	Product domain.ProductId
	Source  string
}

// UpdateParameter sets one entry of a participant's per-product
// parameter map, readable by their program via array 0.
type UpdateParameter struct {
	Product  domain.ProductId
	ParamIdx int64
	Value    int64
}

func (Join) isDirective()            {}
func (Leave) isDirective()           {}
func (SubmitProgram) isDirective()   {}
func (UpdateParameter) isDirective() {}
