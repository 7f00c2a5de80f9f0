// Package protocol implements the JSON wire format for client directives
// and trade notifications (§6.1/§6.2), one JSON object per
// newline-delimited frame.
package protocol

import (
	"encoding/json"
	"fmt"

	"vmxexchange/domain"
	"vmxexchange/engine"
)

// DecodeError wraps a malformed frame. The server logs and drops the
// frame without tearing down the connection; a single bad frame is
// recoverable, matching §7's transport-failures-are-out-of-core but
// still-should-not-panic spirit.
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: malformed directive frame: %v", e.cause)
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

// wireDirective mirrors the four-variant directive union at the wire
// level: exactly one of the pointer fields is non-nil.
type wireDirective struct {
	Join            *struct{}        `json:"Join,omitempty"`
	Leave           *struct{}        `json:"Leave,omitempty"`
	UpdateParameter *wireUpdateParam `json:"UpdateParameter,omitempty"`
	SubmitProgram   *wireSubmit      `json:"SubmitProgram,omitempty"`
}

type wireUpdateParam struct {
	ProductID uint64 `json:"product_id"`
	ParamIdx  uint64 `json:"param_idx"`
	Value     int64  `json:"value"`
}

type wireSubmit struct {
	ProductID uint64 `json:"product_id"`
	Program   string `json:"program"`
}

// DecodeDirective parses one JSON frame into an engine.Directive.
func DecodeDirective(frame []byte) (engine.Directive, error) {
	var wire wireDirective
	if err := json.Unmarshal(frame, &wire); err != nil {
		return nil, &DecodeError{cause: err}
	}

	switch {
	case wire.Join != nil:
		return engine.Join{}, nil
	case wire.Leave != nil:
		return engine.Leave{}, nil
	case wire.UpdateParameter != nil:
		return engine.UpdateParameter{
			Product:  domain.ProductId(wire.UpdateParameter.ProductID),
			ParamIdx: int64(wire.UpdateParameter.ParamIdx),
			Value:    wire.UpdateParameter.Value,
		}, nil
	case wire.SubmitProgram != nil:
		return engine.SubmitProgram{
			Product: domain.ProductId(wire.SubmitProgram.ProductID),
			Source:  wire.SubmitProgram.Program,
		}, nil
	default:
		return nil, &DecodeError{cause: fmt.Errorf("no recognized directive variant in frame")}
	}
}

// wireTrade mirrors the Trade notification (§6.2).
type wireTrade struct {
	ProductID uint64 `json:"product_id"`
	Side      string `json:"side"`
	Price     uint64 `json:"price"`
	Quantity  uint64 `json:"quantity"`
}

type wireNotification struct {
	Trade *wireTrade `json:"Trade,omitempty"`
}

// EncodeTrade serializes a Trade as a client notification frame,
// newline-terminated so it can be written directly to a connection.
func EncodeTrade(trade domain.Trade) ([]byte, error) {
	out, err := json.Marshal(wireNotification{Trade: &wireTrade{
		ProductID: uint64(trade.Product),
		Side:      trade.Side.String(),
		Price:     uint64(trade.Price),
		Quantity:  trade.Quantity,
	}})
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
