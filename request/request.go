// Package request decodes render requests shared by the orderform CLI and
// the render service. A request carries either a finished order with its
// line items (or raw table rows), or a saved wizard state.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wudi/orderkit/order"
	"github.com/wudi/orderkit/wizard"
)

// ErrEmpty is returned for a request with neither an order nor a wizard
// state.
var ErrEmpty = errors.New("request needs an order or a wizard state")

// InvalidError carries validation messages.
type InvalidError struct {
	Messages []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid order: %d problem(s)", len(e.Messages))
}

// Request is the JSON body of a render or validate call.
type Request struct {
	Order     *order.Order     `json:"order,omitempty"`
	LineItems []order.LineItem `json:"line_items,omitempty"`
	Rows      []order.RowInput `json:"rows,omitempty"`
	Wizard    *wizard.State    `json:"wizard,omitempty"`
}

// Decode reads one request. Unknown fields are rejected.
func Decode(r io.Reader) (*Request, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if req.Order == nil && req.Wizard == nil {
		return nil, ErrEmpty
	}
	return &req, nil
}

func (req *Request) mode() order.PricingMode {
	if req.Order.PricingMode == "" {
		return order.ModeCloud
	}
	return req.Order.PricingMode
}

// Validate returns every problem that would block a render. Wizard states
// are checked step by step; orders are checked row by row.
func (req *Request) Validate(v *order.Validator, now time.Time) ([]string, error) {
	if req.Wizard != nil {
		s := req.Wizard
		msgs := append(s.CustomerProblems(), s.TermsProblems()...)
		mode := s.Order.PricingMode
		if mode == "" {
			mode = order.ModeCloud
		}
		rows, err := v.Validate(mode, s.Rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, rows...)
		return append(msgs, s.AgreementProblems(now)...), nil
	}
	if req.Order == nil {
		return nil, ErrEmpty
	}
	if len(req.Rows) > 0 {
		return v.Validate(req.mode(), req.Rows)
	}
	return v.ValidateItems(req.mode(), req.LineItems)
}

// Resolve returns the order and line items to render. Raw rows and wizard
// states must validate; line items are taken as already normalised.
func (req *Request) Resolve(v *order.Validator, now time.Time) (order.Order, []order.LineItem, error) {
	if req.Wizard != nil {
		o, items, err := req.Wizard.Finalize(v, now)
		var se *wizard.StepError
		if errors.As(err, &se) {
			return order.Order{}, nil, &InvalidError{Messages: se.Problems}
		}
		return o, items, err
	}
	if req.Order == nil {
		return order.Order{}, nil, ErrEmpty
	}
	o := *req.Order
	o.PricingMode = req.mode()
	if len(req.Rows) == 0 {
		return o, req.LineItems, nil
	}
	msgs, err := v.Validate(o.PricingMode, req.Rows)
	if err != nil {
		return order.Order{}, nil, err
	}
	if len(msgs) > 0 {
		return order.Order{}, nil, &InvalidError{Messages: msgs}
	}
	return o, order.NormalizeRows(req.Rows), nil
}
