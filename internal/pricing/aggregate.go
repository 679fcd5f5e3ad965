package pricing

// Line is one cart line as seen by the aggregator. UnitPrice is the per-unit
// snapshot captured when the line was last updated; BasePrice is the
// product's canonical unit price at that moment. Discounts are always
// re-resolved against BasePrice so that a snapshot that already carries a
// deduction is never discounted a second time.
type Line struct {
	ProductID  string      `json:"productId"`
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  Amount      `json:"unitPrice"`
	BasePrice  Amount      `json:"basePrice"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// LineResult pairs a line with its re-derived discount outcome.
type LineResult struct {
	Line     Line   `json:"line"`
	Discount Result `json:"discount"`
	Subtotal Amount `json:"subtotal"`
}

// Totals aggregates a cart. Every line is re-derived server side; nothing the
// client sent about amounts survives into these numbers.
type Totals struct {
	SubtotalBeforeDiscount Amount       `json:"subtotalBeforeDiscount"`
	SubtotalAfterDiscount  Amount       `json:"subtotalAfterDiscount"`
	TotalDiscount          Amount       `json:"totalDiscount"`
	HasDiscount            bool         `json:"hasDiscount"`
	Items                  []LineResult `json:"items"`
}

// CheckoutSummary extends cart totals with shipping for order placement.
type CheckoutSummary struct {
	Totals
	ShippingCost Amount `json:"shippingCost"`
	Total        Amount `json:"total"`
}

// CartTotals sums the provided lines into before/after subtotals and the
// total deduction. Lines with a non-positive quantity contribute nothing.
// A line missing its canonical BasePrice falls back to the snapshot price,
// which keeps old carts displayable at the cost of a smaller deduction.
func CartTotals(lines []Line) Totals {
	totals := Totals{Items: make([]LineResult, 0, len(lines))}
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		basis := line.BasePrice
		if basis <= 0 {
			basis = line.UnitPrice
		}
		res := Resolve(basis, line.Quantity, line.Conditions)
		before := basis * Amount(line.Quantity)
		after := before - res.TotalDiscount
		totals.SubtotalBeforeDiscount += before
		totals.SubtotalAfterDiscount += after
		totals.TotalDiscount += res.TotalDiscount
		totals.Items = append(totals.Items, LineResult{
			Line:     line,
			Discount: res,
			Subtotal: after,
		})
	}
	totals.HasDiscount = totals.TotalDiscount > 0
	return totals
}

// CheckoutTotals recomputes cart totals and adds the shipping cost. It runs
// independently of whatever totals the client displayed: checkout is the
// trust boundary and only server-derived numbers reach the order.
func CheckoutTotals(lines []Line, shippingCost Amount) CheckoutSummary {
	if shippingCost < 0 {
		shippingCost = 0
	}
	totals := CartTotals(lines)
	return CheckoutSummary{
		Totals:       totals,
		ShippingCost: shippingCost,
		Total:        totals.SubtotalAfterDiscount + shippingCost,
	}
}
