package pricing

// ItemPricing is the computed price breakdown for one cart line candidate.
// It feeds the cart store when an item is added or its quantity changes and
// backs the product page's live price preview.
type ItemPricing struct {
	OriginalPrice  Amount `json:"originalPrice"`
	EffectivePrice Amount `json:"effectivePrice"`
	DiscountAmount Amount `json:"discountAmount"`
	HasDiscount    bool   `json:"hasDiscount"`
	PricePerUnit   Amount `json:"pricePerUnit"`
}

// PriceItem resolves the discount for quantity units at basePrice each and
// derives the per-unit snapshot price stored on a cart line.
//
// PricePerUnit is EffectivePrice divided by quantity: the resolver's
// FinalPrice already carries the full deduction, so the division spreads it
// evenly across the units of the line. The caller persists PricePerUnit into
// the line's snapshot; this function itself has no side effects.
func PriceItem(basePrice Amount, quantity int, conditions []Condition) ItemPricing {
	if quantity < 1 {
		quantity = 1
	}
	res := Resolve(basePrice, quantity, conditions)
	return ItemPricing{
		OriginalPrice:  basePrice,
		EffectivePrice: res.FinalPrice,
		DiscountAmount: res.TotalDiscount,
		HasDiscount:    res.TotalDiscount > 0,
		PricePerUnit:   res.FinalPrice / Amount(quantity),
	}
}
