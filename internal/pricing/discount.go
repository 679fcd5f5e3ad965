package pricing

import (
	"encoding/json"
	"fmt"
)

// Amount is a monetary value in Toman. Prices come from the storefront as
// decimal numbers, so the whole package computes on float64 rather than
// minor units.
type Amount = float64

// ConditionType discriminates how a discount value is interpreted.
type ConditionType string

const (
	// Percentage interprets Value as a 0-100 percentage of the unit price.
	Percentage ConditionType = "percentage"
	// Fixed interprets Value as an absolute deduction in Toman.
	Fixed ConditionType = "fixed"
)

// Condition is one quantity tier: once the purchased quantity reaches
// MinQuantity the discount applies. A product carries zero or more
// conditions in no particular order.
type Condition struct {
	MinQuantity int           `json:"minQuantity"`
	Type        ConditionType `json:"type"`
	Value       float64       `json:"value"`
}

func (c Condition) valid() bool {
	if c.MinQuantity < 1 || c.Value < 0 {
		return false
	}
	return c.Type == Percentage || c.Type == Fixed
}

// Result is the outcome of resolving a discount for one line.
//
// FinalPrice and TotalDiscount are expressed against the unit base price:
// the deduction is computed from BasePrice alone and clamped to it, never
// against BasePrice multiplied by quantity. Callers that need a per-unit
// snapshot divide FinalPrice back down by quantity (see PriceItem).
type Result struct {
	FinalPrice    Amount     `json:"finalPrice"`
	TotalDiscount Amount     `json:"totalDiscount"`
	Applied       *Condition `json:"appliedDiscount,omitempty"`
}

// Resolve determines the single applicable discount for quantity units at
// basePrice each.
//
// Conditions whose MinQuantity exceeds the quantity are ignored. Among the
// qualifying set the condition with the largest MinQuantity wins; when two
// share the same MinQuantity the higher Value wins, so selection does not
// depend on input order. Malformed conditions and invalid inputs degrade to
// "no discount" rather than an error: pricing must always stay well-defined
// for display.
func Resolve(basePrice Amount, quantity int, conditions []Condition) Result {
	if basePrice < 0 {
		basePrice = 0
	}
	if quantity < 1 || len(conditions) == 0 {
		return Result{FinalPrice: basePrice}
	}

	var selected *Condition
	for i := range conditions {
		c := conditions[i]
		if !c.valid() || quantity < c.MinQuantity {
			continue
		}
		if selected == nil ||
			c.MinQuantity > selected.MinQuantity ||
			(c.MinQuantity == selected.MinQuantity && c.Value > selected.Value) {
			selected = &conditions[i]
		}
	}
	if selected == nil {
		return Result{FinalPrice: basePrice}
	}

	var discount Amount
	switch selected.Type {
	case Percentage:
		discount = basePrice * selected.Value / 100
	case Fixed:
		discount = selected.Value
	}
	if discount > basePrice {
		discount = basePrice
	}
	if discount < 0 {
		discount = 0
	}
	applied := *selected
	return Result{
		FinalPrice:    basePrice - discount,
		TotalDiscount: discount,
		Applied:       &applied,
	}
}

// PreviewText renders a Persian, human-readable summary of the discount that
// Resolve would apply, for display next to the quantity selector. It returns
// the empty string when no discount applies.
func PreviewText(basePrice Amount, quantity int, conditions []Condition) string {
	res := Resolve(basePrice, quantity, conditions)
	if res.Applied == nil || res.TotalDiscount <= 0 {
		return ""
	}
	c := *res.Applied
	switch c.Type {
	case Percentage:
		return fmt.Sprintf("%s تخفیف برای خرید %d عدد به بالا", formatPercent(c.Value), c.MinQuantity)
	case Fixed:
		return fmt.Sprintf("%s تومان تخفیف برای خرید %d عدد به بالا", formatAmount(c.Value), c.MinQuantity)
	}
	return ""
}

func formatPercent(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("٪%d", int64(v))
	}
	return fmt.Sprintf("٪%g", v)
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// ConditionsFromMeta extracts the discount tiers from a product's opaque
// metadata bag. A missing or malformed discountConditions key means the
// product simply has no discounts.
func ConditionsFromMeta(meta map[string]json.RawMessage) []Condition {
	if len(meta) == 0 {
		return nil
	}
	raw, ok := meta[MetaKeyDiscountConditions]
	if !ok || len(raw) == 0 {
		return nil
	}
	var conditions []Condition
	if err := json.Unmarshal(raw, &conditions); err != nil {
		return nil
	}
	return conditions
}

// MetaKeyDiscountConditions is the product metadata key carrying tiers.
const MetaKeyDiscountConditions = "discountConditions"
