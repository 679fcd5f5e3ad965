package pricing

import "fmt"

// Persian validation messages shown to the shopper at checkout.
const (
	MsgCartEmpty      = "سبد خرید خالی است"
	MsgAddressMissing = "آدرس تحویل انتخاب نشده است"
)

// MsgInvalidQuantity flags the 1-based row whose quantity is not positive.
func MsgInvalidQuantity(row int) string {
	return fmt.Sprintf("تعداد کالای ردیف %d نامعتبر است", row)
}

// MsgInvalidProduct flags the 1-based row with a missing product reference.
func MsgInvalidProduct(row int) string {
	return fmt.Sprintf("شناسه کالای ردیف %d نامعتبر است", row)
}

// CheckoutData is the order placement payload the aggregator validates.
type CheckoutData struct {
	Items     []Line
	AddressID string
}

// Validation collects user-facing problems instead of failing on the first
// one. Callers must check IsValid before creating an order.
type Validation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateCheckout checks the cart and address ahead of order creation.
// Failures are returned as a list of Persian messages, never as an error:
// checkout validation is a reporting path, not an exceptional one.
func ValidateCheckout(data CheckoutData) Validation {
	var errs []string
	if len(data.Items) == 0 {
		errs = append(errs, MsgCartEmpty)
	}
	for i, line := range data.Items {
		if line.Quantity <= 0 {
			errs = append(errs, MsgInvalidQuantity(i+1))
		}
		if line.ProductID == "" {
			errs = append(errs, MsgInvalidProduct(i+1))
		}
	}
	if data.AddressID == "" {
		errs = append(errs, MsgAddressMissing)
	}
	return Validation{IsValid: len(errs) == 0, Errors: errs}
}
