package entity

// LoyaltyStatus is derived fresh on every request from the count of prior
// cake purchases for a phone number. It is never persisted.
type LoyaltyStatus struct {
	PurchaseCount        int64  `json:"purchase_count"`
	NextPurchaseNumber   int64  `json:"next_purchase_number"`
	QualifiesForDiscount bool   `json:"qualifies_for_discount"`
	DiscountPercentage   int    `json:"discount_percentage"`
	Level                string `json:"level"`
	Message              string `json:"message,omitempty"`
}

// DiscountResult is the outcome of applying the loyalty discount to the
// cake portion of a cart.
type DiscountResult struct {
	Applied            bool  `json:"applied"`
	DiscountAmount     int64 `json:"-"` // cents
	DiscountPercentage int   `json:"discount_percentage"`
	FinalTotal         int64 `json:"-"` // cents
}
