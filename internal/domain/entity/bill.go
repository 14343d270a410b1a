package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sweetcrumb/bakebill-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Bill is the durable transaction record produced by a checkout. Monetary
// fields are immutable once created; only DocumentURL transitions from
// absent to present after a successful upload.
type Bill struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BillNumber    string     `gorm:"size:100;unique;not null;index" json:"bill_number"`
	CustomerName  string     `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone string     `gorm:"size:50;index" json:"customer_phone"`
	Subtotal      int64      `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	TotalDiscount int64      `gorm:"default:0" json:"-"`
	Total         int64      `gorm:"not null" json:"-"`
	HasCakeItems  bool       `gorm:"default:false;index" json:"has_cake_items"`
	DocumentURL   *string    `gorm:"size:512" json:"document_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Loyalty snapshot from checkout time; never recomputed.
	LoyaltyApplied            bool    `gorm:"default:false" json:"-"`
	LoyaltyDiscountAmount     int64   `gorm:"default:0" json:"-"`
	LoyaltyDiscountPercentage int     `gorm:"default:0" json:"-"`
	LoyaltyMessage            string  `gorm:"size:255" json:"-"`

	// Relationships
	Items []LineItem `gorm:"foreignKey:BillID" json:"items,omitempty"`
}

// LoyaltyInfo is the JSON shape of the loyalty snapshot.
type LoyaltyInfo struct {
	Applied            bool    `json:"applied"`
	DiscountAmount     float64 `json:"discount_amount"`
	DiscountPercentage int     `json:"discount_percentage"`
	Message            string  `json:"message,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (b Bill) MarshalJSON() ([]byte, error) {
	type Alias Bill
	out := &struct {
		Alias
		Subtotal      float64      `json:"subtotal"`
		TotalDiscount float64      `json:"total_discount"`
		Total         float64      `json:"total"`
		LoyaltyInfo   *LoyaltyInfo `json:"loyalty_info,omitempty"`
	}{
		Alias:         Alias(b),
		Subtotal:      float64(b.Subtotal) / 100,
		TotalDiscount: float64(b.TotalDiscount) / 100,
		Total:         float64(b.Total) / 100,
	}
	if b.LoyaltyApplied {
		out.LoyaltyInfo = &LoyaltyInfo{
			Applied:            true,
			DiscountAmount:     float64(b.LoyaltyDiscountAmount) / 100,
			DiscountPercentage: b.LoyaltyDiscountPercentage,
			Message:            b.LoyaltyMessage,
		}
	}
	return json.Marshal(out)
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// GetTotalDecimal returns the total as a decimal
func (b *Bill) GetTotalDecimal() float64 {
	return float64(b.Total) / 100
}

// GetSubtotalDecimal returns the subtotal as a decimal
func (b *Bill) GetSubtotalDecimal() float64 {
	return float64(b.Subtotal) / 100
}

// LineItem is a snapshot of a product at sale time. It intentionally does
// not reference the catalog: prices on a persisted bill must not drift.
type LineItem struct {
	ID           uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	BillID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"bill_id"`
	Position     int               `gorm:"not null" json:"position"`
	Name         string            `gorm:"size:255;not null" json:"name"`
	Category     string            `gorm:"size:100" json:"category"`
	Quantity     int               `gorm:"not null" json:"quantity"`
	UnitPrice    int64             `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	Weight       *float64          `json:"weight,omitempty"`  // kg, for weight-priced goods
	Discount     float64           `json:"discount"`
	DiscountType enum.DiscountType `gorm:"default:0" json:"discount_type"`
	LineTotal    int64             `gorm:"not null" json:"-"`
	CreatedAt    time.Time         `json:"created_at"`

	Bill Bill `gorm:"foreignKey:BillID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (li LineItem) MarshalJSON() ([]byte, error) {
	type Alias LineItem
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		LineTotal float64 `json:"line_total"`
	}{
		Alias:     Alias(li),
		UnitPrice: float64(li.UnitPrice) / 100,
		LineTotal: float64(li.LineTotal) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new line item
func (li *LineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the LineItem model
func (LineItem) TableName() string {
	return "bill_items"
}
