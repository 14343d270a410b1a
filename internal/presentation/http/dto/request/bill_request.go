package request

// BillItemRequest is one cart line in a checkout request.
type BillItemRequest struct {
	Name         string   `json:"name" binding:"required,min=1,max=255"`
	Category     string   `json:"category" binding:"omitempty,max=100"`
	Price        float64  `json:"price" binding:"min=0"`
	Quantity     int      `json:"quantity" binding:"required,min=1"`
	Weight       *float64 `json:"weight" binding:"omitempty,gt=0"`
	Discount     float64  `json:"discount" binding:"min=0"`
	DiscountType int      `json:"discount_type" binding:"min=0,max=1"`
}

// CreateBillRequest represents a checkout request
type CreateBillRequest struct {
	CustomerName  string            `json:"customer_name" binding:"required,min=1,max=255"`
	CustomerPhone string            `json:"customer_phone" binding:"omitempty,max=20"`
	Items         []BillItemRequest `json:"items" binding:"required,min=1,dive"`
}

// SendWhatsAppRequest asks for a bill's invoice to be delivered. The phone
// is optional; the bill's stored customer phone is the fallback.
type SendWhatsAppRequest struct {
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=20"`
}

// BillFilterRequest represents bill listing parameters
type BillFilterRequest struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

// RevenueReportRequest bounds a revenue report query
type RevenueReportRequest struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// CleanupRequest overrides the retention window for a storage sweep
type CleanupRequest struct {
	OlderThanDays *int `json:"older_than_days" binding:"omitempty,min=1"`
}
