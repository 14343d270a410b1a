package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	"github.com/sweetcrumb/bakebill-api/pkg/pagination"
)

// DailyRevenue is one calendar day's aggregate for reporting.
type DailyRevenue struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	TotalRevenue float64 `json:"total_revenue"`
	TotalBills   int64   `json:"total_bills"`
}

// BillRepository defines the interface for bill persistence. A bill's
// monetary fields are never updated after Create; only the document URL
// may be attached post-hoc.
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetByNumber(ctx context.Context, billNumber string) (*entity.Bill, error)
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.Bill, int64, error)
	CountCakePurchases(ctx context.Context, phone string) (int64, error)
	AttachDocumentURL(ctx context.Context, id uuid.UUID, url string) error
	RevenueByDay(ctx context.Context, start, end time.Time) ([]DailyRevenue, error)
}
