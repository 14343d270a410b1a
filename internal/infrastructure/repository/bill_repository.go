package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	domainRepo "github.com/sweetcrumb/bakebill-api/internal/domain/repository"
	"github.com/sweetcrumb/bakebill-api/pkg/apperror"
	"github.com/sweetcrumb/bakebill-api/pkg/pagination"
	"gorm.io/gorm"
)

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill) error {
	if err := r.db.WithContext(ctx).Create(bill).Error; err != nil {
		return apperror.NewPersistenceError("failed to record bill: " + err.Error())
	}
	return nil
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bill_items.position ASC")
		}).
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetByNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bill_items.position ASC")
		}).
		First(&bill, "bill_number = ?", billNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.Bill, int64, error) {
	var bills []entity.Bill
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Bill{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bill_items.position ASC")
		}).
		Order("created_at DESC").
		Find(&bills).Error

	return bills, total, err
}

func (r *billRepository) CountCakePurchases(ctx context.Context, phone string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Bill{}).
		Where("customer_phone = ? AND has_cake_items = ?", phone, true).
		Count(&count).Error
	return count, err
}

func (r *billRepository) AttachDocumentURL(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).Model(&entity.Bill{}).
		Where("id = ? AND document_url IS NULL", id).
		Update("document_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NewBadRequestError("bill already has a document or does not exist")
	}
	return nil
}

// RevenueByDay aggregates completed bills per calendar day across the range.
// Day-by-day range queries keep the SQL portable between postgres and the
// sqlite test databases.
func (r *billRepository) RevenueByDay(ctx context.Context, start, end time.Time) ([]domainRepo.DailyRevenue, error) {
	results := make([]domainRepo.DailyRevenue, 0)

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	for !day.After(last) {
		// AddDate keeps buckets on calendar midnights across DST shifts.
		next := day.AddDate(0, 0, 1)

		var row struct {
			Revenue sql.NullFloat64
			Count   int64
		}
		err := r.db.WithContext(ctx).Raw(`
			SELECT COALESCE(SUM(total), 0) / 100.0 as revenue, COUNT(id) as count
			FROM bills
			WHERE created_at >= ? AND created_at < ?
		`, day, next).Scan(&row).Error
		if err != nil {
			return nil, err
		}

		rev := 0.0
		if row.Revenue.Valid {
			rev = row.Revenue.Float64
		}
		results = append(results, domainRepo.DailyRevenue{
			Date:         day.Format("2006-01-02"),
			TotalRevenue: rev,
			TotalBills:   row.Count,
		})

		day = next
	}

	return results, nil
}
