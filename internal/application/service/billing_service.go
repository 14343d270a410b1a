package service

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	"github.com/sweetcrumb/bakebill-api/internal/domain/enum"
	"github.com/sweetcrumb/bakebill-api/internal/domain/repository"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/storage"
	"github.com/sweetcrumb/bakebill-api/pkg/apperror"
	"github.com/sweetcrumb/bakebill-api/pkg/billnumber"
	"github.com/sweetcrumb/bakebill-api/pkg/pagination"
)

// DocumentRenderer turns a persisted bill into invoice bytes plus a
// suggested filename.
type DocumentRenderer interface {
	Render(bill *entity.Bill) ([]byte, string, error)
}

// DocumentStore publishes invoice bytes to durable object storage.
type DocumentStore interface {
	Upload(ctx context.Context, data []byte, billNumber string) (*storage.UploadResult, error)
}

// BillingService orchestrates the checkout pipeline: loyalty, persistence,
// document generation and upload. Persistence failure aborts the checkout;
// document failures are reported but never undo the recorded sale.
type BillingService struct {
	billRepo  repository.BillRepository
	loyalty   *LoyaltyService
	renderer  DocumentRenderer
	documents DocumentStore // nil when storage is not configured
	numbers   billnumber.Generator
}

// NewBillingService creates a new billing service
func NewBillingService(
	billRepo repository.BillRepository,
	loyalty *LoyaltyService,
	renderer DocumentRenderer,
	documents DocumentStore,
	numbers billnumber.Generator,
) *BillingService {
	return &BillingService{
		billRepo:  billRepo,
		loyalty:   loyalty,
		renderer:  renderer,
		documents: documents,
		numbers:   numbers,
	}
}

// CheckoutItemInput is one cart line at checkout time.
type CheckoutItemInput struct {
	Name         string
	Category     string
	Price        float64 // per unit (or per kg for weight-priced goods)
	Quantity     int
	Weight       *float64
	Discount     float64
	DiscountType enum.DiscountType
}

// CheckoutInput is the full cart plus customer info.
type CheckoutInput struct {
	CustomerName  string
	CustomerPhone string
	Items         []CheckoutItemInput
}

// DocumentStatus reports the best-effort document stage of a checkout.
type DocumentStatus struct {
	Generated bool   `json:"generated"`
	Uploaded  bool   `json:"uploaded"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CheckoutResult is what the operator sees after a checkout.
type CheckoutResult struct {
	Bill     *entity.Bill          `json:"bill"`
	Loyalty  *entity.LoyaltyStatus `json:"loyalty,omitempty"`
	Document DocumentStatus        `json:"document"`
}

// Checkout runs the pipeline for one cart.
//
// The loyalty count and the bill insert are intentionally not one atomic
// operation: two concurrent checkouts for the same phone can both observe
// the same count. Accepted for a single-counter shop.
func (s *BillingService) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error) {
	if err := validateCheckout(input); err != nil {
		return nil, err
	}

	cakeCategory := s.loyalty.CakeCategory()

	var subtotal, cakeSubtotal int64
	hasCakes := false
	items := make([]entity.LineItem, 0, len(input.Items))
	for i, in := range input.Items {
		lineTotal := lineTotalCents(in)
		subtotal += lineTotal

		isCake := strings.EqualFold(strings.TrimSpace(in.Category), cakeCategory)
		if isCake {
			hasCakes = true
			cakeSubtotal += lineTotal
		}

		items = append(items, entity.LineItem{
			Position:     i,
			Name:         in.Name,
			Category:     in.Category,
			Quantity:     in.Quantity,
			UnitPrice:    int64(math.Round(in.Price * 100)),
			Weight:       in.Weight,
			Discount:     in.Discount,
			DiscountType: in.DiscountType,
			LineTotal:    lineTotal,
		})
	}

	var status *entity.LoyaltyStatus
	var totalDiscount int64
	bill := &entity.Bill{
		BillNumber:    s.numbers.Next(time.Now()),
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		HasCakeItems:  hasCakes,
	}

	if hasCakes && input.CustomerPhone != "" {
		st := s.loyalty.CheckStatus(ctx, input.CustomerPhone)
		status = &st
		if st.QualifiesForDiscount {
			discount := s.loyalty.CalculateDiscount(ctx, cakeSubtotal, input.CustomerPhone)
			if discount.Applied {
				totalDiscount = discount.DiscountAmount
				bill.LoyaltyApplied = true
				bill.LoyaltyDiscountAmount = discount.DiscountAmount
				bill.LoyaltyDiscountPercentage = discount.DiscountPercentage
				bill.LoyaltyMessage = st.Message
			}
		}
	}

	bill.Subtotal = subtotal
	bill.TotalDiscount = totalDiscount
	bill.Total = subtotal - totalDiscount
	bill.Items = items

	// An unrecorded sale is unacceptable: this is the one stage allowed to
	// abort the whole pipeline.
	if err := s.billRepo.Create(ctx, bill); err != nil {
		return nil, err
	}

	result := &CheckoutResult{Bill: bill, Loyalty: status}
	result.Document = s.publishDocument(ctx, bill)
	return result, nil
}

// publishDocument renders and uploads the invoice. Failures are folded into
// the returned status; the persisted bill is never touched on error.
func (s *BillingService) publishDocument(ctx context.Context, bill *entity.Bill) DocumentStatus {
	data, _, err := s.renderer.Render(bill)
	if err != nil {
		log.Printf("billing: invoice render failed for %s: %v", bill.BillNumber, err)
		return DocumentStatus{Error: "invoice generation failed"}
	}

	st := DocumentStatus{Generated: true}
	if s.documents == nil {
		return st
	}

	upload, err := s.documents.Upload(ctx, data, bill.BillNumber)
	if err != nil {
		log.Printf("billing: invoice upload failed for %s: %v", bill.BillNumber, err)
		st.Error = apperror.GetAppError(err).Message
		return st
	}

	if err := s.billRepo.AttachDocumentURL(ctx, bill.ID, upload.PublicURL); err != nil {
		log.Printf("billing: failed to attach document url for %s: %v", bill.BillNumber, err)
		st.Error = "document uploaded but not linked"
		return st
	}

	bill.DocumentURL = &upload.PublicURL
	st.Uploaded = true
	st.URL = upload.PublicURL
	return st
}

// GetBill returns one bill with its line items.
func (s *BillingService) GetBill(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// ListBills returns bills newest-first with pagination.
func (s *BillingService) ListBills(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Bill], error) {
	params.Validate()
	bills, total, err := s.billRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(bills, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// RenderInvoice regenerates the invoice bytes for an existing bill.
func (s *BillingService) RenderInvoice(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return s.renderer.Render(bill)
}

func validateCheckout(input *CheckoutInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return apperror.NewBadRequestError("Customer name is required")
	}
	if len(input.Items) == 0 {
		return apperror.NewBadRequestError("At least one item is required")
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return apperror.NewBadRequestError("Item name is required")
		}
		if item.Quantity <= 0 {
			return apperror.NewBadRequestError("Item quantity must be positive")
		}
		if item.Price < 0 {
			return apperror.NewBadRequestError("Item price cannot be negative")
		}
		if item.Weight != nil && *item.Weight <= 0 {
			return apperror.NewBadRequestError("Item weight must be positive")
		}
	}
	return nil
}

// lineTotalCents computes unitPrice * (weight or 1) * quantity minus discount,
// never below zero. The discount is a percentage of that product or a flat
// amount depending on the item's discount type.
func lineTotalCents(in CheckoutItemInput) int64 {
	weight := 1.0
	if in.Weight != nil {
		weight = *in.Weight
	}
	base := in.Price * weight * float64(in.Quantity)

	var discounted float64
	switch in.DiscountType {
	case enum.DiscountTypeFlat:
		discounted = base - in.Discount
	default:
		discounted = base - base*in.Discount/100
	}
	if discounted < 0 {
		discounted = 0
	}
	return int64(math.Round(discounted * 100))
}
