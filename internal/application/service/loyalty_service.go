package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	"github.com/sweetcrumb/bakebill-api/internal/domain/repository"
)

// LoyaltyService decides discount eligibility from a customer's prior cake
// purchases. Reads never fail hard: any error degrades to a neutral,
// non-qualifying status so callers branch on the status, not on errors.
type LoyaltyService struct {
	billRepo repository.BillRepository
	cfg      config.LoyaltyConfig
}

// NewLoyaltyService creates a new loyalty service
func NewLoyaltyService(billRepo repository.BillRepository, cfg config.LoyaltyConfig) *LoyaltyService {
	if cfg.Frequency <= 0 {
		cfg.Frequency = 3
	}
	if cfg.DiscountPercentage <= 0 {
		cfg.DiscountPercentage = 10
	}
	return &LoyaltyService{billRepo: billRepo, cfg: cfg}
}

// CheckStatus computes the customer's loyalty standing from the count of
// prior bills containing cake items.
func (s *LoyaltyService) CheckStatus(ctx context.Context, phone string) entity.LoyaltyStatus {
	if strings.TrimSpace(phone) == "" {
		return s.neutralStatus("No phone number provided")
	}

	count, err := s.billRepo.CountCakePurchases(ctx, phone)
	if err != nil {
		return s.neutralStatus("Loyalty status unavailable right now")
	}

	next := count + 1
	qualifies := next%int64(s.cfg.Frequency) == 0

	status := entity.LoyaltyStatus{
		PurchaseCount:      count,
		NextPurchaseNumber: next,
		Level:              LoyaltyLevel(count),
	}
	if qualifies {
		status.QualifiesForDiscount = true
		status.DiscountPercentage = s.cfg.DiscountPercentage
		status.Message = fmt.Sprintf("Congratulations! Your next cake purchase earns %d%% off.", s.cfg.DiscountPercentage)
	} else {
		remaining := int64(s.cfg.Frequency) - next%int64(s.cfg.Frequency)
		status.Message = fmt.Sprintf("%d more cake purchase(s) until your next reward.", remaining)
	}
	return status
}

// CalculateDiscount applies the loyalty percentage to the cake portion of a
// cart. Amounts are cents; the discount is rounded half-to-nearest whole
// currency unit. Non-qualifying customers get a no-op result.
func (s *LoyaltyService) CalculateDiscount(ctx context.Context, cakeSubtotal int64, phone string) entity.DiscountResult {
	status := s.CheckStatus(ctx, phone)
	if !status.QualifiesForDiscount || cakeSubtotal <= 0 {
		return entity.DiscountResult{FinalTotal: cakeSubtotal}
	}

	raw := float64(cakeSubtotal) * float64(status.DiscountPercentage) / 100
	amount := int64(math.Round(raw/100)) * 100 // nearest whole currency unit
	if amount > cakeSubtotal {
		amount = cakeSubtotal
	}

	return entity.DiscountResult{
		Applied:            true,
		DiscountAmount:     amount,
		DiscountPercentage: status.DiscountPercentage,
		FinalTotal:         cakeSubtotal - amount,
	}
}

// CakeCategory reports the category name that counts toward loyalty.
func (s *LoyaltyService) CakeCategory() string {
	return s.cfg.CakeCategory
}

func (s *LoyaltyService) neutralStatus(message string) entity.LoyaltyStatus {
	return entity.LoyaltyStatus{
		NextPurchaseNumber: 1,
		Level:              LoyaltyLevel(0),
		Message:            message,
	}
}

// loyaltyTiers are the purchase-count thresholds for each tier label.
var loyaltyTiers = []struct {
	min   int64
	label string
}{
	{50, "Diamond"},
	{30, "Platinum"},
	{15, "Gold"},
	{5, "Silver"},
	{1, "Regular"},
	{0, "New"},
}

// LoyaltyLevel maps a purchase count onto a tier label. Pure; monotonic
// over the thresholds 0, 1, 5, 15, 30, 50.
func LoyaltyLevel(purchaseCount int64) string {
	for _, tier := range loyaltyTiers {
		if purchaseCount >= tier.min {
			return tier.label
		}
	}
	return "New"
}
