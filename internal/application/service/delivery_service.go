package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	"github.com/sweetcrumb/bakebill-api/internal/domain/repository"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/whatsapp"
	"github.com/sweetcrumb/bakebill-api/pkg/phone"
)

// DeliveryState tracks progress through the messaging platform's
// handshake-based send protocol.
type DeliveryState string

const (
	StateIdle          DeliveryState = "idle"
	StateTemplateSent  DeliveryState = "template_sent"
	StateWindowOpen    DeliveryState = "window_assumed_open"
	StateMediaUploaded DeliveryState = "media_uploaded"
	StateDocumentSent  DeliveryState = "document_sent"
	StateFailed        DeliveryState = "failed"
)

// DeliveryError is the classified failure surfaced to the caller.
type DeliveryError struct {
	Reason  whatsapp.Reason `json:"reason"`
	Message string          `json:"message"`
}

// DeliveryResult is returned synchronously for every delivery attempt.
// The coordinator never propagates an error to the caller.
type DeliveryResult struct {
	Success     bool           `json:"success"`
	MessageID   string         `json:"message_id,omitempty"`
	RecipientID string         `json:"recipient_id,omitempty"`
	State       DeliveryState  `json:"state"`
	Error       *DeliveryError `json:"error,omitempty"`
}

// Messenger is the slice of the whatsapp client the coordinator drives.
type Messenger interface {
	SendTemplate(ctx context.Context, to, templateName, languageCode string) error
	UploadMedia(ctx context.Context, data []byte, filename string) (string, error)
	SendDocument(ctx context.Context, to, mediaID, caption, filename string) (messageID, recipientID string, err error)
}

// DeliveryService executes the template, delay, media, document protocol
// for one bill at a time. In test mode all provider calls are bypassed and
// a deterministic synthetic success is returned.
type DeliveryService struct {
	billRepo  repository.BillRepository
	renderer  DocumentRenderer
	messenger Messenger
	cfg       config.WhatsAppConfig
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(
	billRepo repository.BillRepository,
	renderer DocumentRenderer,
	messenger Messenger,
	cfg config.WhatsAppConfig,
) *DeliveryService {
	return &DeliveryService{
		billRepo:  billRepo,
		renderer:  renderer,
		messenger: messenger,
		cfg:       cfg,
	}
}

// Configured reports whether delivery can be attempted at all.
func (s *DeliveryService) Configured() bool {
	return s.cfg.Configured()
}

// TestMode reports whether the provider is being bypassed.
func (s *DeliveryService) TestMode() bool {
	return s.cfg.TestMode
}

// SendBill delivers the invoice for billID to phoneNumber (falling back to
// the phone recorded on the bill). All failures come back inside the
// result, classified to a closed reason set.
func (s *DeliveryService) SendBill(ctx context.Context, billID uuid.UUID, phoneNumber string) DeliveryResult {
	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return failed(whatsapp.ReasonTransient, "failed to load bill: "+err.Error())
	}
	if bill == nil {
		return failed(whatsapp.ReasonBadRequest, "bill not found")
	}

	raw := phoneNumber
	if strings.TrimSpace(raw) == "" {
		raw = bill.CustomerPhone
	}
	if strings.TrimSpace(raw) == "" {
		return failed(whatsapp.ReasonBadRequest, "no phone number on bill and none provided")
	}
	to := phone.Normalize(raw, s.cfg.CountryCode)

	if s.cfg.TestMode {
		return s.simulate(ctx, to)
	}

	data, filename, err := s.renderer.Render(bill)
	if err != nil {
		return failed(whatsapp.ReasonUnknown, "invoice generation failed: "+err.Error())
	}

	// Step 1: template message opens the conversation window. Non-fatal:
	// the window may already be open from a prior customer interaction.
	if err := s.messenger.SendTemplate(ctx, to, s.cfg.TemplateName, s.cfg.LanguageCode); err != nil {
		log.Printf("delivery: template send to %s failed (continuing): %v", to, err)
	}

	// Step 2: the platform needs a moment to register the template before
	// accepting the next call. Protocol requirement, not an optimization.
	if err := s.pause(ctx, s.cfg.SendDelay); err != nil {
		return failed(whatsapp.ReasonTransient, "delivery canceled while waiting for conversation window")
	}

	mediaID, err := s.messenger.UploadMedia(ctx, data, filename)
	if err != nil {
		return failedFrom(err, "media upload failed")
	}

	messageID, recipientID, err := s.messenger.SendDocument(ctx, to, mediaID, buildCaption(bill), filename)
	if err != nil {
		return failedFrom(err, "document send failed")
	}

	return DeliveryResult{
		Success:     true,
		MessageID:   messageID,
		RecipientID: recipientID,
		State:       StateDocumentSent,
	}
}

// simulate returns a deterministic synthetic success after a short delay,
// so the pipeline can be exercised without a live provider.
func (s *DeliveryService) simulate(ctx context.Context, to string) DeliveryResult {
	if err := s.pause(ctx, 500*time.Millisecond); err != nil {
		return failed(whatsapp.ReasonTransient, "delivery canceled")
	}
	return DeliveryResult{
		Success:     true,
		MessageID:   "test_message_" + uuid.New().String()[:8],
		RecipientID: to,
		State:       StateDocumentSent,
	}
}

func (s *DeliveryService) pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func failed(reason whatsapp.Reason, message string) DeliveryResult {
	return DeliveryResult{
		State: StateFailed,
		Error: &DeliveryError{Reason: reason, Message: message},
	}
}

func failedFrom(err error, prefix string) DeliveryResult {
	var apiErr *whatsapp.APIError
	if errors.As(err, &apiErr) {
		return failed(apiErr.Reason, prefix+": "+apiErr.Message)
	}
	return failed(whatsapp.ReasonUnknown, prefix+": "+err.Error())
}

// buildCaption formats the itemized summary sent alongside the document.
func buildCaption(bill *entity.Bill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bill %s\n", bill.BillNumber)
	for i, item := range bill.Items {
		fmt.Fprintf(&b, "%d. %s x%d - %.2f\n", i+1, item.Name, item.Quantity, float64(item.LineTotal)/100)
	}
	fmt.Fprintf(&b, "Subtotal: %.2f\n", float64(bill.Subtotal)/100)
	if bill.TotalDiscount > 0 {
		fmt.Fprintf(&b, "Loyalty discount: -%.2f\n", float64(bill.TotalDiscount)/100)
	}
	fmt.Fprintf(&b, "Total: %.2f", float64(bill.Total)/100)
	return b.String()
}
