package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/whatsapp"
)

// fakeMessenger records the protocol calls and injects failures per step.
type fakeMessenger struct {
	templateErr error
	mediaErr    error
	documentErr error

	templateCalls int
	mediaCalls    int
	documentCalls int

	lastTo      string
	lastCaption string
}

func (f *fakeMessenger) SendTemplate(ctx context.Context, to, templateName, languageCode string) error {
	f.templateCalls++
	f.lastTo = to
	return f.templateErr
}

func (f *fakeMessenger) UploadMedia(ctx context.Context, data []byte, filename string) (string, error) {
	f.mediaCalls++
	if f.mediaErr != nil {
		return "", f.mediaErr
	}
	return "media-123", nil
}

func (f *fakeMessenger) SendDocument(ctx context.Context, to, mediaID, caption, filename string) (string, string, error) {
	f.documentCalls++
	f.lastCaption = caption
	if f.documentErr != nil {
		return "", "", f.documentErr
	}
	return "wamid.1", to, nil
}

func deliveryBill() *entity.Bill {
	return &entity.Bill{
		ID:            uuid.New(),
		BillNumber:    "BILL-20260830-AAAAAA",
		CustomerName:  "Asha",
		CustomerPhone: "919876543210",
		Subtotal:      86000,
		TotalDiscount: 2000,
		Total:         84000,
		Items: []entity.LineItem{
			{Position: 0, Name: "Chocolate Cake", Quantity: 1, LineTotal: 20000},
			{Position: 1, Name: "Bread Basket", Quantity: 1, LineTotal: 66000},
		},
	}
}

func deliveryConfig(testMode bool) config.WhatsAppConfig {
	return config.WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		TemplateName:  "bill_notification",
		LanguageCode:  "en",
		CountryCode:   "91",
		SendDelay:     time.Millisecond,
		TestMode:      testMode,
	}
}

func TestSendBillHappyPath(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{}, messenger, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	require.True(t, result.Success, "error: %+v", result.Error)
	assert.Equal(t, StateDocumentSent, result.State)
	assert.Equal(t, "wamid.1", result.MessageID)
	assert.Equal(t, "919876543210", result.RecipientID)

	assert.Equal(t, 1, messenger.templateCalls)
	assert.Equal(t, 1, messenger.mediaCalls)
	assert.Equal(t, 1, messenger.documentCalls)
}

func TestSendBillNormalizesProvidedPhone(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{}, messenger, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "98765 43211")
	require.True(t, result.Success)
	assert.Equal(t, "919876543211", messenger.lastTo)
}

func TestSendBillTemplateFailureContinues(t *testing.T) {
	messenger := &fakeMessenger{
		templateErr: &whatsapp.APIError{Reason: whatsapp.ReasonBadRequest, Message: "template missing"},
	}
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{}, messenger, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	assert.True(t, result.Success, "template failure is not fatal")
	assert.Equal(t, 1, messenger.mediaCalls)
	assert.Equal(t, 1, messenger.documentCalls)
}

func TestSendBillMediaFailureIsFatal(t *testing.T) {
	messenger := &fakeMessenger{
		mediaErr: &whatsapp.APIError{Reason: whatsapp.ReasonAuthExpired, Code: 190, Message: "token expired"},
	}
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{}, messenger, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	require.False(t, result.Success)
	assert.Equal(t, StateFailed, result.State)
	require.NotNil(t, result.Error)
	assert.Equal(t, whatsapp.ReasonAuthExpired, result.Error.Reason)
	assert.Contains(t, result.Error.Message, "token expired")
	assert.Equal(t, 0, messenger.documentCalls, "document send must not be attempted")
}

func TestSendBillDocumentFailureClassified(t *testing.T) {
	messenger := &fakeMessenger{
		documentErr: &whatsapp.APIError{Reason: whatsapp.ReasonRecipientNotAllowed, Code: 131030, Message: "recipient not in allowed list"},
	}
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{}, messenger, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, whatsapp.ReasonRecipientNotAllowed, result.Error.Reason)
}

func TestSendBillMissingBill(t *testing.T) {
	svc := NewDeliveryService(&stubBillRepo{}, &fakeRenderer{}, &fakeMessenger{}, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, whatsapp.ReasonBadRequest, result.Error.Reason)
}

func TestSendBillNoPhoneAnywhere(t *testing.T) {
	bill := deliveryBill()
	bill.CustomerPhone = ""
	svc := NewDeliveryService(&stubBillRepo{bill: bill}, &fakeRenderer{}, &fakeMessenger{}, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, whatsapp.ReasonBadRequest, result.Error.Reason)
}

func TestSendBillRenderFailure(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{fail: true}, messenger, deliveryConfig(false))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	require.False(t, result.Success)
	assert.Equal(t, 0, messenger.templateCalls, "nothing is sent when the invoice cannot be generated")
}

func TestSendBillTestModeBypassesProvider(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{}, messenger, deliveryConfig(true))

	result := svc.SendBill(context.Background(), uuid.New(), "")
	require.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.MessageID, "test_message_"))
	assert.Equal(t, StateDocumentSent, result.State)
	assert.Equal(t, 0, messenger.templateCalls)
	assert.Equal(t, 0, messenger.mediaCalls)
	assert.Equal(t, 0, messenger.documentCalls)
}

func TestSendBillCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := deliveryConfig(false)
	cfg.SendDelay = time.Second
	svc := NewDeliveryService(&stubBillRepo{bill: deliveryBill()}, &fakeRenderer{}, &fakeMessenger{}, cfg)

	result := svc.SendBill(ctx, uuid.New(), "")
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, whatsapp.ReasonTransient, result.Error.Reason)
}

func TestBuildCaption(t *testing.T) {
	caption := buildCaption(deliveryBill())

	assert.Contains(t, caption, "Bill BILL-20260830-AAAAAA")
	assert.Contains(t, caption, "1. Chocolate Cake x1 - 200.00")
	assert.Contains(t, caption, "2. Bread Basket x1 - 660.00")
	assert.Contains(t, caption, "Subtotal: 860.00")
	assert.Contains(t, caption, "Loyalty discount: -20.00")
	assert.Contains(t, caption, "Total: 840.00")
}

func TestBuildCaptionNoDiscountLine(t *testing.T) {
	bill := deliveryBill()
	bill.TotalDiscount = 0
	bill.Total = bill.Subtotal

	caption := buildCaption(bill)
	assert.NotContains(t, caption, "Loyalty discount")
}

func TestDeliveryConfigured(t *testing.T) {
	svc := NewDeliveryService(&stubBillRepo{}, &fakeRenderer{}, &fakeMessenger{}, config.WhatsAppConfig{})
	assert.False(t, svc.Configured())

	svc = NewDeliveryService(&stubBillRepo{}, &fakeRenderer{}, &fakeMessenger{}, deliveryConfig(false))
	assert.True(t, svc.Configured())

	svc = NewDeliveryService(&stubBillRepo{}, &fakeRenderer{}, &fakeMessenger{}, config.WhatsAppConfig{TestMode: true})
	assert.True(t, svc.Configured())
	assert.True(t, svc.TestMode())
}
