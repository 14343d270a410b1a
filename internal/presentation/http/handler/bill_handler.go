package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sweetcrumb/bakebill-api/internal/application/service"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/domain/enum"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/whatsapp"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/dto/request"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/dto/response"
	"github.com/sweetcrumb/bakebill-api/pkg/phone"
)

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billingService  *service.BillingService
	deliveryService *service.DeliveryService
	cfg             *config.Config
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billingService *service.BillingService, deliveryService *service.DeliveryService, cfg *config.Config) *BillHandler {
	return &BillHandler{
		billingService:  billingService,
		deliveryService: deliveryService,
		cfg:             cfg,
	}
}

// Create handles checkout: a cart becomes a persisted bill with an invoice
func (h *BillHandler) Create(c *gin.Context) {
	var req request.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customerPhone := req.CustomerPhone
	if customerPhone != "" {
		customerPhone = phone.Normalize(customerPhone, h.cfg.WhatsApp.CountryCode)
	}

	items := make([]service.CheckoutItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CheckoutItemInput{
			Name:         item.Name,
			Category:     item.Category,
			Price:        item.Price,
			Quantity:     item.Quantity,
			Weight:       item.Weight,
			Discount:     item.Discount,
			DiscountType: enum.DiscountType(item.DiscountType),
		}
	}

	result, err := h.billingService.Checkout(c.Request.Context(), &service.CheckoutInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: customerPhone,
		Items:         items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", result)
}

// List handles listing bills newest-first
func (h *BillHandler) List(c *gin.Context) {
	result, err := h.billingService.ListBills(c.Request.Context(), parsePagination(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Bills retrieved successfully", result)
}

// Get handles getting a single bill
func (h *BillHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	bill, err := h.billingService.GetBill(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill retrieved successfully", bill)
}

// DownloadPDF streams the bill's invoice as a PDF attachment
func (h *BillHandler) DownloadPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	data, filename, err := h.billingService.RenderInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/pdf", data)
}

// SendWhatsApp delivers the bill's invoice to the customer over WhatsApp
func (h *BillHandler) SendWhatsApp(c *gin.Context) {
	if !h.deliveryService.Configured() {
		response.ServiceUnavailable(c, "WhatsApp delivery is not configured")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	if _, err := h.billingService.GetBill(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	var req request.SendWhatsAppRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	result := h.deliveryService.SendBill(c.Request.Context(), id, req.PhoneNumber)
	if result.Success {
		response.OK(c, "Invoice sent successfully", result)
		return
	}

	status := 502
	message := "Delivery failed"
	if result.Error != nil {
		message = result.Error.Message
		status = statusForReason(result.Error.Reason)
	}
	c.JSON(status, response.APIResponse{
		Success: false,
		Message: message,
		Data:    result,
	})
}

// WhatsAppStatus reports whether delivery is configured, without exposing
// any credential material.
func (h *BillHandler) WhatsAppStatus(c *gin.Context) {
	response.OK(c, "WhatsApp status retrieved successfully", gin.H{
		"configured":   h.deliveryService.Configured(),
		"test_mode":    h.deliveryService.TestMode(),
		"template":     h.cfg.WhatsApp.TemplateName,
		"country_code": h.cfg.WhatsApp.CountryCode,
	})
}

func statusForReason(reason whatsapp.Reason) int {
	switch reason {
	case whatsapp.ReasonBadRequest, whatsapp.ReasonRecipientNotAllowed:
		return 400
	case whatsapp.ReasonAuthExpired, whatsapp.ReasonPermissionDenied:
		return 502
	case whatsapp.ReasonTransient:
		return 504
	default:
		return 502
	}
}
