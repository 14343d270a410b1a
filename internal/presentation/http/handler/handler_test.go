package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/sweetcrumb/bakebill-api/internal/application/service"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	domainRepo "github.com/sweetcrumb/bakebill-api/internal/domain/repository"
	infrarepo "github.com/sweetcrumb/bakebill-api/internal/infrastructure/repository"
	"github.com/sweetcrumb/bakebill-api/pkg/billnumber"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubRenderer avoids pulling the PDF engine into handler tests.
type stubRenderer struct{}

func (stubRenderer) Render(bill *entity.Bill) ([]byte, string, error) {
	return []byte("%PDF-1.7 stub"), "invoice_" + bill.BillNumber + ".pdf", nil
}

type noopMessenger struct{}

func (noopMessenger) SendTemplate(ctx context.Context, to, templateName, languageCode string) error {
	return nil
}

func (noopMessenger) UploadMedia(ctx context.Context, data []byte, filename string) (string, error) {
	return "media-1", nil
}

func (noopMessenger) SendDocument(ctx context.Context, to, mediaID, caption, filename string) (string, string, error) {
	return "wamid.stub", to, nil
}

type testApp struct {
	cfg      *config.Config
	repo     domainRepo.BillRepository
	billing  *service.BillingService
	delivery *service.DeliveryService
	loyalty  *service.LoyaltyService
	report   *service.ReportService
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "bakebill-test"},
		Loyalty: config.LoyaltyConfig{Frequency: 3, DiscountPercentage: 10, CakeCategory: "cakes"},
		WhatsApp: config.WhatsAppConfig{
			CountryCode:  "91",
			TemplateName: "invoice_ready",
			LanguageCode: "en",
			SendDelay:    time.Millisecond,
			TestMode:     true,
		},
		Storage: config.StorageConfig{RetentionDays: 90},
	}
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Bill{}, &entity.LineItem{}))

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	repo := infrarepo.NewBillRepository(db)
	loyalty := service.NewLoyaltyService(repo, cfg.Loyalty)
	billing := service.NewBillingService(repo, loyalty, stubRenderer{}, nil, billnumber.New("BILL"))
	delivery := service.NewDeliveryService(repo, stubRenderer{}, noopMessenger{}, cfg.WhatsApp)

	return &testApp{
		cfg:      cfg,
		repo:     repo,
		billing:  billing,
		delivery: delivery,
		loyalty:  loyalty,
		report:   service.NewReportService(repo),
	}
}

func (a *testApp) billRouter() *gin.Engine {
	h := NewBillHandler(a.billing, a.delivery, a.cfg)
	r := gin.New()
	r.GET("/bills", h.List)
	r.POST("/bills", h.Create)
	r.GET("/bills/:id", h.Get)
	r.GET("/bills/:id/pdf", h.DownloadPDF)
	r.POST("/bills/:id/send-whatsapp", h.SendWhatsApp)
	r.GET("/whatsapp/status", h.WhatsAppStatus)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope mirrors the response wrapper for decoding in assertions.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// checkoutPayload is a valid two-line cart, one cake and one bread item.
func checkoutPayload(phone string) map[string]any {
	return map[string]any{
		"customer_name":  "Asha Patel",
		"customer_phone": phone,
		"items": []map[string]any{
			{"name": "Chocolate Truffle", "category": "cakes", "price": 400.0, "quantity": 1, "weight": 0.5},
			{"name": "Sourdough Loaf", "category": "bread", "price": 220.0, "quantity": 3},
		},
	}
}

func seedCheckout(t *testing.T, app *testApp, phone string) *service.CheckoutResult {
	t.Helper()
	w := doJSON(t, app.billRouter(), http.MethodPost, "/bills", checkoutPayload(phone))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var result service.CheckoutResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return &result
}
