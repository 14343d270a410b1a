package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetcrumb/bakebill-api/internal/application/service"
)

func reportRouter(app *testApp) *gin.Engine {
	h := NewReportHandler(app.report)
	r := gin.New()
	r.GET("/reports/revenue", h.Revenue)
	r.GET("/reports/revenue/export", h.ExportRevenue)
	return r
}

func TestRevenueReport(t *testing.T) {
	app := newTestApp(t, nil)
	seedCheckout(t, app, "")
	seedCheckout(t, app, "")
	r := reportRouter(app)

	w := doJSON(t, r, http.MethodGet, "/reports/revenue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report service.RevenueReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
	assert.Equal(t, int64(2), report.TotalBills)
	assert.InDelta(t, 1720.0, report.TotalRevenue, 0.01)
	assert.Len(t, report.Days, 30, "default window is the last 30 days")
}

func TestRevenueReportExplicitRange(t *testing.T) {
	app := newTestApp(t, nil)
	seedCheckout(t, app, "")
	r := reportRouter(app)

	w := doJSON(t, r, http.MethodGet, "/reports/revenue?start_date=2026-08-30&end_date=2026-08-30", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report service.RevenueReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
	assert.Len(t, report.Days, 1)
}

func TestRevenueReportBadDate(t *testing.T) {
	app := newTestApp(t, nil)
	r := reportRouter(app)

	w := doJSON(t, r, http.MethodGet, "/reports/revenue?start_date=30-08-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevenueReportInvertedRange(t *testing.T) {
	app := newTestApp(t, nil)
	r := reportRouter(app)

	w := doJSON(t, r, http.MethodGet, "/reports/revenue?start_date=2026-08-30&end_date=2026-08-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportRevenueXLSX(t *testing.T) {
	app := newTestApp(t, nil)
	seedCheckout(t, app, "")
	r := reportRouter(app)

	w := doJSON(t, r, http.MethodGet, "/reports/revenue/export?start_date=2026-08-01&end_date=2026-08-30", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "revenue_2026-08-01_2026-08-30.xlsx")
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}
