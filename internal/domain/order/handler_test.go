package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careflow/hms/internal/domain/catalog"
)

func newTestHandler() (*Handler, *echo.Echo, *fixture) {
	f := newFixture()
	return NewHandler(f.svc), echo.New(), f
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T: %v", err, err)
	}
	return httpErr.Code
}

func TestHandler_Start_BadID(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if code := httpStatus(t, h.Start(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_RecordResult(t *testing.T) {
	h, e, f := newTestHandler()
	ctx := context.Background()

	fbc := f.cat.addInvestigation("FBC", catalog.CategoryLab, 5000)
	orders, _ := f.svc.CreateDiagnostics(ctx, uuid.New(), uuid.New(), TypeLab, []uuid.UUID{fbc.ID})
	orders[0].Status = StatusQueued

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"result":"normal"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(orders[0].ID.String())

	if err := h.RecordResult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got Order
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
}

func TestHandler_RecordResult_Unpaid(t *testing.T) {
	h, e, f := newTestHandler()
	ctx := context.Background()

	fbc := f.cat.addInvestigation("FBC", catalog.CategoryLab, 5000)
	orders, _ := f.svc.CreateDiagnostics(ctx, uuid.New(), uuid.New(), TypeLab, []uuid.UUID{fbc.ID})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"result":"normal"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(orders[0].ID.String())

	if code := httpStatus(t, h.RecordResult(c)); code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", code)
	}
}

func TestHandler_RecordBatchServiceResult_BadServiceID(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"result":"normal"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id", "sid")
	c.SetParamValues(uuid.New().String(), "not-a-uuid")

	if code := httpStatus(t, h.RecordBatchServiceResult(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_GetBatch_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if code := httpStatus(t, h.GetBatch(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}
