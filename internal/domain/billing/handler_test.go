package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, *Service) {
	svc, _, _ := newTestService()
	return NewHandler(svc), echo.New(), svc
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T: %v", err, err)
	}
	return httpErr.Code
}

func TestHandler_RecordPayment(t *testing.T) {
	h, e, svc := newTestHandler()

	b, _ := svc.Open(nil, uuid.New(), uuid.New(), KindDiagnostics, []*LineItem{
		{Description: "Panel", Quantity: 1, UnitPrice: 10000},
	}, false)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":4000,"method":"CASH"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	if err := h.RecordPayment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got Billing
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusPartiallyPaid {
		t.Errorf("status = %s, want PARTIALLY_PAID", got.Status)
	}
}

func TestHandler_RecordPayment_BadID(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":100,"method":"CASH"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if code := httpStatus(t, h.RecordPayment(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_RecordPayment_SettledConflict(t *testing.T) {
	h, e, svc := newTestHandler()

	b, _ := svc.Open(nil, uuid.New(), uuid.New(), KindConsultation, []*LineItem{
		{Description: "Consultation", Quantity: 1, UnitPrice: 5000},
	}, false)
	if _, err := svc.RecordPayment(nil, b.ID, 5000, MethodCash, nil); err != nil {
		t.Fatalf("payment: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":100,"method":"CASH"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	if code := httpStatus(t, h.RecordPayment(c)); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_MarkDeferred_InvalidStatus(t *testing.T) {
	h, e, svc := newTestHandler()

	b, _ := svc.Open(nil, uuid.New(), uuid.New(), KindDiagnostics, []*LineItem{
		{Description: "Panel", Quantity: 1, UnitPrice: 10000},
	}, false)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"SOMEDAY"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	if code := httpStatus(t, h.MarkDeferred(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if code := httpStatus(t, h.Get(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_ListByVisit_MissingVisitID(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/billings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if code := httpStatus(t, h.ListByVisit(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}
