package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careflow/hms/internal/platform/auth"
	"github.com/careflow/hms/pkg/apperror"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "receptionist", "doctor", "billing"))
	read.GET("/billings", h.ListByVisit)
	read.GET("/billings/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "billing"))
	write.POST("/billings/:id/payments", h.RecordPayment)
	write.POST("/billings/:id/defer", h.MarkDeferred)
	write.POST("/billings/:id/settle", h.SettleDeferred)
}

// billingDetail is the read shape: the billing with its items and payments.
type billingDetail struct {
	*Billing
	LineItems []*LineItem `json:"line_items"`
	Payments  []*Payment  `json:"payments"`
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()

	b, err := h.svc.Get(ctx, id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	items, err := h.svc.LineItems(ctx, id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	pmts, err := h.svc.Payments(ctx, id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, billingDetail{Billing: b, LineItems: items, Payments: pmts})
}

func (h *Handler) ListByVisit(c echo.Context) error {
	visitID, err := uuid.Parse(c.QueryParam("visit_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "visit_id is required")
	}
	bills, err := h.svc.ListByVisit(c.Request().Context(), visitID)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, bills)
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Amount    int64   `json:"amount"`
		Method    string  `json:"method"`
		Reference *string `json:"reference"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.RecordPayment(c.Request().Context(), id, body.Amount, body.Method, body.Reference)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) MarkDeferred(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.MarkDeferred(c.Request().Context(), id, body.Status)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) SettleDeferred(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		AsInsurance bool `json:"as_insurance"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.SettleDeferred(c.Request().Context(), id, body.AsInsurance)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, b)
}
