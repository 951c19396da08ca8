package history

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careflow/hms/internal/platform/auth"
	"github.com/careflow/hms/pkg/apperror"
	"github.com/careflow/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse"))
	read.GET("/visits/:id/history", h.ForVisit)
	read.GET("/patients/:id/history", h.ForPatient)

	api.GET("/audit-events", h.AuditEvents, auth.RequireRole("admin"))
}

func (h *Handler) ForVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	list, err := h.svc.ForVisit(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) ForPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	list, total, err := h.svc.ForPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) AuditEvents(c echo.Context) error {
	pg := pagination.FromContext(c)
	list, total, err := h.svc.AuditEvents(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}
