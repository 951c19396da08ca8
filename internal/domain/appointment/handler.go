package appointment

import (
	"net/http"
	"time"

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
	read := api.Group("", auth.RequireRole("admin", "receptionist", "doctor", "nurse"))
	read.GET("/appointments", h.List)
	read.GET("/appointments/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "receptionist"))
	write.POST("/appointments", h.Book)
	write.POST("/appointments/:id/check-in", h.CheckIn)
	write.POST("/appointments/:id/cancel", h.Cancel)
}

type bookRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Book(c.Request().Context(), req.PatientID, req.DoctorID, req.ScheduledAt, req.Reason)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) CheckIn(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.CheckIn(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var doctorID *uuid.UUID
	if raw := c.QueryParam("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		doctorID = &id
	}
	var from *time.Time
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from time")
		}
		from = &t
	}

	list, total, err := h.svc.List(c.Request().Context(), doctorID, from, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}
