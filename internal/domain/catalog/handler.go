package catalog

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careflow/hms/internal/platform/auth"
	"github.com/careflow/hms/pkg/apperror"
	"github.com/careflow/hms/pkg/pagination"
)

type Handler struct {
	svc *Svc
}

func NewHandler(svc *Svc) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "receptionist", "nurse", "doctor", "lab", "radiology", "pharmacist", "billing"))
	read.GET("/catalog/services", h.ListServices)
	read.GET("/catalog/services/:id", h.GetService)
	read.GET("/catalog/investigation-types", h.ListInvestigationTypes)
	read.GET("/catalog/investigation-types/:id", h.GetInvestigationType)
	read.GET("/catalog/medications", h.ListMedications)
	read.GET("/catalog/medications/:id", h.GetMedication)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/catalog/services", h.CreateService)
	write.PUT("/catalog/services/:id", h.UpdateService)
	write.POST("/catalog/investigation-types", h.CreateInvestigationType)
	write.POST("/catalog/medications", h.CreateMedication)
	write.PATCH("/catalog/medications/:id/stock", h.AdjustStock)
}

func (h *Handler) CreateService(c echo.Context) error {
	var svc Service
	if err := c.Bind(&svc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateService(c.Request().Context(), &svc); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, svc)
}

func (h *Handler) GetService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	svc, err := h.svc.GetService(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, svc)
}

func (h *Handler) UpdateService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var svc Service
	if err := c.Bind(&svc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	svc.ID = id
	if err := h.svc.UpdateService(c.Request().Context(), &svc); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, svc)
}

func (h *Handler) ListServices(c echo.Context) error {
	pg := pagination.FromContext(c)
	svcs, total, err := h.svc.ListServices(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(svcs, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateInvestigationType(c echo.Context) error {
	var it InvestigationType
	if err := c.Bind(&it); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateInvestigationType(c.Request().Context(), &it); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) GetInvestigationType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	it, err := h.svc.GetInvestigationType(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) ListInvestigationTypes(c echo.Context) error {
	pg := pagination.FromContext(c)
	its, total, err := h.svc.ListInvestigationTypes(c.Request().Context(), c.QueryParam("category"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(its, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateMedication(c echo.Context) error {
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedication(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedication(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetMedication(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) AdjustStock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AdjustStock(c.Request().Context(), id, body.Delta); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListMedications(c echo.Context) error {
	pg := pagination.FromContext(c)
	meds, total, err := h.svc.ListMedications(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(meds, total, pg.Limit, pg.Offset))
}
