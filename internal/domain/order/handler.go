package order

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
	dept := api.Group("", auth.RequireRole("admin", "lab", "radiology", "pharmacist"))
	dept.POST("/orders/:id/start", h.Start)
	dept.POST("/orders/:id/result", h.RecordResult)
	dept.POST("/orders/:id/dispense", h.Dispense)
	dept.POST("/batch-orders/:id/services/:sid/result", h.RecordBatchServiceResult)
	dept.GET("/batch-orders/:id", h.GetBatch)

	api.GET("/queues/lab", h.LabQueue, auth.RequireRole("admin", "lab"))
	api.GET("/queues/radiology", h.RadiologyQueue, auth.RequireRole("admin", "radiology"))
	api.GET("/queues/pharmacy", h.PharmacyQueue, auth.RequireRole("admin", "pharmacist"))
}

func (h *Handler) Start(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.Start(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) RecordResult(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Result string `json:"result"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.RecordResult(c.Request().Context(), id, body.Result)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.Dispense(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) RecordBatchServiceResult(c echo.Context) error {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid batch id")
	}
	serviceID, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}
	var body struct {
		Result string `json:"result"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.RecordBatchServiceResult(c.Request().Context(), batchID, serviceID, body.Result)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

// batchDetail is the read shape: the batch with its sub-services.
type batchDetail struct {
	*BatchOrder
	Services []*BatchOrderService `json:"services"`
}

func (h *Handler) GetBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	b, err := h.svc.GetBatch(ctx, id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	svcs, err := h.svc.BatchServices(ctx, id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, batchDetail{BatchOrder: b, Services: svcs})
}

func (h *Handler) LabQueue(c echo.Context) error {
	return h.queue(c, TypeLab)
}

func (h *Handler) RadiologyQueue(c echo.Context) error {
	return h.queue(c, TypeRadiology)
}

func (h *Handler) PharmacyQueue(c echo.Context) error {
	return h.queue(c, TypeMedication)
}

func (h *Handler) queue(c echo.Context, orderType string) error {
	pg := pagination.FromContext(c)
	orders, total, err := h.svc.Queue(c.Request().Context(), orderType, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, pg.Limit, pg.Offset))
}
