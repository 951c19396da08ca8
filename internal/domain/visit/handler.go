package visit

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careflow/hms/internal/domain/order"
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
	read := api.Group("", auth.RequireRole("admin", "receptionist", "nurse", "doctor", "billing"))
	read.GET("/visits/:id", h.Get)
	read.GET("/visits/:id/vitals", h.Vitals)
	read.GET("/patients/:id/visits", h.ListByPatient)

	reception := api.Group("", auth.RequireRole("admin", "receptionist"))
	reception.POST("/visits", h.Create)
	reception.POST("/visits/emergency", h.CreateEmergency)
	reception.POST("/visits/:id/cancel", h.Cancel)

	nurse := api.Group("", auth.RequireRole("admin", "nurse"))
	nurse.POST("/visits/:id/vitals", h.RecordVitals)
	nurse.POST("/visits/:id/select-doctor", h.SelectDoctor)

	doctor := api.Group("", auth.RequireRole("admin", "doctor"))
	doctor.POST("/visits/:id/start-consultation", h.StartConsultation)
	doctor.POST("/visits/:id/lab-orders", h.CreateLabOrders)
	doctor.POST("/visits/:id/radiology-orders", h.CreateRadiologyOrders)
	doctor.POST("/visits/:id/batch-orders", h.CreateBatchOrders)
	doctor.POST("/visits/:id/medication-orders", h.CreateMedicationOrders)
	doctor.POST("/visits/:id/check-completion", h.CheckCompletion)
	doctor.POST("/visits/:id/complete", h.Complete)

	api.GET("/queues/triage", h.queue("triage"), auth.RequireRole("admin", "nurse"))
	api.GET("/queues/doctor", h.queue("doctor"), auth.RequireRole("admin", "doctor"))
	api.GET("/queues/results-review", h.queue("results-review"), auth.RequireRole("admin", "doctor"))
}

func visitID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

type createRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.Create(c.Request().Context(), req.PatientID)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) CreateEmergency(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.CreateEmergency(c.Request().Context(), req.PatientID)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Vitals(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	vitals, err := h.svc.VitalsForVisit(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, vitals)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	visits, total, err := h.svc.ListByPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

func (h *Handler) RecordVitals(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	var vt Vitals
	if err := c.Bind(&vt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	vt.RecordedBy = auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.RecordVitals(c.Request().Context(), id, &vt); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, vt)
}

type selectDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) SelectDoctor(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	var req selectDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.SelectDoctor(c.Request().Context(), id, req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) StartConsultation(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.StartConsultation(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

type diagnosticsRequest struct {
	InvestigationTypeIDs []uuid.UUID `json:"investigation_type_ids"`
}

func (h *Handler) CreateLabOrders(c echo.Context) error {
	return h.createDiagnostics(c, h.svc.CreateLabOrders)
}

func (h *Handler) CreateRadiologyOrders(c echo.Context) error {
	return h.createDiagnostics(c, h.svc.CreateRadiologyOrders)
}

func (h *Handler) createDiagnostics(c echo.Context, create func(ctx context.Context, visitID uuid.UUID, ids []uuid.UUID) ([]*order.Order, error)) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	var req diagnosticsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	orders, err := create(c.Request().Context(), id, req.InvestigationTypeIDs)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, orders)
}

type batchRequest struct {
	Type                 string      `json:"type"`
	InvestigationTypeIDs []uuid.UUID `json:"investigation_type_ids"`
}

func (h *Handler) CreateBatchOrders(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	batch, err := h.svc.CreateBatchOrders(c.Request().Context(), id, req.Type, req.InvestigationTypeIDs)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, batch)
}

type medicationRequest struct {
	Medications []order.MedicationRequest `json:"medications"`
}

func (h *Handler) CreateMedicationOrders(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	var req medicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	orders, err := h.svc.CreateMedicationOrders(c.Request().Context(), id, req.Medications)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, orders)
}

func (h *Handler) CheckCompletion(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.CheckInvestigationsComplete(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

type completeRequest struct {
	Diagnosis string           `json:"diagnosis"`
	FollowUp  *FollowUpRequest `json:"follow_up,omitempty"`
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.Complete(c.Request().Context(), id, req.Diagnosis, req.FollowUp)
	if err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) queue(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		pg := pagination.FromContext(c)
		visits, total, err := h.svc.Queue(c.Request().Context(), name, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(apperror.StatusOf(err), err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
	}
}
