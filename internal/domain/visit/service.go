package visit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careflow/hms/internal/domain/billing"
	"github.com/careflow/hms/internal/domain/history"
	"github.com/careflow/hms/internal/domain/order"
	"github.com/careflow/hms/internal/domain/patient"
	"github.com/careflow/hms/internal/domain/staff"
	"github.com/careflow/hms/internal/platform/cache"
	"github.com/careflow/hms/internal/platform/db"
	"github.com/careflow/hms/pkg/apperror"
)

// PatientDirectory is the slice of the patient service the engine needs.
type PatientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	TouchActivity(ctx context.Context, id uuid.UUID) error
}

// DoctorRoster is the slice of the staff service the engine assigns through.
type DoctorRoster interface {
	EnsureAvailableDoctor(ctx context.Context, id uuid.UUID) (*staff.Doctor, error)
	Assign(ctx context.Context, visitID, patientID, doctorID uuid.UUID) (*staff.Assignment, error)
	ActivateAssignment(ctx context.Context, visitID uuid.UUID) error
	CompleteAssignment(ctx context.Context, visitID uuid.UUID) error
}

// Biller is the slice of the billing ledger the engine opens charges on and
// gates transitions against.
type Biller interface {
	Open(ctx context.Context, visitID, patientID uuid.UUID, kind string, items []*billing.LineItem, emergency bool) (*billing.Billing, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.Billing, error)
	Payments(ctx context.Context, billingID uuid.UUID) ([]*billing.Payment, error)
}

// OrderDesk is the slice of the order service the engine dispatches through.
type OrderDesk interface {
	CreateDiagnostics(ctx context.Context, visitID, patientID uuid.UUID, orderType string, investigationTypeIDs []uuid.UUID) ([]*order.Order, error)
	CreateBatch(ctx context.Context, visitID, patientID uuid.UUID, batchType string, investigationTypeIDs []uuid.UUID) (*order.BatchOrder, error)
	CreateMedicationOrders(ctx context.Context, visitID, patientID uuid.UUID, reqs []order.MedicationRequest) ([]*order.Order, error)
	DiagnosticTypes(ctx context.Context, visitID uuid.UUID) (hasLab, hasRadiology bool, err error)
	AllInvestigationsComplete(ctx context.Context, visitID uuid.UUID) (bool, error)
	ReleaseMedicationOrders(ctx context.Context, visitID uuid.UUID) error
	CancelOpen(ctx context.Context, visitID uuid.UUID) error
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*order.Order, error)
}

// CompletionSink persists the completion snapshot inside the completing
// transaction.
type CompletionSink interface {
	RecordCompletion(ctx context.Context, visitID, patientID uuid.UUID, snap history.Snapshot) error
}

// FollowUpBooker books the optional return consultation at completion.
// Implemented by the appointment service.
type FollowUpBooker interface {
	BookFollowUp(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time, reason string) error
}

type Service struct {
	repo     Repository
	tx       db.TxRunner
	patients PatientDirectory
	doctors  DoctorRoster
	biller   Biller
	orders   OrderDesk
	sink     CompletionSink
	booker   FollowUpBooker
	cache    *cache.Cache

	// defaultConsultationFee applies when the doctor has no fee of their own,
	// and prices emergency attendance.
	defaultConsultationFee int64
}

func NewService(repo Repository, tx db.TxRunner, patients PatientDirectory, doctors DoctorRoster,
	biller Biller, orders OrderDesk, sink CompletionSink, c *cache.Cache, defaultConsultationFee int64) *Service {
	return &Service{
		repo:                   repo,
		tx:                     tx,
		patients:               patients,
		doctors:                doctors,
		biller:                 biller,
		orders:                 orders,
		sink:                   sink,
		cache:                  c,
		defaultConsultationFee: defaultConsultationFee,
	}
}

// SetFollowUpBooker wires the appointment service in after construction.
func (s *Service) SetFollowUpBooker(b FollowUpBooker) {
	s.booker = b
}

// Create opens a reception visit at the head of the triage queue.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID) (*Visit, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	v := &Visit{
		UID:       NewUID(),
		PatientID: patientID,
		Status:    StatusWaitingForTriage,
		QueueType: QueueConsultation,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	_ = s.patients.TouchActivity(ctx, patientID)
	s.invalidateQueues(ctx)
	return v, nil
}

// CreateEmergency opens an emergency walk-in visit. The attendance charge is
// opened immediately as EMERGENCY_PENDING so treatment is never blocked on
// payment; the charge is settled or claimed later.
func (s *Service) CreateEmergency(ctx context.Context, patientID uuid.UUID) (*Visit, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	var v *Visit
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		v = &Visit{
			UID:       NewUID(),
			PatientID: patientID,
			Status:    StatusWaitingForTriage,
			QueueType: QueueConsultation,
			Emergency: true,
		}
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		_, err := s.biller.Open(ctx, v.ID, patientID, billing.KindEmergency, []*billing.LineItem{{
			Description: "Emergency attendance",
			Quantity:    1,
			UnitPrice:   s.defaultConsultationFee,
			TotalPrice:  s.defaultConsultationFee,
		}}, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.patients.TouchActivity(ctx, patientID)
	s.invalidateQueues(ctx)
	return v, nil
}

// OpenForAppointment implements appointment.VisitOpener: a checked-in
// appointment skips triage and lands directly in the doctor queue, already
// assigned and billed for the consultation.
func (s *Service) OpenForAppointment(ctx context.Context, patientID, doctorID uuid.UUID) (uuid.UUID, error) {
	var visitID uuid.UUID
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		d, err := s.doctors.EnsureAvailableDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		v := &Visit{
			UID:       NewUID(),
			PatientID: patientID,
			Status:    StatusInDoctorQueue,
			QueueType: QueueConsultation,
		}
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		a, err := s.doctors.Assign(ctx, v.ID, patientID, doctorID)
		if err != nil {
			return err
		}
		if err := s.repo.SetAssignment(ctx, v.ID, a.ID); err != nil {
			return err
		}
		if err := s.openConsultationBilling(ctx, v, d); err != nil {
			return err
		}
		visitID = v.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.invalidateQueues(ctx)
	return visitID, nil
}

// RecordVitals moves WAITING_FOR_TRIAGE to TRIAGED, storing the triage record
// in the same transaction.
func (s *Service) RecordVitals(ctx context.Context, visitID uuid.UUID, vt *Vitals) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Get(ctx, visitID); err != nil {
			return err
		}
		ok, err := s.repo.UpdateStatus(ctx, visitID, []string{StatusWaitingForTriage}, StatusTriaged)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.InvalidVisitState("visit is not waiting for triage")
		}
		vt.VisitID = visitID
		return s.repo.CreateVitals(ctx, vt)
	})
	if err != nil {
		return err
	}
	s.invalidateQueues(ctx)
	return nil
}

// SelectDoctor moves TRIAGED to WAITING_FOR_DOCTOR: creates the pending
// assignment and opens the consultation charge priced from the doctor's fee.
func (s *Service) SelectDoctor(ctx context.Context, visitID, doctorID uuid.UUID) (*Visit, error) {
	var out *Visit
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.Get(ctx, visitID)
		if err != nil {
			return err
		}
		d, err := s.doctors.EnsureAvailableDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		ok, err := s.repo.UpdateStatus(ctx, visitID, []string{StatusTriaged}, StatusWaitingForDoctor)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.InvalidVisitState("visit is not triaged")
		}
		a, err := s.doctors.Assign(ctx, visitID, v.PatientID, doctorID)
		if err != nil {
			return err
		}
		if err := s.repo.SetAssignment(ctx, visitID, a.ID); err != nil {
			return err
		}
		if err := s.openConsultationBilling(ctx, v, d); err != nil {
			return err
		}
		v.Status = StatusWaitingForDoctor
		v.AssignmentID = &a.ID
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateQueues(ctx)
	return out, nil
}

func (s *Service) openConsultationBilling(ctx context.Context, v *Visit, d *staff.Doctor) error {
	fee := d.ConsultationFee
	if fee <= 0 {
		fee = s.defaultConsultationFee
	}
	_, err := s.biller.Open(ctx, v.ID, v.PatientID, billing.KindConsultation, []*billing.LineItem{{
		Description: "Consultation: " + d.Name,
		Quantity:    1,
		UnitPrice:   fee,
		TotalPrice:  fee,
	}}, v.Emergency)
	return err
}

// StartConsultation moves the visit under doctor review. Gated on the
// consultation charge being settled; deferred charges (EMERGENCY_PENDING,
// PENDING_INSURANCE) also pass, since those are collected after care.
func (s *Service) StartConsultation(ctx context.Context, visitID uuid.UUID) (*Visit, error) {
	var out *Visit
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.Get(ctx, visitID)
		if err != nil {
			return err
		}
		cleared, err := s.consultationCleared(ctx, visitID)
		if err != nil {
			return err
		}
		if !cleared {
			return apperror.PaymentRequired("consultation billing has not been paid")
		}
		ok, err := s.repo.UpdateStatus(ctx, visitID,
			[]string{StatusWaitingForDoctor, StatusInDoctorQueue, StatusAwaitingResultsReview},
			StatusUnderDoctorReview)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.InvalidVisitState("visit is not waiting for a doctor")
		}
		if err := s.doctors.ActivateAssignment(ctx, visitID); err != nil && !apperror.IsKind(err, apperror.KindNotFound) {
			return err
		}
		if err := s.repo.SetQueueType(ctx, visitID, QueueConsultation); err != nil {
			return err
		}
		v.Status = StatusUnderDoctorReview
		v.QueueType = QueueConsultation
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateQueues(ctx)
	return out, nil
}

// consultationCleared reports whether the visit's consultation (or emergency
// attendance) charge is settled or deferred.
func (s *Service) consultationCleared(ctx context.Context, visitID uuid.UUID) (bool, error) {
	billings, err := s.biller.ListByVisit(ctx, visitID)
	if err != nil {
		return false, err
	}
	for _, b := range billings {
		if b.Kind != billing.KindConsultation && b.Kind != billing.KindEmergency {
			continue
		}
		if b.Settled() || b.Deferred() {
			return true, nil
		}
	}
	return false, nil
}

// CreateLabOrders dispatches lab investigations and re-derives the visit's
// dispatch status from the union of diagnostic order types.
func (s *Service) CreateLabOrders(ctx context.Context, visitID uuid.UUID, investigationTypeIDs []uuid.UUID) ([]*order.Order, error) {
	return s.createDiagnostics(ctx, visitID, order.TypeLab, investigationTypeIDs)
}

// CreateRadiologyOrders dispatches radiology investigations.
func (s *Service) CreateRadiologyOrders(ctx context.Context, visitID uuid.UUID, investigationTypeIDs []uuid.UUID) ([]*order.Order, error) {
	return s.createDiagnostics(ctx, visitID, order.TypeRadiology, investigationTypeIDs)
}

var dispatchSources = []string{
	StatusWaitingForDoctor, StatusUnderDoctorReview,
	StatusSentToLab, StatusSentToRadiology, StatusSentToBoth,
}

func (s *Service) createDiagnostics(ctx context.Context, visitID uuid.UUID, orderType string, investigationTypeIDs []uuid.UUID) ([]*order.Order, error) {
	var created []*order.Order
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.Get(ctx, visitID)
		if err != nil {
			return err
		}
		var cErr error
		created, cErr = s.orders.CreateDiagnostics(ctx, visitID, v.PatientID, orderType, investigationTypeIDs)
		if cErr != nil {
			return cErr
		}
		return s.rederiveDispatch(ctx, visitID)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateQueues(ctx)
	return created, nil
}

// CreateBatchOrders dispatches a multi-investigation batch order.
func (s *Service) CreateBatchOrders(ctx context.Context, visitID uuid.UUID, batchType string, investigationTypeIDs []uuid.UUID) (*order.BatchOrder, error) {
	var created *order.BatchOrder
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.Get(ctx, visitID)
		if err != nil {
			return err
		}
		var cErr error
		created, cErr = s.orders.CreateBatch(ctx, visitID, v.PatientID, batchType, investigationTypeIDs)
		if cErr != nil {
			return cErr
		}
		return s.rederiveDispatch(ctx, visitID)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateQueues(ctx)
	return created, nil
}

// rederiveDispatch recomputes SENT_TO_* from the union of live diagnostic
// order types. Setting the same status again is a harmless no-op, which is
// what makes repeated dispatch idempotent.
func (s *Service) rederiveDispatch(ctx context.Context, visitID uuid.UUID) error {
	hasLab, hasRadiology, err := s.orders.DiagnosticTypes(ctx, visitID)
	if err != nil {
		return err
	}
	target := DeriveSentStatus(hasLab, hasRadiology)
	if target == "" {
		return apperror.New(apperror.KindIntegrity, "dispatch requested with no diagnostic orders")
	}
	ok, err := s.repo.UpdateStatus(ctx, visitID, dispatchSources, target)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.InvalidVisitState("visit cannot be sent for diagnostics")
	}
	return nil
}

// CreateMedicationOrders prescribes against the visit. The incomplete-
// investigations gate lives in the order service; this only rejects
// prescriptions on closed visits.
func (s *Service) CreateMedicationOrders(ctx context.Context, visitID uuid.UUID, reqs []order.MedicationRequest) ([]*order.Order, error) {
	v, err := s.repo.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Terminal() {
		return nil, apperror.InvalidVisitState("visit is %s", v.Status)
	}
	return s.orders.CreateMedicationOrders(ctx, visitID, v.PatientID, reqs)
}

// OrderCompleted implements order.CompletionObserver: re-evaluate completion
// whenever any order on the visit completes. The visit advances to
// AWAITING_RESULTS_REVIEW only once every order is done; re-checking with
// the same completion state changes nothing.
func (s *Service) OrderCompleted(ctx context.Context, visitID uuid.UUID) error {
	_, err := s.CheckInvestigationsComplete(ctx, visitID)
	return err
}

// CheckInvestigationsComplete is the idempotent completion poll.
func (s *Service) CheckInvestigationsComplete(ctx context.Context, visitID uuid.UUID) (*Visit, error) {
	var out *Visit
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		// Row-lock the visit so polls fired by two last-result writes
		// serialize and the later one sees the earlier one's result row.
		if _, err := s.repo.GetForUpdate(ctx, visitID); err != nil {
			return err
		}
		complete, err := s.orders.AllInvestigationsComplete(ctx, visitID)
		if err != nil {
			return err
		}
		if complete {
			advanced, err := s.repo.UpdateStatus(ctx, visitID, sentStatuses, StatusAwaitingResultsReview)
			if err != nil {
				return err
			}
			if advanced {
				if err := s.repo.SetQueueType(ctx, visitID, QueueResultsReview); err != nil {
					return err
				}
			}
		}
		out, err = s.repo.Get(ctx, visitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateQueues(ctx)
	return out, nil
}

// FollowUpRequest optionally books a return consultation at completion.
type FollowUpRequest struct {
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
}

// Complete closes the visit: only from UNDER_DOCTOR_REVIEW, diagnosis
// required. The status flip, the history snapshot, the pharmacy release and
// the optional follow-up booking land in one transaction; under concurrent
// completion attempts exactly one caller wins the compare-and-set.
func (s *Service) Complete(ctx context.Context, visitID uuid.UUID, diagnosis string, followUp *FollowUpRequest) (*Visit, error) {
	if diagnosis == "" {
		return nil, apperror.Validation("diagnosis is required")
	}

	var out *Visit
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.Get(ctx, visitID)
		if err != nil {
			return err
		}
		won, err := s.repo.Complete(ctx, visitID, diagnosis)
		if err != nil {
			return err
		}
		if !won {
			return apperror.InvalidVisitState("visit is not under doctor review")
		}

		snap, err := s.buildSnapshot(ctx, v, diagnosis)
		if err != nil {
			return err
		}
		if err := s.sink.RecordCompletion(ctx, v.ID, v.PatientID, snap); err != nil {
			return err
		}
		if err := s.orders.ReleaseMedicationOrders(ctx, visitID); err != nil {
			return err
		}
		if err := s.doctors.CompleteAssignment(ctx, visitID); err != nil && !apperror.IsKind(err, apperror.KindNotFound) {
			return err
		}
		if followUp != nil {
			if s.booker == nil {
				return apperror.Validation("follow-up booking is not available")
			}
			if err := s.booker.BookFollowUp(ctx, v.PatientID, followUp.DoctorID, followUp.ScheduledAt, followUp.Reason); err != nil {
				return err
			}
		}

		out, err = s.repo.Get(ctx, visitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.patients.TouchActivity(ctx, out.PatientID)
	s.invalidateQueues(ctx)
	return out, nil
}

func (s *Service) buildSnapshot(ctx context.Context, v *Visit, diagnosis string) (history.Snapshot, error) {
	snap := history.Snapshot{VisitUID: v.UID, Diagnosis: diagnosis}

	vitals, err := s.repo.ListVitalsByVisit(ctx, v.ID)
	if err != nil {
		return snap, err
	}
	for _, vt := range vitals {
		snap.Vitals = append(snap.Vitals, history.VitalsRecord{
			Temperature:      vt.Temperature,
			BloodPressure:    vt.BloodPressure,
			HeartRate:        vt.HeartRate,
			RespiratoryRate:  vt.RespiratoryRate,
			OxygenSaturation: vt.OxygenSaturation,
			Notes:            vt.Notes,
			RecordedAt:       vt.CreatedAt,
		})
	}

	orders, err := s.orders.ListByVisit(ctx, v.ID)
	if err != nil {
		return snap, err
	}
	for _, o := range orders {
		rec := history.OrderRecord{
			ID:          o.ID,
			Type:        o.Type,
			Status:      o.Status,
			Description: o.Description,
			Quantity:    o.Quantity,
			Price:       o.Price,
		}
		if o.Result != nil {
			rec.Result = *o.Result
		}
		snap.Orders = append(snap.Orders, rec)
	}

	billings, err := s.biller.ListByVisit(ctx, v.ID)
	if err != nil {
		return snap, err
	}
	for _, b := range billings {
		rec := history.BillingRecord{
			ID:          b.ID,
			Kind:        b.Kind,
			Status:      b.Status,
			TotalAmount: b.TotalAmount,
		}
		payments, err := s.biller.Payments(ctx, b.ID)
		if err != nil {
			return snap, err
		}
		for _, p := range payments {
			pr := history.PaymentRecord{Amount: p.Amount, Method: p.Method, CreatedAt: p.CreatedAt}
			if p.Reference != nil {
				pr.Reference = *p.Reference
			}
			rec.Payments = append(rec.Payments, pr)
		}
		snap.Billings = append(snap.Billings, rec)
	}
	return snap, nil
}

// Cancel closes the visit from any pre-completion state and cancels its open
// orders.
func (s *Service) Cancel(ctx context.Context, visitID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateStatus(ctx, visitID, []string{
			StatusWaitingForTriage, StatusTriaged, StatusWaitingForDoctor, StatusInDoctorQueue,
			StatusUnderDoctorReview, StatusSentToLab, StatusSentToRadiology, StatusSentToBoth,
			StatusAwaitingResultsReview,
		}, StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.InvalidVisitState("visit cannot be cancelled")
		}
		return s.orders.CancelOpen(ctx, visitID)
	})
	if err != nil {
		return err
	}
	s.invalidateQueues(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) VitalsForVisit(ctx context.Context, visitID uuid.UUID) ([]*Vitals, error) {
	return s.repo.ListVitalsByVisit(ctx, visitID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Department queue reads. First pages are served from the redis cache when
// one is configured; every transition invalidates the cached pages.

const queueCacheTTL = 10 * time.Second

var queueStatuses = map[string][]string{
	"triage":         {StatusWaitingForTriage},
	"doctor":         {StatusWaitingForDoctor, StatusInDoctorQueue},
	"results-review": {StatusAwaitingResultsReview},
}

type queuePage struct {
	Visits []*Visit `json:"visits"`
	Total  int      `json:"total"`
}

func (s *Service) Queue(ctx context.Context, name string, limit, offset int) ([]*Visit, int, error) {
	statuses, ok := queueStatuses[name]
	if !ok {
		return nil, 0, apperror.Validation("unknown queue")
	}

	key := "queue:" + name
	if offset == 0 {
		var page queuePage
		if err := s.cache.GetJSON(ctx, key, &page); err == nil {
			return page.Visits, page.Total, nil
		}
	}

	visits, total, err := s.repo.ListByStatus(ctx, statuses, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if offset == 0 {
		_ = s.cache.SetJSON(ctx, key, queuePage{Visits: visits, Total: total}, queueCacheTTL)
	}
	return visits, total, nil
}

func (s *Service) invalidateQueues(ctx context.Context) {
	_ = s.cache.Delete(ctx, "queue:triage", "queue:doctor", "queue:results-review")
}
