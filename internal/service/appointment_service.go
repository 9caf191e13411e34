package service

import (
	"context"
	"time"

	"pawhome/internal/model"
	"pawhome/internal/repository"
	"pawhome/pkg/apperr"
	"pawhome/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type BookAppointmentRequest struct {
	ProviderID string    `json:"provider_id" binding:"required"`
	StartsAt   time.Time `json:"starts_at" binding:"required"`
	EndsAt     time.Time `json:"ends_at" binding:"required"`
	Reason     string    `json:"reason"`
}

type ConfirmAppointmentRequest struct {
	Fee decimal.Decimal `json:"fee"`
}

// AppointmentService books and drives appointments with vets and trainers.
type AppointmentService interface {
	Book(ctx context.Context, caller Caller, req BookAppointmentRequest) (*model.Appointment, error)
	Get(ctx context.Context, caller Caller, id string) (*model.Appointment, error)
	ListMine(ctx context.Context, caller Caller, page, limit int) ([]model.Appointment, int64, error)
	ListForProvider(ctx context.Context, caller Caller, page, limit int) ([]model.Appointment, int64, error)
	Confirm(ctx context.Context, caller Caller, id string, req ConfirmAppointmentRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, caller Caller, id string) (*model.Appointment, error)
	Complete(ctx context.Context, caller Caller, id string) (*model.Appointment, error)
}

type appointmentService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	hub          Broadcaster
	log          *logger.Logger
}

func NewAppointmentService(
	appointments repository.AppointmentRepository,
	users repository.UserRepository,
	hub Broadcaster,
	log *logger.Logger,
) AppointmentService {
	return &appointmentService{
		appointments: appointments,
		users:        users,
		hub:          hub,
		log:          log,
	}
}

func (s *appointmentService) Book(ctx context.Context, caller Caller, req BookAppointmentRequest) (*model.Appointment, error) {
	clientID, err := uuid.Parse(caller.ID)
	if err != nil {
		return nil, apperr.Forbiddenf("authentication required to book an appointment")
	}

	if !req.EndsAt.After(req.StartsAt) {
		return nil, apperr.Validationf("appointment must end after it starts")
	}
	if req.StartsAt.Before(time.Now()) {
		return nil, apperr.Validationf("appointment cannot start in the past")
	}

	provider, err := s.users.GetByID(ctx, req.ProviderID)
	if err != nil {
		return nil, apperr.NotFoundf("provider not found")
	}
	if provider.Role != model.RoleVet && provider.Role != model.RoleTrainer {
		return nil, apperr.Validationf("appointments can only be booked with a vet or a trainer")
	}

	overlapping, err := s.appointments.CountOverlapping(ctx, provider.ID.String(), req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, apperr.FromDB("check availability", err)
	}
	if overlapping > 0 {
		return nil, apperr.InvalidStatef("the requested slot is already booked")
	}

	appt := &model.Appointment{
		ClientID:   clientID,
		ProviderID: provider.ID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Reason:     req.Reason,
		Status:     model.AppointmentPending,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, apperr.FromDB("create appointment", err)
	}

	s.hub.Emit(EventAppointmentBooked, appt)
	return appt, nil
}

func (s *appointmentService) Get(ctx context.Context, caller Caller, id string) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load appointment", err)
	}
	if !s.participant(caller, appt) {
		return nil, apperr.Forbiddenf("not a participant of this appointment")
	}
	return appt, nil
}

func (s *appointmentService) participant(caller Caller, appt *model.Appointment) bool {
	return caller.IsAdmin() ||
		caller.ID == appt.ClientID.String() ||
		caller.ID == appt.ProviderID.String()
}

func (s *appointmentService) ListMine(ctx context.Context, caller Caller, page, limit int) ([]model.Appointment, int64, error) {
	appts, total, err := s.appointments.ListByClient(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list appointments", err)
	}
	return appts, total, nil
}

func (s *appointmentService) ListForProvider(ctx context.Context, caller Caller, page, limit int) ([]model.Appointment, int64, error) {
	appts, total, err := s.appointments.ListByProvider(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list provider appointments", err)
	}
	return appts, total, nil
}

// Confirm moves a pending appointment to confirmed. Only the provider (or an
// admin) decides, and the slot is re-checked against confirmed bookings.
func (s *appointmentService) Confirm(ctx context.Context, caller Caller, id string, req ConfirmAppointmentRequest) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load appointment", err)
	}
	if !caller.IsAdmin() && caller.ID != appt.ProviderID.String() {
		return nil, apperr.Forbiddenf("only the provider may confirm an appointment")
	}
	if appt.Status != model.AppointmentPending {
		return nil, apperr.InvalidStatef("only pending appointments can be confirmed")
	}

	overlapping, err := s.appointments.CountOverlapping(ctx, appt.ProviderID.String(), appt.StartsAt, appt.EndsAt)
	if err != nil {
		return nil, apperr.FromDB("check availability", err)
	}
	if overlapping > 0 {
		return nil, apperr.InvalidStatef("the slot was booked in the meantime")
	}

	if req.Fee.IsNegative() {
		return nil, apperr.Validationf("fee cannot be negative")
	}

	appt.Status = model.AppointmentConfirmed
	appt.Fee = req.Fee
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, apperr.FromDB("confirm appointment", err)
	}

	s.hub.Emit(EventAppointmentConfirmed, appt)
	return appt, nil
}

func (s *appointmentService) Cancel(ctx context.Context, caller Caller, id string) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load appointment", err)
	}
	if !s.participant(caller, appt) {
		return nil, apperr.Forbiddenf("not a participant of this appointment")
	}
	if appt.Status == model.AppointmentCancelled || appt.Status == model.AppointmentCompleted {
		return nil, apperr.InvalidStatef("appointment is already %s", appt.Status)
	}

	appt.Status = model.AppointmentCancelled
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, apperr.FromDB("cancel appointment", err)
	}

	s.hub.Emit(EventAppointmentCancelled, appt)
	return appt, nil
}

func (s *appointmentService) Complete(ctx context.Context, caller Caller, id string) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load appointment", err)
	}
	if !caller.IsAdmin() && caller.ID != appt.ProviderID.String() {
		return nil, apperr.Forbiddenf("only the provider may complete an appointment")
	}
	if appt.Status != model.AppointmentConfirmed {
		return nil, apperr.InvalidStatef("only confirmed appointments can be completed")
	}

	appt.Status = model.AppointmentCompleted
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, apperr.FromDB("complete appointment", err)
	}

	s.hub.Emit(EventAppointmentCompleted, appt)
	return appt, nil
}
