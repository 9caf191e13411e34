package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pawhome/internal/model"
	"pawhome/pkg/apperr"
	"pawhome/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type appointmentFixture struct {
	svc          AppointmentService
	appointments *fakeAppointmentRepo
	hub          *recorderHub
	vet          model.User
}

func newAppointmentFixture() *appointmentFixture {
	vet := model.User{ID: uuid.New(), Email: "vet@example.com", Role: model.RoleVet}
	appointments := newFakeAppointmentRepo()
	hub := &recorderHub{}
	svc := NewAppointmentService(appointments, newFakeUserRepo(vet), hub, logger.NewNop())
	return &appointmentFixture{svc: svc, appointments: appointments, hub: hub, vet: vet}
}

func (f *appointmentFixture) vetCaller() Caller {
	return Caller{ID: f.vet.ID.String(), Role: model.RoleVet}
}

func bookingRequest(providerID uuid.UUID) BookAppointmentRequest {
	starts := time.Now().Add(48 * time.Hour)
	return BookAppointmentRequest{
		ProviderID: providerID.String(),
		StartsAt:   starts,
		EndsAt:     starts.Add(30 * time.Minute),
		Reason:     "annual checkup",
	}
}

func TestBookAppointment_StartsPending(t *testing.T) {
	f := newAppointmentFixture()

	appt, err := f.svc.Book(context.Background(), ownerCaller(uuid.New()), bookingRequest(f.vet.ID))
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if appt.Status != model.AppointmentPending {
		t.Errorf("Status = %s, want PENDING", appt.Status)
	}
	if !f.hub.has(EventAppointmentBooked) {
		t.Errorf("no %s event emitted", EventAppointmentBooked)
	}
}

func TestBookAppointment_RejectsInvertedWindow(t *testing.T) {
	f := newAppointmentFixture()
	req := bookingRequest(f.vet.ID)
	req.EndsAt = req.StartsAt.Add(-time.Hour)

	_, err := f.svc.Book(context.Background(), ownerCaller(uuid.New()), req)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBookAppointment_RejectsPastStart(t *testing.T) {
	f := newAppointmentFixture()
	req := bookingRequest(f.vet.ID)
	req.StartsAt = time.Now().Add(-time.Hour)

	_, err := f.svc.Book(context.Background(), ownerCaller(uuid.New()), req)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBookAppointment_RejectsNonProvider(t *testing.T) {
	f := newAppointmentFixture()
	users := newFakeUserRepo(model.User{ID: uuid.New(), Email: "amira@example.com", Role: model.RolePetOwner})
	svc := NewAppointmentService(f.appointments, users, f.hub, logger.NewNop())

	req := bookingRequest(f.vet.ID)
	for id := range users.users {
		req.ProviderID = id
	}
	_, err := svc.Book(context.Background(), ownerCaller(uuid.New()), req)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for non-provider, got %v", err)
	}
}

func TestBookAppointment_RejectsOverlappingSlot(t *testing.T) {
	f := newAppointmentFixture()
	req := bookingRequest(f.vet.ID)
	f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		StartsAt:   req.StartsAt.Add(-15 * time.Minute),
		EndsAt:     req.StartsAt.Add(15 * time.Minute),
		Status:     model.AppointmentConfirmed,
	})

	_, err := f.svc.Book(context.Background(), ownerCaller(uuid.New()), req)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state error for double booking, got %v", err)
	}
}

func TestConfirmAppointment_QuotesFee(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		StartsAt:   time.Now().Add(24 * time.Hour),
		EndsAt:     time.Now().Add(25 * time.Hour),
		Status:     model.AppointmentPending,
	})

	confirmed, err := f.svc.Confirm(context.Background(), f.vetCaller(), appt.ID.String(), ConfirmAppointmentRequest{
		Fee: decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.Status != model.AppointmentConfirmed {
		t.Errorf("Status = %s, want CONFIRMED", confirmed.Status)
	}
	if !confirmed.Fee.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Fee = %s, want 30", confirmed.Fee)
	}
}

func TestConfirmAppointment_OnlyProvider(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		Status:     model.AppointmentPending,
	})

	_, err := f.svc.Confirm(context.Background(), ownerCaller(uuid.New()), appt.ID.String(), ConfirmAppointmentRequest{})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestConfirmAppointment_RejectsNegativeFee(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		Status:     model.AppointmentPending,
	})

	_, err := f.svc.Confirm(context.Background(), f.vetCaller(), appt.ID.String(), ConfirmAppointmentRequest{
		Fee: decimal.NewFromInt(-10),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestConfirmAppointment_SlotTakenMeanwhile(t *testing.T) {
	f := newAppointmentFixture()
	starts := time.Now().Add(24 * time.Hour)
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		StartsAt:   starts,
		EndsAt:     starts.Add(time.Hour),
		Status:     model.AppointmentPending,
	})
	f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		StartsAt:   starts,
		EndsAt:     starts.Add(time.Hour),
		Status:     model.AppointmentConfirmed,
	})

	_, err := f.svc.Confirm(context.Background(), f.vetCaller(), appt.ID.String(), ConfirmAppointmentRequest{})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}

func TestCancelAppointment_CompletedIsFinal(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		Status:     model.AppointmentCompleted,
	})

	_, err := f.svc.Cancel(context.Background(), f.vetCaller(), appt.ID.String())
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}

func TestCancelAppointment_ClientMayCancel(t *testing.T) {
	f := newAppointmentFixture()
	client := uuid.New()
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   client,
		Status:     model.AppointmentConfirmed,
	})

	cancelled, err := f.svc.Cancel(context.Background(), ownerCaller(client), appt.ID.String())
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != model.AppointmentCancelled {
		t.Errorf("Status = %s, want CANCELLED", cancelled.Status)
	}
	if !f.hub.has(EventAppointmentCancelled) {
		t.Errorf("no %s event emitted", EventAppointmentCancelled)
	}
}

func TestCompleteAppointment_RequiresConfirmed(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		Status:     model.AppointmentPending,
	})

	_, err := f.svc.Complete(context.Background(), f.vetCaller(), appt.ID.String())
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}

func TestCompleteAppointment_ProviderCompletes(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.appointments.add(model.Appointment{
		ProviderID: f.vet.ID,
		ClientID:   uuid.New(),
		Status:     model.AppointmentConfirmed,
	})

	done, err := f.svc.Complete(context.Background(), f.vetCaller(), appt.ID.String())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if done.Status != model.AppointmentCompleted {
		t.Errorf("Status = %s, want COMPLETED", done.Status)
	}
}
