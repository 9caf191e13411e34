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

type paymentFixture struct {
	svc          PaymentService
	payments     *fakePaymentRepo
	adoptions    *fakeAdoptionRepo
	appointments *fakeAppointmentRepo
	gw           *fakeGateway
	hub          *recorderHub
}

func newPaymentFixture() *paymentFixture {
	payments := newFakePaymentRepo()
	adoptions := newFakeAdoptionRepo()
	appointments := newFakeAppointmentRepo()
	gw := &fakeGateway{success: true}
	hub := &recorderHub{}
	svc := NewPaymentService(payments, adoptions, appointments, gw, hub, logger.NewNop())
	return &paymentFixture{svc: svc, payments: payments, adoptions: adoptions, appointments: appointments, gw: gw, hub: hub}
}

// approvedAdoption seeds an approved adoption request whose pet carries a fee.
func (f *paymentFixture) approvedAdoption(requester uuid.UUID, fee decimal.Decimal) model.AdoptionRequest {
	pet := model.Pet{ID: uuid.New(), Name: "Milo", AdoptionFee: fee}
	return f.adoptions.add(model.AdoptionRequest{
		PetID:       pet.ID,
		RequesterID: requester,
		Status:      model.AdoptionApproved,
		Pet:         &pet,
	})
}

func TestInitiatePayment_AdoptionFeeFromPet(t *testing.T) {
	f := newPaymentFixture()
	requester := uuid.New()
	adoption := f.approvedAdoption(requester, decimal.NewFromInt(80))

	initiated, err := f.svc.Initiate(context.Background(), ownerCaller(requester), InitiatePaymentRequest{
		ReferenceType: model.PaymentRefAdoption,
		ReferenceID:   adoption.ID.String(),
	})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if !initiated.Payment.Amount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("Amount = %s, want 80", initiated.Payment.Amount)
	}
	if initiated.Payment.Status != model.PaymentInitiated {
		t.Errorf("Status = %s, want INITIATED", initiated.Payment.Status)
	}
	if initiated.PaymentURL == "" {
		t.Errorf("PaymentURL is empty")
	}
	if len(f.gw.initiated) != 1 {
		t.Fatalf("gateway initiated %d times, want 1", len(f.gw.initiated))
	}
	if !f.gw.initiated[0].Amount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("gateway amount = %s, want 80", f.gw.initiated[0].Amount)
	}
	if !f.hub.has(EventPaymentInitiated) {
		t.Errorf("no %s event emitted", EventPaymentInitiated)
	}
}

func TestInitiatePayment_WrongPayerForbidden(t *testing.T) {
	f := newPaymentFixture()
	adoption := f.approvedAdoption(uuid.New(), decimal.NewFromInt(80))

	_, err := f.svc.Initiate(context.Background(), ownerCaller(uuid.New()), InitiatePaymentRequest{
		ReferenceType: model.PaymentRefAdoption,
		ReferenceID:   adoption.ID.String(),
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestInitiatePayment_UnapprovedAdoptionRejected(t *testing.T) {
	f := newPaymentFixture()
	requester := uuid.New()
	pet := model.Pet{ID: uuid.New(), Name: "Milo", AdoptionFee: decimal.NewFromInt(80)}
	adoption := f.adoptions.add(model.AdoptionRequest{
		PetID:       pet.ID,
		RequesterID: requester,
		Status:      model.AdoptionPending,
		Pet:         &pet,
	})

	_, err := f.svc.Initiate(context.Background(), ownerCaller(requester), InitiatePaymentRequest{
		ReferenceType: model.PaymentRefAdoption,
		ReferenceID:   adoption.ID.String(),
	})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}

func TestInitiatePayment_FreeAdoptionRejected(t *testing.T) {
	f := newPaymentFixture()
	requester := uuid.New()
	adoption := f.approvedAdoption(requester, decimal.Zero)

	_, err := f.svc.Initiate(context.Background(), ownerCaller(requester), InitiatePaymentRequest{
		ReferenceType: model.PaymentRefAdoption,
		ReferenceID:   adoption.ID.String(),
	})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state error for a free adoption, got %v", err)
	}
}

func TestInitiatePayment_AppointmentFeeFromQuote(t *testing.T) {
	f := newPaymentFixture()
	client := uuid.New()
	appt := f.appointments.add(model.Appointment{
		ClientID:   client,
		ProviderID: uuid.New(),
		StartsAt:   time.Now().Add(24 * time.Hour),
		EndsAt:     time.Now().Add(25 * time.Hour),
		Status:     model.AppointmentConfirmed,
		Fee:        decimal.NewFromInt(30),
	})

	initiated, err := f.svc.Initiate(context.Background(), ownerCaller(client), InitiatePaymentRequest{
		ReferenceType: model.PaymentRefAppointment,
		ReferenceID:   appt.ID.String(),
	})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if !initiated.Payment.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Amount = %s, want 30", initiated.Payment.Amount)
	}
	if initiated.Payment.ReferenceType != model.PaymentRefAppointment {
		t.Errorf("ReferenceType = %s, want APPOINTMENT", initiated.Payment.ReferenceType)
	}
}

func TestInitiatePayment_UnconfirmedAppointmentRejected(t *testing.T) {
	f := newPaymentFixture()
	client := uuid.New()
	appt := f.appointments.add(model.Appointment{
		ClientID:   client,
		ProviderID: uuid.New(),
		Status:     model.AppointmentPending,
		Fee:        decimal.NewFromInt(30),
	})

	_, err := f.svc.Initiate(context.Background(), ownerCaller(client), InitiatePaymentRequest{
		ReferenceType: model.PaymentRefAppointment,
		ReferenceID:   appt.ID.String(),
	})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}

func TestInitiatePayment_UnknownReferenceType(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.svc.Initiate(context.Background(), ownerCaller(uuid.New()), InitiatePaymentRequest{
		ReferenceType: "DONATION",
		ReferenceID:   uuid.New().String(),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestInitiatePayment_GatewayDown(t *testing.T) {
	f := newPaymentFixture()
	f.gw.err = errors.New("connection refused")
	requester := uuid.New()
	adoption := f.approvedAdoption(requester, decimal.NewFromInt(80))

	_, err := f.svc.Initiate(context.Background(), ownerCaller(requester), InitiatePaymentRequest{
		ReferenceType: model.PaymentRefAdoption,
		ReferenceID:   adoption.ID.String(),
	})
	if !errors.Is(err, apperr.ErrInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
	if len(f.payments.payments) != 0 {
		t.Errorf("payment was persisted despite gateway failure")
	}
}

func initiatedPayment(f *paymentFixture, payer uuid.UUID) model.Payment {
	p := model.Payment{
		PayerID:       payer,
		ReferenceType: model.PaymentRefAdoption,
		ReferenceID:   uuid.New(),
		Amount:        decimal.NewFromInt(80),
		Currency:      "TND",
		Status:        model.PaymentInitiated,
		GatewayRef:    uuid.New().String(),
	}
	if err := f.payments.Create(context.Background(), &p); err != nil {
		panic(err)
	}
	return p
}

func TestVerifyPayment_SuccessCompletes(t *testing.T) {
	f := newPaymentFixture()
	payer := uuid.New()
	p := initiatedPayment(f, payer)

	verified, err := f.svc.Verify(context.Background(), ownerCaller(payer), p.GatewayRef)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verified.Status != model.PaymentCompleted {
		t.Errorf("Status = %s, want COMPLETED", verified.Status)
	}
	if verified.CompletedAt == nil {
		t.Errorf("CompletedAt not set")
	}
	if !f.hub.has(EventPaymentResolved) {
		t.Errorf("no %s event emitted", EventPaymentResolved)
	}
}

func TestVerifyPayment_FailureMarksFailed(t *testing.T) {
	f := newPaymentFixture()
	f.gw.success = false
	payer := uuid.New()
	p := initiatedPayment(f, payer)

	verified, err := f.svc.Verify(context.Background(), ownerCaller(payer), p.GatewayRef)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verified.Status != model.PaymentFailed {
		t.Errorf("Status = %s, want FAILED", verified.Status)
	}
	if verified.CompletedAt != nil {
		t.Errorf("CompletedAt set on a failed payment")
	}
}

func TestVerifyPayment_IdempotentOnceSettled(t *testing.T) {
	f := newPaymentFixture()
	payer := uuid.New()
	p := initiatedPayment(f, payer)

	if _, err := f.svc.Verify(context.Background(), ownerCaller(payer), p.GatewayRef); err != nil {
		t.Fatalf("first Verify() error = %v", err)
	}

	// A later failure outcome at the gateway must not flip a settled record.
	f.gw.success = false
	again, err := f.svc.Verify(context.Background(), ownerCaller(payer), p.GatewayRef)
	if err != nil {
		t.Fatalf("second Verify() error = %v", err)
	}
	if again.Status != model.PaymentCompleted {
		t.Errorf("Status = %s after re-verify, want COMPLETED", again.Status)
	}
}

func TestVerifyPayment_StrangerForbidden(t *testing.T) {
	f := newPaymentFixture()
	p := initiatedPayment(f, uuid.New())

	_, err := f.svc.Verify(context.Background(), ownerCaller(uuid.New()), p.GatewayRef)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestGetPayment_AdminMayRead(t *testing.T) {
	f := newPaymentFixture()
	p := initiatedPayment(f, uuid.New())

	got, err := f.svc.Get(context.Background(), adminCaller(), p.ID.String())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("returned payment %s, want %s", got.ID, p.ID)
	}
}
