package service

import (
	"context"
	"fmt"
	"time"

	"pawhome/internal/gateway"
	"pawhome/internal/model"
	"pawhome/internal/repository"
	"pawhome/pkg/apperr"
	"pawhome/pkg/logger"

	"github.com/google/uuid"
)

// --- DTOs ---

type InitiatePaymentRequest struct {
	ReferenceType string `json:"reference_type" binding:"required"` // ADOPTION, APPOINTMENT
	ReferenceID   string `json:"reference_id" binding:"required"`
}

// InitiatedPayment carries the stored record plus the processor's checkout URL
// the client should redirect to.
type InitiatedPayment struct {
	Payment    *model.Payment `json:"payment"`
	PaymentURL string         `json:"payment_url"`
}

// PaymentService charges adoption fees and appointment fees through the
// external gateway. Amounts are never taken from the request body; they are
// derived from the record being paid for.
type PaymentService interface {
	Initiate(ctx context.Context, caller Caller, req InitiatePaymentRequest) (*InitiatedPayment, error)
	Verify(ctx context.Context, caller Caller, gatewayRef string) (*model.Payment, error)
	Get(ctx context.Context, caller Caller, id string) (*model.Payment, error)
	ListMine(ctx context.Context, caller Caller, page, limit int) ([]model.Payment, int64, error)
}

type paymentService struct {
	payments     repository.PaymentRepository
	adoptions    repository.AdoptionRepository
	appointments repository.AppointmentRepository
	gw           gateway.Client
	hub          Broadcaster
	log          *logger.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	adoptions repository.AdoptionRepository,
	appointments repository.AppointmentRepository,
	gw gateway.Client,
	hub Broadcaster,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		payments:     payments,
		adoptions:    adoptions,
		appointments: appointments,
		gw:           gw,
		hub:          hub,
		log:          log,
	}
}

func (s *paymentService) Initiate(ctx context.Context, caller Caller, req InitiatePaymentRequest) (*InitiatedPayment, error) {
	payerID, err := uuid.Parse(caller.ID)
	if err != nil {
		return nil, apperr.Forbiddenf("authentication required to pay")
	}

	payment := &model.Payment{
		PayerID:  payerID,
		Currency: "TND",
		Status:   model.PaymentInitiated,
	}
	var description string

	switch req.ReferenceType {
	case model.PaymentRefAdoption:
		adoption, err := s.adoptions.GetByID(ctx, req.ReferenceID)
		if err != nil {
			return nil, apperr.FromDB("load adoption request", err)
		}
		if adoption.RequesterID.String() != caller.ID {
			return nil, apperr.Forbiddenf("only the requester may pay the adoption fee")
		}
		if adoption.Status != model.AdoptionApproved {
			return nil, apperr.InvalidStatef("adoption request is not approved")
		}
		if adoption.Pet == nil {
			return nil, apperr.Internalf("adoption request has no pet loaded")
		}
		if adoption.Pet.AdoptionFee.IsZero() {
			return nil, apperr.InvalidStatef("this adoption is free of charge")
		}
		payment.ReferenceType = model.PaymentRefAdoption
		payment.ReferenceID = adoption.ID
		payment.Amount = adoption.Pet.AdoptionFee
		description = fmt.Sprintf("Adoption fee for %s", adoption.Pet.Name)

	case model.PaymentRefAppointment:
		appt, err := s.appointments.GetByID(ctx, req.ReferenceID)
		if err != nil {
			return nil, apperr.FromDB("load appointment", err)
		}
		if appt.ClientID.String() != caller.ID {
			return nil, apperr.Forbiddenf("only the client may pay for an appointment")
		}
		if appt.Status != model.AppointmentConfirmed && appt.Status != model.AppointmentCompleted {
			return nil, apperr.InvalidStatef("appointment is not payable in status %s", appt.Status)
		}
		if appt.Fee.IsZero() {
			return nil, apperr.InvalidStatef("this appointment has no fee")
		}
		payment.ReferenceType = model.PaymentRefAppointment
		payment.ReferenceID = appt.ID
		payment.Amount = appt.Fee
		description = fmt.Sprintf("Appointment on %s", appt.StartsAt.Format("2006-01-02 15:04"))

	default:
		return nil, apperr.Validationf("reference_type must be %s or %s", model.PaymentRefAdoption, model.PaymentRefAppointment)
	}

	session, err := s.gw.Initiate(ctx, gateway.InitiateRequest{
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Description: description,
	})
	if err != nil {
		s.log.Error("payment gateway initiate failed", "error", err)
		return nil, apperr.Internalf("payment gateway is unavailable")
	}

	payment.GatewayRef = session.Ref
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperr.FromDB("create payment", err)
	}

	s.hub.Emit(EventPaymentInitiated, payment)
	return &InitiatedPayment{Payment: payment, PaymentURL: session.PaymentURL}, nil
}

// Verify asks the gateway for the final outcome of a pending payment and
// settles the local record. Idempotent once the payment left INITIATED.
func (s *paymentService) Verify(ctx context.Context, caller Caller, gatewayRef string) (*model.Payment, error) {
	payment, err := s.payments.GetByGatewayRef(ctx, gatewayRef)
	if err != nil {
		return nil, apperr.FromDB("load payment", err)
	}
	if !caller.IsAdmin() && payment.PayerID.String() != caller.ID {
		return nil, apperr.Forbiddenf("not your payment")
	}
	if payment.Status != model.PaymentInitiated {
		return payment, nil
	}

	result, err := s.gw.Verify(ctx, gatewayRef)
	if err != nil {
		s.log.Error("payment gateway verify failed", "ref", gatewayRef, "error", err)
		return nil, apperr.Internalf("payment gateway is unavailable")
	}

	now := time.Now()
	if result.Success {
		payment.Status = model.PaymentCompleted
		payment.CompletedAt = &now
	} else {
		payment.Status = model.PaymentFailed
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, apperr.FromDB("update payment", err)
	}

	s.hub.Emit(EventPaymentResolved, payment)
	return payment, nil
}

func (s *paymentService) Get(ctx context.Context, caller Caller, id string) (*model.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load payment", err)
	}
	if !caller.IsAdmin() && payment.PayerID.String() != caller.ID {
		return nil, apperr.Forbiddenf("not your payment")
	}
	return payment, nil
}

func (s *paymentService) ListMine(ctx context.Context, caller Caller, page, limit int) ([]model.Payment, int64, error) {
	payments, total, err := s.payments.ListByPayer(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list payments", err)
	}
	return payments, total, nil
}
