package service

import "pawhome/internal/model"

// Caller identifies the user behind a request, resolved by the auth
// middleware. A zero Caller is an anonymous request.
type Caller struct {
	ID   string
	Role string
}

func (c Caller) Authenticated() bool {
	return c.ID != ""
}

func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// Broadcaster pushes real-time events to connected clients. The websocket
// hub satisfies it; tests substitute a recorder. Injected into services so no
// handler reaches for a global fan-out handle.
type Broadcaster interface {
	Emit(event string, data interface{})
}

// Real-time event names, one per mutating operation.
const (
	EventReportCreated    = "report:created"
	EventReportUpdated    = "report:updated"
	EventReportApproved   = "report:approved"
	EventReportArchived   = "report:archived"
	EventReportUnarchived = "report:unarchived"
	EventReportDeleted    = "report:deleted"
	EventReportMatched    = "report:matched"
	EventReportUnmatched  = "report:unmatched"
	EventReportReunited   = "report:reunited"

	EventPetCreated        = "pet:created"
	EventPetUpdated        = "pet:updated"
	EventPetDeleted        = "pet:deleted"
	EventAdoptionRequested = "adoption:requested"
	EventAdoptionDecided   = "adoption:decided"

	EventAppointmentBooked    = "appointment:booked"
	EventAppointmentConfirmed = "appointment:confirmed"
	EventAppointmentCancelled = "appointment:cancelled"
	EventAppointmentCompleted = "appointment:completed"

	EventPaymentInitiated = "payment:initiated"
	EventPaymentResolved  = "payment:resolved"
)
