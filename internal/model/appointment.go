package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Appointment status enum constants
const (
	AppointmentPending   = "PENDING"
	AppointmentConfirmed = "CONFIRMED"
	AppointmentCancelled = "CANCELLED"
	AppointmentCompleted = "COMPLETED"
)

// Appointment books a slot with a vet or a trainer. Scheduling conflicts are
// checked against the provider's confirmed appointments only.
type Appointment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID   uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client     *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`
	Provider   *User     `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`

	StartsAt time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`
	Reason   string    `gorm:"type:text" json:"reason"`
	Status   string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	// Fee is quoted by the provider when confirming; zero means no charge.
	Fee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"fee"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
