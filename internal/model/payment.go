package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment status enum constants
const (
	PaymentInitiated = "INITIATED"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Payment reference type enum constants
const (
	PaymentRefAdoption    = "ADOPTION"
	PaymentRefAppointment = "APPOINTMENT"
)

// Payment tracks a charge processed through the external payment gateway.
// GatewayRef is the processor-side identifier used to verify the outcome.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PayerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"payer_id"`
	Payer         *User           `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
	ReferenceType string          `gorm:"type:varchar(20);not null" json:"reference_type"` // ADOPTION, APPOINTMENT
	ReferenceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"reference_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'TND'" json:"currency"`
	GatewayRef    string          `gorm:"type:varchar(100);index" json:"gateway_ref"`
	Status        string          `gorm:"type:varchar(20);not null;default:'INITIATED';index" json:"status"`
	CompletedAt   *time.Time      `json:"completed_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
