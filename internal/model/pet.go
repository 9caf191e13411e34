package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pet adoption status enum constants
const (
	PetAvailable       = "AVAILABLE"
	PetPendingAdoption = "PENDING_ADOPTION"
	PetAdopted         = "ADOPTED"
)

// Pet is an adoption listing published by a pet owner.
type Pet struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string                      `gorm:"type:varchar(100);not null" json:"name"`
	Species     string                      `gorm:"type:varchar(50);not null;index" json:"species"`
	Breed       string                      `gorm:"type:varchar(100)" json:"breed"`
	Age         string                      `gorm:"type:varchar(30)" json:"age"`
	Gender      string                      `gorm:"type:varchar(10)" json:"gender"`
	Description string                      `gorm:"type:text" json:"description"`
	Photos      datatypes.JSONSlice[string] `json:"photos"`
	// AdoptionFee in the platform currency; zero means free to a good home.
	AdoptionFee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"adoption_fee"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	AdoptionStatus string `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"adoption_status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AdoptionRequest status enum constants
const (
	AdoptionPending  = "PENDING"
	AdoptionApproved = "APPROVED"
	AdoptionRejected = "REJECTED"
)

// AdoptionRequest represents a pending adoption of a listed pet. Approving a
// request marks the pet adopted and auto-rejects the competing requests.
type AdoptionRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PetID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"pet_id"`
	Pet         *Pet       `gorm:"foreignKey:PetID" json:"pet,omitempty"`
	RequesterID uuid.UUID  `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester   *User      `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Message     string     `gorm:"type:text" json:"message"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	DecidedBy   *uuid.UUID `gorm:"type:uuid" json:"decided_by"`
	DecidedAt   *time.Time `json:"decided_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
