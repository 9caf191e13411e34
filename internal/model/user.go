package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleAdmin    = "admin"
	RolePetOwner = "petowner"
	RoleTrainer  = "trainer"
	RoleVet      = "vet"
)

// RoleInfo holds the contact details a user fills in for one of their roles.
// Report creation backfills missing contact fields from these, preferring
// pet-owner, then trainer, then vet.
type RoleInfo struct {
	Phone   string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Address string `gorm:"type:varchar(255)" json:"address,omitempty"`
}

// User represents the central user entity for logic and database structure
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"`   // Omit password from JSON requests/responses
	Role         string         `gorm:"type:varchar(50);not null" json:"role"` // admin, petowner, trainer, vet
	PetOwnerInfo RoleInfo       `gorm:"embedded;embeddedPrefix:pet_owner_" json:"pet_owner_info"`
	TrainerInfo  RoleInfo       `gorm:"embedded;embeddedPrefix:trainer_" json:"trainer_info"`
	VetInfo      RoleInfo       `gorm:"embedded;embeddedPrefix:vet_" json:"vet_info"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// ContactPhone resolves the phone number used for report contact backfill:
// role-specific numbers win over the generic one, pet-owner first.
func (u *User) ContactPhone() string {
	if u.PetOwnerInfo.Phone != "" {
		return u.PetOwnerInfo.Phone
	}
	if u.TrainerInfo.Phone != "" {
		return u.TrainerInfo.Phone
	}
	if u.VetInfo.Phone != "" {
		return u.VetInfo.Phone
	}
	return u.Phone
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
