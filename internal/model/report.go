package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReportType enum constants
const (
	ReportTypeLost  = "Lost"
	ReportTypeFound = "Found"
)

// ReportStatus enum constants. The status drives matching eligibility and is
// orthogonal to the IsApproved / IsArchived flags.
const (
	ReportStatusPending  = "Pending"
	ReportStatusMatched  = "Matched"
	ReportStatusReunited = "Reunited"
)

// Location is where the pet was lost or found. Coordinates are optional.
type Location struct {
	Governorate string   `gorm:"type:varchar(100)" json:"governorate"`
	Delegation  string   `gorm:"type:varchar(100)" json:"delegation"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

// Report is a Lost or Found pet record — the central entity of the
// lost-and-found marketplace.
type Report struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type string    `gorm:"type:varchar(10);not null;index" json:"type"` // Lost, Found

	Name            string                      `gorm:"type:varchar(100)" json:"name"`
	Species         string                      `gorm:"type:varchar(50);not null;index" json:"species"`
	Breed           string                      `gorm:"type:varchar(100)" json:"breed"`
	Size            string                      `gorm:"type:varchar(30)" json:"size"`
	Gender          string                      `gorm:"type:varchar(10)" json:"gender"`
	Age             string                      `gorm:"type:varchar(30)" json:"age"`
	ColorType       string                      `gorm:"type:varchar(30)" json:"color_type"`
	Color           datatypes.JSONSlice[string] `gorm:"not null" json:"color"`
	IsPregnant      *bool                       `json:"is_pregnant"` // nil means unknown
	MicrochipNumber string                      `gorm:"type:varchar(50);index" json:"microchip_number"`

	Date        time.Time                   `gorm:"not null;index" json:"date"` // when the pet was lost/found
	Location    Location                    `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Photos      datatypes.JSONSlice[string] `gorm:"not null" json:"photos"`
	Description string                      `gorm:"type:text" json:"description"`

	OwnerID *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Owner   *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	// Raw contact fields, mandatory when the report has no linked user.
	Email       string `gorm:"type:varchar(255)" json:"email"`
	PhoneNumber string `gorm:"type:varchar(20)" json:"phone_number"`

	Status     string `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	IsApproved bool   `gorm:"not null;default:false;index" json:"is_approved"`
	IsArchived bool   `gorm:"not null;default:false;index" json:"is_archived"`

	// Symmetric self-reference: if A points at B, B points back at A, and the
	// two reports are of opposite types.
	MatchedReportID *uuid.UUID `gorm:"type:uuid;index" json:"matched_report_id"`
	MatchedReport   *Report    `gorm:"foreignKey:MatchedReportID" json:"matched_report,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OppositeType returns the counterpart report type for matching.
func OppositeType(reportType string) string {
	if reportType == ReportTypeLost {
		return ReportTypeFound
	}
	return ReportTypeLost
}
