package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pawhome/internal/model"
	"pawhome/internal/notify"
	"pawhome/internal/repository"
	"pawhome/pkg/apperr"
	"pawhome/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- DTOs ---

type LocationRequest struct {
	Governorate string   `json:"governorate"`
	Delegation  string   `json:"delegation"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

type CreateReportRequest struct {
	Name            string          `json:"name"`
	Species         string          `json:"species"`
	Breed           string          `json:"breed"`
	Size            string          `json:"size"`
	Gender          string          `json:"gender"`
	Age             string          `json:"age"`
	ColorType       string          `json:"color_type"`
	Color           []string        `json:"color"`
	IsPregnant      *bool           `json:"is_pregnant"`
	MicrochipNumber string          `json:"microchip_number"`
	Date            time.Time       `json:"date"`
	Location        LocationRequest `json:"location"`
	Photos          []string        `json:"photos"`
	Description     string          `json:"description"`
	Email           string          `json:"email"`
	PhoneNumber     string          `json:"phone_number"`
}

// UpdateReportRequest carries a partial edit; nil fields are left untouched.
type UpdateReportRequest struct {
	Type            *string          `json:"type"`
	Name            *string          `json:"name"`
	Species         *string          `json:"species"`
	Breed           *string          `json:"breed"`
	Size            *string          `json:"size"`
	Gender          *string          `json:"gender"`
	Age             *string          `json:"age"`
	ColorType       *string          `json:"color_type"`
	Color           *[]string        `json:"color"`
	IsPregnant      *bool            `json:"is_pregnant"`
	MicrochipNumber *string          `json:"microchip_number"`
	Date            *time.Time       `json:"date"`
	Location        *LocationRequest `json:"location"`
	Photos          *[]string        `json:"photos"`
	Description     *string          `json:"description"`
	Email           *string          `json:"email"`
	PhoneNumber     *string          `json:"phone_number"`
}

// ReportService is the report lifecycle manager: creation, edits with the
// re-approval rule, the admin approval gate, archival and deletion.
type ReportService interface {
	Create(ctx context.Context, caller Caller, reportType string, req CreateReportRequest) (*model.Report, error)
	Get(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, page, limit int) ([]model.Report, int64, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Report, int64, error)
	ListMine(ctx context.Context, caller Caller, page, limit int) ([]model.Report, int64, error)
	Update(ctx context.Context, caller Caller, id string, req UpdateReportRequest) (*model.Report, string, error)
	Approve(ctx context.Context, caller Caller, id string) (*model.Report, error)
	Archive(ctx context.Context, caller Caller, id string) (*model.Report, error)
	Unarchive(ctx context.Context, caller Caller, id string) (*model.Report, error)
	Delete(ctx context.Context, caller Caller, id string) error
}

type reportService struct {
	reports   repository.ReportRepository
	users     repository.UserRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	hub       Broadcaster
	notifier  *notify.Notifier
	log       *logger.Logger
}

func NewReportService(
	reports repository.ReportRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	hub Broadcaster,
	notifier *notify.Notifier,
	log *logger.Logger,
) ReportService {
	return &reportService{
		reports:   reports,
		users:     users,
		audit:     audit,
		txManager: txManager,
		hub:       hub,
		notifier:  notifier,
		log:       log,
	}
}

func (s *reportService) Create(ctx context.Context, caller Caller, reportType string, req CreateReportRequest) (*model.Report, error) {
	if reportType != model.ReportTypeLost && reportType != model.ReportTypeFound {
		return nil, apperr.Validationf("invalid report type %q", reportType)
	}

	report := &model.Report{
		Type:            reportType,
		Name:            req.Name,
		Species:         req.Species,
		Breed:           req.Breed,
		Size:            req.Size,
		Gender:          req.Gender,
		Age:             req.Age,
		ColorType:       req.ColorType,
		Color:           datatypes.NewJSONSlice(req.Color),
		IsPregnant:      req.IsPregnant,
		MicrochipNumber: req.MicrochipNumber,
		Date:            req.Date,
		Location: model.Location{
			Governorate: req.Location.Governorate,
			Delegation:  req.Location.Delegation,
			Lat:         req.Location.Lat,
			Lng:         req.Location.Lng,
		},
		Photos:      datatypes.NewJSONSlice(req.Photos),
		Description: req.Description,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Status:      model.ReportStatusPending,
		IsApproved:  false,
		IsArchived:  false,
	}

	if caller.Authenticated() {
		user, err := s.users.GetByID(ctx, caller.ID)
		if err != nil {
			return nil, apperr.FromDB("load reporter", err)
		}
		uid := user.ID
		report.OwnerID = &uid
		if report.Email == "" {
			report.Email = user.Email
		}
		if report.PhoneNumber == "" {
			report.PhoneNumber = user.ContactPhone()
		}
	}

	if err := validateNewReport(report); err != nil {
		return nil, err
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperr.FromDB("create report", err)
	}

	s.hub.Emit(EventReportCreated, report)
	return report, nil
}

// validateNewReport enforces the per-type required fields. It runs after the
// contact backfill so that an authenticated Lost report does not need raw
// contact fields in the payload.
func validateNewReport(r *model.Report) error {
	switch {
	case r.Species == "":
		return apperr.Validationf("species is required")
	case len(r.Color) == 0:
		return apperr.Validationf("at least one color is required")
	case r.Location.Governorate == "":
		return apperr.Validationf("governorate is required")
	case r.Location.Delegation == "":
		return apperr.Validationf("delegation is required")
	case r.Date.IsZero():
		return apperr.Validationf("date is required")
	case len(r.Photos) == 0:
		return apperr.Validationf("at least one photo is required")
	}

	if r.Type == model.ReportTypeLost {
		switch {
		case r.Name == "":
			return apperr.Validationf("name is required for lost reports")
		case r.Gender == "":
			return apperr.Validationf("gender is required for lost reports")
		case r.Email == "":
			return apperr.Validationf("email is required for lost reports")
		case r.PhoneNumber == "":
			return apperr.Validationf("phone number is required for lost reports")
		}
	}

	// Anonymous reports carry no account to reach the reporter through.
	if r.OwnerID == nil && (r.Email == "" || r.PhoneNumber == "") {
		return apperr.Validationf("email and phone number are required for anonymous reports")
	}

	return validateCoordinates(r.Location.Lat, r.Location.Lng)
}

func validateCoordinates(lat, lng *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return apperr.Validationf("latitude must be between -90 and 90")
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return apperr.Validationf("longitude must be between -180 and 180")
	}
	return nil
}

func (s *reportService) Get(ctx context.Context, id string) (*model.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load report", err)
	}
	return report, nil
}

func (s *reportService) List(ctx context.Context, page, limit int) ([]model.Report, int64, error) {
	reports, total, err := s.reports.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list reports", err)
	}
	return reports, total, nil
}

func (s *reportService) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Report, int64, error) {
	switch status {
	case model.ReportStatusPending, model.ReportStatusMatched, model.ReportStatusReunited:
	default:
		return nil, 0, apperr.Validationf("invalid status %q", status)
	}
	reports, total, err := s.reports.ListByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list reports by status", err)
	}
	return reports, total, nil
}

func (s *reportService) ListMine(ctx context.Context, caller Caller, page, limit int) ([]model.Report, int64, error) {
	reports, total, err := s.reports.ListByOwner(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list own reports", err)
	}
	return reports, total, nil
}

// canManage reports whether the caller may mutate the report: admins always,
// owners for their own reports. Anonymous reports are admin-only.
func canManage(caller Caller, report *model.Report) bool {
	if caller.IsAdmin() {
		return true
	}
	return report.OwnerID != nil && caller.ID == report.OwnerID.String()
}

func (s *reportService) Update(ctx context.Context, caller Caller, id string, req UpdateReportRequest) (*model.Report, string, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, "", apperr.FromDB("load report", err)
	}
	if !canManage(caller, report) {
		return nil, "", apperr.Forbiddenf("only the report owner or an admin may update a report")
	}

	if req.Type != nil && *req.Type != report.Type {
		return nil, "", apperr.Validationf("report type cannot be changed")
	}

	significant := false
	setStr := func(dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			significant = true
		}
	}

	setStr(&report.Name, req.Name)
	setStr(&report.Species, req.Species)
	setStr(&report.Breed, req.Breed)
	setStr(&report.Size, req.Size)
	setStr(&report.Gender, req.Gender)
	setStr(&report.Age, req.Age)
	setStr(&report.ColorType, req.ColorType)
	setStr(&report.MicrochipNumber, req.MicrochipNumber)
	setStr(&report.Description, req.Description)

	if req.Color != nil {
		if len(*req.Color) == 0 {
			return nil, "", apperr.Validationf("at least one color is required")
		}
		if !equalStrings(*req.Color, report.Color) {
			report.Color = datatypes.NewJSONSlice(*req.Color)
			significant = true
		}
	}
	if req.Photos != nil {
		if len(*req.Photos) == 0 {
			return nil, "", apperr.Validationf("at least one photo is required")
		}
		if !equalStrings(*req.Photos, report.Photos) {
			report.Photos = datatypes.NewJSONSlice(*req.Photos)
			significant = true
		}
	}
	if req.Date != nil && !req.Date.Equal(report.Date) {
		report.Date = *req.Date
		significant = true
	}
	if req.Location != nil {
		if err := validateCoordinates(req.Location.Lat, req.Location.Lng); err != nil {
			return nil, "", err
		}
		loc := model.Location{
			Governorate: req.Location.Governorate,
			Delegation:  req.Location.Delegation,
			Lat:         req.Location.Lat,
			Lng:         req.Location.Lng,
		}
		if !equalLocations(loc, report.Location) {
			report.Location = loc
			significant = true
		}
	}

	// Contact edits never force re-approval.
	if req.IsPregnant != nil {
		report.IsPregnant = req.IsPregnant
	}
	if req.Email != nil {
		report.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		report.PhoneNumber = *req.PhoneNumber
	}

	message := "report updated"
	resetApproval := significant && !caller.IsAdmin()
	if resetApproval {
		// A significant edit invalidates the earlier moderation decision.
		report.IsApproved = false
		report.Status = model.ReportStatusPending
		message = "report updated, admin approval is pending again"
	}

	if resetApproval && report.MatchedReportID != nil {
		// The report was matched; dropping it back to Pending must release
		// the counterpart too, or it would stay Matched pointing at a
		// Pending report. Both rows change in one transaction.
		counterpartID := report.MatchedReportID.String()
		report.MatchedReportID = nil
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.reports.Update(txCtx, report); err != nil {
				return apperr.FromDB("update report", err)
			}
			counterpart, err := s.reports.GetByID(txCtx, counterpartID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.log.Warn("update: matched counterpart missing", "report_id", id, "counterpart_id", counterpartID)
					return nil
				}
				return apperr.FromDB("load counterpart", err)
			}
			counterpart.Status = model.ReportStatusPending
			counterpart.MatchedReportID = nil
			if err := s.reports.Update(txCtx, counterpart); err != nil {
				return apperr.FromDB("save counterpart", err)
			}
			return nil
		})
		if err != nil {
			return nil, "", err
		}
	} else if err := s.reports.Update(ctx, report); err != nil {
		return nil, "", apperr.FromDB("update report", err)
	}

	s.hub.Emit(EventReportUpdated, map[string]interface{}{
		"report":  report,
		"message": message,
	})
	return report, message, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalLocations(a, b model.Location) bool {
	if a.Governorate != b.Governorate || a.Delegation != b.Delegation {
		return false
	}
	return equalFloatPtr(a.Lat, b.Lat) && equalFloatPtr(a.Lng, b.Lng)
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *reportService) Approve(ctx context.Context, caller Caller, id string) (*model.Report, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbiddenf("only admins may approve reports")
	}

	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load report", err)
	}

	// Approval only lifts the visibility gate; the status stays Pending so
	// the report is immediately eligible for matching.
	report.IsApproved = true
	report.Status = model.ReportStatusPending

	if err := s.reports.Update(ctx, report); err != nil {
		return nil, apperr.FromDB("approve report", err)
	}

	s.auditAction(ctx, caller, model.ActionApproveReport, report)
	s.hub.Emit(EventReportApproved, report)
	s.notifier.SendAsync(notify.TmplReportApproved, report.Email, map[string]interface{}{
		"ReportType": report.Type,
		"PetName":    report.Name,
	})

	return report, nil
}

func (s *reportService) Archive(ctx context.Context, caller Caller, id string) (*model.Report, error) {
	return s.setArchived(ctx, caller, id, true)
}

func (s *reportService) Unarchive(ctx context.Context, caller Caller, id string) (*model.Report, error) {
	return s.setArchived(ctx, caller, id, false)
}

func (s *reportService) setArchived(ctx context.Context, caller Caller, id string, archived bool) (*model.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load report", err)
	}
	if !canManage(caller, report) {
		return nil, apperr.Forbiddenf("only the report owner or an admin may archive a report")
	}
	if report.IsArchived == archived {
		if archived {
			return nil, apperr.InvalidStatef("report is already archived")
		}
		return nil, apperr.InvalidStatef("report is not archived")
	}

	report.IsArchived = archived
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, apperr.FromDB("archive report", err)
	}

	event := EventReportArchived
	if !archived {
		event = EventReportUnarchived
	}
	s.hub.Emit(event, report)
	return report, nil
}

func (s *reportService) Delete(ctx context.Context, caller Caller, id string) error {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return apperr.FromDB("load report", err)
	}
	if !canManage(caller, report) {
		return apperr.Forbiddenf("only the report owner or an admin may delete a report")
	}

	if err := s.reports.Delete(ctx, id); err != nil {
		return apperr.FromDB("delete report", err)
	}

	// Deletion doubles as the de-facto rejection of unapproved reports, hence
	// the rejection notice to the reporter.
	s.auditAction(ctx, caller, model.ActionDeleteReport, report)
	s.hub.Emit(EventReportDeleted, map[string]interface{}{"id": report.ID, "type": report.Type})
	s.notifier.SendAsync(notify.TmplReportRejected, report.Email, map[string]interface{}{
		"ReportType": report.Type,
		"PetName":    report.Name,
	})

	return nil
}

func (s *reportService) auditAction(ctx context.Context, caller Caller, action string, report *model.Report) {
	var userID *uuid.UUID
	if uid, err := uuid.Parse(caller.ID); err == nil {
		userID = &uid
	}
	details, _ := json.Marshal(map[string]interface{}{
		"report_type": report.Type,
		"species":     report.Species,
		"status":      report.Status,
	})
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   report.ID.String(),
		EntityName: report.Name,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Error("failed to write audit log", "action", action, "report_id", report.ID, "error", err)
	}
}
