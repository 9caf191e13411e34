package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pawhome/internal/model"
	"pawhome/internal/notify"
	"pawhome/pkg/apperr"
	"pawhome/pkg/logger"

	"github.com/google/uuid"
)

type reportFixture struct {
	svc     ReportService
	reports *fakeReportRepo
	users   *fakeUserRepo
	audit   *fakeAuditRepo
	hub     *recorderHub
	mailer  *fakeMailer
}

func newReportFixture(users ...model.User) *reportFixture {
	reports := newFakeReportRepo()
	userRepo := newFakeUserRepo(users...)
	audit := &fakeAuditRepo{}
	hub := &recorderHub{}
	mailer := &fakeMailer{}
	log := logger.NewNop()
	svc := NewReportService(reports, userRepo, audit, fakeTxManager{}, hub, notify.NewSyncNotifier(mailer, log), log)
	return &reportFixture{svc: svc, reports: reports, users: userRepo, audit: audit, hub: hub, mailer: mailer}
}

func validFoundRequest() CreateReportRequest {
	return CreateReportRequest{
		Species: "dog",
		Color:   []string{"black"},
		Date:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Location: LocationRequest{
			Governorate: "Tunis",
			Delegation:  "Le Bardo",
		},
		Photos:      []string{"http://cdn/photo1.jpg"},
		Email:       "finder@example.com",
		PhoneNumber: "21612345",
	}
}

func TestCreateReport_Defaults(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.Create(context.Background(), Caller{}, model.ReportTypeFound, validFoundRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if report.Status != model.ReportStatusPending {
		t.Errorf("Status = %s, want Pending", report.Status)
	}
	if report.IsApproved || report.IsArchived {
		t.Errorf("new report must start unapproved and unarchived")
	}
	if !f.hub.has(EventReportCreated) {
		t.Errorf("no %s event emitted", EventReportCreated)
	}
}

func TestCreateReport_AnonymousRequiresContact(t *testing.T) {
	f := newReportFixture()

	req := validFoundRequest()
	req.Email = ""

	_, err := f.svc.Create(context.Background(), Caller{}, model.ReportTypeFound, req)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for missing anonymous contact, got %v", err)
	}
}

func TestCreateReport_LostRequiresNameAndGender(t *testing.T) {
	f := newReportFixture()

	req := validFoundRequest()
	req.Gender = "Male"

	_, err := f.svc.Create(context.Background(), Caller{}, model.ReportTypeLost, req)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for a nameless lost report, got %v", err)
	}

	req.Name = "Rex"
	if _, err := f.svc.Create(context.Background(), Caller{}, model.ReportTypeLost, req); err != nil {
		t.Errorf("Create() with name and gender error = %v", err)
	}
}

func TestCreateReport_BackfillsContactFromUser(t *testing.T) {
	owner := model.User{
		ID:           uuid.New(),
		Username:     "amira",
		Email:        "amira@example.com",
		Role:         model.RolePetOwner,
		PetOwnerInfo: model.RoleInfo{Phone: "21699999"},
	}
	f := newReportFixture(owner)

	req := validFoundRequest()
	req.Email = ""
	req.PhoneNumber = ""

	report, err := f.svc.Create(context.Background(), Caller{ID: owner.ID.String(), Role: owner.Role}, model.ReportTypeFound, req)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if report.OwnerID == nil || *report.OwnerID != owner.ID {
		t.Errorf("report not linked to the authenticated reporter")
	}
	if report.Email != "amira@example.com" || report.PhoneNumber != "21699999" {
		t.Errorf("contact not backfilled: %s / %s", report.Email, report.PhoneNumber)
	}
}

func TestCreateReport_RejectsBadCoordinates(t *testing.T) {
	f := newReportFixture()

	req := validFoundRequest()
	lat := 123.0
	req.Location.Lat = &lat

	_, err := f.svc.Create(context.Background(), Caller{}, model.ReportTypeFound, req)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for out-of-range latitude, got %v", err)
	}
}

func TestCreateReport_RejectsEmptyColorAndPhotos(t *testing.T) {
	f := newReportFixture()

	req := validFoundRequest()
	req.Color = nil
	if _, err := f.svc.Create(context.Background(), Caller{}, model.ReportTypeFound, req); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for empty color, got %v", err)
	}

	req = validFoundRequest()
	req.Photos = nil
	if _, err := f.svc.Create(context.Background(), Caller{}, model.ReportTypeFound, req); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for empty photos, got %v", err)
	}
}

func ownedReport(f *reportFixture, owner uuid.UUID) model.Report {
	report := matchableFixtureReport(model.ReportTypeFound, func(r *model.Report) {
		r.OwnerID = &owner
	})
	return f.reports.add(report)
}

func TestUpdateReport_SignificantEditOfMatchedReportReleasesPair(t *testing.T) {
	ownerID := uuid.New()
	f := newReportFixture()

	counterpart := f.reports.add(matchableFixtureReport(model.ReportTypeLost, nil))
	report := f.reports.add(matchableFixtureReport(model.ReportTypeFound, func(r *model.Report) {
		r.OwnerID = &ownerID
		r.Status = model.ReportStatusMatched
		r.MatchedReportID = &counterpart.ID
	}))
	counterpart.Status = model.ReportStatusMatched
	counterpart.MatchedReportID = &report.ID
	f.reports.add(counterpart)

	breed := "Labrador"
	_, _, err := f.svc.Update(context.Background(), Caller{ID: ownerID.String(), Role: model.RolePetOwner}, report.ID.String(), UpdateReportRequest{Breed: &breed})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored := f.reports.get(report.ID)
	if stored.Status != model.ReportStatusPending || stored.MatchedReportID != nil {
		t.Errorf("edited report not fully released: status=%s matched=%v", stored.Status, stored.MatchedReportID)
	}
	other := f.reports.get(counterpart.ID)
	if other.Status != model.ReportStatusPending || other.MatchedReportID != nil {
		t.Errorf("counterpart left matched against a pending report: status=%s matched=%v", other.Status, other.MatchedReportID)
	}
}

func TestUpdateReport_SignificantEditResetsApproval(t *testing.T) {
	ownerID := uuid.New()
	f := newReportFixture()
	report := ownedReport(f, ownerID)

	breed := "Labrador"
	_, msg, err := f.svc.Update(context.Background(), Caller{ID: ownerID.String(), Role: model.RolePetOwner}, report.ID.String(), UpdateReportRequest{Breed: &breed})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored := f.reports.get(report.ID)
	if stored.IsApproved {
		t.Errorf("significant edit by a non-admin must clear approval")
	}
	if stored.Status != model.ReportStatusPending {
		t.Errorf("Status = %s, want Pending", stored.Status)
	}
	if msg != "report updated, admin approval is pending again" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestUpdateReport_AdminEditKeepsApproval(t *testing.T) {
	f := newReportFixture()
	report := f.reports.add(matchableFixtureReport(model.ReportTypeFound, nil))

	breed := "Labrador"
	_, _, err := f.svc.Update(context.Background(), adminCaller(), report.ID.String(), UpdateReportRequest{Breed: &breed})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if stored := f.reports.get(report.ID); !stored.IsApproved {
		t.Errorf("admin edit must not clear approval")
	}
}

func TestUpdateReport_ContactEditIsNotSignificant(t *testing.T) {
	ownerID := uuid.New()
	f := newReportFixture()
	report := ownedReport(f, ownerID)

	email := "new@example.com"
	_, msg, err := f.svc.Update(context.Background(), Caller{ID: ownerID.String(), Role: model.RolePetOwner}, report.ID.String(), UpdateReportRequest{Email: &email})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored := f.reports.get(report.ID)
	if !stored.IsApproved {
		t.Errorf("contact edit must not clear approval")
	}
	if stored.Email != email {
		t.Errorf("Email = %s, want %s", stored.Email, email)
	}
	if msg != "report updated" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestUpdateReport_ForbiddenForStrangers(t *testing.T) {
	f := newReportFixture()
	report := ownedReport(f, uuid.New())

	breed := "Labrador"
	_, _, err := f.svc.Update(context.Background(), Caller{ID: uuid.New().String(), Role: model.RolePetOwner}, report.ID.String(), UpdateReportRequest{Breed: &breed})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestUpdateReport_RejectsTypeChange(t *testing.T) {
	f := newReportFixture()
	report := f.reports.add(matchableFixtureReport(model.ReportTypeFound, nil))

	lost := model.ReportTypeLost
	_, _, err := f.svc.Update(context.Background(), adminCaller(), report.ID.String(), UpdateReportRequest{Type: &lost})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error on type change, got %v", err)
	}
}

func TestApproveReport_KeepsStatusPending(t *testing.T) {
	f := newReportFixture()
	report := f.reports.add(matchableFixtureReport(model.ReportTypeFound, func(r *model.Report) {
		r.IsApproved = false
		r.Email = "finder@example.com"
	}))

	approved, err := f.svc.Approve(context.Background(), adminCaller(), report.ID.String())
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if !approved.IsApproved {
		t.Errorf("report not approved")
	}
	if approved.Status != model.ReportStatusPending {
		t.Errorf("approval must not advance status, got %s", approved.Status)
	}
	if !f.mailer.sentTo("finder@example.com") {
		t.Errorf("reporter not notified of approval")
	}
	if !f.hub.has(EventReportApproved) {
		t.Errorf("no %s event emitted", EventReportApproved)
	}
}

func TestApproveReport_RequiresAdmin(t *testing.T) {
	f := newReportFixture()
	report := f.reports.add(matchableFixtureReport(model.ReportTypeFound, nil))

	_, err := f.svc.Approve(context.Background(), Caller{ID: uuid.New().String(), Role: model.RoleVet}, report.ID.String())
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestArchiveReport_DoubleArchiveRejected(t *testing.T) {
	f := newReportFixture()
	report := f.reports.add(matchableFixtureReport(model.ReportTypeFound, nil))
	admin := adminCaller()

	if _, err := f.svc.Archive(context.Background(), admin, report.ID.String()); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if _, err := f.svc.Archive(context.Background(), admin, report.ID.String()); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state on double archive, got %v", err)
	}

	if _, err := f.svc.Unarchive(context.Background(), admin, report.ID.String()); err != nil {
		t.Fatalf("Unarchive() error = %v", err)
	}
	if _, err := f.svc.Unarchive(context.Background(), admin, report.ID.String()); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state on double unarchive, got %v", err)
	}
}

func TestDeleteReport_NotifiesAndAudits(t *testing.T) {
	f := newReportFixture()
	report := f.reports.add(matchableFixtureReport(model.ReportTypeFound, func(r *model.Report) {
		r.Email = "finder@example.com"
	}))

	if err := f.svc.Delete(context.Background(), adminCaller(), report.ID.String()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := f.reports.GetByID(context.Background(), report.ID.String()); err == nil {
		t.Errorf("report still present after delete")
	}
	if !f.mailer.sentTo("finder@example.com") {
		t.Errorf("reporter not sent the rejection notice")
	}
	if len(f.audit.entries) == 0 || f.audit.entries[0].Action != model.ActionDeleteReport {
		t.Errorf("expected a %s audit entry", model.ActionDeleteReport)
	}
}

func TestListReportsByStatus_RejectsUnknownStatus(t *testing.T) {
	f := newReportFixture()

	_, _, err := f.svc.ListByStatus(context.Background(), "Open", 1, 20)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
