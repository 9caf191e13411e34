package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"pawhome/internal/gateway"
	"pawhome/internal/model"
	"pawhome/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory fakes for the repository and collaborator interfaces. They mirror
// the SQL-side filter semantics closely enough for the services under test.

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]model.Report

	candidateCalls []repository.CandidateFilter
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]model.Report)}
}

func (r *fakeReportRepo) add(report model.Report) model.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	r.reports[report.ID] = report
	return report
}

func (r *fakeReportRepo) get(id uuid.UUID) model.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[id]
}

func (r *fakeReportRepo) Create(ctx context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	r.reports[report.ID] = *report
	return nil
}

func (r *fakeReportRepo) GetByID(ctx context.Context, id string) (*model.Report, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &report, nil
}

func (r *fakeReportRepo) List(ctx context.Context, page, limit int) ([]model.Report, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Report
	for _, report := range r.reports {
		out = append(out, report)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReportRepo) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Report, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Report
	for _, report := range r.reports {
		if report.Status == status {
			out = append(out, report)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReportRepo) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]model.Report, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Report
	for _, report := range r.reports {
		if report.OwnerID != nil && report.OwnerID.String() == ownerID {
			out = append(out, report)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReportRepo) Update(ctx context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ID] = *report
	return nil
}

func (r *fakeReportRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reports, uid)
	return nil
}

func matchableReport(report model.Report) bool {
	return report.Status == model.ReportStatusPending && report.IsApproved && !report.IsArchived
}

func (r *fakeReportRepo) FindByMicrochip(ctx context.Context, microchip, candidateType string, limit int) ([]model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Report
	for _, report := range r.reports {
		if !matchableReport(report) || report.Type != candidateType {
			continue
		}
		if report.MicrochipNumber != microchip {
			continue
		}
		out = append(out, report)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeReportRepo) FindCandidates(ctx context.Context, f repository.CandidateFilter) ([]model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidateCalls = append(r.candidateCalls, f)

	optionalMatch := func(filter, field string) bool {
		return filter == "" || field == "" || strings.EqualFold(filter, field)
	}

	var out []model.Report
	for _, report := range r.reports {
		if !matchableReport(report) || report.Type != f.Type {
			continue
		}
		if !strings.EqualFold(report.Species, f.Species) {
			continue
		}
		if report.Date.Before(f.DateFrom) || report.Date.After(f.DateTo) {
			continue
		}
		if !optionalMatch(f.Breed, report.Breed) || !optionalMatch(f.Size, report.Size) || !optionalMatch(f.Gender, report.Gender) {
			continue
		}
		out = append(out, report)
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[string]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]model.User)}
	for _, u := range users {
		r.users[u.ID.String()] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID.String()] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID.String()] = *user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return nil
}

func (r *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error { return nil }

func (r *fakeUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) error { return nil }

type fakePetRepo struct {
	pets map[uuid.UUID]model.Pet
}

func newFakePetRepo() *fakePetRepo {
	return &fakePetRepo{pets: make(map[uuid.UUID]model.Pet)}
}

func (r *fakePetRepo) add(pet model.Pet) model.Pet {
	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	r.pets[pet.ID] = pet
	return pet
}

func (r *fakePetRepo) Create(ctx context.Context, pet *model.Pet) error {
	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	r.pets[pet.ID] = *pet
	return nil
}

func (r *fakePetRepo) GetByID(ctx context.Context, id string) (*model.Pet, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	pet, ok := r.pets[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &pet, nil
}

func (r *fakePetRepo) List(ctx context.Context, status string, page, limit int) ([]model.Pet, int64, error) {
	var out []model.Pet
	for _, pet := range r.pets {
		if status == "" || pet.AdoptionStatus == status {
			out = append(out, pet)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePetRepo) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]model.Pet, int64, error) {
	var out []model.Pet
	for _, pet := range r.pets {
		if pet.OwnerID.String() == ownerID {
			out = append(out, pet)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePetRepo) Update(ctx context.Context, pet *model.Pet) error {
	r.pets[pet.ID] = *pet
	return nil
}

func (r *fakePetRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	delete(r.pets, uid)
	return nil
}

type fakeAdoptionRepo struct {
	requests map[uuid.UUID]model.AdoptionRequest
}

func newFakeAdoptionRepo() *fakeAdoptionRepo {
	return &fakeAdoptionRepo{requests: make(map[uuid.UUID]model.AdoptionRequest)}
}

func (r *fakeAdoptionRepo) add(req model.AdoptionRequest) model.AdoptionRequest {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.requests[req.ID] = req
	return req
}

func (r *fakeAdoptionRepo) Create(ctx context.Context, req *model.AdoptionRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeAdoptionRepo) GetByID(ctx context.Context, id string) (*model.AdoptionRequest, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	req, ok := r.requests[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (r *fakeAdoptionRepo) ListByPet(ctx context.Context, petID string) ([]model.AdoptionRequest, error) {
	var out []model.AdoptionRequest
	for _, req := range r.requests {
		if req.PetID.String() == petID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeAdoptionRepo) ListByRequester(ctx context.Context, requesterID string, page, limit int) ([]model.AdoptionRequest, int64, error) {
	var out []model.AdoptionRequest
	for _, req := range r.requests {
		if req.RequesterID.String() == requesterID {
			out = append(out, req)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAdoptionRepo) Update(ctx context.Context, req *model.AdoptionRequest) error {
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeAdoptionRepo) RejectOthers(ctx context.Context, petID, approvedID string) error {
	for id, req := range r.requests {
		if req.PetID.String() == petID && req.ID.String() != approvedID && req.Status == model.AdoptionPending {
			req.Status = model.AdoptionRejected
			r.requests[id] = req
		}
	}
	return nil
}

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]model.Appointment)}
}

func (r *fakeAppointmentRepo) add(appt model.Appointment) model.Appointment {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	r.appointments[appt.ID] = appt
	return appt
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, appt *model.Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	r.appointments[appt.ID] = *appt
	return nil
}

func (r *fakeAppointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	appt, ok := r.appointments[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &appt, nil
}

func (r *fakeAppointmentRepo) ListByClient(ctx context.Context, clientID string, page, limit int) ([]model.Appointment, int64, error) {
	var out []model.Appointment
	for _, appt := range r.appointments {
		if appt.ClientID.String() == clientID {
			out = append(out, appt)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAppointmentRepo) ListByProvider(ctx context.Context, providerID string, page, limit int) ([]model.Appointment, int64, error) {
	var out []model.Appointment
	for _, appt := range r.appointments {
		if appt.ProviderID.String() == providerID {
			out = append(out, appt)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, appt *model.Appointment) error {
	r.appointments[appt.ID] = *appt
	return nil
}

func (r *fakeAppointmentRepo) CountOverlapping(ctx context.Context, providerID string, startsAt, endsAt time.Time) (int64, error) {
	var count int64
	for _, appt := range r.appointments {
		if appt.ProviderID.String() != providerID || appt.Status != model.AppointmentConfirmed {
			continue
		}
		if appt.StartsAt.Before(endsAt) && appt.EndsAt.After(startsAt) {
			count++
		}
	}
	return count, nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]model.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	payment, ok := r.payments[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &payment, nil
}

func (r *fakePaymentRepo) GetByGatewayRef(ctx context.Context, ref string) (*model.Payment, error) {
	for _, payment := range r.payments {
		if payment.GatewayRef == ref {
			p := payment
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) ListByPayer(ctx context.Context, payerID string, page, limit int) ([]model.Payment, int64, error) {
	var out []model.Payment
	for _, payment := range r.payments {
		if payment.PayerID.String() == payerID {
			out = append(out, payment)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment *model.Payment) error {
	r.payments[payment.ID] = *payment
	return nil
}

// fakeGateway stands in for the payment processor.
type fakeGateway struct {
	initiated []gateway.InitiateRequest
	success   bool
	err       error
}

func (g *fakeGateway) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.initiated = append(g.initiated, req)
	ref := uuid.New().String()
	return &gateway.InitiateResult{Ref: ref, PaymentURL: "https://gateway.test/pay/" + ref}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.VerifyResult{Ref: ref, Success: g.success}, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

// fakeTxManager runs the callback without a real transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// recorderHub captures emitted event names.
type recorderHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recorderHub) Emit(event string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recorderHub) has(event string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.events {
		if e == event {
			return true
		}
	}
	return false
}

// fakeMailer records sends instead of hitting SendGrid.
type fakeMailer struct {
	mu    sync.Mutex
	sends []struct{ Tmpl, To string }
	err   error
}

func (m *fakeMailer) Send(ctx context.Context, tmpl, to string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, struct{ Tmpl, To string }{tmpl, to})
	return nil
}

func (m *fakeMailer) sentTo(to string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sends {
		if s.To == to {
			return true
		}
	}
	return false
}
