package repository

import (
	"context"
	"time"

	"pawhome/internal/model"

	"gorm.io/gorm"
)

// AppointmentRepository defines the interface for data access of appointments
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	ListByClient(ctx context.Context, clientID string, page, limit int) ([]model.Appointment, int64, error)
	ListByProvider(ctx context.Context, providerID string, page, limit int) ([]model.Appointment, int64, error)
	Update(ctx context.Context, appt *model.Appointment) error
	CountOverlapping(ctx context.Context, providerID string, startsAt, endsAt time.Time) (int64, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository returns a new instance of AppointmentRepository
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return GetDB(ctx, r.db).Create(appt).Error
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var appt model.Appointment
	if err := GetDB(ctx, r.db).Preload("Client").Preload("Provider").First(&appt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) ListByClient(ctx context.Context, clientID string, page, limit int) ([]model.Appointment, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Appointment{}).Where("client_id = ?", clientID)
	return r.paginate(query, page, limit)
}

func (r *appointmentRepository) ListByProvider(ctx context.Context, providerID string, page, limit int) ([]model.Appointment, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Appointment{}).Where("provider_id = ?", providerID)
	return r.paginate(query, page, limit)
}

func (r *appointmentRepository) paginate(query *gorm.DB, page, limit int) ([]model.Appointment, int64, error) {
	var appts []model.Appointment
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("starts_at DESC").Offset(offset).Limit(limit).Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	return GetDB(ctx, r.db).Save(appt).Error
}

// CountOverlapping counts confirmed appointments of the provider intersecting
// the [startsAt, endsAt) window.
func (r *appointmentRepository) CountOverlapping(ctx context.Context, providerID string, startsAt, endsAt time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Appointment{}).
		Where("provider_id = ?", providerID).
		Where("status = ?", model.AppointmentConfirmed).
		Where("starts_at < ? AND ends_at > ?", endsAt, startsAt).
		Count(&count).Error
	return count, err
}
