package repository

import (
	"context"

	"pawhome/internal/model"

	"gorm.io/gorm"
)

// AdoptionRepository defines the interface for data access of adoption requests
type AdoptionRepository interface {
	Create(ctx context.Context, req *model.AdoptionRequest) error
	GetByID(ctx context.Context, id string) (*model.AdoptionRequest, error)
	ListByPet(ctx context.Context, petID string) ([]model.AdoptionRequest, error)
	ListByRequester(ctx context.Context, requesterID string, page, limit int) ([]model.AdoptionRequest, int64, error)
	Update(ctx context.Context, req *model.AdoptionRequest) error
	RejectOthers(ctx context.Context, petID, approvedID string) error
}

type adoptionRepository struct {
	db *gorm.DB
}

// NewAdoptionRepository returns a new instance of AdoptionRepository
func NewAdoptionRepository(db *gorm.DB) AdoptionRepository {
	return &adoptionRepository{db: db}
}

func (r *adoptionRepository) Create(ctx context.Context, req *model.AdoptionRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *adoptionRepository) GetByID(ctx context.Context, id string) (*model.AdoptionRequest, error) {
	var req model.AdoptionRequest
	if err := GetDB(ctx, r.db).Preload("Pet").Preload("Requester").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *adoptionRepository) ListByPet(ctx context.Context, petID string) ([]model.AdoptionRequest, error) {
	var reqs []model.AdoptionRequest
	if err := GetDB(ctx, r.db).Preload("Requester").
		Where("pet_id = ?", petID).
		Order("created_at ASC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *adoptionRepository) ListByRequester(ctx context.Context, requesterID string, page, limit int) ([]model.AdoptionRequest, int64, error) {
	var reqs []model.AdoptionRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.AdoptionRequest{}).Where("requester_id = ?", requesterID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Pet").Order("created_at DESC").Offset(offset).Limit(limit).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *adoptionRepository) Update(ctx context.Context, req *model.AdoptionRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// RejectOthers marks every other pending request for the pet as rejected,
// used when one request gets approved.
func (r *adoptionRepository) RejectOthers(ctx context.Context, petID, approvedID string) error {
	return GetDB(ctx, r.db).Model(&model.AdoptionRequest{}).
		Where("pet_id = ? AND id <> ? AND status = ?", petID, approvedID, model.AdoptionPending).
		Update("status", model.AdoptionRejected).Error
}
