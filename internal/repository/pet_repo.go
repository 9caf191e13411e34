package repository

import (
	"context"

	"pawhome/internal/model"

	"gorm.io/gorm"
)

// PetRepository defines the interface for data access of adoption listings
type PetRepository interface {
	Create(ctx context.Context, pet *model.Pet) error
	GetByID(ctx context.Context, id string) (*model.Pet, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Pet, int64, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]model.Pet, int64, error)
	Update(ctx context.Context, pet *model.Pet) error
	Delete(ctx context.Context, id string) error
}

type petRepository struct {
	db *gorm.DB
}

// NewPetRepository returns a new instance of PetRepository
func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	return GetDB(ctx, r.db).Create(pet).Error
}

func (r *petRepository) GetByID(ctx context.Context, id string) (*model.Pet, error) {
	var pet model.Pet
	if err := GetDB(ctx, r.db).Preload("Owner").First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *petRepository) List(ctx context.Context, status string, page, limit int) ([]model.Pet, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Pet{})
	if status != "" {
		query = query.Where("adoption_status = ?", status)
	}
	return r.paginate(query, page, limit)
}

func (r *petRepository) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]model.Pet, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Pet{}).Where("owner_id = ?", ownerID)
	return r.paginate(query, page, limit)
}

func (r *petRepository) paginate(query *gorm.DB, page, limit int) ([]model.Pet, int64, error) {
	var pets []model.Pet
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&pets).Error; err != nil {
		return nil, 0, err
	}

	return pets, total, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	return GetDB(ctx, r.db).Save(pet).Error
}

func (r *petRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Pet{}).Error
}
