package repository

import (
	"context"
	"time"

	"pawhome/internal/model"

	"gorm.io/gorm"
)

// CandidateFilter narrows the match-candidate query. Species and the date
// window are always applied; Breed/Size/Gender are optional and a candidate
// row with an empty value for one of them is never excluded by it.
type CandidateFilter struct {
	Type     string // candidate report type, opposite of the source report
	Species  string
	DateFrom time.Time
	DateTo   time.Time
	Breed    string
	Size     string
	Gender   string
	Limit    int
}

// ReportRepository defines the interface for data access of Report entities
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, page, limit int) ([]model.Report, int64, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Report, int64, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]model.Report, int64, error)
	Update(ctx context.Context, report *model.Report) error
	Delete(ctx context.Context, id string) error

	FindByMicrochip(ctx context.Context, microchip, candidateType string, limit int) ([]model.Report, error)
	FindCandidates(ctx context.Context, f CandidateFilter) ([]model.Report, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new instance of ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := GetDB(ctx, r.db).Preload("Owner").First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, page, limit int) ([]model.Report, int64, error) {
	return r.list(ctx, GetDB(ctx, r.db).Model(&model.Report{}), page, limit)
}

func (r *reportRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Report, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Report{}).Where("status = ?", status)
	return r.list(ctx, query, page, limit)
}

func (r *reportRepository) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]model.Report, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Report{}).Where("owner_id = ?", ownerID)
	return r.list(ctx, query, page, limit)
}

func (r *reportRepository) list(ctx context.Context, query *gorm.DB, page, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *reportRepository) Update(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Save(report).Error
}

func (r *reportRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Report{}).Error
}

// matchable restricts a query to reports eligible for matching: approved,
// not archived and still Pending.
func matchable(query *gorm.DB) *gorm.DB {
	return query.
		Where("status = ?", model.ReportStatusPending).
		Where("is_approved = ?", true).
		Where("is_archived = ?", false)
}

func (r *reportRepository) FindByMicrochip(ctx context.Context, microchip, candidateType string, limit int) ([]model.Report, error) {
	var reports []model.Report
	query := matchable(GetDB(ctx, r.db).Model(&model.Report{})).
		Where("type = ?", candidateType).
		Where("microchip_number = ?", microchip)
	if err := query.Limit(limit).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) FindCandidates(ctx context.Context, f CandidateFilter) ([]model.Report, error) {
	query := matchable(GetDB(ctx, r.db).Model(&model.Report{})).
		Where("type = ?", f.Type).
		Where("LOWER(species) = LOWER(?)", f.Species).
		Where("date BETWEEN ? AND ?", f.DateFrom, f.DateTo)

	// Optional narrowing: a candidate missing the field is never excluded.
	if f.Breed != "" {
		query = query.Where("breed = '' OR LOWER(breed) = LOWER(?)", f.Breed)
	}
	if f.Size != "" {
		query = query.Where("size = '' OR LOWER(size) = LOWER(?)", f.Size)
	}
	if f.Gender != "" {
		query = query.Where("gender = '' OR LOWER(gender) = LOWER(?)", f.Gender)
	}

	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var reports []model.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
