package persistence

import (
	"context"
	"errors"

	"github.com/campus/docgen/internal/domain/document"
	"github.com/campus/docgen/internal/domain/shared"
	"github.com/campus/docgen/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentJobRepository implements document.JobRepository using GORM
type GormDocumentJobRepository struct {
	db *gorm.DB
}

// NewGormDocumentJobRepository creates a new GormDocumentJobRepository
func NewGormDocumentJobRepository(db *gorm.DB) *GormDocumentJobRepository {
	return &GormDocumentJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormDocumentJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.DocumentJob, error) {
	var model models.DocumentJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds jobs matching filter, newest first, and the total number of matches
func (r *GormDocumentJobRepository) FindAll(ctx context.Context, filter document.JobFilter) ([]document.DocumentJob, int64, error) {
	filter = filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DocumentJobModel{}), filter).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobModels []models.DocumentJobModel
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&jobModels).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]document.DocumentJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, total, nil
}

func (r *GormDocumentJobRepository) applyFilter(query *gorm.DB, filter document.JobFilter) *gorm.DB {
	if filter.StudentID != "" {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Delivery != "" {
		query = query.Where("delivery = ?", string(filter.Delivery))
	}
	return query
}

// Save saves a job (insert or update)
func (r *GormDocumentJobRepository) Save(ctx context.Context, job *document.DocumentJob) error {
	model := models.DocumentJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormDocumentJobRepository implements the interface
var _ document.JobRepository = (*GormDocumentJobRepository)(nil)
