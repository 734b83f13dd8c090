package document

import (
	"context"

	"github.com/google/uuid"
)

// JobFilter narrows a job listing
type JobFilter struct {
	StudentID string
	Status    JobStatus
	Delivery  Delivery
	Page      int
	PageSize  int
}

// Normalize applies paging defaults
func (f JobFilter) Normalize() JobFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}

// Offset returns the row offset of the page
func (f JobFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// JobRepository defines the interface for document job persistence
type JobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DocumentJob, error)

	// FindAll finds jobs matching the filter, newest first, with the total count
	FindAll(ctx context.Context, filter JobFilter) ([]DocumentJob, int64, error)

	// Save saves a job (insert or update)
	Save(ctx context.Context, job *DocumentJob) error
}
