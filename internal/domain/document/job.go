package document

import (
	"strings"
	"time"

	"github.com/campus/docgen/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentJob records one generate-and-deliver action. Only metadata is
// kept; the PDF itself is handed to the caller or the backend.
type DocumentJob struct {
	ID            uuid.UUID
	StudentID     string
	StudentName   string
	TemplateID    string
	TemplateTitle string
	SignatureID   string
	Delivery      Delivery
	Status        JobStatus
	FileName      string
	ByteSize      int
	ErrorMessage  string
	RequestedBy   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// NewDocumentJob creates a pending job
func NewDocumentJob(studentID, templateID string, delivery Delivery) (*DocumentJob, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if strings.TrimSpace(templateID) == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE", "Template ID cannot be empty")
	}
	if !delivery.IsValid() {
		return nil, shared.NewDomainError("INVALID_DELIVERY", "Invalid delivery mode: "+delivery.String())
	}

	now := time.Now()
	return &DocumentJob{
		ID:         uuid.New(),
		StudentID:  studentID,
		TemplateID: templateID,
		Delivery:   delivery,
		Status:     JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Describe attaches the display details known once the template is hydrated
func (j *DocumentJob) Describe(studentName, templateTitle, signatureID string) {
	j.StudentName = studentName
	j.TemplateTitle = templateTitle
	j.SignatureID = signatureID
	j.UpdatedAt = time.Now()
}

// StartRendering marks the job as rendering
func (j *DocumentJob) StartRendering() error {
	if !j.Status.CanTransitionTo(JobStatusRendering) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start rendering from status: "+j.Status.String())
	}
	j.Status = JobStatusRendering
	j.UpdatedAt = time.Now()
	return nil
}

// Complete marks the job as completed
func (j *DocumentJob) Complete(fileName string, byteSize int) error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}
	if fileName == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if byteSize <= 0 {
		return shared.NewDomainError("INVALID_FILE", "Generated file is empty")
	}

	now := time.Now()
	j.Status = JobStatusCompleted
	j.FileName = fileName
	j.ByteSize = byteSize
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Fail marks the job as failed with an error message
func (j *DocumentJob) Fail(errorMessage string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = errorMessage
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *DocumentJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}
