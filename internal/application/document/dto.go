package document

import (
	"time"

	domain "github.com/campus/docgen/internal/domain/document"
)

// =============================================================================
// Template and field DTOs
// =============================================================================

// TemplateResponse is a template offered in the "Create documents" modal
type TemplateResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	// Unresolved lists placeholders that no field answers
	Unresolved []string `json:"unresolved,omitempty"`
}

// FieldValue is one resolved placeholder
type FieldValue struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// FieldsResponse lists every placeholder value for a student
type FieldsResponse struct {
	StudentID   string       `json:"student_id"`
	StudentName string       `json:"student_name"`
	Fields      []FieldValue `json:"fields"`
}

// =============================================================================
// Session DTOs
// =============================================================================

// SignatureResponse is a signature option of a session
type SignatureResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Inlined bool   `json:"inlined"`
}

// SessionResponse is returned when the modal opens
type SessionResponse struct {
	SessionID  string              `json:"session_id"`
	StudentID  string              `json:"student_id"`
	Signatures []SignatureResponse `json:"signatures"`
}

// =============================================================================
// Preview and generation DTOs
// =============================================================================

// GenerateRequest selects the template and optional signature of a document
type GenerateRequest struct {
	StudentID   string `json:"-"`
	TemplateID  string `json:"template_id" binding:"required,max=100"`
	SessionID   string `json:"session_id" binding:"omitempty,max=100"`
	SignatureID string `json:"signature_id" binding:"omitempty,max=100"`
	RequestedBy string `json:"-"`
}

// PreviewResponse shows the hydrated document before it is generated
type PreviewResponse struct {
	TemplateID  string   `json:"template_id"`
	Title       string   `json:"title"`
	To          string   `json:"to,omitempty"`
	Body        string   `json:"body"`
	Footer      string   `json:"footer,omitempty"`
	FileName    string   `json:"file_name"`
	SignatureID string   `json:"signature_id,omitempty"`
	Unresolved  []string `json:"unresolved,omitempty"`
	HTML        string   `json:"html"`
}

// GeneratedPDF is a rendered document handed to the caller
type GeneratedPDF struct {
	JobID     string
	FileName  string
	Data      []byte
	PageCount int
}

// SendResponse reports a document emailed through the school backend
type SendResponse struct {
	JobID    string `json:"job_id"`
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

// =============================================================================
// Job DTOs
// =============================================================================

// ListJobsRequest filters the document job history
type ListJobsRequest struct {
	StudentID string `form:"student_id" binding:"omitempty,max=100"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING RENDERING COMPLETED FAILED"`
	Delivery  string `form:"delivery" binding:"omitempty,oneof=DOWNLOAD EMAIL"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// JobResponse represents a document job
type JobResponse struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"student_id"`
	StudentName   string     `json:"student_name,omitempty"`
	TemplateID    string     `json:"template_id"`
	TemplateTitle string     `json:"template_title,omitempty"`
	SignatureID   string     `json:"signature_id,omitempty"`
	Delivery      string     `json:"delivery"`
	Status        string     `json:"status"`
	FileName      string     `json:"file_name,omitempty"`
	ByteSize      int        `json:"byte_size,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	RequestedBy   string     `json:"requested_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ListJobsResponse is a page of document jobs
type ListJobsResponse struct {
	Items []JobResponse `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

// ToJobResponse converts a domain job to its response
func ToJobResponse(job *domain.DocumentJob) JobResponse {
	return JobResponse{
		ID:            job.ID.String(),
		StudentID:     job.StudentID,
		StudentName:   job.StudentName,
		TemplateID:    job.TemplateID,
		TemplateTitle: job.TemplateTitle,
		SignatureID:   job.SignatureID,
		Delivery:      job.Delivery.String(),
		Status:        job.Status.String(),
		FileName:      job.FileName,
		ByteSize:      job.ByteSize,
		ErrorMessage:  job.ErrorMessage,
		RequestedBy:   job.RequestedBy,
		CreatedAt:     job.CreatedAt,
		CompletedAt:   job.CompletedAt,
	}
}
