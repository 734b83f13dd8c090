package models

import (
	"time"

	"github.com/campus/docgen/internal/domain/document"
	"github.com/google/uuid"
)

// DocumentJobModel is the GORM model for document_jobs table
type DocumentJobModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	StudentID     string     `gorm:"column:student_id;type:varchar(64);not null;index"`
	StudentName   string     `gorm:"column:student_name;type:varchar(200)"`
	TemplateID    string     `gorm:"column:template_id;type:varchar(64);not null"`
	TemplateTitle string     `gorm:"column:template_title;type:varchar(200)"`
	SignatureID   string     `gorm:"column:signature_id;type:varchar(64)"`
	Delivery      string     `gorm:"type:varchar(20);not null"`
	Status        string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	FileName      string     `gorm:"column:file_name;type:varchar(255)"`
	ByteSize      int        `gorm:"column:byte_size;not null;default:0"`
	ErrorMessage  string     `gorm:"column:error_message;type:text"`
	RequestedBy   string     `gorm:"column:requested_by;type:varchar(200)"`
	CreatedAt     time.Time  `gorm:"not null;index"`
	UpdatedAt     time.Time  `gorm:"not null"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`
}

// TableName returns the table name for DocumentJobModel
func (DocumentJobModel) TableName() string {
	return "document_jobs"
}

// ToDomain converts DocumentJobModel to domain DocumentJob
func (m *DocumentJobModel) ToDomain() *document.DocumentJob {
	return &document.DocumentJob{
		ID:            m.ID,
		StudentID:     m.StudentID,
		StudentName:   m.StudentName,
		TemplateID:    m.TemplateID,
		TemplateTitle: m.TemplateTitle,
		SignatureID:   m.SignatureID,
		Delivery:      document.Delivery(m.Delivery),
		Status:        document.JobStatus(m.Status),
		FileName:      m.FileName,
		ByteSize:      m.ByteSize,
		ErrorMessage:  m.ErrorMessage,
		RequestedBy:   m.RequestedBy,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CompletedAt:   m.CompletedAt,
	}
}

// DocumentJobModelFromDomain creates a DocumentJobModel from domain DocumentJob
func DocumentJobModelFromDomain(j *document.DocumentJob) *DocumentJobModel {
	return &DocumentJobModel{
		ID:            j.ID,
		StudentID:     j.StudentID,
		StudentName:   j.StudentName,
		TemplateID:    j.TemplateID,
		TemplateTitle: j.TemplateTitle,
		SignatureID:   j.SignatureID,
		Delivery:      string(j.Delivery),
		Status:        string(j.Status),
		FileName:      j.FileName,
		ByteSize:      j.ByteSize,
		ErrorMessage:  j.ErrorMessage,
		RequestedBy:   j.RequestedBy,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
		CompletedAt:   j.CompletedAt,
	}
}
