package printing

import (
	"context"
	"strings"
	"time"

	"github.com/campus/docgen/internal/domain/document"
)

// RenderRequest contains the parameters for turning document HTML into a PDF
type RenderRequest struct {
	// HTML is the complete document page, images already inlined
	HTML string
	// Title for the PDF document metadata
	Title string
	// PaperSize of the composed page
	PaperSize document.PaperSize
	// Margins in millimeters
	Margins document.Margins
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

func (r *RenderRequest) validate() error {
	if r == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(r.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !r.PaperSize.IsValid() {
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(r.PaperSize), nil)
	}
	if err := r.Margins.Validate(); err != nil {
		return NewRenderError(ErrCodeInvalidMargins, err.Error(), err)
	}
	return nil
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
	// Images reports the preload barrier outcome
	Images BarrierResult
}

// PDFRenderer defines the interface for rendering HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeCaptureFailed    = "CAPTURE_FAILED"
	ErrCodeComposeFailed    = "COMPOSE_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeInvalidMargins   = "INVALID_MARGINS"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
