package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	docapp "github.com/campus/docgen/internal/application/document"
	"github.com/campus/docgen/internal/interfaces/http/middleware"
	"github.com/campus/docgen/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// RequestedByHeader carries the admin user that asked for a document
const RequestedByHeader = "X-Requested-By"

// DocumentService is the application surface used by DocumentHandler
type DocumentService interface {
	ListTemplates(ctx context.Context, studentID string) ([]docapp.TemplateResponse, error)
	ResolveFields(ctx context.Context, studentID string) (*docapp.FieldsResponse, error)
	OpenSession(ctx context.Context, studentID string) (*docapp.SessionResponse, error)
	CloseSession(ctx context.Context, sessionID string) error
	Preview(ctx context.Context, req docapp.GenerateRequest) (*docapp.PreviewResponse, error)
	Download(ctx context.Context, req docapp.GenerateRequest) (*docapp.GeneratedPDF, error)
	Send(ctx context.Context, req docapp.GenerateRequest) (*docapp.SendResponse, error)
	ListJobs(ctx context.Context, req docapp.ListJobsRequest) (*docapp.ListJobsResponse, error)
}

// DocumentHandler handles the "Create documents" endpoints
type DocumentHandler struct {
	BaseHandler
	service DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// DocumentRoutes creates the route groups of the document endpoints
func DocumentRoutes(h *DocumentHandler) []*router.DomainGroup {
	student := router.NewDomainGroup("student-documents", "/students/:id/documents")
	student.GET("/templates", h.ListTemplates).Describe("templates offered for a student")
	student.GET("/fields", h.Fields).Describe("resolved placeholder values")
	student.POST("/sessions", h.OpenSession).Describe("open a modal session and inline signatures")
	student.POST("/preview", h.Preview).Describe("hydrate a template without rendering")
	student.POST("/download", h.Download).Describe("render and download a PDF")
	student.POST("/send", h.Send).Describe("render and email a PDF")

	documents := router.NewDomainGroup("documents", "/documents")
	documents.DELETE("/sessions/:session_id", h.CloseSession).Describe("close a modal session")
	documents.GET("/jobs", h.ListJobs).Describe("document job history")

	return []*router.DomainGroup{student, documents}
}

// ListTemplates godoc
// @ID           listStudentDocumentTemplates
// @Summary      List document templates
// @Description  Returns the templates offered for a student with their download names
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "Student ID"
// @Success      200  {object}  dto.Response{data=[]docapp.TemplateResponse}
// @Failure      404  {object}  dto.Response
// @Failure      502  {object}  dto.Response
// @Security     BearerAuth
// @Router       /students/{id}/documents/templates [get]
func (h *DocumentHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, templates)
}

// Fields godoc
// @ID           resolveStudentDocumentFields
// @Summary      Resolve placeholder values
// @Description  Returns every placeholder value resolved for the student
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "Student ID"
// @Success      200  {object}  dto.Response{data=docapp.FieldsResponse}
// @Failure      404  {object}  dto.Response
// @Security     BearerAuth
// @Router       /students/{id}/documents/fields [get]
func (h *DocumentHandler) Fields(c *gin.Context) {
	fields, err := h.service.ResolveFields(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fields)
}

// OpenSession godoc
// @ID           openDocumentSession
// @Summary      Open a document session
// @Description  Starts a modal session and inlines the signature images
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "Student ID"
// @Success      201  {object}  dto.Response{data=docapp.SessionResponse}
// @Failure      404  {object}  dto.Response
// @Security     BearerAuth
// @Router       /students/{id}/documents/sessions [post]
func (h *DocumentHandler) OpenSession(c *gin.Context) {
	session, err := h.service.OpenSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// CloseSession godoc
// @ID           closeDocumentSession
// @Summary      Close a document session
// @Description  Ends a modal session and drops its cached signatures
// @Tags         documents
// @Param        session_id  path  string  true  "Session ID"
// @Success      204
// @Router       /documents/sessions/{session_id} [delete]
func (h *DocumentHandler) CloseSession(c *gin.Context) {
	if err := h.service.CloseSession(c.Request.Context(), c.Param("session_id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Preview godoc
// @ID           previewStudentDocument
// @Summary      Preview a document
// @Description  Hydrates the selected template without rendering a PDF
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Student ID"
// @Param        request  body      docapp.GenerateRequest   true  "Template and signature"
// @Success      200      {object}  dto.Response{data=docapp.PreviewResponse}
// @Failure      400      {object}  dto.Response
// @Failure      404      {object}  dto.Response
// @Security     BearerAuth
// @Router       /students/{id}/documents/preview [post]
func (h *DocumentHandler) Preview(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Download godoc
// @ID           downloadStudentDocument
// @Summary      Download a document
// @Description  Renders the document and streams it as a PDF attachment
// @Tags         documents
// @Accept       json
// @Produce      application/pdf
// @Param        id       path      string                  true  "Student ID"
// @Param        request  body      docapp.GenerateRequest  true  "Template and signature"
// @Success      200      {file}    binary
// @Failure      400      {object}  dto.Response
// @Failure      504      {object}  dto.Response
// @Security     BearerAuth
// @Router       /students/{id}/documents/download [post]
func (h *DocumentHandler) Download(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}

	pdf, err := h.service.Download(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdf.FileName))
	c.Header("X-Document-Job-ID", pdf.JobID)
	c.Header("X-Page-Count", strconv.Itoa(pdf.PageCount))
	c.Data(http.StatusOK, "application/pdf", pdf.Data)
}

// Send godoc
// @ID           sendStudentDocument
// @Summary      Email a document
// @Description  Renders the document and emails it to the student through the school backend
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Student ID"
// @Param        request  body      docapp.GenerateRequest  true  "Template and signature"
// @Success      200      {object}  dto.Response{data=docapp.SendResponse}
// @Failure      400      {object}  dto.Response
// @Failure      502      {object}  dto.Response
// @Security     BearerAuth
// @Router       /students/{id}/documents/send [post]
func (h *DocumentHandler) Send(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}

	resp, err := h.service.Send(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListJobs godoc
// @ID           listDocumentJobs
// @Summary      List document jobs
// @Description  Returns a page of the document job history
// @Tags         documents
// @Produce      json
// @Param        student_id  query     string  false  "Student ID"
// @Param        status      query     string  false  "Job status"  Enums(PENDING, RENDERING, COMPLETED, FAILED)
// @Param        delivery    query     string  false  "Delivery"    Enums(DOWNLOAD, EMAIL)
// @Param        page        query     int     false  "Page"        minimum(1)
// @Param        page_size   query     int     false  "Page size"   minimum(1) maximum(100)
// @Success      200         {object}  dto.Response{data=[]docapp.JobResponse}
// @Failure      400         {object}  dto.Response
// @Router       /documents/jobs [get]
func (h *DocumentHandler) ListJobs(c *gin.Context) {
	var req docapp.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, jobs.Items, jobs.Total, jobs.Page, jobs.Size)
}

func (h *DocumentHandler) bindGenerate(c *gin.Context) (docapp.GenerateRequest, bool) {
	var req docapp.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return req, false
	}
	req.StudentID = c.Param("id")
	req.RequestedBy = c.GetHeader(RequestedByHeader)
	return req, true
}
