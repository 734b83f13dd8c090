package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/campus/docgen/internal/domain/document"
	"github.com/campus/docgen/internal/domain/shared"
	"github.com/campus/docgen/internal/infrastructure/backend"
	"github.com/campus/docgen/internal/infrastructure/logger"
	"github.com/campus/docgen/internal/infrastructure/printing"
	"github.com/campus/docgen/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SchoolBackend is the part of the school REST backend the service reads and sends to
type SchoolBackend interface {
	GetStudent(ctx context.Context, studentID string) (domain.StudentRecord, error)
	GetAttendanceStats(ctx context.Context, studentID string) ([]domain.AttendanceStat, error)
	ListTemplates(ctx context.Context) ([]domain.DocumentTemplate, error)
	GetTemplate(ctx context.Context, templateID string) (domain.DocumentTemplate, error)
	ListSignatures(ctx context.Context) ([]domain.SignatureAsset, error)
	SendDocument(ctx context.Context, sr backend.SendRequest) (string, error)
}

// SignatureInliner turns signature assets into data URL images
type SignatureInliner interface {
	Inline(ctx context.Context, asset domain.SignatureAsset) (domain.InlinedImage, bool)
	InlineAll(ctx context.Context, assets []domain.SignatureAsset) map[string]domain.InlinedImage
}

// Config holds the document settings of the service
type Config struct {
	SchoolName string
	Folder     string
	FileType   string
	// Mode is the renderer mode, used as a metric attribute
	Mode      string
	PaperSize domain.PaperSize
	Margins   domain.Margins
	PageWidth int
}

// DocumentService runs the "Create documents" workflow of a student profile
type DocumentService struct {
	backend  SchoolBackend
	inliner  SignatureInliner
	cache    domain.SignatureCache
	renderer printing.PDFRenderer
	jobRepo  domain.JobRepository
	resolver *domain.Resolver
	hydrator *domain.Hydrator
	metrics  *telemetry.DocumentMetrics
	cfg      Config
	logger   *zap.Logger
}

// Option configures a DocumentService
type Option func(*DocumentService)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *DocumentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver replaces the default placeholder resolver
func WithResolver(r *domain.Resolver) Option {
	return func(s *DocumentService) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithMetrics records generated documents on m
func WithMetrics(m *telemetry.DocumentMetrics) Option {
	return func(s *DocumentService) {
		s.metrics = m
	}
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	sb SchoolBackend,
	inliner SignatureInliner,
	cache domain.SignatureCache,
	renderer printing.PDFRenderer,
	jobRepo domain.JobRepository,
	cfg Config,
	opts ...Option,
) *DocumentService {
	if cfg.PaperSize == "" {
		cfg.PaperSize = domain.PaperSizeA4
	}
	if cfg.Margins.IsZero() {
		cfg.Margins = domain.DefaultMargins()
	}
	if cfg.FileType == "" {
		cfg.FileType = "pdf"
	}
	s := &DocumentService{
		backend:  sb,
		inliner:  inliner,
		cache:    cache,
		renderer: renderer,
		jobRepo:  jobRepo,
		resolver: domain.NewResolver(),
		hydrator: domain.NewHydrator(),
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// log returns the service logger with the request correlation fields of ctx
func (s *DocumentService) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, s.logger)
}

// =============================================================================
// Templates and fields
// =============================================================================

// ListTemplates returns the templates a document can be created from
func (s *DocumentService) ListTemplates(ctx context.Context, studentID string) ([]TemplateResponse, error) {
	if err := requireStudent(studentID); err != nil {
		return nil, err
	}

	templates, err := s.backend.ListTemplates(ctx)
	if err != nil {
		return nil, upstreamError(err, "Templates")
	}

	items := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		items = append(items, TemplateResponse{
			ID:         t.ID,
			Title:      t.Title,
			FileName:   t.FileName(),
			Unresolved: s.hydrator.Unresolved(t),
		})
	}
	return items, nil
}

// ResolveFields returns the value of every placeholder for the student
func (s *DocumentService) ResolveFields(ctx context.Context, studentID string) (*FieldsResponse, error) {
	if err := requireStudent(studentID); err != nil {
		return nil, err
	}

	record, stats, err := s.loadProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	fields := s.resolver.Resolve(record, stats)
	resp := &FieldsResponse{
		StudentID:   studentID,
		StudentName: fields.Get(domain.FieldName),
	}
	for _, key := range domain.AllFieldKeys() {
		resp.Fields = append(resp.Fields, FieldValue{
			Key:   key.String(),
			Kind:  key.Kind().String(),
			Value: fields.Get(key),
		})
	}
	return resp, nil
}

// loadProfile fetches the student and its attendance stats concurrently.
// Attendance is optional: a failure there only drops the stats.
func (s *DocumentService) loadProfile(ctx context.Context, studentID string) (domain.StudentRecord, []domain.AttendanceStat, error) {
	var (
		record domain.StudentRecord
		stats  []domain.AttendanceStat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.backend.GetStudent(gctx, studentID)
		if err != nil {
			return upstreamError(err, "Student")
		}
		record = r
		return nil
	})
	g.Go(func() error {
		st, err := s.backend.GetAttendanceStats(gctx, studentID)
		if err != nil {
			s.log(ctx).Warn("attendance stats unavailable",
				zap.String("student_id", studentID),
				zap.Error(err),
			)
			return nil
		}
		stats = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return record, stats, nil
}

// =============================================================================
// Sessions
// =============================================================================

// OpenSession starts a document session and inlines every signature into
// the session cache
func (s *DocumentService) OpenSession(ctx context.Context, studentID string) (*SessionResponse, error) {
	if err := requireStudent(studentID); err != nil {
		return nil, err
	}

	assets, err := s.backend.ListSignatures(ctx)
	if err != nil {
		return nil, upstreamError(err, "Signatures")
	}

	sessionID := uuid.NewString()
	inlined := s.inliner.InlineAll(ctx, assets)
	for id, img := range inlined {
		if err := s.cache.Set(ctx, sessionID, id, img); err != nil {
			s.log(ctx).Warn("failed to cache signature",
				zap.String("session_id", sessionID),
				zap.String("signature_id", id),
				zap.Error(err),
			)
			delete(inlined, id)
		}
	}

	resp := &SessionResponse{
		SessionID:  sessionID,
		StudentID:  studentID,
		Signatures: make([]SignatureResponse, 0, len(assets)),
	}
	withImage := 0
	for _, a := range assets {
		if a.HasImage() {
			withImage++
		}
		_, ok := inlined[a.ID]
		resp.Signatures = append(resp.Signatures, SignatureResponse{ID: a.ID, Name: a.Name, Inlined: ok})
	}
	s.metrics.RecordInlined(ctx, len(inlined), max(withImage-len(inlined), 0))

	s.log(ctx).Info("document session opened",
		zap.String("session_id", sessionID),
		zap.String("student_id", studentID),
		zap.Int("signatures", len(assets)),
		zap.Int("inlined", len(inlined)),
	)
	return resp, nil
}

// CloseSession evicts the cached signatures of a session
func (s *DocumentService) CloseSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return shared.NewDomainError("INVALID_SESSION", "Session ID cannot be empty")
	}
	if err := s.cache.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session cache: %w", err)
	}
	s.log(ctx).Debug("document session closed", zap.String("session_id", sessionID))
	return nil
}

// =============================================================================
// Preview and generation
// =============================================================================

// prepared is a hydrated document ready to be rendered
type prepared struct {
	record      domain.StudentRecord
	doc         domain.HydratedDocument
	unresolved  []string
	signatureID string
	html        string
}

// Preview hydrates the template for the student and returns the document page
func (s *DocumentService) Preview(ctx context.Context, req GenerateRequest) (*PreviewResponse, error) {
	if err := requireStudent(req.StudentID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE", "Template ID cannot be empty")
	}

	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return &PreviewResponse{
		TemplateID:  p.doc.TemplateID,
		Title:       p.doc.Title,
		To:          p.doc.To,
		Body:        p.doc.Body,
		Footer:      p.doc.Footer,
		FileName:    p.doc.FileName,
		SignatureID: p.signatureID,
		Unresolved:  p.unresolved,
		HTML:        p.html,
	}, nil
}

// prepare loads the profile, template and selected signature, then builds
// the document page with the signature already inlined
func (s *DocumentService) prepare(ctx context.Context, req GenerateRequest) (*prepared, error) {
	var (
		record   domain.StudentRecord
		stats    []domain.AttendanceStat
		tmpl     domain.DocumentTemplate
		sigBlock *printing.SignatureBlock
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		record, stats, err = s.loadProfile(gctx, req.StudentID)
		return err
	})
	g.Go(func() error {
		t, err := s.backend.GetTemplate(gctx, req.TemplateID)
		if err != nil {
			return upstreamError(err, "Template")
		}
		tmpl = t
		return nil
	})
	if req.SignatureID != "" {
		g.Go(func() error {
			var err error
			sigBlock, err = s.signature(gctx, req.SessionID, req.SignatureID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fields := s.resolver.Resolve(record, stats)
	doc := s.hydrator.HydrateTemplate(tmpl, fields)

	html, err := printing.BuildDocumentHTML(printing.DocumentPage{
		Document:   doc,
		SchoolName: s.cfg.SchoolName,
		Signature:  sigBlock,
		Width:      s.cfg.PageWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build document page: %w", err)
	}

	p := &prepared{
		record:     record,
		doc:        doc,
		unresolved: s.hydrator.Unresolved(tmpl),
		html:       html,
	}
	if sigBlock != nil {
		p.signatureID = req.SignatureID
	}
	return p, nil
}

// signature returns the inlined signature block for signatureID. The session
// cache is read first; a miss is inlined now and cached. A signature that
// cannot be inlined is omitted from the document.
func (s *DocumentService) signature(ctx context.Context, sessionID, signatureID string) (*printing.SignatureBlock, error) {
	assets, err := s.backend.ListSignatures(ctx)
	if err != nil {
		return nil, upstreamError(err, "Signatures")
	}

	var asset *domain.SignatureAsset
	for i := range assets {
		if assets[i].ID == signatureID {
			asset = &assets[i]
			break
		}
	}
	if asset == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Signature not found")
	}

	if sessionID != "" {
		img, ok, err := s.cache.Get(ctx, sessionID, signatureID)
		if err != nil {
			s.log(ctx).Warn("signature cache read failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		if ok {
			return &printing.SignatureBlock{Name: asset.Name, Image: img}, nil
		}
	}

	img, ok := s.inliner.Inline(ctx, *asset)
	if !ok {
		s.log(ctx).Warn("signature omitted from document",
			zap.String("signature_id", signatureID),
			zap.String("session_id", sessionID),
		)
		return nil, nil
	}
	if sessionID != "" {
		if err := s.cache.Set(ctx, sessionID, signatureID, img); err != nil {
			s.log(ctx).Warn("failed to cache signature", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return &printing.SignatureBlock{Name: asset.Name, Image: img}, nil
}

// rendered is a completed render still awaiting delivery
type rendered struct {
	job    *domain.DocumentJob
	doc    *prepared
	result *printing.RenderResult
	start  time.Time
}

// Download renders the document and returns the PDF to the caller
func (s *DocumentService) Download(ctx context.Context, req GenerateRequest) (*GeneratedPDF, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DocumentService", "Download", spanAttrs(req, domain.DeliveryDownload)...)
	defer span.End()

	r, err := s.render(ctx, req, domain.DeliveryDownload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fileName := r.doc.doc.FileName
	if err := s.complete(ctx, r, fileName); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String(telemetry.SpanAttrFileName, fileName),
		attribute.Int(telemetry.SpanAttrByteSize, len(r.result.PDFData)),
	)
	return &GeneratedPDF{
		JobID:     r.job.ID.String(),
		FileName:  fileName,
		Data:      r.result.PDFData,
		PageCount: r.result.PageCount,
	}, nil
}

// Send renders the document and emails it through the school backend
func (s *DocumentService) Send(ctx context.Context, req GenerateRequest) (*SendResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DocumentService", "Send", spanAttrs(req, domain.DeliveryEmail)...)
	defer span.End()

	r, err := s.render(ctx, req, domain.DeliveryEmail)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fileName := r.doc.doc.FileName
	studentID := r.doc.record.ID()
	if studentID == "" {
		studentID = req.StudentID
	}
	message, err := s.backend.SendDocument(ctx, backend.SendRequest{
		File:        r.result.PDFData,
		FileName:    fileName,
		FileType:    s.cfg.FileType,
		Folder:      s.cfg.Folder,
		StudentName: r.doc.record.FullName(),
		StudentID:   studentID,
	})
	if err != nil {
		s.log(ctx).Error("document delivery failed",
			zap.String("job_id", r.job.ID.String()),
			zap.Error(err),
		)
		derr := deliveryError(err)
		s.failJob(ctx, r.job, failureMessage(derr))
		s.metrics.RecordDocument(ctx, domain.DeliveryEmail.String(), s.cfg.Mode, time.Since(r.start), 0, derr)
		telemetry.RecordError(span, derr)
		return nil, derr
	}

	if err := s.complete(ctx, r, fileName); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &SendResponse{
		JobID:    r.job.ID.String(),
		FileName: fileName,
		Message:  message,
	}, nil
}

// render records a job and runs the document through the PDF pipeline.
// Any failure marks the job failed; no partial PDF is returned.
func (s *DocumentService) render(ctx context.Context, req GenerateRequest, delivery domain.Delivery) (*rendered, error) {
	start := time.Now()

	job, err := domain.NewDocumentJob(req.StudentID, req.TemplateID, delivery)
	if err != nil {
		return nil, err
	}
	job.RequestedBy = req.RequestedBy

	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save document job: %w", err)
	}

	p, err := s.prepare(ctx, req)
	if err != nil {
		s.log(ctx).Warn("document preparation failed",
			zap.String("job_id", job.ID.String()),
			zap.String("template_id", req.TemplateID),
			zap.Error(err),
		)
		s.failJob(ctx, job, failureMessage(err))
		s.metrics.RecordDocument(ctx, delivery.String(), s.cfg.Mode, time.Since(start), 0, err)
		return nil, err
	}

	job.Describe(p.record.FullName(), p.doc.Title, p.signatureID)
	if err := job.StartRendering(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:      p.html,
		Title:     p.doc.Title,
		PaperSize: s.cfg.PaperSize,
		Margins:   s.cfg.Margins,
	})
	if err != nil {
		s.log(ctx).Error("PDF rendering failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		s.failJob(ctx, job, "PDF generation failed. Please try again.")
		s.metrics.RecordDocument(ctx, delivery.String(), s.cfg.Mode, time.Since(start), 0, err)
		return nil, fmt.Errorf("%w: %w", shared.ErrGenerateFailed, err)
	}

	if result.Images.Failed > 0 || result.Images.TimedOut > 0 {
		s.log(ctx).Warn("document captured with missing images",
			zap.String("job_id", job.ID.String()),
			zap.Int("failed", result.Images.Failed),
			zap.Int("timed_out", result.Images.TimedOut),
		)
	}

	return &rendered{job: job, doc: p, result: result, start: start}, nil
}

// complete marks the job completed once the PDF reached its destination
func (s *DocumentService) complete(ctx context.Context, r *rendered, fileName string) error {
	size := len(r.result.PDFData)
	if err := r.job.Complete(fileName, size); err != nil {
		s.failJob(ctx, r.job, failureMessage(err))
		return err
	}
	if err := s.jobRepo.Save(ctx, r.job); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	s.metrics.RecordDocument(ctx, r.job.Delivery.String(), s.cfg.Mode, time.Since(r.start), size, nil)
	s.log(ctx).Info("document generated",
		zap.String("job_id", r.job.ID.String()),
		zap.String("student_id", r.job.StudentID),
		zap.String("delivery", r.job.Delivery.String()),
		zap.String("file_name", fileName),
		zap.Int("size", size),
		zap.Int("pages", r.result.PageCount),
	)
	return nil
}

// failJob records the failure even when the request was cancelled
func (s *DocumentService) failJob(ctx context.Context, job *domain.DocumentJob, message string) {
	if err := job.Fail(message); err != nil {
		return
	}
	if err := s.jobRepo.Save(context.WithoutCancel(ctx), job); err != nil {
		s.log(ctx).Error("failed to record job failure",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}

// =============================================================================
// Job history
// =============================================================================

// ListJobs returns the document job history, newest first
func (s *DocumentService) ListJobs(ctx context.Context, req ListJobsRequest) (*ListJobsResponse, error) {
	filter := domain.JobFilter{
		StudentID: req.StudentID,
		Status:    domain.JobStatus(req.Status),
		Delivery:  domain.Delivery(req.Delivery),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}.Normalize()
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid job status")
	}
	if filter.Delivery != "" && !filter.Delivery.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid delivery")
	}

	jobs, total, err := s.jobRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list document jobs: %w", err)
	}

	items := make([]JobResponse, len(jobs))
	for i := range jobs {
		items[i] = ToJobResponse(&jobs[i])
	}
	return &ListJobsResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.PageSize,
	}, nil
}

// =============================================================================
// Helpers
// =============================================================================

func requireStudent(studentID string) error {
	if strings.TrimSpace(studentID) == "" {
		return shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	return nil
}

// upstreamError maps a backend failure onto a domain error
func upstreamError(err error, resource string) error {
	switch {
	case backend.IsNotFound(err):
		return shared.NewDomainError("NOT_FOUND", resource+" not found")
	case backend.IsUnauthorized(err):
		return shared.ErrUnauthorized
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("failed to load %s: %w: %w", strings.ToLower(resource), shared.ErrUpstream, err)
}

// deliveryError keeps the server's message when it gave one
func deliveryError(err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return shared.NewDomainError(shared.ErrDeliveryFailed.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err)
}

func failureMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func spanAttrs(req GenerateRequest, delivery domain.Delivery) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(telemetry.SpanAttrStudentID, req.StudentID),
		attribute.String(telemetry.SpanAttrTemplateID, req.TemplateID),
		attribute.String(telemetry.SpanAttrDelivery, delivery.String()),
	}
	if req.SignatureID != "" {
		attrs = append(attrs, attribute.String(telemetry.SpanAttrSignatureID, req.SignatureID))
	}
	return attrs
}
