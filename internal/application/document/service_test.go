package document_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	app "github.com/campus/docgen/internal/application/document"
	domain "github.com/campus/docgen/internal/domain/document"
	"github.com/campus/docgen/internal/domain/shared"
	"github.com/campus/docgen/internal/infrastructure/backend"
	"github.com/campus/docgen/internal/infrastructure/cache"
	"github.com/campus/docgen/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockSchoolBackend struct {
	mock.Mock
}

func (m *MockSchoolBackend) GetStudent(ctx context.Context, studentID string) (domain.StudentRecord, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.StudentRecord), args.Error(1)
}

func (m *MockSchoolBackend) GetAttendanceStats(ctx context.Context, studentID string) ([]domain.AttendanceStat, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttendanceStat), args.Error(1)
}

func (m *MockSchoolBackend) ListTemplates(ctx context.Context) ([]domain.DocumentTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentTemplate), args.Error(1)
}

func (m *MockSchoolBackend) GetTemplate(ctx context.Context, templateID string) (domain.DocumentTemplate, error) {
	args := m.Called(ctx, templateID)
	return args.Get(0).(domain.DocumentTemplate), args.Error(1)
}

func (m *MockSchoolBackend) ListSignatures(ctx context.Context) ([]domain.SignatureAsset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SignatureAsset), args.Error(1)
}

func (m *MockSchoolBackend) SendDocument(ctx context.Context, sr backend.SendRequest) (string, error) {
	args := m.Called(ctx, sr)
	return args.String(0), args.Error(1)
}

type MockInliner struct {
	mock.Mock
}

func (m *MockInliner) Inline(ctx context.Context, asset domain.SignatureAsset) (domain.InlinedImage, bool) {
	args := m.Called(ctx, asset)
	return args.Get(0).(domain.InlinedImage), args.Bool(1)
}

func (m *MockInliner) InlineAll(ctx context.Context, assets []domain.SignatureAsset) map[string]domain.InlinedImage {
	args := m.Called(ctx, assets)
	return args.Get(0).(map[string]domain.InlinedImage)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.RenderResult), args.Error(1)
}

func (m *MockRenderer) Close() error {
	return nil
}

// memoryJobRepository keeps a copy of every saved state
type memoryJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]domain.DocumentJob
	err  error
}

func newMemoryJobRepository() *memoryJobRepository {
	return &memoryJobRepository{jobs: make(map[uuid.UUID]domain.DocumentJob)}
}

func (r *memoryJobRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.DocumentJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &job, nil
}

func (r *memoryJobRepository) FindAll(_ context.Context, filter domain.JobFilter) ([]domain.DocumentJob, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DocumentJob
	for _, job := range r.jobs {
		if filter.StudentID != "" && job.StudentID != filter.StudentID {
			continue
		}
		out = append(out, job)
	}
	return out, int64(len(out)), nil
}

func (r *memoryJobRepository) Save(_ context.Context, job *domain.DocumentJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *memoryJobRepository) only(t *testing.T) domain.DocumentJob {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.jobs, 1)
	for _, job := range r.jobs {
		return job
	}
	return domain.DocumentJob{}
}

// =============================================================================
// Fixtures
// =============================================================================

var issued = time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)

func studentRecord() domain.StudentRecord {
	return domain.StudentRecord{
		"id":            "stu-1",
		"FirstName":     "Ana",
		"LastName":      "Silva",
		"CourseTitle":   "General English",
		"TuitionFees":   1500,
		"AmountPaid":    "Fully Paid",
		"Nationality":   "Brazilian",
		"DateOfBirth":   "1999-03-14T00:00:00Z",
		"StudentNumber": "S-0042",
	}
}

func invitationTemplate() domain.DocumentTemplate {
	return domain.DocumentTemplate{
		ID:     "tpl-1",
		Title:  "Invitation letter",
		To:     "To whom it may concern",
		Body:   "{Name}, born {Date of Birth}, is enrolled in {Course Title}.\nFees: {Tuition Fees} ({Paid}). {Unknown}",
		Footer: "Issued on {Issue Date}",
	}
}

var signatureAsset = domain.SignatureAsset{
	ID:                "sig-1",
	Name:              "Director of Studies",
	SignatureImageURL: "/files/sig-1.png",
}

var signatureImage = domain.NewInlinedImage("image/png", []byte("sig"))

type fixture struct {
	backend  *MockSchoolBackend
	inliner  *MockInliner
	renderer *MockRenderer
	cache    *cache.InMemorySignatureCache
	jobs     *memoryJobRepository
	service  *app.DocumentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend:  new(MockSchoolBackend),
		inliner:  new(MockInliner),
		renderer: new(MockRenderer),
		cache:    cache.NewInMemorySignatureCache(time.Minute, time.Minute),
		jobs:     newMemoryJobRepository(),
	}
	t.Cleanup(func() { _ = f.cache.Close() })

	f.service = app.NewDocumentService(
		f.backend, f.inliner, f.cache, f.renderer, f.jobs,
		app.Config{SchoolName: "Campus Language School", Folder: "documents", Mode: "snapshot"},
		app.WithLogger(zap.NewNop()),
		app.WithResolver(domain.NewResolver(domain.WithClock(func() time.Time { return issued }))),
	)
	return f
}

func (f *fixture) expectProfile() {
	f.backend.On("GetStudent", mock.Anything, "stu-1").Return(studentRecord(), nil)
	f.backend.On("GetAttendanceStats", mock.Anything, "stu-1").Return([]domain.AttendanceStat{
		{Status: "Present", Count: 40, Percentage: domain.NewPercentage(92.5)},
	}, nil)
	f.backend.On("GetTemplate", mock.Anything, "tpl-1").Return(invitationTemplate(), nil)
}

// =============================================================================
// Templates and fields
// =============================================================================

func TestDocumentService_ListTemplates(t *testing.T) {
	f := newFixture(t)
	f.backend.On("ListTemplates", mock.Anything).Return([]domain.DocumentTemplate{
		invitationTemplate(),
		{ID: "tpl-2", Title: "Attendance Certificate", Body: "{Attendance}"},
	}, nil)

	items, err := f.service.ListTemplates(context.Background(), "stu-1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "invitation-letter.pdf", items[0].FileName)
	assert.Equal(t, []string{"Unknown"}, items[0].Unresolved)
	assert.Equal(t, "attendance-certificate.pdf", items[1].FileName)
	assert.Empty(t, items[1].Unresolved)
}

func TestDocumentService_ListTemplates_RequiresStudent(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ListTemplates(context.Background(), "  ")

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_STUDENT", de.Code)
	f.backend.AssertNotCalled(t, "ListTemplates", mock.Anything)
}

func TestDocumentService_ListTemplates_BackendFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.On("ListTemplates", mock.Anything).Return(nil, &backend.APIError{StatusCode: http.StatusBadGateway})

	_, err := f.service.ListTemplates(context.Background(), "stu-1")

	assert.ErrorIs(t, err, shared.ErrUpstream)
}

func TestDocumentService_ResolveFields(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()

	resp, err := f.service.ResolveFields(context.Background(), "stu-1")
	require.NoError(t, err)

	values := make(map[string]string)
	for _, field := range resp.Fields {
		values[field.Key] = field.Value
	}
	assert.Equal(t, "Ana Silva", resp.StudentName)
	assert.Len(t, resp.Fields, len(domain.AllFieldKeys()))
	assert.Equal(t, "14/03/1999", values["Date of Birth"])
	assert.Equal(t, "€1500.00", values["Tuition Fees"])
	assert.Equal(t, "Fully Paid", values["Amount Paid"])
	assert.Equal(t, "92.5%", values["Attendance"])
	assert.Equal(t, "02/09/2024", values["Issue Date"])
	assert.Equal(t, domain.Dash, values["Passport Number"])
}

func TestDocumentService_ResolveFields_AttendanceUnavailable(t *testing.T) {
	f := newFixture(t)
	f.backend.On("GetStudent", mock.Anything, "stu-1").Return(studentRecord(), nil)
	f.backend.On("GetAttendanceStats", mock.Anything, "stu-1").Return(nil, errors.New("connection reset"))

	resp, err := f.service.ResolveFields(context.Background(), "stu-1")
	require.NoError(t, err)

	for _, field := range resp.Fields {
		if field.Key == "Attendance" {
			assert.Equal(t, domain.Dash, field.Value)
		}
	}
}

func TestDocumentService_ResolveFields_StudentNotFound(t *testing.T) {
	f := newFixture(t)
	f.backend.On("GetStudent", mock.Anything, "missing").Return(nil, &backend.APIError{StatusCode: http.StatusNotFound})
	f.backend.On("GetAttendanceStats", mock.Anything, "missing").Return([]domain.AttendanceStat{}, nil)

	_, err := f.service.ResolveFields(context.Background(), "missing")

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Student not found", err.Error())
}

// =============================================================================
// Sessions
// =============================================================================

func TestDocumentService_OpenSession(t *testing.T) {
	f := newFixture(t)
	broken := domain.SignatureAsset{ID: "sig-2", Name: "Registrar", SignatureImageURL: "/files/broken.png"}
	assets := []domain.SignatureAsset{signatureAsset, broken}
	f.backend.On("ListSignatures", mock.Anything).Return(assets, nil)
	f.inliner.On("InlineAll", mock.Anything, assets).Return(map[string]domain.InlinedImage{
		"sig-1": signatureImage,
	})

	resp, err := f.service.OpenSession(context.Background(), "stu-1")
	require.NoError(t, err)

	_, parseErr := uuid.Parse(resp.SessionID)
	assert.NoError(t, parseErr)
	assert.Equal(t, []app.SignatureResponse{
		{ID: "sig-1", Name: "Director of Studies", Inlined: true},
		{ID: "sig-2", Name: "Registrar", Inlined: false},
	}, resp.Signatures)

	img, ok, err := f.cache.Get(context.Background(), resp.SessionID, "sig-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, signatureImage, img)
}

func TestDocumentService_CloseSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, "session-1", "sig-1", signatureImage))

	require.NoError(t, f.service.CloseSession(ctx, "session-1"))

	_, ok, err := f.cache.Get(ctx, "session-1", "sig-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, f.service.CloseSession(ctx, ""))
}

// =============================================================================
// Preview
// =============================================================================

func TestDocumentService_Preview(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()

	resp, err := f.service.Preview(context.Background(), app.GenerateRequest{StudentID: "stu-1", TemplateID: "tpl-1"})
	require.NoError(t, err)

	assert.Equal(t, "Invitation letter", resp.Title)
	assert.Equal(t, "invitation-letter.pdf", resp.FileName)
	assert.Equal(t,
		"Ana Silva, born 14/03/1999, is enrolled in General English.\nFees: €1500.00 (Fully Paid). {Unknown}",
		resp.Body)
	assert.Equal(t, "Issued on 02/09/2024", resp.Footer)
	assert.Equal(t, []string{"Unknown"}, resp.Unresolved)
	assert.Contains(t, resp.HTML, `id="document"`)
	assert.Contains(t, resp.HTML, "Campus Language School")
	assert.Empty(t, resp.SignatureID)
}

func TestDocumentService_Preview_CachedSignature(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()
	f.backend.On("ListSignatures", mock.Anything).Return([]domain.SignatureAsset{signatureAsset}, nil)
	require.NoError(t, f.cache.Set(context.Background(), "session-1", "sig-1", signatureImage))

	resp, err := f.service.Preview(context.Background(), app.GenerateRequest{
		StudentID: "stu-1", TemplateID: "tpl-1", SessionID: "session-1", SignatureID: "sig-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "sig-1", resp.SignatureID)
	assert.Contains(t, resp.HTML, "data:image/png;base64,c2ln")
	f.inliner.AssertNotCalled(t, "Inline", mock.Anything, mock.Anything)
}

func TestDocumentService_Preview_InlinesOnCacheMiss(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()
	f.backend.On("ListSignatures", mock.Anything).Return([]domain.SignatureAsset{signatureAsset}, nil)
	f.inliner.On("Inline", mock.Anything, signatureAsset).Return(signatureImage, true).Once()

	resp, err := f.service.Preview(context.Background(), app.GenerateRequest{
		StudentID: "stu-1", TemplateID: "tpl-1", SessionID: "session-1", SignatureID: "sig-1",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.HTML, "data:image/png;base64,c2ln")

	img, ok, err := f.cache.Get(context.Background(), "session-1", "sig-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, signatureImage, img)
}

func TestDocumentService_Preview_SignatureOmittedWhenInliningFails(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()
	f.backend.On("ListSignatures", mock.Anything).Return([]domain.SignatureAsset{signatureAsset}, nil)
	f.inliner.On("Inline", mock.Anything, signatureAsset).Return(domain.InlinedImage{}, false)

	resp, err := f.service.Preview(context.Background(), app.GenerateRequest{
		StudentID: "stu-1", TemplateID: "tpl-1", SignatureID: "sig-1",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.SignatureID)
	assert.NotContains(t, resp.HTML, "data:image")
}

func TestDocumentService_Preview_UnknownSignature(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()
	f.backend.On("ListSignatures", mock.Anything).Return([]domain.SignatureAsset{signatureAsset}, nil)

	_, err := f.service.Preview(context.Background(), app.GenerateRequest{
		StudentID: "stu-1", TemplateID: "tpl-1", SignatureID: "sig-9",
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Signature not found", err.Error())
}

// =============================================================================
// Download and send
// =============================================================================

func pdfResult() *printing.RenderResult {
	return &printing.RenderResult{PDFData: []byte("%PDF-1.3 test"), PageCount: 1}
}

func TestDocumentService_Download_NamedLikeTemplateList(t *testing.T) {
	f := newFixture(t)
	tmpl := domain.DocumentTemplate{ID: "tpl-3", Title: "Letter for {Name}", Body: "Dear {Name}"}
	f.backend.On("GetStudent", mock.Anything, "stu-1").Return(studentRecord(), nil)
	f.backend.On("GetAttendanceStats", mock.Anything, "stu-1").Return([]domain.AttendanceStat{}, nil)
	f.backend.On("GetTemplate", mock.Anything, "tpl-3").Return(tmpl, nil)
	f.backend.On("ListTemplates", mock.Anything).Return([]domain.DocumentTemplate{tmpl}, nil)
	f.renderer.On("Render", mock.Anything, mock.MatchedBy(func(req *printing.RenderRequest) bool {
		return req.Title == "Letter for Ana Silva"
	})).Return(pdfResult(), nil)

	items, err := f.service.ListTemplates(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	pdf, err := f.service.Download(context.Background(), app.GenerateRequest{StudentID: "stu-1", TemplateID: "tpl-3"})
	require.NoError(t, err)

	assert.Equal(t, "letter-for-name.pdf", items[0].FileName)
	assert.Equal(t, items[0].FileName, pdf.FileName)
}

func TestDocumentService_Download(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()
	f.renderer.On("Render", mock.Anything, mock.MatchedBy(func(req *printing.RenderRequest) bool {
		return req.Title == "Invitation letter" && req.PaperSize == domain.PaperSizeA4 && req.Margins == domain.DefaultMargins()
	})).Return(pdfResult(), nil)

	pdf, err := f.service.Download(context.Background(), app.GenerateRequest{
		StudentID: "stu-1", TemplateID: "tpl-1", RequestedBy: "registrar",
	})
	require.NoError(t, err)

	assert.Equal(t, "invitation-letter.pdf", pdf.FileName)
	assert.Equal(t, []byte("%PDF-1.3 test"), pdf.Data)
	assert.Equal(t, 1, pdf.PageCount)

	job := f.jobs.only(t)
	assert.Equal(t, pdf.JobID, job.ID.String())
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, domain.DeliveryDownload, job.Delivery)
	assert.Equal(t, "Ana Silva", job.StudentName)
	assert.Equal(t, "Invitation letter", job.TemplateTitle)
	assert.Equal(t, "registrar", job.RequestedBy)
	assert.Equal(t, len(pdf.Data), job.ByteSize)
	assert.NotNil(t, job.CompletedAt)
}

func TestDocumentService_Download_RenderFailure(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()
	f.renderer.On("Render", mock.Anything, mock.Anything).
		Return(nil, printing.NewRenderError(printing.ErrCodeRenderTimeout, "capture timed out", context.DeadlineExceeded))

	pdf, err := f.service.Download(context.Background(), app.GenerateRequest{StudentID: "stu-1", TemplateID: "tpl-1"})

	assert.Nil(t, pdf)
	assert.ErrorIs(t, err, shared.ErrGenerateFailed)
	var renderErr *printing.RenderError
	assert.True(t, errors.As(err, &renderErr))

	job := f.jobs.only(t)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)
}

func TestDocumentService_Download_TemplateNotFound(t *testing.T) {
	f := newFixture(t)
	f.backend.On("GetStudent", mock.Anything, "stu-1").Return(studentRecord(), nil)
	f.backend.On("GetAttendanceStats", mock.Anything, "stu-1").Return([]domain.AttendanceStat{}, nil)
	f.backend.On("GetTemplate", mock.Anything, "tpl-9").Return(domain.DocumentTemplate{}, &backend.APIError{StatusCode: http.StatusNotFound})

	_, err := f.service.Download(context.Background(), app.GenerateRequest{StudentID: "stu-1", TemplateID: "tpl-9"})

	assert.ErrorIs(t, err, shared.ErrNotFound)
	job := f.jobs.only(t)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, "Template not found", job.ErrorMessage)
	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestDocumentService_Download_JobSaveFailure(t *testing.T) {
	f := newFixture(t)
	f.jobs.err = errors.New("database is locked")

	_, err := f.service.Download(context.Background(), app.GenerateRequest{StudentID: "stu-1", TemplateID: "tpl-1"})

	assert.ErrorContains(t, err, "failed to save document job")
	f.backend.AssertNotCalled(t, "GetTemplate", mock.Anything, mock.Anything)
}

func TestDocumentService_Send(t *testing.T) {
	f := newFixture(t)
	f.expectProfile()
	f.renderer.On("Render", mock.Anything, mock.Anything).Return(pdfResult(), nil)
	f.backend.On("SendDocument", mock.Anything, backend.SendRequest{
		File:        []byte("%PDF-1.3 test"),
		FileName:    "invitation-letter.pdf",
		FileType:    "pdf",
		Folder:      "documents",
		StudentName: "Ana Silva",
		StudentID:   "stu-1",
	}).Return("Document sent successfully", nil)

	resp, err := f.service.Send(context.Background(), app.GenerateRequest{StudentID: "stu-1", TemplateID: "tpl-1"})
	require.NoError(t, err)

	assert.Equal(t, "Document sent successfully", resp.Message)
	assert.Equal(t, "invitation-letter.pdf", resp.FileName)

	job := f.jobs.only(t)
	assert.Equal(t, resp.JobID, job.ID.String())
	assert.Equal(t, domain.DeliveryEmail, job.Delivery)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	f.backend.AssertExpectations(t)
}

func TestDocumentService_Send_DeliveryFailure(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		message string
	}{
		{
			name:    "server message is kept",
			sendErr: &backend.APIError{StatusCode: http.StatusOK, Message: "Student has no email address"},
			message: "Student has no email address",
		},
		{
			name:    "generic message without one",
			sendErr: errors.New("connection refused"),
			message: shared.ErrDeliveryFailed.Message,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectProfile()
			f.renderer.On("Render", mock.Anything, mock.Anything).Return(pdfResult(), nil)
			f.backend.On("SendDocument", mock.Anything, mock.Anything).Return("", tt.sendErr)

			resp, err := f.service.Send(context.Background(), app.GenerateRequest{StudentID: "stu-1", TemplateID: "tpl-1"})

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, shared.ErrDeliveryFailed)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.message, de.Message)

			job := f.jobs.only(t)
			assert.Equal(t, domain.JobStatusFailed, job.Status)
			assert.Equal(t, tt.message, job.ErrorMessage)
		})
	}
}

// =============================================================================
// Job history
// =============================================================================

func TestDocumentService_ListJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, student := range []string{"stu-1", "stu-1", "stu-2"} {
		job, err := domain.NewDocumentJob(student, "tpl-1", domain.DeliveryDownload)
		require.NoError(t, err)
		require.NoError(t, f.jobs.Save(ctx, job))
	}

	resp, err := f.service.ListJobs(ctx, app.ListJobsRequest{StudentID: "stu-1"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Size)
	for _, item := range resp.Items {
		assert.Equal(t, "stu-1", item.StudentID)
		assert.Equal(t, "PENDING", item.Status)
	}
}

func TestDocumentService_ListJobs_InvalidStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ListJobs(context.Background(), app.ListJobsRequest{Status: "ARCHIVED"})

	assert.Error(t, err)
}
