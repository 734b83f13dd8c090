package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campus/docgen/internal/domain/document"
	"github.com/campus/docgen/internal/domain/shared"
	"github.com/campus/docgen/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDocumentJobTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DocumentJobModel{}))
	return db
}

func newJob(t *testing.T, studentID string, delivery document.Delivery) *document.DocumentJob {
	t.Helper()
	job, err := document.NewDocumentJob(studentID, "tpl-1", delivery)
	require.NoError(t, err)
	job.Describe("Ana Silva", "Invitation letter", "sig-1")
	return job
}

func TestGormDocumentJobRepository_SaveAndFind(t *testing.T) {
	db := setupDocumentJobTestDB(t)
	repo := NewGormDocumentJobRepository(db)
	ctx := context.Background()

	job := newJob(t, "s-1", document.DeliveryDownload)
	require.NoError(t, repo.Save(ctx, job))

	require.NoError(t, job.StartRendering())
	require.NoError(t, job.Complete("invitation-letter.pdf", 2048))
	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, document.JobStatusCompleted, found.Status)
	assert.Equal(t, "invitation-letter.pdf", found.FileName)
	assert.Equal(t, 2048, found.ByteSize)
	assert.Equal(t, "Invitation letter", found.TemplateTitle)
	assert.Equal(t, "sig-1", found.SignatureID)
	require.NotNil(t, found.CompletedAt)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormDocumentJobRepository_FindAll(t *testing.T) {
	db := setupDocumentJobTestDB(t)
	repo := NewGormDocumentJobRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		student := "s-1"
		delivery := document.DeliveryDownload
		if i%2 == 1 {
			student = "s-2"
			delivery = document.DeliveryEmail
		}
		job := newJob(t, student, delivery)
		job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		job.TemplateID = fmt.Sprintf("tpl-%d", i)
		if i == 4 {
			require.NoError(t, job.Fail("render timeout"))
		}
		require.NoError(t, repo.Save(ctx, job))
	}

	t.Run("newest first with total", func(t *testing.T) {
		jobs, total, err := repo.FindAll(ctx, document.JobFilter{PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, jobs, 2)
		assert.Equal(t, "tpl-4", jobs[0].TemplateID)
		assert.Equal(t, "tpl-3", jobs[1].TemplateID)
	})

	t.Run("second page", func(t *testing.T) {
		jobs, _, err := repo.FindAll(ctx, document.JobFilter{Page: 3, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "tpl-0", jobs[0].TemplateID)
	})

	t.Run("by student", func(t *testing.T) {
		jobs, total, err := repo.FindAll(ctx, document.JobFilter{StudentID: "s-2"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, j := range jobs {
			assert.Equal(t, document.DeliveryEmail, j.Delivery)
		}
	})

	t.Run("by status and delivery", func(t *testing.T) {
		jobs, total, err := repo.FindAll(ctx, document.JobFilter{Status: document.JobStatusFailed, Delivery: document.DeliveryDownload})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, jobs, 1)
		assert.Equal(t, "render timeout", jobs[0].ErrorMessage)
	})
}

func TestGormDocumentJobRepository_DatabaseError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	repo := NewGormDocumentJobRepository(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "document_jobs" WHERE student_id = \$1`).
		WithArgs("s-1").
		WillReturnError(fmt.Errorf("connection reset"))

	_, _, err = repo.FindAll(context.Background(), document.JobFilter{StudentID: "s-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
