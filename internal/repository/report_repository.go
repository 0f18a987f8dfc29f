package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventide/conreg-api/internal/models"
)

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	query := `INSERT INTO report_jobs (id, requested_by, format, status, created_at)
		VALUES (:id, :requested_by, :format, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	query := `SELECT id, requested_by, format, status, file_path, error, created_at, completed_at
		FROM report_jobs WHERE id = $1`
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report job: %w", err)
	}
	return &job, nil
}

func (r *ReportRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.ReportStatusProcessing, "", "")
}

func (r *ReportRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	return r.setStatus(ctx, id, models.ReportStatusCompleted, filePath, "")
}

func (r *ReportRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.setStatus(ctx, id, models.ReportStatusFailed, "", msg)
}

func (r *ReportRepository) setStatus(ctx context.Context, id string, status models.ReportStatus, filePath, errMsg string) error {
	var completedAt *time.Time
	if status == models.ReportStatusCompleted || status == models.ReportStatusFailed {
		now := time.Now().UTC()
		completedAt = &now
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE report_jobs
		 SET status = $1, file_path = NULLIF($2, ''), error = NULLIF($3, ''), completed_at = $4
		 WHERE id = $5`,
		status, filePath, errMsg, completedAt, id)
	if err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// DeleteOlderThan removes finished jobs past the retention window, returning
// the file paths so the caller can clean up storage.
func (r *ReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	paths := []string{}
	err := r.db.SelectContext(ctx, &paths,
		`DELETE FROM report_jobs
		 WHERE created_at < $1 AND status IN ($2, $3)
		 RETURNING COALESCE(file_path, '')`,
		cutoff, models.ReportStatusCompleted, models.ReportStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("delete old report jobs: %w", err)
	}
	return paths, nil
}
