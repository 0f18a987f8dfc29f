package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/eventconfig"
	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/export"
	"github.com/eventide/conreg-api/pkg/jobs"
	"github.com/eventide/conreg-api/pkg/storage"
)

// ReportRepository persists report job state.
type ReportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id string, cause error) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

// ReportService generates badge count reports asynchronously. A request
// enqueues a job; a worker renders the counts per badge type to CSV or PDF
// and stores the file for signed download.
type ReportService struct {
	repo   ReportRepository
	event  *eventconfig.Event
	counts eventconfig.CountSource
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	logger *zap.Logger

	csv *export.CSVExporter
	pdf *export.PDFExporter

	queue *jobs.Queue
}

type ReportQueueConfig struct {
	Workers    int
	MaxRetries int
}

func NewReportService(repo ReportRepository, event *eventconfig.Event, counts eventconfig.CountSource,
	store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, qc ReportQueueConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		repo:   repo,
		event:  event,
		counts: counts,
		store:  store,
		signer: signer,
		logger: logger,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
	}
	s.queue = jobs.NewQueue("badge-reports", s.process, jobs.QueueConfig{
		Workers:    qc.Workers,
		MaxRetries: qc.MaxRetries,
		Logger:     logger,
	})
	return s
}

func (s *ReportService) Start(ctx context.Context) { s.queue.Start(ctx) }
func (s *ReportService) Stop()                     { s.queue.Stop() }

// Enqueue records a new report job and hands it to the worker pool.
func (s *ReportService) Enqueue(ctx context.Context, claims *models.JWTClaims, req dto.CreateReportRequest) (*dto.ReportResponse, error) {
	format := models.ReportFormat(strings.ToUpper(req.Format))
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, errors.Clone(errors.ErrValidation, "format must be CSV or PDF")
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Format:      format,
		Status:      models.ReportStatusQueued,
		RequestedBy: claims.AccountID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "badge-report", Payload: job.ID}); err != nil {
		_ = s.repo.MarkFailed(ctx, job.ID, err)
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not enqueue report job")
	}
	return s.toResponse(job), nil
}

// Get returns job state, including a signed download link once completed.
func (s *ReportService) Get(ctx context.Context, id string) (*dto.ReportResponse, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not load report job")
	}
	return s.toResponse(job), nil
}

// ResolveDownload validates a signed token and returns the absolute file
// path to serve.
func (s *ReportService) ResolveDownload(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", errors.Clone(errors.ErrForbidden, "invalid or expired download link")
	}
	return s.store.Path(relPath), nil
}

// Cleanup drops finished jobs past the cutoff and their stored files.
func (s *ReportService) Cleanup(ctx context.Context, cutoff time.Time) error {
	paths, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.store.Delete(p); err != nil {
			s.logger.Warn("report file cleanup failed", zap.String("path", p), zap.Error(err))
		}
	}
	return nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	id, _ := job.Payload.(string)
	if id == "" {
		id = job.ID
	}
	if err := s.repo.MarkProcessing(ctx, id); err != nil {
		return err
	}

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	data, err := s.gather(ctx)
	if err != nil {
		_ = s.repo.MarkFailed(ctx, id, err)
		return err
	}

	var rendered []byte
	var ext string
	switch rec.Format {
	case models.ReportFormatPDF:
		rendered, err = s.pdf.Render(data, s.event.EventNameAndYear+" badge counts")
		ext = "pdf"
	default:
		rendered, err = s.csv.Render(data)
		ext = "csv"
	}
	if err != nil {
		_ = s.repo.MarkFailed(ctx, id, err)
		return err
	}

	relPath, err := s.store.Save(fmt.Sprintf("reports/%s.%s", id, ext), rendered)
	if err != nil {
		_ = s.repo.MarkFailed(ctx, id, err)
		return err
	}

	if err := s.repo.MarkCompleted(ctx, id, relPath); err != nil {
		return err
	}
	s.logger.Info("badge report completed", zap.String("job_id", id), zap.String("path", relPath))
	return nil
}

// gather reads the per-type counts through the same source the derived
// settings use, so reports agree with what registration shows.
func (s *ReportService) gather(ctx context.Context) (export.Dataset, error) {
	data := export.Dataset{Headers: []string{"Badge Type", "Sold"}}

	types := make([]int, 0, len(s.event.Badges))
	for val := range s.event.Badges {
		types = append(types, val)
	}
	sort.Slice(types, func(i, j int) bool {
		return s.event.Badges[types[i]] < s.event.Badges[types[j]]
	})

	for _, val := range types {
		n, err := s.counts.BadgeCountByType(ctx, val)
		if err != nil {
			return export.Dataset{}, err
		}
		data.Rows = append(data.Rows, map[string]string{
			"Badge Type": s.event.Badges[val],
			"Sold":       strconv.Itoa(n),
		})
	}

	total, err := s.counts.BadgesSold(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	data.Rows = append(data.Rows, map[string]string{
		"Badge Type": "Total",
		"Sold":       strconv.Itoa(total),
	})
	return data, nil
}

func (s *ReportService) toResponse(job *models.ReportJob) *dto.ReportResponse {
	resp := &dto.ReportResponse{
		ID:          job.ID,
		Format:      string(job.Format),
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Error != nil {
		resp.Error = *job.Error
	}
	if job.Status == models.ReportStatusCompleted && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("could not sign download link", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			resp.DownloadURL = "/api/v1/reports/download?token=" + token
		}
	}
	return resp
}
