package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/jobs"
	"github.com/noah-isme/uni-adp-api/pkg/storage"
)

const (
	jobTypeArchive = "archive"
	jobTypeCleanup = "cleanup"

	archiveRetention = 30 * 24 * time.Hour
)

type archivePayload struct {
	Filename string
	Data     []byte
}

// ExportService archives rendered transcripts and grade sheets in the
// background and issues signed tokens to re-download them later. All
// methods are safe on a nil receiver so exports can be disabled entirely.
type ExportService struct {
	archive *storage.LocalArchive
	signer  *storage.DownloadSigner
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewExportService constructs the service and its worker queue. Call Start
// before archiving and Stop on shutdown.
func NewExportService(archive *storage.LocalArchive, signer *storage.DownloadSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		archive: archive,
		signer:  signer,
		logger:  logger,
	}
	s.queue = jobs.NewQueue("exports", s.handleJob, jobs.QueueConfig{
		Workers: 2,
		Logger:  logger,
	})
	return s
}

// Start launches the archive workers.
func (s *ExportService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the archive workers.
func (s *ExportService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Archive queues a rendered export for background persistence. Failures
// are logged; the caller already holds the rendered bytes.
func (s *ExportService) Archive(filename string, data []byte) {
	if s == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeArchive,
		Payload: archivePayload{Filename: filename, Data: data},
	})
	if err != nil {
		s.logger.Warn("failed to queue export archive", zap.String("filename", filename), zap.Error(err))
	}
}

// ScheduleCleanup queues a sweep of archived files past the retention window.
func (s *ExportService) ScheduleCleanup() {
	if s == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: jobTypeCleanup,
	})
	if err != nil {
		s.logger.Warn("failed to queue archive cleanup", zap.Error(err))
	}
}

// SignDownload returns a signed re-download token for an archived file.
func (s *ExportService) SignDownload(filename string) (string, error) {
	if s == nil || s.signer == nil {
		return "", nil
	}
	token, _, err := s.signer.Generate(filename)
	return token, err
}

// Download validates the token and loads the archived file.
func (s *ExportService) Download(token string) (*ExportResult, error) {
	if s == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export downloads are not enabled")
	}
	filename, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	data, err := s.archive.Read(filename)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived export not found")
	}
	return &ExportResult{
		Filename:    filename,
		ContentType: contentTypeFor(filename),
		Data:        data,
	}, nil
}

func (s *ExportService) handleJob(_ context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeArchive:
		payload, ok := job.Payload.(archivePayload)
		if !ok {
			return fmt.Errorf("unexpected archive payload %T", job.Payload)
		}
		_, err := s.archive.Save(payload.Filename, payload.Data)
		return err
	case jobTypeCleanup:
		deleted, err := s.archive.CleanupOlderThan(archiveRetention)
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			s.logger.Info("archived exports removed", zap.Int("count", len(deleted)))
		}
		return nil
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func contentTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
