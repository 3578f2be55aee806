package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/repository"
	"alcyxob/material-approval/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UnknownUploader is recorded when an upload arrives without a display name.
const UnknownUploader = "未知用户"

var (
	ErrValidation       = errors.New("validation failed")
	ErrMaterialNotFound = errors.New("material not found")
)

// ValidationError describes an upload rejected before it reaches the repository.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// UploadInput is one material upload as received from a client.
type UploadInput struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	Data        []byte
	Uploader    string
}

// Recorder receives workflow events, typically for metrics.
type Recorder interface {
	RecordTransition(status string, pending int)
	RecordUpload(ok bool, pending int)
}

type noopRecorder struct{}

func (noopRecorder) RecordTransition(string, int) {}
func (noopRecorder) RecordUpload(bool, int)       {}

type MaterialService interface {
	List(statuses ...domain.Status) []domain.Material
	Get(id int) (*domain.Material, error)
	PendingCount() int
	Stats() domain.Stats
	SearchPublished(term string) []domain.Material

	Upload(ctx context.Context, in UploadInput) (*domain.Material, error)
	Approve(ctx context.Context, id int, reviewer domain.User) (*domain.Material, error)
	Reject(ctx context.Context, id int, reviewer domain.User) (*domain.Material, error)
	Publish(ctx context.Context, id int) (*domain.Material, error)
	Transition(ctx context.Context, id int, status domain.Status, reviewer domain.User) (*domain.Material, error)
}

// MaterialServiceConfig holds the tunables of the upload path.
type MaterialServiceConfig struct {
	MaxUploadBytes int64
	UploadDelay    time.Duration
	// StatsLocation decides which calendar day an upload is counted on.
	// Nil means UTC.
	StatsLocation *time.Location
}

type materialService struct {
	repo     repository.MaterialStore
	files    storage.FileStorage
	cfg      MaterialServiceConfig
	recorder Recorder
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewMaterialService wires the repository and file storage. recorder may be nil.
func NewMaterialService(repo repository.MaterialStore, files storage.FileStorage, cfg MaterialServiceConfig, recorder Recorder, log logrus.FieldLogger) MaterialService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &materialService{
		repo:     repo,
		files:    files,
		cfg:      cfg,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// List returns every material when no status is given, otherwise those in
// any of the given statuses.
func (s *materialService) List(statuses ...domain.Status) []domain.Material {
	if len(statuses) == 0 {
		return s.repo.GetAll()
	}
	return s.repo.GetByStatus(statuses...)
}

func (s *materialService) Get(id int) (*domain.Material, error) {
	m, ok := s.repo.GetByID(id)
	if !ok {
		return nil, ErrMaterialNotFound
	}
	return m, nil
}

func (s *materialService) PendingCount() int {
	return s.repo.PendingCount()
}

// Stats summarizes the collection per status and per upload day in the
// configured location.
func (s *materialService) Stats() domain.Stats {
	loc := s.cfg.StatsLocation
	if loc == nil {
		loc = time.UTC
	}
	all := s.repo.GetAll()
	stats := domain.Stats{Total: len(all), Daily: []domain.DailyCounts{}}

	byDay := make(map[string]*domain.DailyCounts)
	for _, m := range all {
		stats.Add(m.Status)

		day := m.UploadDate.In(loc).Format("2006-01-02")
		dc, ok := byDay[day]
		if !ok {
			dc = &domain.DailyCounts{Date: day}
			byDay[day] = dc
		}
		dc.Add(m.Status)
	}

	for _, dc := range byDay {
		stats.Daily = append(stats.Daily, *dc)
	}
	sort.Slice(stats.Daily, func(i, j int) bool { return stats.Daily[i].Date < stats.Daily[j].Date })
	return stats
}

// SearchPublished filters published materials by a case-insensitive title match.
func (s *materialService) SearchPublished(term string) []domain.Material {
	published := s.repo.GetByStatus(domain.StatusPublished)
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return published
	}
	out := []domain.Material{}
	for _, m := range published {
		if strings.Contains(strings.ToLower(m.Title), term) {
			out = append(out, m)
		}
	}
	return out
}

func (s *materialService) validateUpload(in UploadInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(in.Data) == 0 {
		return &ValidationError{Field: "file", Message: "file is required"}
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return &ValidationError{Field: "file", Message: "file must be an image"}
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(in.Data)) > s.cfg.MaxUploadBytes {
		return &ValidationError{Field: "file", Message: fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes)}
	}
	return nil
}

// Upload validates the input, stores the file and creates a pending material.
func (s *materialService) Upload(ctx context.Context, in UploadInput) (*domain.Material, error) {
	if err := s.validateUpload(in); err != nil {
		s.recorder.RecordUpload(false, 0)
		return nil, err
	}

	if s.cfg.UploadDelay > 0 {
		select {
		case <-time.After(s.cfg.UploadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	objectKey := "materials/" + uuid.NewString() + strings.ToLower(path.Ext(in.FileName))
	url, err := s.files.PutObject(ctx, objectKey, in.ContentType, in.Data)
	if err != nil {
		s.recorder.RecordUpload(false, 0)
		return nil, fmt.Errorf("store file: %w", err)
	}

	uploader := strings.TrimSpace(in.Uploader)
	if uploader == "" {
		uploader = UnknownUploader
	}

	m, err := s.repo.Create(ctx, domain.MaterialDraft{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		PreviewURL:  url,
		OriginalURL: url,
		UploadDate:  s.now().UTC().Truncate(time.Millisecond),
		Uploader:    uploader,
	})
	if err != nil {
		if delErr := s.files.DeleteObject(ctx, objectKey); delErr != nil {
			s.log.WithError(delErr).WithField("key", objectKey).Warn("orphaned upload after failed create")
		}
		s.recorder.RecordUpload(false, 0)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"id": m.ID, "uploader": m.Uploader}).Info("material uploaded")
	s.recorder.RecordUpload(true, s.repo.PendingCount())
	return m, nil
}

func (s *materialService) Approve(ctx context.Context, id int, reviewer domain.User) (*domain.Material, error) {
	return s.update(ctx, id, domain.StatusApproved, reviewer.Name)
}

func (s *materialService) Reject(ctx context.Context, id int, reviewer domain.User) (*domain.Material, error) {
	return s.update(ctx, id, domain.StatusRejected, reviewer.Name)
}

// Publish makes an approved material public. The approver is left as is.
func (s *materialService) Publish(ctx context.Context, id int) (*domain.Material, error) {
	return s.update(ctx, id, domain.StatusPublished, "")
}

// Transition is the generic status change. The reviewer is recorded as
// approver only for review decisions, matching Approve and Reject.
func (s *materialService) Transition(ctx context.Context, id int, status domain.Status, reviewer domain.User) (*domain.Material, error) {
	switch status {
	case domain.StatusApproved, domain.StatusRejected:
		return s.update(ctx, id, status, reviewer.Name)
	default:
		return s.update(ctx, id, status, "")
	}
}

func (s *materialService) update(ctx context.Context, id int, status domain.Status, approver string) (*domain.Material, error) {
	m, err := s.repo.UpdateStatus(ctx, id, status, approver)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMaterialNotFound
	}

	s.log.WithFields(logrus.Fields{"id": id, "status": status, "approver": approver}).Info("material status changed")
	s.recorder.RecordTransition(string(status), s.repo.PendingCount())
	return m, nil
}
