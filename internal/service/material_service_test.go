package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/repository"
)

var reviewer = domain.User{ID: 2, Name: "审批人", Username: "approver", Role: domain.RoleApprover}

type recordingStorage struct {
	puts    []string
	deletes []string
	failPut bool
}

func (s *recordingStorage) PutObject(_ context.Context, key, _ string, _ []byte) (string, error) {
	if s.failPut {
		return "", errors.New("bucket unavailable")
	}
	s.puts = append(s.puts, key)
	return "https://cdn.example.com/" + key, nil
}

func (s *recordingStorage) DeleteObject(_ context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return nil
}

func TestUploadValidation(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	tests := []struct {
		name  string
		in    UploadInput
		field string
	}{
		{name: "missing title", in: UploadInput{Title: "  ", ContentType: "image/png", Data: png}, field: "title"},
		{name: "missing file", in: UploadInput{Title: "海报", ContentType: "image/png"}, field: "file"},
		{name: "not an image", in: UploadInput{Title: "海报", ContentType: "application/pdf", Data: png}, field: "file"},
		{name: "too large", in: UploadInput{Title: "海报", ContentType: "image/png", Data: make([]byte, 2048)}, field: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := &recordingStorage{}
			f := newFixture(t, files)

			_, err := f.material.Upload(context.Background(), tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("field = %q, want %q", vErr.Field, tt.field)
			}
			if len(files.puts) != 0 {
				t.Error("file stored despite validation failure")
			}
			if got := len(f.repo.GetAll()); got != 5 {
				t.Errorf("repository touched: %d records", got)
			}
		})
	}
}

func TestUploadCreatesPendingMaterial(t *testing.T) {
	files := &recordingStorage{}
	f := newFixture(t, files)
	f.material.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }

	m, err := f.material.Upload(context.Background(), UploadInput{
		Title:       " 新品海报 ",
		Description: "春季",
		FileName:    "poster.PNG",
		ContentType: "image/png",
		Data:        []byte("png"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if m.ID != 6 || m.Status != domain.StatusPending {
		t.Errorf("id=%d status=%s", m.ID, m.Status)
	}
	if m.Title != "新品海报" || m.Uploader != UnknownUploader {
		t.Errorf("title=%q uploader=%q", m.Title, m.Uploader)
	}
	if len(files.puts) != 1 || !strings.HasSuffix(files.puts[0], ".png") {
		t.Fatalf("puts = %v", files.puts)
	}
	if m.PreviewURL != m.OriginalURL || !strings.HasSuffix(m.OriginalURL, files.puts[0]) {
		t.Errorf("urls = %q / %q", m.PreviewURL, m.OriginalURL)
	}
	if !m.UploadDate.Equal(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Errorf("UploadDate = %v", m.UploadDate)
	}
	if f.recorder.uploadsOK != 1 || f.recorder.pending != 3 {
		t.Errorf("recorder = %+v", f.recorder)
	}
}

func TestUploadDataURLStorage(t *testing.T) {
	f := newFixture(t, nil)
	m, err := f.material.Upload(context.Background(), UploadInput{
		Title:       "图",
		ContentType: "image/gif",
		Data:        []byte("GIF89a"),
		Uploader:    "普通用户",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(m.PreviewURL, "data:image/gif;base64,") {
		t.Errorf("PreviewURL = %q", m.PreviewURL)
	}
}

func TestUploadStorageFailure(t *testing.T) {
	f := newFixture(t, &recordingStorage{failPut: true})
	_, err := f.material.Upload(context.Background(), UploadInput{Title: "x", ContentType: "image/png", Data: []byte("x")})
	if err == nil {
		t.Fatal("expected storage error")
	}
	if got := len(f.repo.GetAll()); got != 5 {
		t.Errorf("material created despite storage failure: %d", got)
	}
}

func TestUploadDelayHonorsContext(t *testing.T) {
	f := newFixture(t, nil)
	f.material.cfg.UploadDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.material.Upload(ctx, UploadInput{Title: "x", ContentType: "image/png", Data: []byte("x")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestReviewActions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	approved, err := f.material.Approve(ctx, 1, reviewer)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != domain.StatusApproved || approved.Approver != reviewer.Name || approved.ApprovalDate == nil {
		t.Errorf("approved = %+v", approved)
	}

	rejected, err := f.material.Reject(ctx, 5, reviewer)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != domain.StatusRejected || rejected.Approver != reviewer.Name {
		t.Errorf("rejected = %+v", rejected)
	}

	published, err := f.material.Publish(ctx, 2)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published.Status != domain.StatusPublished || published.Approver != "王经理" {
		t.Errorf("publish must keep the original approver: %+v", published)
	}

	if f.material.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", f.material.PendingCount())
	}
	if f.recorder.transitions["approved"] != 1 || f.recorder.transitions["published"] != 1 || f.recorder.pending != 0 {
		t.Errorf("recorder = %+v", f.recorder)
	}
}

func TestReviewMissingMaterial(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.material.Approve(context.Background(), 999, reviewer); !errors.Is(err, ErrMaterialNotFound) {
		t.Errorf("err = %v, want ErrMaterialNotFound", err)
	}
	if _, err := f.material.Get(999); !errors.Is(err, ErrMaterialNotFound) {
		t.Errorf("Get err = %v, want ErrMaterialNotFound", err)
	}
}

func TestTransitionStrict(t *testing.T) {
	f := newFixture(t, nil, repository.WithTransitionGuard())
	ctx := context.Background()

	if _, err := f.material.Transition(ctx, 3, domain.StatusPublished, reviewer); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Errorf("rejected -> published err = %v, want ErrInvalidTransition", err)
	}
	m, err := f.material.Transition(ctx, 1, domain.StatusRejected, reviewer)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if m.Approver != reviewer.Name {
		t.Errorf("Approver = %q", m.Approver)
	}
}

func TestListAndSearch(t *testing.T) {
	f := newFixture(t, nil)

	if got := len(f.material.List()); got != 5 {
		t.Errorf("List() = %d, want 5", got)
	}
	if got := len(f.material.List(domain.StatusPending, domain.StatusApproved, domain.StatusRejected)); got != 4 {
		t.Errorf("List(review statuses) = %d, want 4", got)
	}

	if got := f.material.SearchPublished(""); len(got) != 1 {
		t.Errorf("SearchPublished(\"\") = %d, want 1", len(got))
	}
	if got := f.material.SearchPublished("广告"); len(got) != 1 || got[0].ID != 4 {
		t.Errorf("SearchPublished(广告) = %+v", got)
	}
	if got := f.material.SearchPublished("海报"); len(got) != 0 {
		t.Errorf("unpublished material matched: %+v", got)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	stats := f.material.Stats()

	if stats.Total != 5 || stats.Pending != 2 || stats.Approved != 1 || stats.Rejected != 1 || stats.Published != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Daily) != 5 {
		t.Fatalf("daily buckets = %d, want 5", len(stats.Daily))
	}
	if stats.Daily[0].Date != "2023-10-05" || stats.Daily[0].Pending != 1 {
		t.Errorf("first bucket = %+v", stats.Daily[0])
	}
	if stats.Daily[4].Date != "2023-10-15" {
		t.Errorf("last bucket = %+v", stats.Daily[4])
	}
}

func TestStatsBucketsByConfiguredLocation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// 20:00Z on the 1st is already the 2nd in UTC+8.
	f.material.now = func() time.Time { return time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC) }
	if _, err := f.material.Upload(ctx, UploadInput{Title: "夜间上传", ContentType: "image/png", Data: []byte("png")}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	dayOf := func(stats []domain.DailyCounts, date string) bool {
		for _, d := range stats {
			if d.Date == date {
				return true
			}
		}
		return false
	}

	if daily := f.material.Stats().Daily; !dayOf(daily, "2024-06-01") || dayOf(daily, "2024-06-02") {
		t.Errorf("UTC buckets = %+v, want upload on 2024-06-01", daily)
	}

	f.material.cfg.StatsLocation = time.FixedZone("CST", 8*60*60)
	if daily := f.material.Stats().Daily; !dayOf(daily, "2024-06-02") || dayOf(daily, "2024-06-01") {
		t.Errorf("UTC+8 buckets = %+v, want upload on 2024-06-02", daily)
	}
}
