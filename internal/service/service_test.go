package service

import (
	"context"
	"io"
	"testing"
	"time"

	"alcyxob/material-approval/internal/kv"
	"alcyxob/material-approval/internal/repository"
	"alcyxob/material-approval/internal/session"
	"alcyxob/material-approval/internal/storage"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	slots    *kv.MemoryStore
	sessions *session.Store
	repo     *repository.MaterialRepository
	auth     AuthService
	material *materialService
	recorder *countingRecorder
}

type countingRecorder struct {
	transitions map[string]int
	uploadsOK   int
	uploadsFail int
	pending     int
}

func (r *countingRecorder) RecordTransition(status string, pending int) {
	r.transitions[status]++
	r.pending = pending
}

func (r *countingRecorder) RecordUpload(ok bool, pending int) {
	if ok {
		r.uploadsOK++
		r.pending = pending
	} else {
		r.uploadsFail++
	}
}

func newFixture(t *testing.T, files storage.FileStorage, opts ...repository.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	log := quietLogger()

	slots := kv.NewMemoryStore()
	opts = append([]repository.Option{repository.WithLogger(log)}, opts...)
	repo, err := repository.NewMaterialRepository(ctx, slots, opts...)
	if err != nil {
		t.Fatalf("NewMaterialRepository: %v", err)
	}

	sessions := session.NewStore(slots, log)
	auth, err := NewAuthService(sessions, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	if files == nil {
		files = storage.NewDataURLStorage()
	}
	rec := &countingRecorder{transitions: map[string]int{}}
	svc := NewMaterialService(repo, files, MaterialServiceConfig{MaxUploadBytes: 1024}, rec, log).(*materialService)

	return &fixture{
		slots:    slots,
		sessions: sessions,
		repo:     repo,
		auth:     auth,
		material: svc,
		recorder: rec,
	}
}
