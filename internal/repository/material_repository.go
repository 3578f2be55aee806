package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/kv"

	"github.com/sirupsen/logrus"
)

// MaterialsSlot is the kv slot holding the whole material collection.
const MaterialsSlot = "approval_system_materials"

// allowedTransitions is the workflow the review screens expose.
var allowedTransitions = map[domain.Status][]domain.Status{
	domain.StatusPending:  {domain.StatusApproved, domain.StatusRejected},
	domain.StatusApproved: {domain.StatusPublished},
}

// TransitionAllowed reports whether from -> to is part of the review workflow.
func TransitionAllowed(from, to domain.Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Option configures a MaterialRepository.
type Option func(*MaterialRepository)

// WithClock overrides the time source used for approval dates.
func WithClock(now func() time.Time) Option {
	return func(r *MaterialRepository) { r.now = now }
}

// WithTransitionGuard makes UpdateStatus reject moves outside the review
// workflow with ErrInvalidTransition. Without it every overwrite is accepted.
func WithTransitionGuard() Option {
	return func(r *MaterialRepository) { r.strict = true }
}

// WithLogger sets the logger used for recovery warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *MaterialRepository) { r.log = log }
}

// MaterialRepository owns the canonical material collection. Every read
// returns copies; the only way to change a record is UpdateStatus.
//
// The collection is written back as one JSON array after each mutation.
// Two processes sharing the same slot overwrite each other's snapshot.
type MaterialRepository struct {
	mu        sync.RWMutex
	store     kv.Store
	materials []domain.Material
	now       func() time.Time
	strict    bool
	log       logrus.FieldLogger
}

// NewMaterialRepository loads the collection from store. A missing slot is
// seeded; an unreadable one is reset to the seed and rewritten.
func NewMaterialRepository(ctx context.Context, store kv.Store, opts ...Option) (*MaterialRepository, error) {
	r := &MaterialRepository{
		store: store,
		now:   func() time.Time { return time.Now() },
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MaterialRepository) load(ctx context.Context) error {
	raw, found, err := r.store.Get(ctx, MaterialsSlot)
	if err != nil {
		return fmt.Errorf("read %s: %w", MaterialsSlot, err)
	}
	if found {
		materials, err := decodeMaterials(raw)
		if err == nil {
			r.materials = materials
			return nil
		}
		r.log.WithError(err).WithField("slot", MaterialsSlot).Warn("stored materials unreadable, resetting to seed data")
	}

	seed := SeedMaterials()
	if err := r.persist(ctx, seed); err != nil {
		return err
	}
	r.materials = seed
	return nil
}

func decodeMaterials(raw []byte) ([]domain.Material, error) {
	var materials []domain.Material
	if err := json.Unmarshal(raw, &materials); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(materials))
	for _, m := range materials {
		if !m.Status.Valid() {
			return nil, fmt.Errorf("material %d has unknown status %q", m.ID, m.Status)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("duplicate material id %d", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	if materials == nil {
		materials = []domain.Material{}
	}
	return materials, nil
}

func (r *MaterialRepository) persist(ctx context.Context, materials []domain.Material) error {
	raw, err := json.Marshal(materials)
	if err != nil {
		return fmt.Errorf("encode materials: %w", err)
	}
	if err := r.store.Set(ctx, MaterialsSlot, raw); err != nil {
		return errors.Join(ErrPersistFailed, err)
	}
	return nil
}

// GetAll returns every record in insertion order.
func (r *MaterialRepository) GetAll() []domain.Material {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Material, len(r.materials))
	for i, m := range r.materials {
		out[i] = m.Clone()
	}
	return out
}

// GetByStatus returns records whose status is any of statuses, in stored order.
func (r *MaterialRepository) GetByStatus(statuses ...domain.Status) []domain.Material {
	want := make(map[domain.Status]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Material{}
	for _, m := range r.materials {
		if _, ok := want[m.Status]; ok {
			out = append(out, m.Clone())
		}
	}
	return out
}

// GetByID returns a copy of the record with id, or false if there is none.
func (r *MaterialRepository) GetByID(id int) (*domain.Material, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		m := r.materials[i].Clone()
		return &m, true
	}
	return nil, false
}

// Create stores a new pending material under the next id.
func (r *MaterialRepository) Create(ctx context.Context, draft domain.MaterialDraft) (*domain.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := domain.Material{
		ID:          r.nextID(),
		Title:       draft.Title,
		Description: draft.Description,
		PreviewURL:  draft.PreviewURL,
		OriginalURL: draft.OriginalURL,
		UploadDate:  draft.UploadDate,
		Uploader:    draft.Uploader,
		Status:      domain.StatusPending,
	}

	next := make([]domain.Material, len(r.materials), len(r.materials)+1)
	copy(next, r.materials)
	next = append(next, m)
	if err := r.persist(ctx, next); err != nil {
		return nil, err
	}
	r.materials = next

	out := m.Clone()
	return &out, nil
}

// UpdateStatus overwrites the status of the record with id. It returns
// (nil, nil) when no such record exists. approver is only applied when
// non-empty, and every move to a non-pending status stamps a fresh
// approval date, replacing any earlier one.
func (r *MaterialRepository) UpdateStatus(ctx context.Context, id int, status domain.Status, approver string) (*domain.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	updated := r.materials[i].Clone()
	if r.strict && !TransitionAllowed(updated.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, updated.Status, status)
	}
	updated.Status = status
	if approver != "" {
		updated.Approver = approver
	}
	if status != domain.StatusPending {
		now := r.now().UTC().Truncate(time.Millisecond)
		updated.ApprovalDate = &now
	}

	next := make([]domain.Material, len(r.materials))
	copy(next, r.materials)
	next[i] = updated
	if err := r.persist(ctx, next); err != nil {
		return nil, err
	}
	r.materials = next

	out := updated.Clone()
	return &out, nil
}

// PendingCount is the number of records awaiting review.
func (r *MaterialRepository) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, m := range r.materials {
		if m.Status == domain.StatusPending {
			n++
		}
	}
	return n
}

func (r *MaterialRepository) indexOf(id int) int {
	for i, m := range r.materials {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (r *MaterialRepository) nextID() int {
	if len(r.materials) == 0 {
		return 1
	}
	highest := r.materials[0].ID
	for _, m := range r.materials[1:] {
		if m.ID > highest {
			highest = m.ID
		}
	}
	return highest + 1
}
