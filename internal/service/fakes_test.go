package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"affiliate/internal/model"
	"affiliate/internal/repository"

	"github.com/google/uuid"
)

type enrollmentKey struct {
	programID uuid.UUID
	partnerID uuid.UUID
}

// memStore backs every repository fake. memTx snapshots it so a failed unit leaves no trace.
type memStore struct {
	mu             sync.Mutex
	programs       map[uuid.UUID]model.Program
	links          map[uuid.UUID]model.Link
	enrollments    map[enrollmentKey]model.ProgramEnrollment
	applications   map[uuid.UUID]model.ProgramApplication
	payouts        []model.Payout
	rewards        []model.Reward
	partnerRewards map[uuid.UUID]uuid.UUID // rewardID -> partnerID
	jobs           []model.OutboxJob
	audit          []model.AuditLog

	enqueueErr error
	rewardErr  error
	linkWrites int
}

func newMemStore() *memStore {
	return &memStore{
		programs:       map[uuid.UUID]model.Program{},
		links:          map[uuid.UUID]model.Link{},
		enrollments:    map[enrollmentKey]model.ProgramEnrollment{},
		applications:   map[uuid.UUID]model.ProgramApplication{},
		partnerRewards: map[uuid.UUID]uuid.UUID{},
	}
}

type snapshot struct {
	links       map[uuid.UUID]model.Link
	enrollments map[enrollmentKey]model.ProgramEnrollment
	jobs        []model.OutboxJob
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot{
		links:       maps.Clone(m.links),
		enrollments: maps.Clone(m.enrollments),
		jobs:        slices.Clone(m.jobs),
	}
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = s.links
	m.enrollments = s.enrollments
	m.jobs = s.jobs
}

func (m *memStore) jobKinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		kinds = append(kinds, j.Kind)
	}
	return kinds
}

func (m *memStore) link(id uuid.UUID) model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[id]
}

func (m *memStore) enrollment(programID, partnerID uuid.UUID) model.ProgramEnrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrollments[enrollmentKey{programID, partnerID}]
}

// --- transaction ---

type memTx struct{ store *memStore }

func (t memTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	before := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(before)
		return err
	}
	return nil
}

// --- programs ---

type memPrograms struct{ *memStore }

func (m memPrograms) FindInWorkspace(_ context.Context, workspaceID, programID uuid.UUID) (*model.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[programID]
	if !ok || p.WorkspaceID != workspaceID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

// --- links ---

type memLinks struct{ *memStore }

func (m memLinks) Create(_ context.Context, link *model.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Domain == link.Domain && l.Key == link.Key {
			return repository.ErrConflict
		}
	}
	link.ID = uuid.New()
	link.CreatedAt = time.Now()
	m.links[link.ID] = *link
	return nil
}

func (m memLinks) FindInWorkspace(_ context.Context, workspaceID, linkID uuid.UUID) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[linkID]
	if !ok || l.WorkspaceID != workspaceID {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (m memLinks) AssignPartner(_ context.Context, linkID uuid.UUID, a repository.LinkAssignment) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[linkID]
	if !ok || l.PartnerID != nil {
		return nil, repository.ErrConflict
	}
	programID, partnerID := a.ProgramID, a.PartnerID
	l.ProgramID = &programID
	l.PartnerID = &partnerID
	l.FolderID = a.FolderID
	m.links[linkID] = l
	m.linkWrites++
	return &l, nil
}

func (m memLinks) ListByPartner(_ context.Context, programID, partnerID uuid.UUID, limit int) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Link
	for _, l := range m.links {
		if l.ProgramID != nil && *l.ProgramID == programID && l.PartnerID != nil && *l.PartnerID == partnerID {
			out = append(out, l)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memLinks) ListByPartners(ctx context.Context, programID uuid.UUID, partnerIDs []uuid.UUID) ([]model.Link, error) {
	var out []model.Link
	for _, id := range partnerIDs {
		links, _ := m.ListByPartner(ctx, programID, id, 1000)
		out = append(out, links...)
	}
	return out, nil
}

// --- enrollments ---

type memPartners struct{ *memStore }

func (m memPartners) FindEnrollment(_ context.Context, programID, partnerID uuid.UUID) (*model.ProgramEnrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[enrollmentKey{programID, partnerID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m memPartners) ListEnrollments(_ context.Context, programID uuid.UUID, status string, page, limit int) ([]model.ProgramEnrollment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ProgramEnrollment
	for k, e := range m.enrollments {
		if k.programID == programID && (status == "" || e.Status == status) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (m memPartners) UpdateEnrollmentStatus(_ context.Context, programID, partnerID uuid.UUID, status string) (*model.ProgramEnrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := enrollmentKey{programID, partnerID}
	e, ok := m.enrollments[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e.Status = status
	m.enrollments[key] = e
	return &e, nil
}

func (m memPartners) FindApplication(_ context.Context, programID, applicationID uuid.UUID) (*model.ProgramApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[applicationID]
	if !ok || a.ProgramID != programID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

// --- rewards ---

type memRewards struct{ *memStore }

func (m memRewards) FindPartnerReward(_ context.Context, programID, partnerID uuid.UUID, event string) (*model.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rewardErr != nil {
		return nil, m.rewardErr
	}
	for _, r := range m.rewards {
		if r.ProgramID == programID && r.Event == event && m.partnerRewards[r.ID] == partnerID {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memRewards) FindDefaultReward(_ context.Context, programID uuid.UUID, event string) (*model.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rewards {
		if r.ProgramID == programID && r.Event == event && r.Default {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- payouts ---

type memPayouts struct{ *memStore }

func (m memPayouts) ListByPartner(_ context.Context, programID, partnerID uuid.UUID, limit int) ([]model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Payout
	for _, p := range m.payouts {
		if p.ProgramID == programID && p.PartnerID == partnerID {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- outbox ---

type memOutbox struct{ *memStore }

func (m memOutbox) Enqueue(_ context.Context, jobs ...model.OutboxJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.jobs = append(m.jobs, jobs...)
	return nil
}

func (m memOutbox) Lease(context.Context, string, time.Time, time.Duration, int) ([]model.OutboxJob, error) {
	return nil, errors.New("not used")
}

func (m memOutbox) MarkDone(context.Context, string, string, time.Time) error { return nil }

func (m memOutbox) MarkRetry(context.Context, string, string, int, time.Time, string) error {
	return nil
}

func (m memOutbox) MarkDead(context.Context, string, string, int, string) error { return nil }

// --- post-commit hooks ---

type recordingHooks struct {
	mu          sync.Mutex
	invalidated []enrollmentKey
	notified    int
}

func (h *recordingHooks) InvalidatePartners(workspaceID, programID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invalidated = append(h.invalidated, enrollmentKey{workspaceID, programID})
}

func (h *recordingHooks) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notified++
}
