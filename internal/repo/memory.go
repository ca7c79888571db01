package repo

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tagledger/internal/domain"
)

// MemoryStore keeps the ledger in process memory. A single mutex gives each
// operation the same atomicity the Postgres implementation gets from a
// transaction, which is enough for tests and a single-node dev server but not
// for several service instances sharing one ledger.
type MemoryStore struct {
	mu      sync.RWMutex
	tags    map[string]domain.Tag
	batches map[uuid.UUID]domain.Batch
	audit   []domain.AuditEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tags:    make(map[string]domain.Tag),
		batches: make(map[uuid.UUID]domain.Batch),
	}
}

// Tags returns the TagRepo view of the store.
func (m *MemoryStore) Tags() TagRepo { return memTags{m} }

// Batches returns the BatchRepo view of the store.
func (m *MemoryStore) Batches() BatchRepo { return memBatches{m} }

// Audit returns the AuditRepo view of the store.
func (m *MemoryStore) Audit() AuditRepo { return memAudit{m} }

type memTags struct{ m *MemoryStore }

func (r memTags) CreateBatch(_ context.Context, batch domain.Batch) (domain.Batch, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var existing []string
	for _, id := range batch.TagIDs() {
		if _, ok := m.tags[id]; ok {
			existing = append(existing, id)
		}
	}
	if len(existing) > 0 {
		return domain.Batch{}, fmt.Errorf("repo.TagRepo.CreateBatch: %w",
			&domain.DuplicateTagError{FromID: batch.FromID, ToID: batch.ToID, Existing: existing})
	}
	if _, ok := m.batches[batch.ID]; ok {
		return domain.Batch{}, fmt.Errorf("repo.TagRepo.CreateBatch: batch %s already exists", batch.ID)
	}

	m.batches[batch.ID] = batch
	for _, t := range batch.Tags() {
		m.tags[t.ID] = t
	}
	return batch, nil
}

func (r memTags) GetByID(_ context.Context, id string) (domain.Tag, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	t, ok := r.m.tags[id]
	if !ok {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByID: %w", &domain.TagNotFoundError{TagID: id})
	}
	return t, nil
}

func (r memTags) ListByRider(_ context.Context, riderID string) ([]domain.Tag, error) {
	return r.m.filterTags(func(t domain.Tag) bool { return t.IssuedTo == riderID }), nil
}

func (r memTags) ListByBatch(_ context.Context, batchID uuid.UUID) ([]domain.Tag, error) {
	return r.m.filterTags(func(t domain.Tag) bool { return t.BatchID == batchID }), nil
}

func (r memTags) Transition(_ context.Context, req domain.TransitionRequest) (domain.Tag, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tags[req.TagID]
	if !ok {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Transition: %w", &domain.TagNotFoundError{TagID: req.TagID})
	}
	if t.Status != req.From {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Transition: %w",
			&domain.InvalidTransitionError{TagID: req.TagID, From: t.Status, Op: req.Op})
	}

	t.Status = req.To
	t.UpdatedAt = req.At
	if req.To == domain.StatusVoid {
		t.VoidReason = req.Reason
		t.VoidPhoto = req.Photo
	}
	m.tags[t.ID] = t
	m.appendAudit(t.ID, req.From, req.To, req.Actor, req.Reason, req.At)
	return t, nil
}

func (r memTags) MarkLost(_ context.Context, ids []string, actor, reason string, at time.Time) (domain.SweepResult, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	res := domain.SweepResult{Marked: []string{}, Skipped: []string{}, NotFound: []string{}}
	for _, id := range ids {
		t, ok := m.tags[id]
		switch {
		case !ok:
			res.NotFound = append(res.NotFound, id)
		case t.Status != domain.StatusIssued:
			res.Skipped = append(res.Skipped, id)
		default:
			t.Status = domain.StatusLostSuspect
			t.UpdatedAt = at
			m.tags[id] = t
			m.appendAudit(id, domain.StatusIssued, domain.StatusLostSuspect, actor, reason, at)
			res.Marked = append(res.Marked, id)
		}
	}
	return res, nil
}

// appendAudit must be called with mu held for writing.
func (m *MemoryStore) appendAudit(tagID string, from, to domain.Status, actor, reason string, at time.Time) {
	m.audit = append(m.audit, domain.AuditEntry{
		ID:     int64(len(m.audit) + 1),
		TagID:  tagID,
		From:   from,
		To:     to,
		Actor:  actor,
		Reason: reason,
		At:     at,
	})
}

func (m *MemoryStore) filterTags(keep func(domain.Tag) bool) []domain.Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Tag{}
	for _, t := range m.tags {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memBatches struct{ m *MemoryStore }

func (r memBatches) GetByID(_ context.Context, id uuid.UUID) (domain.Batch, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	b, ok := r.m.batches[id]
	if !ok {
		return domain.Batch{}, fmt.Errorf("repo.BatchRepo.GetByID: %w", domain.ErrNotFound)
	}
	return b, nil
}

func (r memBatches) ListByRider(_ context.Context, riderID string) ([]domain.Batch, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []domain.Batch{}
	for _, b := range r.m.batches {
		if b.RiderID == riderID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Batch) int {
		if c := b.IssueDate.Compare(a.IssueDate); c != 0 {
			return c
		}
		return b.FromID - a.FromID
	})
	return out, nil
}

type memAudit struct{ m *MemoryStore }

func (r memAudit) List(_ context.Context, filter domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var matched []domain.AuditEntry
	for i := len(r.m.audit) - 1; i >= 0; i-- {
		e := r.m.audit[i]
		if filter.TagID != "" && e.TagID != filter.TagID {
			continue
		}
		if filter.Actor != "" && e.Actor != filter.Actor {
			continue
		}
		if filter.RiderID != "" && r.m.tags[e.TagID].IssuedTo != filter.RiderID {
			continue
		}
		matched = append(matched, e)
	}

	total := int64(len(matched))
	start := max(0, min(p.Offset(), len(matched)))
	end := max(start, min(start+p.Limit, len(matched)))
	page := make([]domain.AuditEntry, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}
