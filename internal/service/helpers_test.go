package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/repo"
	"github.com/pkordes/tagledger/internal/service"
)

// ---- mock TagRepo ----------------------------------------------------------

// mockTagRepo is a test double for repo.TagRepo.
// Set only the method fields your test needs.
type mockTagRepo struct {
	createBatch func(ctx context.Context, b domain.Batch) (domain.Batch, error)
	getByID     func(ctx context.Context, id string) (domain.Tag, error)
	listByRider func(ctx context.Context, riderID string) ([]domain.Tag, error)
	listByBatch func(ctx context.Context, batchID uuid.UUID) ([]domain.Tag, error)
	transition  func(ctx context.Context, req domain.TransitionRequest) (domain.Tag, error)
	markLost    func(ctx context.Context, ids []string, actor, reason string, at time.Time) (domain.SweepResult, error)
}

func (m *mockTagRepo) CreateBatch(ctx context.Context, b domain.Batch) (domain.Batch, error) {
	return m.createBatch(ctx, b)
}
func (m *mockTagRepo) GetByID(ctx context.Context, id string) (domain.Tag, error) {
	return m.getByID(ctx, id)
}
func (m *mockTagRepo) ListByRider(ctx context.Context, riderID string) ([]domain.Tag, error) {
	return m.listByRider(ctx, riderID)
}
func (m *mockTagRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Tag, error) {
	return m.listByBatch(ctx, batchID)
}
func (m *mockTagRepo) Transition(ctx context.Context, req domain.TransitionRequest) (domain.Tag, error) {
	return m.transition(ctx, req)
}
func (m *mockTagRepo) MarkLost(ctx context.Context, ids []string, actor, reason string, at time.Time) (domain.SweepResult, error) {
	return m.markLost(ctx, ids, actor, reason, at)
}

// compile-time check
var _ repo.TagRepo = (*mockTagRepo)(nil)

// ---- fixtures --------------------------------------------------------------

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ledger wires every service over one in-memory store.
type ledger struct {
	store   *repo.MemoryStore
	issuer  *service.BatchIssuer
	machine *service.TagStateMachine
	pickup  *service.PickupValidator
	engine  *service.ReconciliationEngine
	audit   *service.AuditTrail
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	m := repo.NewMemoryStore()
	log := quietLogger()
	return &ledger{
		store:   m,
		issuer:  service.NewBatchIssuer(m.Tags(), m.Batches(), 10000, log),
		machine: service.NewTagStateMachine(m.Tags(), 10000, log),
		pickup:  service.NewPickupValidator(m.Tags(), log),
		engine:  service.NewReconciliationEngine(m.Tags(), log),
		audit:   service.NewAuditTrail(m.Audit()),
	}
}

// issue creates a batch and fails the test on error.
func (l *ledger) issue(t *testing.T, rider string, from, to int) domain.Batch {
	t.Helper()
	b, err := l.issuer.IssueBatch(context.Background(), "supervisor-1", rider, from, to)
	require.NoError(t, err)
	return b
}
