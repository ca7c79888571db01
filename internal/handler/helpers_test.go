package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/handler"
	"github.com/pkordes/tagledger/internal/middleware"
)

// ---- mocks -----------------------------------------------------------------

type mockBatchIssuer struct {
	issueBatch  func(ctx context.Context, actor, riderID string, fromID, toID int) (domain.Batch, error)
	getBatch    func(ctx context.Context, id uuid.UUID) (domain.Batch, []domain.Tag, error)
	listBatches func(ctx context.Context, riderID string) ([]domain.Batch, error)
}

func (m *mockBatchIssuer) IssueBatch(ctx context.Context, actor, riderID string, fromID, toID int) (domain.Batch, error) {
	return m.issueBatch(ctx, actor, riderID, fromID, toID)
}

func (m *mockBatchIssuer) GetBatch(ctx context.Context, id uuid.UUID) (domain.Batch, []domain.Tag, error) {
	return m.getBatch(ctx, id)
}

func (m *mockBatchIssuer) ListBatches(ctx context.Context, riderID string) ([]domain.Batch, error) {
	return m.listBatches(ctx, riderID)
}

type mockTagLifecycle struct {
	getTag      func(ctx context.Context, tagID string) (domain.Tag, error)
	listByRider func(ctx context.Context, riderID string) ([]domain.Tag, error)
	useTag      func(ctx context.Context, actor, tagID string) (domain.Tag, error)
	voidTag     func(ctx context.Context, actor, tagID, reason, photo string) (domain.Tag, error)
	markLost    func(ctx context.Context, actor string, tagIDs []string, reason string) (domain.SweepResult, error)
}

func (m *mockTagLifecycle) GetTag(ctx context.Context, tagID string) (domain.Tag, error) {
	return m.getTag(ctx, tagID)
}

func (m *mockTagLifecycle) ListByRider(ctx context.Context, riderID string) ([]domain.Tag, error) {
	return m.listByRider(ctx, riderID)
}

func (m *mockTagLifecycle) UseTag(ctx context.Context, actor, tagID string) (domain.Tag, error) {
	return m.useTag(ctx, actor, tagID)
}

func (m *mockTagLifecycle) VoidTag(ctx context.Context, actor, tagID, reason, photo string) (domain.Tag, error) {
	return m.voidTag(ctx, actor, tagID, reason, photo)
}

func (m *mockTagLifecycle) MarkLost(ctx context.Context, actor string, tagIDs []string, reason string) (domain.SweepResult, error) {
	return m.markLost(ctx, actor, tagIDs, reason)
}

type mockPickupValidator struct {
	validate func(ctx context.Context, tagID, presentingRider string) (domain.PickupResult, error)
}

func (m *mockPickupValidator) ValidateForPickup(ctx context.Context, tagID, presentingRider string) (domain.PickupResult, error) {
	return m.validate(ctx, tagID, presentingRider)
}

type mockReconciler struct {
	reconcile func(ctx context.Context, riderID string, physicalCount int) (domain.ReconciliationResult, error)
}

func (m *mockReconciler) Reconcile(ctx context.Context, riderID string, physicalCount int) (domain.ReconciliationResult, error) {
	return m.reconcile(ctx, riderID, physicalCount)
}

type mockAuditReader struct {
	list func(ctx context.Context, filter domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error)
}

func (m *mockAuditReader) List(ctx context.Context, filter domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	return m.list(ctx, filter, p)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.BatchIssuer     = (*mockBatchIssuer)(nil)
	_ handler.TagLifecycle    = (*mockTagLifecycle)(nil)
	_ handler.PickupValidator = (*mockPickupValidator)(nil)
	_ handler.Reconciler      = (*mockReconciler)(nil)
	_ handler.AuditReader     = (*mockAuditReader)(nil)
)

// ---- helpers ---------------------------------------------------------------

// deps lists the services a test wires; nil fields are never called.
type deps struct {
	batches    handler.BatchIssuer
	tags       handler.TagLifecycle
	pickup     handler.PickupValidator
	reconciler handler.Reconciler
	audit      handler.AuditReader
}

func newHTTPHandler(d deps) http.Handler {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(d.batches, d.tags, d.pickup, d.reconciler, d.audit, quiet).Routes()
}

// do sends a request through h. body is JSON-encoded unless it is a string,
// which is sent verbatim. actor is sent as X-Actor-ID when non-empty.
func do(t *testing.T, h http.Handler, method, url, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, url, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error
}
