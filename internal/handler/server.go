// Package handler implements the HTTP handlers for the tag ledger API.
// All handlers are methods on Server. Methods are split into resource files
// (batch.go, tag.go, rider.go, audit.go) but share the same Server struct so
// they can reach its dependencies. Routes wires them onto a chi router that
// matches spec/openapi.yaml.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/middleware"
)

// BatchIssuer defines the issuance operations the batch handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the store or service layer.
type BatchIssuer interface {
	IssueBatch(ctx context.Context, actor, riderID string, fromID, toID int) (domain.Batch, error)
	GetBatch(ctx context.Context, id uuid.UUID) (domain.Batch, []domain.Tag, error)
	ListBatches(ctx context.Context, riderID string) ([]domain.Batch, error)
}

// TagLifecycle defines the tag reads and state transitions.
type TagLifecycle interface {
	GetTag(ctx context.Context, tagID string) (domain.Tag, error)
	ListByRider(ctx context.Context, riderID string) ([]domain.Tag, error)
	UseTag(ctx context.Context, actor, tagID string) (domain.Tag, error)
	VoidTag(ctx context.Context, actor, tagID, reason, photo string) (domain.Tag, error)
	MarkLost(ctx context.Context, actor string, tagIDs []string, reason string) (domain.SweepResult, error)
}

// PickupValidator answers whether a presented tag may be attached.
type PickupValidator interface {
	ValidateForPickup(ctx context.Context, tagID, presentingRider string) (domain.PickupResult, error)
}

// Reconciler compares a rider's ledger with a physical count.
type Reconciler interface {
	Reconcile(ctx context.Context, riderID string, physicalCount int) (domain.ReconciliationResult, error)
}

// AuditReader pages through the audit trail.
type AuditReader interface {
	List(ctx context.Context, filter domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error)
}

// Server holds the service dependencies of every endpoint.
// Wire it in main.go via Routes.
type Server struct {
	batches    BatchIssuer
	tags       TagLifecycle
	pickup     PickupValidator
	reconciler Reconciler
	audit      AuditReader
	log        *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// Tests may pass nil for services the exercised endpoints do not touch.
func NewServer(batches BatchIssuer, tags TagLifecycle, pickup PickupValidator, reconciler Reconciler, audit AuditReader, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		batches:    batches,
		tags:       tags,
		pickup:     pickup,
		reconciler: reconciler,
		audit:      audit,
		log:        log,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil, nil)
}

// Routes returns the API router. It installs the actor extractor itself so
// mutating endpoints see X-Actor-ID even when mounted without the full
// middleware chain from main.go.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewActorExtractor())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusNotFound, "not_found", "no route for "+r.Method+" "+r.URL.Path, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed on "+r.URL.Path, nil)
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Post("/batches", s.IssueBatch)
	r.Get("/batches/{batchId}", s.GetBatch)

	r.Get("/riders/{riderId}/batches", s.ListRiderBatches)
	r.Get("/riders/{riderId}/tags", s.ListRiderTags)
	r.Get("/riders/{riderId}/reconciliation", s.ReconcileRider)

	r.Post("/tags/lost", s.MarkLost)
	r.Get("/tags/{tagId}", s.GetTag)
	r.Get("/tags/{tagId}/pickup", s.ValidatePickup)
	r.Post("/tags/{tagId}/use", s.UseTag)
	r.Post("/tags/{tagId}/void", s.VoidTag)

	r.Get("/audit", s.ListAudit)
	return r
}
