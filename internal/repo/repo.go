// Package repo is the tag ledger's system of record.
// Each resource has its own file with an interface and a Postgres
// implementation; memory.go holds an in-process implementation with the same
// semantics for tests and single-node development.
// No business logic lives here, only storage, atomicity and type mapping.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/tagledger/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test. Begin on a
// pgx.Tx opens a savepoint, so repo methods that need their own atomic unit
// still work inside a test transaction.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// TagRepo defines the persistence operations for tags.
// Every mutating method is a single atomic unit: no reader observes a
// partially created batch or a tag mid-transition.
type TagRepo interface {
	// CreateBatch inserts the batch row and one ISSUED_TO_RIDER tag for every
	// number in [FromID, ToID]. If any id already exists it returns a
	// *domain.DuplicateTagError and creates nothing. Uniqueness is enforced by
	// the store, so concurrent overlapping calls cannot both succeed.
	CreateBatch(ctx context.Context, batch domain.Batch) (domain.Batch, error)

	// GetByID returns *domain.TagNotFoundError when the tag does not exist.
	GetByID(ctx context.Context, id string) (domain.Tag, error)

	// ListByRider returns every tag issued to riderID ordered by id.
	ListByRider(ctx context.Context, riderID string) ([]domain.Tag, error)

	// ListByBatch returns every tag in a batch ordered by id.
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Tag, error)

	// Transition moves one tag from req.From to req.To only if its status is
	// still req.From (compare-and-set), and appends the audit entry in the
	// same unit. A lost race surfaces as *domain.InvalidTransitionError
	// carrying the status the winner left behind.
	Transition(ctx context.Context, req domain.TransitionRequest) (domain.Tag, error)

	// MarkLost moves every listed tag still ISSUED_TO_RIDER to LOST_SUSPECT
	// with one audit entry each. Terminal tags are skipped and unknown ids are
	// reported, neither is an error.
	MarkLost(ctx context.Context, ids []string, actor, reason string, at time.Time) (domain.SweepResult, error)
}

// BatchRepo defines read access to issued batches. Batches are written only
// through TagRepo.CreateBatch together with their tags.
type BatchRepo interface {
	// GetByID returns domain.ErrNotFound when no batch has that id.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Batch, error)

	// ListByRider returns a rider's batches, most recent first.
	ListByRider(ctx context.Context, riderID string) ([]domain.Batch, error)
}

// AuditRepo defines read access to the append-only audit trail.
// Entries are written only by TagRepo in the same unit as the transition.
type AuditRepo interface {
	// List returns one page of entries matching filter, newest first, and the
	// total number of matches.
	List(ctx context.Context, filter domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error)
}
