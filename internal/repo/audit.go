package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tagledger/internal/domain"
)

// pgAuditRepo is the Postgres implementation of AuditRepo.
// tag_audit has no UPDATE or DELETE path anywhere in this package.
type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

// auditWhere is shared by the page query and the count query. Empty filter
// values disable their predicate.
const auditWhere = `
		WHERE (@tag_id::text = '' OR a.tag_id = @tag_id)
		  AND (@actor::text = '' OR a.actor = @actor)
		  AND (@rider_id::text = '' OR t.issued_to = @rider_id)`

// List returns one page of audit entries, newest first, plus the total count.
func (r *pgAuditRepo) List(ctx context.Context, filter domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	args := pgx.NamedArgs{
		"tag_id":   filter.TagID,
		"actor":    filter.Actor,
		"rider_id": filter.RiderID,
		"limit":    p.Limit,
		"offset":   p.Offset(),
	}

	var total int64
	countQ := `SELECT count(*) FROM tag_audit a JOIN tags t ON t.id = a.tag_id` + auditWhere
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.List: count: %w", err)
	}

	pageQ := `
		SELECT a.id, a.tag_id, a.from_status, a.to_status, a.actor, a.reason, a.at
		FROM tag_audit a JOIN tags t ON t.id = a.tag_id` + auditWhere + `
		ORDER BY a.id DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, pageQ, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.List: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var (
			e        domain.AuditEntry
			from, to string
			reason   pgtype.Text
		)
		if err := rows.Scan(&e.ID, &e.TagID, &from, &to, &e.Actor, &reason, &e.At); err != nil {
			return nil, 0, fmt.Errorf("repo.AuditRepo.List: scan: %w", err)
		}
		e.From = domain.Status(from)
		e.To = domain.Status(to)
		e.Reason = reason.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.List: rows: %w", err)
	}
	return entries, total, nil
}

// insertAudit appends one entry per tag id inside the caller's transaction.
func insertAudit(ctx context.Context, tx pgx.Tx, tagIDs []string, from, to domain.Status, actor, reason string, at time.Time) error {
	const q = `
		INSERT INTO tag_audit (tag_id, from_status, to_status, actor, reason, at)
		SELECT id, @from_status, @to_status, @actor, NULLIF(@reason::text, ''), @at
		FROM unnest(@tag_ids::text[]) AS id`

	_, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"tag_ids":     tagIDs,
		"from_status": string(from),
		"to_status":   string(to),
		"actor":       actor,
		"reason":      reason,
		"at":          at,
	})
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}
